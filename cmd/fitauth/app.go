package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/andyleap/fitauth/internal/metrics"
	"github.com/andyleap/fitauth/internal/models"
	"github.com/andyleap/fitauth/internal/oauth"
	"github.com/andyleap/fitauth/internal/provider"
	"github.com/andyleap/fitauth/internal/storage"
	"github.com/andyleap/fitauth/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// App is everything a command needs, built from Options.
type App struct {
	client   *oauth.Client
	states   storage.StateStorage
	tokens   storage.TokenStorage
	logger   *slog.Logger
	registry *prometheus.Registry
	opts     *Options
	closers  []func() error
}

func newApp(ctx context.Context, opts *Options) (*App, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := provider.Preset(opts.Provider, opts.ClientID, opts.ClientSecret)
	if err != nil {
		return nil, err
	}
	if opts.ProviderFile != "" {
		cfg, err = provider.LoadFile(opts.ProviderFile, cfg)
		if err != nil {
			return nil, err
		}
	}
	cfg.APIKey = opts.APIKey

	app := &App{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		opts:     opts,
	}

	recorder := metrics.NewRecorder()
	if err := recorder.Register(app.registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	httpTransport := transport.NewHTTPTransport(&http.Client{Timeout: opts.Timeout})
	app.client, err = oauth.New(cfg, httpTransport, oauth.WithLogger(logger), oauth.WithObserver(recorder))
	if err != nil {
		return nil, fmt.Errorf("invalid provider configuration: %w", err)
	}

	if err := app.setupStorage(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) setupStorage(ctx context.Context) error {
	opts := a.opts

	var redisStorage *storage.RedisStorage
	if opts.StateMode == "redis" || opts.TokenMode == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     opts.Redis.Addr,
			Password: opts.Redis.Password,
			DB:       opts.Redis.DB,
		})
		a.closers = append(a.closers, redisClient.Close)

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		redisStorage = storage.NewRedisStorage(redisClient, opts.Redis.Prefix)
		a.logger.Debug("Using Redis storage", "addr", opts.Redis.Addr)
	}

	var fsStorage *storage.FilesystemStorage
	if opts.StateMode == "filesystem" || opts.TokenMode == "filesystem" {
		var err error
		fsStorage, err = storage.NewFilesystemStorage(opts.DataPath)
		if err != nil {
			return fmt.Errorf("failed to create filesystem storage: %w", err)
		}
		a.logger.Debug("Using filesystem storage", "path", opts.DataPath)
	}

	var memStorage *storage.MemoryStorage
	if opts.StateMode == "memory" || opts.TokenMode == "memory" {
		memStorage = storage.NewMemoryStorage()
		a.logger.Warn("Using in-memory storage (not persistent, lost when the command exits)")
	}

	switch opts.StateMode {
	case "memory":
		a.states = memStorage
	case "redis":
		a.states = redisStorage
	case "filesystem":
		a.states = fsStorage
	default:
		return fmt.Errorf("invalid state mode %q", opts.StateMode)
	}

	switch opts.TokenMode {
	case "memory":
		a.tokens = memStorage
	case "redis":
		a.tokens = redisStorage
	case "filesystem":
		a.tokens = fsStorage
	case "s3":
		s3Storage, err := storage.NewS3Storage(opts.S3.Endpoint, opts.S3.AccessKey, opts.S3.SecretKey, opts.S3.Bucket, opts.S3.UseSSL)
		if err != nil {
			return fmt.Errorf("failed to create S3 storage: %w", err)
		}
		a.tokens = s3Storage
		a.logger.Debug("Using S3 token storage", "endpoint", opts.S3.Endpoint, "bucket", opts.S3.Bucket)
	default:
		return fmt.Errorf("invalid token mode %q", opts.TokenMode)
	}
	return nil
}

// Close releases backend connections and flushes metrics.
func (a *App) Close() error {
	var errs []error
	if a.opts.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(a.opts.MetricsTextfile, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withApp builds the App for one command run and tears it down afterwards.
func withApp(opts *Options, fn func(ctx context.Context, a *App) error) (err error) {
	ctx := context.Background()
	app, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, app)
}

func (a *App) loadToken(ctx context.Context, subject string) (*models.Token, error) {
	tok, err := a.tokens.GetToken(ctx, subject)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("no token stored for %q; run exchange first", subject)
	}
	return tok, err
}

// refreshAndSave refreshes tok and stores the result under subject.
func (a *App) refreshAndSave(ctx context.Context, subject string, tok models.Token) (models.Token, error) {
	next, err := a.client.Refresh(ctx, tok)
	if err != nil {
		return models.Token{}, err
	}
	if err := a.tokens.SaveToken(ctx, subject, next); err != nil {
		return models.Token{}, fmt.Errorf("failed to save token: %w", err)
	}
	return next, nil
}
