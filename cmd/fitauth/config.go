package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Options holds all global configuration options
type Options struct {
	// Provider config
	Provider     string `long:"provider" env:"FITAUTH_PROVIDER" default:"underarmour" description:"Provider preset"`
	ProviderFile string `long:"provider-file" env:"FITAUTH_PROVIDER_FILE" description:"YAML file overriding the preset endpoints"`
	ClientID     string `long:"client-id" env:"FITAUTH_CLIENT_ID" description:"OAuth2 client id"`
	ClientSecret string `long:"client-secret" env:"FITAUTH_CLIENT_SECRET" description:"OAuth2 client secret"`
	RedirectURI  string `long:"redirect-uri" env:"FITAUTH_REDIRECT_URI" description:"Registered redirect URI"`
	APIKey       string `long:"api-key" env:"FITAUTH_API_KEY" description:"Value for the provider API key header"`

	Timeout  time.Duration `long:"timeout" env:"FITAUTH_TIMEOUT" default:"10s" description:"Provider request timeout"`
	LogLevel string        `long:"log-level" env:"FITAUTH_LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`

	MetricsTextfile string `long:"metrics-textfile" env:"FITAUTH_METRICS_TEXTFILE" description:"Write Prometheus metrics to this file on exit"`

	// Storage config
	StateMode string `long:"state-mode" env:"FITAUTH_STATE_MODE" default:"filesystem" choice:"filesystem" choice:"redis" choice:"memory" description:"Pending authorization request backend"`
	TokenMode string `long:"token-mode" env:"FITAUTH_TOKEN_MODE" default:"filesystem" choice:"filesystem" choice:"redis" choice:"s3" choice:"memory" description:"Token storage backend"`

	// Filesystem storage
	DataPath string `long:"data-path" env:"FITAUTH_DATA_PATH" default:"./data" description:"Filesystem storage directory"`

	// S3 storage
	S3 struct {
		Endpoint  string `long:"s3-endpoint" env:"FITAUTH_S3_ENDPOINT" default:"localhost:9000" description:"S3 endpoint (host:port)"`
		Bucket    string `long:"s3-bucket" env:"FITAUTH_S3_BUCKET" default:"fitauth" description:"S3 bucket name"`
		AccessKey string `long:"s3-access-key" env:"FITAUTH_S3_ACCESS_KEY" description:"S3 access key"`
		SecretKey string `long:"s3-secret-key" env:"FITAUTH_S3_SECRET_KEY" description:"S3 secret key"`
		UseSSL    bool   `long:"s3-use-ssl" env:"FITAUTH_S3_USE_SSL" description:"Use SSL for S3 connections"`
	} `group:"S3 Storage Options"`

	// Redis config
	Redis struct {
		Addr     string `long:"redis-addr" env:"FITAUTH_REDIS_ADDR" default:"localhost:6379" description:"Redis address"`
		Password string `long:"redis-password" env:"FITAUTH_REDIS_PASSWORD" description:"Redis password"`
		DB       int    `long:"redis-db" env:"FITAUTH_REDIS_DB" default:"0" description:"Redis database number"`
		Prefix   string `long:"redis-prefix" env:"FITAUTH_REDIS_PREFIX" default:"fitauth:" description:"Redis key prefix"`
	} `group:"Redis Options"`
}

// loadDotEnv reads .env into the process environment; a missing file is fine.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// NewParser builds the command line parser with every subcommand registered.
func NewParser(opts *Options, out io.Writer) (*flags.Parser, error) {
	parser := flags.NewParser(opts, flags.Default)
	parser.Usage = "[OPTIONS] <command>"

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"authorize", "Start a login", "Build the authorize URL and remember the pending request", &AuthorizeCommand{opts: opts, out: out}},
		{"exchange", "Finish a login", "Exchange the callback code for a token and store it", &ExchangeCommand{opts: opts, out: out}},
		{"refresh", "Refresh a stored token", "Use the stored refresh token to obtain a new token", &RefreshCommand{opts: opts, out: out}},
		{"revoke", "Revoke a stored token", "Revoke the stored token at the provider and forget it", &RevokeCommand{opts: opts, out: out}},
		{"whoami", "Show the resource owner", "Fetch the resource owner for a stored token", &WhoamiCommand{opts: opts, out: out}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return nil, fmt.Errorf("failed to register %s command: %w", c.name, err)
		}
	}
	return parser, nil
}
