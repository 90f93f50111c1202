package storage

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/andyleap/fitauth/internal/models"
)

type FilesystemStorage struct {
	basePath string
}

func NewFilesystemStorage(basePath string) (*FilesystemStorage, error) {
	for _, dir := range []string{"states", "tokens"} {
		path := filepath.Join(basePath, dir)
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, fmt.Errorf("failed to create %s path: %w", dir, err)
		}
	}

	return &FilesystemStorage{
		basePath: basePath,
	}, nil
}

// fileName keeps caller supplied keys from escaping the storage directory.
func fileName(key string) string {
	return hex.EncodeToString([]byte(key)) + ".json"
}

func (f *FilesystemStorage) statePath(state string) string {
	return filepath.Join(f.basePath, "states", fileName(state))
}

func (f *FilesystemStorage) tokenPath(subject string) string {
	return filepath.Join(f.basePath, "tokens", fileName(subject))
}

// SaveAuthorizationRequest also sweeps state files left by logins that were
// never completed.
func (f *FilesystemStorage) SaveAuthorizationRequest(ctx context.Context, req *models.AuthorizationRequest) error {
	if req.Expired(time.Now()) {
		return fmt.Errorf("authorization request already expired")
	}
	if err := f.sweepStates(time.Now().Add(-models.AuthorizationRequestTTL)); err != nil {
		slog.Warn("Failed to sweep expired authorization requests", "error", err)
	}

	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal authorization request: %w", err)
	}
	return writeFile(f.statePath(req.State), data)
}

// TakeAuthorizationRequest claims the file by renaming it first; only one
// caller can win the rename.
func (f *FilesystemStorage) TakeAuthorizationRequest(ctx context.Context, state string) (*models.AuthorizationRequest, error) {
	path := f.statePath(state)
	claimed := path + ".taken"
	if err := os.Rename(path, claimed); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim authorization request: %w", err)
	}
	defer os.Remove(claimed)

	data, err := os.ReadFile(claimed)
	if err != nil {
		return nil, fmt.Errorf("failed to read authorization request: %w", err)
	}

	var req models.AuthorizationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authorization request: %w", err)
	}
	if req.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return &req, nil
}

// sweepStates removes state files last written before cutoff. Requests never
// outlive AuthorizationRequestTTL, so the modification time is enough.
func (f *FilesystemStorage) sweepStates(cutoff time.Time) error {
	dir := filepath.Join(f.basePath, "states")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}

func (f *FilesystemStorage) SaveToken(ctx context.Context, subject string, tok models.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	return writeFile(f.tokenPath(subject), data)
}

func (f *FilesystemStorage) GetToken(ctx context.Context, subject string) (*models.Token, error) {
	data, err := os.ReadFile(f.tokenPath(subject))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok models.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &tok, nil
}

func (f *FilesystemStorage) DeleteToken(ctx context.Context, subject string) error {
	if err := os.Remove(f.tokenPath(subject)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// writeFile writes through a temp file so readers never see a partial file.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
