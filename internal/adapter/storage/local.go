package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pgporter/pgporter/internal/domain"
)

// LocalStore implements the object-store contract over a directory tree.
// Useful for air-gapped runs and as a drop-in store in tests; keys map
// to relative paths under basePath.
type LocalStore struct {
	basePath string
}

func NewLocal(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (l *LocalStore) Upload(ctx context.Context, localPath, key string, opts domain.UploadOptions) error {
	destPath := filepath.Join(l.basePath, filepath.FromSlash(key))

	if !opts.Replace {
		if _, err := os.Stat(destPath); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrKeyExists, key)
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	source, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer source.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, source); err != nil {
		return fmt.Errorf("failed to copy: %w", err)
	}

	return nil
}

func (l *LocalStore) Download(ctx context.Context, key string) (string, error) {
	source, err := os.Open(filepath.Join(l.basePath, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("failed to open key %s: %w", key, err)
	}
	defer source.Close()

	tmp, err := os.CreateTemp("", "pgporter_download_*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, source); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to copy key %s: %w", key, err)
	}

	return tmp.Name(), nil
}

func (l *LocalStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk storage directory: %w", err)
	}
	return keys, nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(filepath.Join(l.basePath, filepath.FromSlash(key))); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (l *LocalStore) OldKeys(ctx context.Context, prefix string, cutoff time.Time) ([]string, error) {
	keys, err := l.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var old []string
	for _, key := range keys {
		info, err := os.Stat(filepath.Join(l.basePath, filepath.FromSlash(key)))
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			old = append(old, key)
		}
	}
	return old, nil
}
