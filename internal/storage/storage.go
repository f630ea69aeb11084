// Package storage keeps binary objects such as rendered voucher QR images on
// the local disk or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ignite/voucher-console/internal/config"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ObjectStore persists objects under slash-separated keys.
type ObjectStore interface {
	// Put writes data under key and returns its URL.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Get reads the object under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// URL returns where key is served from.
	URL(key string) string
}

// New builds the store selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStore(cfg.LocalPath, cfg.PublicURL)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.AWSRegion,
			Profile:   cfg.AWSProfile,
			PublicURL: cfg.PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// LocalStore keeps objects as files below a root directory.
type LocalStore struct {
	root    string
	baseURL string
	mu      sync.RWMutex
}

// NewLocalStore creates root if needed. Without a baseURL, URL returns file://
// paths.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("storage: local path is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &LocalStore{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("writing object: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("writing object: %w", err)
	}
	return s.URL(key), nil
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

func (s *LocalStore) URL(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.root, key))}).String()
}

// path resolves key below root and rejects keys that escape it.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
