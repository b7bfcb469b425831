// Package storage persists small JSON values (the session token and user
// profile) under string keys. Read and write failures never reach callers:
// they are logged and reads fall back to the caller's default.
package storage

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"healthstore/logging"
)

// Backend is a raw string key/value store.
type Backend interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

const defaultOpTimeout = 5 * time.Second

// Storage JSON-encodes values over a Backend.
type Storage struct {
	backend Backend
	logger  *zap.Logger
	timeout time.Duration
}

// New wraps b. A nil logger discards the error log.
func New(b Backend, logger *zap.Logger) *Storage {
	return &Storage{backend: b, logger: logging.OrNop(logger), timeout: defaultOpTimeout}
}

// Backend returns the wrapped backend.
func (s *Storage) Backend() Backend { return s.backend }

func (s *Storage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *Storage) raw(key string) (string, bool) {
	ctx, cancel := s.ctx()
	defer cancel()

	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn("error reading from storage", zap.String("key", key), zap.Error(err))
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Get decodes the value under key into dst. It reports false, leaving dst
// untouched, when the key is absent or does not hold valid JSON.
func (s *Storage) Get(key string, dst any) bool {
	v, ok := s.raw(key)
	if !ok {
		return false
	}
	if !json.Valid([]byte(v)) {
		s.logger.Warn("malformed JSON in storage", zap.String("key", key))
		return false
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		s.logger.Warn("error decoding storage value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// GetOr returns the value under key, or def when it is absent or malformed.
func GetOr[T any](s *Storage, key string, def T) T {
	v, ok := s.raw(key)
	if !ok {
		return def
	}
	var out T
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		s.logger.Warn("error decoding storage value", zap.String("key", key), zap.Error(err))
		return def
	}
	return out
}

// Set stores value as JSON. A value encoding to null removes the key.
func (s *Storage) Set(key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("error encoding storage value", zap.String("key", key), zap.Error(err))
		return
	}
	if string(b) == "null" {
		s.Remove(key)
		return
	}

	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.backend.Set(ctx, key, string(b)); err != nil {
		s.logger.Warn("error writing to storage", zap.String("key", key), zap.Error(err))
	}
}

func (s *Storage) Remove(key string) {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.backend.Remove(ctx, key); err != nil {
		s.logger.Warn("error removing from storage", zap.String("key", key), zap.Error(err))
	}
}

func (s *Storage) Clear() {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.backend.Clear(ctx); err != nil {
		s.logger.Warn("error clearing storage", zap.Error(err))
	}
}

func (s *Storage) Close() error { return s.backend.Close() }

// String returns a reader for a string value, e.g. the bearer token.
func (s *Storage) String(key string) StringKey {
	return StringKey{s: s, key: key}
}

// StringKey reads one string value from a Storage.
type StringKey struct {
	s   *Storage
	key string
}

// Token returns the stored string, or "" when absent.
func (k StringKey) Token() string { return GetOr(k.s, k.key, "") }
