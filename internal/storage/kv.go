// Package storage persists the session and contacts records in a local
// key-value store.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/lcrostarosa/nirbhaya/internal/config"
	"github.com/lcrostarosa/nirbhaya/internal/crypto"
	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
)

// Record keys
const (
	UserKey     = "nirbhaya_user"
	ContactsKey = "nirbhaya_contacts"
)

// KV is a minimal byte-oriented key-value store. Get returns
// errors.ErrKeyNotFound for absent keys; Delete of an absent key succeeds.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Open builds the backend selected in cfg, wrapped with encryption when a
// passphrase is configured. The returned close func releases connections.
func Open(cfg *config.Config) (KV, func() error, error) {
	var (
		kv      KV
		closeFn = func() error { return nil }
	)

	switch cfg.Storage.Backend {
	case config.BackendFile, "":
		fkv, err := NewFileKV(cfg.DataDir())
		if err != nil {
			return nil, nil, err
		}
		kv = fkv
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		kv = NewRedisKV(client, "")
		closeFn = client.Close
	case config.BackendMemory:
		kv = NewMemoryKV()
	default:
		return nil, nil, fmt.Errorf("%w: unknown storage backend %q", apperrors.ErrInvalidConfig, cfg.Storage.Backend)
	}

	if cfg.Storage.Passphrase != "" {
		sealer, err := crypto.NewSealer(cfg.Storage.Passphrase, crypto.Params{})
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		kv = NewSealedKV(kv, sealer)
	}

	return kv, closeFn, nil
}

// MemoryKV keeps records in process memory
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, apperrors.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// SealedKV encrypts values before handing them to the wrapped store
type SealedKV struct {
	inner  KV
	sealer *crypto.Sealer
}

// NewSealedKV wraps inner with sealer
func NewSealedKV(inner KV, sealer *crypto.Sealer) *SealedKV {
	return &SealedKV{inner: inner, sealer: sealer}
}

func (s *SealedKV) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return plain, nil
}

func (s *SealedKV) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *SealedKV) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
