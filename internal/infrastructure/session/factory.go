package session

import (
	"fmt"

	"github.com/stockmgmt/dashboard/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Store types accepted by session.store
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Factory builds the configured session store
type Factory struct {
	cfg                   config.SessionConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to an
// in-memory store. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.SessionConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:                   cfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore builds the store named by session.store
func (f *Factory) CreateStore() (Store, error) {
	switch f.cfg.Store {
	case StoreMemory:
		f.logger.Info("using in-memory session store; sessions will not survive a restart")
		return NewMemoryStore(), nil

	case StoreRedis:
		store, err := NewRedisStore(f.redisConfig, f.cfg.KeyPrefix, f.cfg.TTL)
		if err == nil {
			f.logger.Info("using Redis session store", zap.String("addr", f.redisConfig.Addr()))
			return store, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for sessions but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory session store", zap.Error(err))
		return NewMemoryStore(), nil

	case StoreFile, "":
		store, err := NewFileStore(f.cfg.FilePath)
		if err != nil {
			return nil, err
		}
		f.logger.Info("using file session store", zap.String("path", store.Path()))
		return store, nil
	}
	return nil, fmt.Errorf("session: unknown store type %q", f.cfg.Store)
}
