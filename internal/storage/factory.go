package storage

import (
	"context"
	"path/filepath"

	"github.com/attribution-dashboard/brand-mentions/internal/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Open builds the backend selected by CACHE_BACKEND
func Open(ctx context.Context, cfg *config.Config) (StorageInterface, error) {
	switch cfg.CacheBackend {
	case "memory":
		logrus.Info("Using in-memory cache storage")
		return NewMemoryStorage(), nil
	case "azure":
		logrus.Infof("Using Azure Blob cache storage %s/%s", cfg.StorageAccount, cfg.StorageContainer)
		s, err := NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		logrus.Infof("Using Redis cache storage at %s", cfg.RedisAddr)
		s, err := NewRedisStorage(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "file", "":
		dir, err := filepath.Abs(cfg.CacheDir)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid cache directory %s", cfg.CacheDir)
		}
		logrus.Infof("Using local cache storage in %s", dir)
		s, err := NewLocalStorage(dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
