package storage

import (
	"fmt"
	"path/filepath"

	"github.com/hyperjump/yomu/internal/config"
)

// Backend names accepted in storage.backend.
const (
	BackendDisk   = "disk"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Open returns the store for namespace on the configured backend.
func Open(cfg config.StorageConfig, namespace string) (Store, error) {
	switch cfg.Backend {
	case BackendDisk, "":
		return NewDiskStore(cfg.CacheDir, namespace)
	case BackendSQLite:
		return NewSQLiteStore(cfg.DatabasePath, namespace)
	case BackendRedis:
		return NewRedisStore(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, namespace)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// UsagePaths returns the filesystem paths holding cache data for the
// configured backend. Redis keeps nothing locally.
func UsagePaths(cfg config.StorageConfig) []string {
	switch cfg.Backend {
	case BackendSQLite:
		return []string{cfg.DatabasePath, cfg.DatabasePath + "-wal", cfg.DatabasePath + "-shm"}
	case BackendRedis:
		return nil
	default:
		return []string{
			filepath.Join(cfg.CacheDir, NamespaceIndices),
			filepath.Join(cfg.CacheDir, NamespaceSummaries),
		}
	}
}
