package storage

import (
	"path/filepath"
	"testing"

	"github.com/hyperjump/yomu/internal/config"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr bool
	}{
		{"disk", config.StorageConfig{Backend: "disk", CacheDir: dir}, false},
		{"default is disk", config.StorageConfig{CacheDir: dir}, false},
		{"sqlite", config.StorageConfig{Backend: "sqlite", DatabasePath: filepath.Join(dir, "c.db")}, false},
		{"unknown", config.StorageConfig{Backend: "etcd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.cfg, NamespaceSummaries)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				if s.Namespace() != NamespaceSummaries {
					t.Errorf("Namespace() = %s", s.Namespace())
				}
				_ = s.Close()
			}
		})
	}
}

func TestUsagePaths(t *testing.T) {
	disk := UsagePaths(config.StorageConfig{Backend: "disk", CacheDir: "/c"})
	if len(disk) != 2 || disk[0] != filepath.Join("/c", NamespaceIndices) {
		t.Errorf("disk paths = %v", disk)
	}
	if p := UsagePaths(config.StorageConfig{Backend: "redis"}); p != nil {
		t.Errorf("redis paths = %v", p)
	}
	if p := UsagePaths(config.StorageConfig{Backend: "sqlite", DatabasePath: "/d.db"}); p[0] != "/d.db" {
		t.Errorf("sqlite paths = %v", p)
	}
}
