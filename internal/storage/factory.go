package storage

import (
	"fmt"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/internal/logging"
	"github.com/gungi-online/gungi/internal/storage/memory"
	"github.com/gungi-online/gungi/internal/storage/postgres"
	sqlitestorage "github.com/gungi-online/gungi/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// NewRepository creates a repository based on configuration. The caller must Init it.
func NewRepository(cfg config.StorageConfig, logManager *logging.SlogManager, dbLog zerolog.Logger) (Repository, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(cfg.DB, logManager, dbLog), nil
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite, logManager, dbLog), nil
	case "memory", "":
		return memory.New(cfg.Memory, logManager), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
