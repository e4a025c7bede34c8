// Package postgres implements storage.Repository using GORM/PostgreSQL.
package postgres

import (
	"fmt"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/internal/database"
	"github.com/gungi-online/gungi/internal/logging"
	gormstorage "github.com/gungi-online/gungi/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend with a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	db  *database.Manager
	cfg config.DBConfig
	log *logging.SlogManager
}

// New creates a new Postgres storage backend. The connection is opened by Init.
func New(cfg config.DBConfig, logManager *logging.SlogManager, dbLog zerolog.Logger) *Backend {
	return &Backend{
		db:  database.NewManager(dbLog),
		cfg: cfg,
		log: logManager,
	}
}

// Init connects to Postgres and runs schema migration.
func (b *Backend) Init() error {
	if err := b.db.ConnectPostgres(b.cfg); err != nil {
		return err
	}
	b.Backend = gormstorage.New(b.db.DB, b.log)
	if err := b.Backend.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.db.Close()
}
