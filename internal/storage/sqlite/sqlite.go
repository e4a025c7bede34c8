// Package sqlitestorage implements storage.Repository using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend via composition; the only SQLite-specific concerns
// are creating the in-memory DB and the periodic disk dump.
package sqlitestorage

import (
	"fmt"
	"sync"
	"time"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/internal/database"
	"github.com/gungi-online/gungi/internal/logging"
	gormstorage "github.com/gungi-online/gungi/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *database.Manager
	cfg      config.SQLiteConfig
	dsn      string
	log      *logging.SlogManager
	stopChan chan struct{}
	done     sync.WaitGroup
}

// New creates a new SQLite storage backend. The database is opened by Init.
func New(cfg config.SQLiteConfig, logManager *logging.SlogManager, dbLog zerolog.Logger) *Backend {
	return &Backend{
		db:       database.NewManager(dbLog),
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
	}
}

// Init opens the in-memory DB, migrates it and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.db.ConnectSqlite(b.dsn); err != nil {
		return fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	b.Backend = gormstorage.New(b.db.DB, b.log)
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.done.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump goroutine, writes a final dump and closes the DB.
func (b *Backend) Close() error {
	close(b.stopChan)
	b.done.Wait()

	if b.Backend != nil && b.cfg.DumpPath != "" {
		if err := b.db.DumpMemoryToDisk(b.cfg.DumpPath); err != nil {
			b.writeLog(fmt.Sprintf("Error on final dump: %v", err), "ERROR")
		}
	}
	return b.db.Close()
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.done.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.db.DumpMemoryToDisk(b.cfg.DumpPath); err != nil {
				b.writeLog(fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			} else {
				b.writeLog(fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
			}
		}
	}
}

func (b *Backend) writeLog(data, level string) {
	if b.log != nil {
		b.log.WriteLog("sqlite:dumpLoop", data, level)
	}
}
