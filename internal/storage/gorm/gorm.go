// Package gormstorage implements storage.Repository on top of GORM. The SQLite
// and Postgres backends embed it and only differ in how they open the database.
package gormstorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gungi-online/gungi/internal/logging"
	"github.com/gungi-online/gungi/internal/model"
	"github.com/gungi-online/gungi/internal/model/convert"
	"github.com/gungi-online/gungi/pkg/core"

	"gorm.io/gorm"
)

// Backend implements storage.Repository with one games row per game and one
// game_events row per history entry.
type Backend struct {
	db  *gorm.DB
	log *logging.SlogManager
}

// New creates a new GORM storage backend around an opened database.
func New(db *gorm.DB, logManager *logging.SlogManager) *Backend {
	return &Backend{db: db, log: logManager}
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.db == nil {
		return fmt.Errorf("%w: no database", core.ErrPersistence)
	}
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.writeLog("Init", "Schema migrated", "INFO")
	return nil
}

// Close is a no-op; the owner of the connection closes it.
func (b *Backend) Close() error {
	return nil
}

// FindByID loads the game row and its ordered history.
func (b *Backend) FindByID(ctx context.Context, id string) (*core.Gungi, error) {
	db := b.db.WithContext(ctx)

	var game model.Game
	err := db.Where("id = ?", id).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", core.ErrGameNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load game %s: %v", core.ErrPersistence, id, err)
	}

	var events []model.GameEvent
	if err := db.Where("game_id = ?", id).Order("seq").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to load history of %s: %v", core.ErrPersistence, id, err)
	}

	s, err := convert.GameToSnapshot(game, events)
	if err != nil {
		return nil, fmt.Errorf("%w: stored game %s is corrupt: %v", core.ErrPersistence, id, err)
	}
	g, err := core.FromSnapshot(s)
	if err != nil {
		return nil, fmt.Errorf("%w: stored game %s is corrupt: %v", core.ErrPersistence, id, err)
	}
	g.MarkSaved()
	return g, nil
}

// Count returns the number of stored games.
func (b *Backend) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := b.db.WithContext(ctx).Model(&model.Game{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: failed to count games: %v", core.ErrPersistence, err)
	}
	return n, nil
}

// Save writes the game row under its new version and appends the events
// tracked since it was loaded, in one transaction. The version guard is part of
// the UPDATE so concurrent writers cannot both succeed.
func (b *Backend) Save(ctx context.Context, g *core.Gungi) error {
	s := g.Snapshot()
	expected := g.Version()

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		game, events, err := convert.SnapshotToGame(s, expected)
		if err != nil {
			return err
		}

		if !g.Persisted() {
			if err := tx.Create(&game).Error; err != nil {
				return fmt.Errorf("%w: game %s already exists: %v", core.ErrVersionConflict, s.ID, err)
			}
		} else {
			res := tx.Model(&model.Game{}).
				Where("id = ? AND version = ?", s.ID, expected).
				Select("level", "phase", "current_turn", "sente", "gote", "winner", "version", "han", "players").
				Updates(&game)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: game %s is no longer at version %d", core.ErrVersionConflict, s.ID, expected)
			}
		}

		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return fmt.Errorf("failed to append events: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: failed to save game %s: %v", core.ErrPersistence, s.ID, err)
	}

	g.MarkSaved()
	b.writeLog("Save", fmt.Sprintf("Saved game %s at version %d", s.ID, s.Version), "DEBUG")
	return nil
}

func (b *Backend) writeLog(functionName, data, level string) {
	if b.log == nil {
		return
	}
	b.log.WriteLog("gorm:"+functionName, data, level)
}
