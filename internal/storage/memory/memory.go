// Package memory keeps games as snapshots in a map. Nothing survives a restart
// unless an export directory is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/internal/logging"
	"github.com/gungi-online/gungi/pkg/core"
)

// Backend stores games in memory and optionally exports them to JSON on Close.
type Backend struct {
	cfg   config.MemoryConfig
	log   *logging.SlogManager
	games map[string]core.Snapshot
	mu    sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig, logManager *logging.SlogManager) *Backend {
	return &Backend{
		cfg:   cfg,
		log:   logManager,
		games: make(map[string]core.Snapshot),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports every game when an export directory is configured.
func (b *Backend) Close() error {
	if b.cfg.ExportDir == "" {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportJSON()
}

// FindByID rebuilds the stored game. Each call returns a new aggregate.
func (b *Backend) FindByID(ctx context.Context, id string) (*core.Gungi, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}

	b.mu.RLock()
	s, ok := b.games[id]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrGameNotFound, id)
	}

	g, err := core.FromSnapshot(s)
	if err != nil {
		return nil, fmt.Errorf("%w: stored game %s is corrupt: %v", core.ErrPersistence, id, err)
	}
	g.MarkSaved()
	return g, nil
}

// Save stores the game if nobody saved it since it was loaded.
func (b *Backend) Save(ctx context.Context, g *core.Gungi) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	stored, exists := b.games[g.ID()]
	switch {
	case exists && !g.Persisted():
		return fmt.Errorf("%w: game %s already exists", core.ErrVersionConflict, g.ID())
	case !exists && g.Persisted():
		return fmt.Errorf("%w: game %s is no longer stored", core.ErrVersionConflict, g.ID())
	case exists && stored.Version != g.Version():
		return fmt.Errorf("%w: game %s is at version %d, not %d", core.ErrVersionConflict, g.ID(), stored.Version, g.Version())
	}

	b.games[g.ID()] = g.Snapshot()
	g.MarkSaved()
	return nil
}

// Len returns the number of stored games.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.games)
}

// Count is Len in the shape the status monitor expects.
func (b *Backend) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	return int64(b.Len()), nil
}
