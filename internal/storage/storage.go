// Package storage defines the game repository and selects its backend.
package storage

import (
	"context"

	"github.com/gungi-online/gungi/pkg/core"
)

// Repository is the interface all storage implementations must satisfy.
//
// FindByID returns a fresh aggregate the caller owns; mutating it has no effect
// until it is saved. Save stores the game with every event it has tracked and
// stamps it with MarkSaved. A game whose version no longer matches the stored
// one, or a new game whose id is taken, is rejected with core.ErrVersionConflict. Other failures wrap core.ErrPersistence.
type Repository interface {
	// Lifecycle
	Init() error
	Close() error

	FindByID(ctx context.Context, id string) (*core.Gungi, error)
	Save(ctx context.Context, g *core.Gungi) error
}
