package storage_test

import (
	"testing"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/internal/storage"
	"github.com/gungi-online/gungi/internal/storage/memory"
	"github.com/gungi-online/gungi/internal/storage/postgres"
	sqlitestorage "github.com/gungi-online/gungi/internal/storage/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Repository = (*memory.Backend)(nil)
	_ storage.Repository = (*sqlitestorage.Backend)(nil)
	_ storage.Repository = (*postgres.Backend)(nil)
)

func TestNewRepository(t *testing.T) {
	tests := []struct {
		typ  string
		want any
	}{
		{"memory", &memory.Backend{}},
		{"", &memory.Backend{}},
		{"sqlite", &sqlitestorage.Backend{}},
		{"postgres", &postgres.Backend{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			repo, err := storage.NewRepository(config.StorageConfig{Type: tt.typ}, nil, zerolog.Nop())
			require.NoError(t, err)
			assert.IsType(t, tt.want, repo)
		})
	}
}

func TestNewRepository_Unknown(t *testing.T) {
	_, err := storage.NewRepository(config.StorageConfig{Type: "mongo"}, nil, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown storage type")
}
