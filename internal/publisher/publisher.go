// Package publisher broadcasts the events of successful game operations.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/internal/influx"
	influxpublisher "github.com/gungi-online/gungi/internal/publisher/influx"
	"github.com/gungi-online/gungi/internal/publisher/websocket"
	"github.com/gungi-online/gungi/pkg/core"
	"github.com/rs/zerolog"
)

// Publisher is the interface all event sinks must satisfy.
type Publisher interface {
	Broadcast(ctx context.Context, gameID string, events []core.Event) error
	Close() error
}

// Multi fans a broadcast out to every publisher. All of them are attempted;
// their errors are joined.
type Multi []Publisher

func (m Multi) Broadcast(ctx context.Context, gameID string, events []core.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Broadcast(ctx, gameID, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

// Dependencies holds what the factory needs beyond configuration.
type Dependencies struct {
	Logger      *slog.Logger
	InfluxLog   zerolog.Logger
	ServiceName string
	// BackupDir receives the influx backup file when the server is unreachable.
	BackupDir string
}

// New creates the configured publisher, connected and ready. Influx is added
// on top of the primary type when enabled.
func New(ctx context.Context, cfg config.PublisherConfig, deps Dependencies) (Publisher, error) {
	var primary Publisher
	switch cfg.Type {
	case "log", "":
		primary = NewLogPublisher(deps.Logger)
	case "websocket":
		ws := websocket.New(cfg.Websocket, deps.ServiceName, deps.Logger)
		if err := ws.Init(ctx); err != nil {
			_ = ws.Close()
			return nil, fmt.Errorf("failed to connect event hub: %w", err)
		}
		primary = ws
	case "none":
		primary = Multi{}
	default:
		return nil, fmt.Errorf("unknown publisher type: %s", cfg.Type)
	}

	if !cfg.Influx.Enabled {
		return primary, nil
	}

	mgr := influx.NewManager(cfg.Influx, deps.InfluxLog, filepath.Join(deps.BackupDir, "influx_backup.log.gz"))
	if err := mgr.Connect(ctx); err != nil {
		_ = mgr.Close()
		_ = primary.Close()
		return nil, fmt.Errorf("failed to connect influx: %w", err)
	}
	return Multi{primary, influxpublisher.New(mgr)}, nil
}
