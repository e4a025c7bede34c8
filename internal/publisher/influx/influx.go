// Package influx records game events as InfluxDB points, one per event.
package influx

import (
	"context"
	"time"

	"github.com/gungi-online/gungi/internal/influx"
	"github.com/gungi-online/gungi/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the name every event point is written under.
const Measurement = "gungi_event"

// Publisher writes events through an influx.Manager.
type Publisher struct {
	mgr *influx.Manager
	now func() time.Time
}

// New creates a publisher around a connected manager.
func New(mgr *influx.Manager) *Publisher {
	return &Publisher{mgr: mgr, now: time.Now}
}

// Broadcast writes one point per event. Points of one call share a timestamp
// and are told apart by their index field.
func (p *Publisher) Broadcast(ctx context.Context, gameID string, events []core.Event) error {
	at := p.now()
	for i, e := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.mgr.WritePoint(EventPoint(gameID, i, e, at)); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the manager.
func (p *Publisher) Close() error {
	return p.mgr.Close()
}

// EventPoint converts an event into a point tagged by game, event and player.
func EventPoint(gameID string, index int, e core.Event, at time.Time) *influxdb2_write.Point {
	point := influxdb2_write.NewPointWithMeasurement(Measurement).
		AddTag("game_id", gameID).
		AddTag("event", string(e.Name)).
		AddField("index", index).
		SetTime(at)

	switch d := e.Data.(type) {
	case core.FurigomaResolved:
		omote := 0
		for _, f := range d.Result {
			if f == core.FaceOmote {
				omote++
			}
		}
		point.AddTag("player_id", d.PlayerID).
			AddField("sente", d.Turn.Sente).
			AddField("gote", d.Turn.Gote).
			AddField("omote", omote)
	case core.GomaPlaced:
		point.AddTag("player_id", d.PlayerID).
			AddTag("side", string(d.Goma.Side)).
			AddField("goma", string(d.Goma.Name))
		addCoordinate(point, "to", d.To)
	case core.GomaMoved:
		point.AddTag("player_id", d.PlayerID).
			AddTag("side", string(d.Goma.Side)).
			AddField("goma", string(d.Goma.Name))
		addCoordinate(point, "from", d.From)
		addCoordinate(point, "to", d.To)
		if d.Captured != nil {
			point.AddField("captured", string(d.Captured.Name))
		}
	case core.GameSurrendered:
		point.AddTag("player_id", d.PlayerID).
			AddField("winner", d.WinnerID)
	case core.SuiCaptured:
		point.AddTag("player_id", d.PlayerID).
			AddField("winner", d.WinnerID)
	}
	return point
}

func addCoordinate(point *influxdb2_write.Point, prefix string, c core.Coordinate) {
	point.AddField(prefix+"_x", c.X).
		AddField(prefix+"_y", c.Y).
		AddField(prefix+"_z", c.Z)
}
