package influx

import (
	"context"
	"testing"
	"time"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/internal/influx"
	"github.com/gungi-online/gungi/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func tagsOf(p *influxdb2_write.Point) map[string]string {
	tags := make(map[string]string)
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	return tags
}

func fieldsOf(p *influxdb2_write.Point) map[string]any {
	fields := make(map[string]any)
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	return fields
}

func TestEventPoint(t *testing.T) {
	at := time.Unix(0, 7)
	captured := core.GomaRef{Name: core.Hei, Side: core.SideBlack}

	tests := []struct {
		name   string
		event  core.Event
		tags   map[string]string
		fields map[string]any
	}{
		{
			"furigoma",
			core.NewEvent(core.FurigomaResolved{
				PlayerID: "alice",
				Result:   []core.Face{core.FaceOmote, core.FaceUra, core.FaceOmote, core.FaceOmote, core.FaceUra},
				Turn:     core.TurnAssignment{Sente: "alice", Gote: "bob"},
			}),
			map[string]string{"game_id": "game-1", "event": "FurigomaResolved", "player_id": "alice"},
			map[string]any{"index": int64(0), "sente": "alice", "gote": "bob", "omote": int64(3)},
		},
		{
			"placed",
			core.NewEvent(core.GomaPlaced{PlayerID: "alice", Goma: core.GomaRef{Name: core.Hei, Side: core.SideWhite}, To: core.NewCoordinate(4, 1, 0)}),
			map[string]string{"game_id": "game-1", "event": "GomaPlaced", "player_id": "alice", "side": "WHITE"},
			map[string]any{"index": int64(0), "goma": "HEI", "to_x": int64(4), "to_y": int64(1), "to_z": int64(0)},
		},
		{
			"moved with capture",
			core.NewEvent(core.GomaMoved{
				PlayerID: "alice",
				Goma:     core.GomaRef{Name: core.Yari, Side: core.SideWhite},
				From:     core.NewCoordinate(4, 4, 0),
				To:       core.NewCoordinate(4, 5, 0),
				Captured: &captured,
			}),
			map[string]string{"game_id": "game-1", "event": "GomaMoved", "player_id": "alice", "side": "WHITE"},
			map[string]any{
				"index": int64(0), "goma": "YARI", "captured": "HEI",
				"from_x": int64(4), "from_y": int64(4), "from_z": int64(0),
				"to_x": int64(4), "to_y": int64(5), "to_z": int64(0),
			},
		},
		{
			"surrendered",
			core.NewEvent(core.GameSurrendered{PlayerID: "bob", WinnerID: "alice"}),
			map[string]string{"game_id": "game-1", "event": "GameSurrendered", "player_id": "bob"},
			map[string]any{"index": int64(0), "winner": "alice"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := EventPoint("game-1", 0, tt.event, at)
			assert.Equal(t, Measurement, p.Name())
			assert.Equal(t, at, p.Time())
			assert.Equal(t, tt.tags, tagsOf(p))
			assert.Equal(t, tt.fields, fieldsOf(p))
		})
	}
}

func TestBroadcast_WithoutConnection(t *testing.T) {
	p := New(influx.NewManager(config.InfluxConfig{}, zerolog.Nop(), ""))
	err := p.Broadcast(context.Background(), "game-1", []core.Event{
		core.NewEvent(core.GameSurrendered{PlayerID: "bob", WinnerID: "alice"}),
	})
	assert.Error(t, err)
	assert.NoError(t, p.Close())
}
