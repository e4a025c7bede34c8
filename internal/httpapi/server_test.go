package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/internal/dispatcher"
	"github.com/gungi-online/gungi/internal/game"
	"github.com/gungi-online/gungi/internal/logging"
	"github.com/gungi-online/gungi/internal/publisher"
	"github.com/gungi-online/gungi/internal/storage/memory"
	"github.com/gungi-online/gungi/internal/testutil"
	"github.com/gungi-online/gungi/internal/worker"
	"github.com/gungi-online/gungi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.Default()

	d, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	require.NoError(t, err)

	n := 0
	svc, err := game.NewService(game.Dependencies{
		Repository:  memory.New(config.MemoryConfig{}, nil),
		Broadcaster: worker.NewBroadcaster(d),
		Logger:      logger,
		RNG:         testutil.Throws(0, 0, 0, 0, 0, 0, 0, 0, 0, 0),
		NewID: func() string {
			n++
			return fmt.Sprintf("g%d", n)
		},
	})
	require.NoError(t, err)
	worker.NewManager(worker.Dependencies{
		Service:   svc,
		Publisher: publisher.NewLogPublisher(logger),
		Logger:    logger,
	}).RegisterHandlers(d)

	srv := httptest.NewServer(NewServer(d, logger).Handler())
	t.Cleanup(func() {
		srv.Close()
		d.Close()
	})
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

const createBody = `{"players":[{"id":"A","nickname":"金城武"},{"id":"B","nickname":"重智"}]}`

func createGame(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	status, out := do(t, srv, http.MethodPost, "/gungi/create", createBody)
	require.Equal(t, http.StatusOK, status)
	url, ok := out["url"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(url, "/gungi/"))
	return strings.TrimPrefix(url, "/gungi/")
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreate(t *testing.T) {
	srv := newTestServer(t)
	status, out := do(t, srv, http.MethodPost, "/gungi/create", createBody)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/gungi/g1", out["url"])
	assert.Equal(t, "g1", out["gameId"])

	status, out = do(t, srv, http.MethodGet, "/gungi/g1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "g1", out["_id"])
	assert.Equal(t, "BEGINNER", out["level"])
	assert.Equal(t, "AWAITING_FURIGOMA", out["phase"])
}

func TestCreate_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"players":`},
		{"no players", `{}`},
		{"one player", `{"players":[{"id":"A","nickname":"A"}]}`},
		{"same player twice", `{"players":[{"id":"A","nickname":"A"},{"id":"A","nickname":"A"}]}`},
		{"blank nickname", `{"players":[{"id":"A","nickname":""},{"id":"B","nickname":"B"}]}`},
		{"unknown level", `{"players":[{"id":"A","nickname":"A"},{"id":"B","nickname":"B"}],"level":"EXPERT"}`},
	}
	srv := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := do(t, srv, http.MethodPost, "/gungi/create", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestFurigoma(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv)

	status, out := do(t, srv, http.MethodPost, "/gungi/"+id+"/furigoma", `{"playerId":"A"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "FurigomaResolved", out["name"])

	data := out["data"].(map[string]any)
	assert.Equal(t, map[string]any{"sente": "A", "gote": "B"}, data["turn"])
	assert.Len(t, data["result"], 5)

	status, _ = do(t, srv, http.MethodPost, "/gungi/"+id+"/furigoma", `{"playerId":"B"}`)
	assert.Equal(t, http.StatusConflict, status)
}

func TestArataAndUgoki(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv)
	status, _ := do(t, srv, http.MethodPost, "/gungi/"+id+"/furigoma", `{"playerId":"A"}`)
	require.Equal(t, http.StatusOK, status)

	status, out := do(t, srv, http.MethodPost, "/gungi/"+id+"/arata",
		`{"playerId":"A","goma":{"name":"HEI","side":"WHITE"},"to":{"x":4,"y":2,"z":0}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"name": "HEI", "side": "WHITE"}, out["goma"])
	assert.Equal(t, map[string]any{"x": float64(4), "y": float64(2), "z": float64(0)}, out["to"])

	status, _ = do(t, srv, http.MethodPost, "/gungi/"+id+"/arata",
		`{"playerId":"B","goma":{"name":"HEI","side":"BLACK"},"to":{"x":4,"y":6,"z":0}}`)
	require.Equal(t, http.StatusOK, status)

	status, out = do(t, srv, http.MethodGet, "/gungi/"+id+"/legal?playerId=A", "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, out["moves"])

	status, out = do(t, srv, http.MethodPost, "/gungi/"+id+"/ugoki",
		`{"playerId":"A","from":{"x":4,"y":2,"z":0},"to":{"x":4,"y":3,"z":0}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"x": float64(4), "y": float64(3), "z": float64(0)}, out["to"])
	assert.NotContains(t, out, "captured")
	assert.NotContains(t, out, "winner")
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv)

	status, _ := do(t, srv, http.MethodPost, "/gungi/"+id+"/arata",
		`{"playerId":"A","goma":{"name":"HEI","side":"WHITE"},"to":{"x":4,"y":2,"z":0}}`)
	assert.Equal(t, http.StatusConflict, status, "furigoma pending")

	status, _ = do(t, srv, http.MethodPost, "/gungi/"+id+"/furigoma", `{"playerId":"A"}`)
	require.Equal(t, http.StatusOK, status)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown game", http.MethodPost, "/gungi/nope/surrender", `{"playerId":"A"}`, http.StatusNotFound},
		{"unknown game state", http.MethodGet, "/gungi/nope", "", http.StatusNotFound},
		{"unknown player", http.MethodPost, "/gungi/" + id + "/surrender", `{"playerId":"C"}`, http.StatusNotFound},
		{"missing player id", http.MethodPost, "/gungi/" + id + "/surrender", `{}`, http.StatusBadRequest},
		{"legal without player", http.MethodGet, "/gungi/" + id + "/legal", "", http.StatusBadRequest},
		{"not your turn", http.MethodPost, "/gungi/" + id + "/arata",
			`{"playerId":"B","goma":{"name":"HEI","side":"BLACK"},"to":{"x":4,"y":6,"z":0}}`, http.StatusConflict},
		{"outside territory", http.MethodPost, "/gungi/" + id + "/arata",
			`{"playerId":"A","goma":{"name":"HEI","side":"WHITE"},"to":{"x":4,"y":5,"z":0}}`, http.StatusUnprocessableEntity},
		{"coordinate out of bounds", http.MethodPost, "/gungi/" + id + "/arata",
			`{"playerId":"A","goma":{"name":"HEI","side":"WHITE"},"to":{"x":4,"y":9,"z":0}}`, http.StatusBadRequest},
		{"move from empty cell", http.MethodPost, "/gungi/" + id + "/ugoki",
			`{"playerId":"A","from":{"x":0,"y":0,"z":0},"to":{"x":0,"y":1,"z":0}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestSurrender(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv)

	status, out := do(t, srv, http.MethodPost, "/gungi/"+id+"/surrender", `{"playerId":"A"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"winner": "B"}, out)

	status, out = do(t, srv, http.MethodGet, "/gungi/"+id, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "FINISHED", out["phase"])
	assert.Equal(t, "B", out["winner"])

	status, _ = do(t, srv, http.MethodPost, "/gungi/"+id+"/surrender", `{"playerId":"B"}`)
	assert.Equal(t, http.StatusConflict, status)
}

// failingDispatcher returns the same error for every command.
type failingDispatcher struct{ err error }

func (f failingDispatcher) Dispatch(context.Context, dispatcher.Event) (any, error) {
	return nil, f.err
}

func TestInternalErrorsAreHidden(t *testing.T) {
	srv := httptest.NewServer(NewServer(failingDispatcher{errors.New("db password is hunter2")}, nil).Handler())
	defer srv.Close()

	status, out := do(t, srv, http.MethodGet, "/gungi/g1", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", out["error"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrUnknownGoma, http.StatusBadRequest},
		{fmt.Errorf("failed to create game: %w", core.ErrValidation), http.StatusBadRequest},
		{core.ErrGameNotFound, http.StatusNotFound},
		{core.ErrNotYourTurn, http.StatusConflict},
		{core.ErrGomaNotInStock, http.StatusUnprocessableEntity},
		{core.ErrVersionConflict, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
