// Package httpapi exposes the game commands over JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gungi-online/gungi/internal/dispatcher"
	"github.com/gungi-online/gungi/internal/game"
	"github.com/gungi-online/gungi/internal/logging"
	"github.com/gungi-online/gungi/internal/worker"
	"github.com/gungi-online/gungi/pkg/core"
)

const maxJSONBodyBytes int64 = 1 << 20

// Dispatcher routes commands to the worker handlers.
type Dispatcher interface {
	Dispatch(ctx context.Context, e dispatcher.Event) (any, error)
}

// Server maps routes to dispatcher commands.
type Server struct {
	d      Dispatcher
	logger *slog.Logger

	srvMu sync.Mutex
	srv   *http.Server
}

// NewServer builds a Server on top of d.
func NewServer(d Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{d: d, logger: logger}
}

// Listen serves until Close is called.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()

	s.logger.Info("HTTP listening", "addr", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts the server down.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /gungi/create", s.withJSON(s.handleCreate))
	mux.HandleFunc("POST /gungi/{id}/furigoma", s.withJSON(s.handleFurigoma))
	mux.HandleFunc("POST /gungi/{id}/arata", s.withJSON(s.handleArata))
	mux.HandleFunc("POST /gungi/{id}/ugoki", s.withJSON(s.handleUgoki))
	mux.HandleFunc("POST /gungi/{id}/surrender", s.withJSON(s.handleSurrender))
	mux.HandleFunc("GET /gungi/{id}", s.withJSON(s.handleState))
	mux.HandleFunc("GET /gungi/{id}/legal", s.withJSON(s.handleLegal))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

// dispatch runs command with the game id from the path followed by extra args.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, command string, args ...string) (any, bool) {
	ctx := r.Context()
	if id := r.PathValue("id"); id != "" {
		ctx = logging.WithGameID(ctx, id)
	}
	result, err := s.d.Dispatch(ctx, dispatcher.Event{Command: command, Args: args})
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return result, true
}

// body reads the request body for a command that carries one.
func (s *Server) body(w http.ResponseWriter, r *http.Request) (string, bool) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "failed to read request body")
		}
		return "", false
	}
	return string(b), true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.body(w, r)
	if !ok {
		return
	}
	result, ok := s.dispatch(w, r, worker.CommandCreate, body)
	if !ok {
		return
	}
	writeJSON(w, result.(game.Created))
}

func (s *Server) handleFurigoma(w http.ResponseWriter, r *http.Request) {
	body, ok := s.body(w, r)
	if !ok {
		return
	}
	result, ok := s.dispatch(w, r, worker.CommandFurigoma, r.PathValue("id"), body)
	if !ok {
		return
	}
	writeJSON(w, core.NewEvent(result.(core.FurigomaResolved)))
}

type arataResponse struct {
	Goma core.GomaRef    `json:"goma"`
	To   core.Coordinate `json:"to"`
}

func (s *Server) handleArata(w http.ResponseWriter, r *http.Request) {
	body, ok := s.body(w, r)
	if !ok {
		return
	}
	result, ok := s.dispatch(w, r, worker.CommandArata, r.PathValue("id"), body)
	if !ok {
		return
	}
	placed := result.(core.GomaPlaced)
	writeJSON(w, arataResponse{Goma: placed.Goma, To: placed.To})
}

type ugokiResponse struct {
	Goma     core.GomaRef    `json:"goma"`
	From     core.Coordinate `json:"from"`
	To       core.Coordinate `json:"to"`
	Captured *core.GomaRef   `json:"captured,omitempty"`
	Winner   string          `json:"winner,omitempty"`
}

func (s *Server) handleUgoki(w http.ResponseWriter, r *http.Request) {
	body, ok := s.body(w, r)
	if !ok {
		return
	}
	result, ok := s.dispatch(w, r, worker.CommandUgoki, r.PathValue("id"), body)
	if !ok {
		return
	}

	var resp ugokiResponse
	for _, e := range result.([]core.Event) {
		switch d := e.Data.(type) {
		case core.GomaMoved:
			resp.Goma, resp.From, resp.To, resp.Captured = d.Goma, d.From, d.To, d.Captured
		case core.SuiCaptured:
			resp.Winner = d.WinnerID
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleSurrender(w http.ResponseWriter, r *http.Request) {
	body, ok := s.body(w, r)
	if !ok {
		return
	}
	result, ok := s.dispatch(w, r, worker.CommandSurrender, r.PathValue("id"), body)
	if !ok {
		return
	}
	writeJSON(w, map[string]string{"winner": result.(string)})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	result, ok := s.dispatch(w, r, worker.CommandState, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleLegal(w http.ResponseWriter, r *http.Request) {
	result, ok := s.dispatch(w, r, worker.CommandLegal, r.PathValue("id"), r.URL.Query().Get("playerId"))
	if !ok {
		return
	}
	writeJSON(w, result)
}

// fail writes err with the status of its error class.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrIllegalState):
		return http.StatusConflict
	case errors.Is(err, core.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": msg})
}
