package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Counter reports how many games a repository holds.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// InFlighter reports how many games have an operation running.
type InFlighter interface {
	InFlight() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger      *slog.Logger
	Games       Counter
	Service     InFlighter
	StorageType string
	// StatusPath is rewritten with the latest Status on every tick.
	StatusPath string
	Interval   time.Duration
}

// Status is one snapshot of the server's health.
type Status struct {
	Time        time.Time `json:"time"`
	Uptime      string    `json:"uptime"`
	StorageType string    `json:"storageType"`
	StoredGames int64     `json:"storedGames"`
	InFlight    int       `json:"inFlight"`
	Error       string    `json:"error,omitempty"`
}

// Service manages status monitoring
type Service struct {
	deps    Dependencies
	started time.Time

	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = 30 * time.Second
	}
	return &Service{
		deps:     deps,
		started:  time.Now(),
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus collects the current status.
func (s *Service) GetProgramStatus(ctx context.Context) Status {
	st := Status{
		Time:        time.Now().UTC(),
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		StorageType: s.deps.StorageType,
	}
	if s.deps.Service != nil {
		st.InFlight = s.deps.Service.InFlight()
	}
	if s.deps.Games != nil {
		n, err := s.deps.Games.Count(ctx)
		if err != nil {
			st.Error = err.Error()
		}
		st.StoredGames = n
	}
	return st
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(done)
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		var statusFile *os.File
		if s.deps.StatusPath != "" {
			var err error
			statusFile, err = os.Create(s.deps.StatusPath)
			if err != nil {
				logger.Error("Error creating status file", "error", err)
			} else {
				defer statusFile.Close()
			}
		}

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.deps.Interval)
				st := s.GetProgramStatus(ctx)
				cancel()

				logger.Debug("status", "storedGames", st.StoredGames, "inFlight", st.InFlight, "uptime", st.Uptime)
				if st.Error != "" {
					logger.Warn("status check failed", "error", st.Error)
				}
				if statusFile != nil {
					if err := writeStatus(statusFile, st); err != nil {
						logger.Error("Error writing status file", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for its goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}

func writeStatus(f *os.File, st Status) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err = f.Write(append(b, '\n'))
	return err
}
