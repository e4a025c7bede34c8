package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/internal/dispatcher"
	"github.com/gungi-online/gungi/internal/game"
	"github.com/gungi-online/gungi/internal/httpapi"
	"github.com/gungi-online/gungi/internal/logging"
	"github.com/gungi-online/gungi/internal/monitor"
	intOtel "github.com/gungi-online/gungi/internal/otel"
	"github.com/gungi-online/gungi/internal/parser"
	"github.com/gungi-online/gungi/internal/publisher"
	"github.com/gungi-online/gungi/internal/storage"
	"github.com/gungi-online/gungi/internal/worker"
	"github.com/gungi-online/gungi/pkg/core"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ServiceName names log files, the OTel scope and the hub registration.
const ServiceName = "gungi"

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

var (
	SessionStartTime = time.Now()

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	logFile *os.File
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	configDir := os.Getenv("GUNGI_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	if err := config.Load(configDir); err != nil {
		return err
	}

	if err := setupLogging(); err != nil {
		return err
	}
	defer closeLogging()

	Logger.Info("Starting up...", "version", Version, "buildDate", BuildDate)

	command := "serve"
	if len(args) > 0 {
		command = strings.ToLower(args[0])
	}
	switch command {
	case "serve":
		return serve()
	case "setupdb":
		return setupDB()
	default:
		return fmt.Errorf("unknown command %q (want serve or setupdb)", command)
	}
}

// setupLogging wires slog to the session log file, Graylog and OTel as configured.
func setupLogging() error {
	var err error
	logFile, err = logging.OpenLogFile(viper.GetString("logsDir"), ServiceName, SessionStartTime)
	if err != nil {
		return err
	}

	OTelProvider, err = intOtel.New(intOtel.FromConfig(config.GetOTelConfig(), logFile))
	if err != nil {
		return fmt.Errorf("failed to set up OTel: %w", err)
	}

	opts := logging.Options{
		File:        logFile,
		Level:       viper.GetString("logLevel"),
		Provider:    OTelProvider.LoggerProvider(),
		ServiceName: ServiceName,
	}
	if viper.GetBool("graylog.enabled") {
		gw, err := logging.NewGraylogWriter(viper.GetString("graylog.address"))
		if err != nil {
			return err
		}
		opts.Graylog = gw
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(opts)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)
	return nil
}

func closeLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := OTelProvider.Shutdown(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	_ = logFile.Close()
}

// componentLogger is the zerolog logger the database and influx managers use.
func componentLogger(component string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("logLevel")))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	mlw := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		},
		zerolog.ConsoleWriter{
			Out:        logFile,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		},
	)
	return zerolog.New(mlw).Level(level).With().Timestamp().Str("component", component).Logger()
}

func storageConfig() config.StorageConfig {
	cfg := config.GetStorageConfig()
	if cfg.Type == "sqlite" && cfg.SQLite.DumpPath == "" {
		cfg.SQLite.DumpPath = filepath.Join(viper.GetString("logsDir"),
			fmt.Sprintf("%s_%s.db", ServiceName, SessionStartTime.Format("20060102_150405")))
	}
	return cfg
}

func openRepository() (storage.Repository, config.StorageConfig, error) {
	cfg := storageConfig()
	repo, err := storage.NewRepository(cfg, SlogManager, componentLogger("database"))
	if err != nil {
		return nil, cfg, err
	}
	if err := repo.Init(); err != nil {
		return nil, cfg, fmt.Errorf("failed to initialize %s storage: %w", cfg.Type, err)
	}
	Logger.Info("Storage initialized", "type", cfg.Type)
	return repo, cfg, nil
}

// setupDB migrates the configured database and exits.
func setupDB() error {
	repo, _, err := openRepository()
	if err != nil {
		return err
	}
	Logger.Info("DB setup complete.")
	return repo.Close()
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, storageCfg, err := openRepository()
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			Logger.Error("Failed to close storage", "error", err)
		}
	}()

	pub, err := publisher.New(ctx, config.GetPublisherConfig(), publisher.Dependencies{
		Logger:      Logger,
		InfluxLog:   componentLogger("influx"),
		ServiceName: ServiceName,
		BackupDir:   viper.GetString("logsDir"),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			Logger.Error("Failed to close publisher", "error", err)
		}
	}()

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	// drains queued broadcasts before the publisher closes
	defer eventDispatcher.Close()

	level, err := core.ParseLevel(viper.GetString("game.level"))
	if err != nil {
		return fmt.Errorf("invalid game.level: %w", err)
	}

	service, err := game.NewService(game.Dependencies{
		Repository:   repo,
		Broadcaster:  worker.NewBroadcaster(eventDispatcher),
		Logger:       Logger,
		Meter:        OTelProvider.Meter(ServiceName),
		DefaultLevel: level,
		Timeout:      storageCfg.Timeout,
	})
	if err != nil {
		return err
	}

	worker.NewManager(worker.Dependencies{
		Service:   service,
		Parser:    parser.NewParser(Logger),
		Publisher: pub,
		Logger:    Logger,
	}).RegisterHandlers(eventDispatcher)
	Logger.Info("Worker handlers registered with dispatcher", "commands", eventDispatcher.Commands())

	monitorService := monitor.NewService(monitor.Dependencies{
		Logger:      Logger,
		Games:       counterOf(repo),
		Service:     service,
		StorageType: storageCfg.Type,
		StatusPath:  filepath.Join(viper.GetString("logsDir"), "status.json"),
		Interval:    viper.GetDuration("monitor.interval"),
	})
	if err := monitorService.Start(); err != nil {
		return err
	}
	defer monitorService.Stop()

	server := httpapi.NewServer(eventDispatcher, Logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(viper.GetString("http.addr"))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	Logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Close(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		Logger.Error("HTTP shutdown failed", "error", err)
	}
	return <-errCh
}

// counterOf returns repo's game counter, or nil for backends without one.
func counterOf(repo storage.Repository) monitor.Counter {
	if c, ok := repo.(monitor.Counter); ok {
		return c
	}
	return nil
}
