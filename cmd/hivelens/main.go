package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"hivelens/internal/config"
	"hivelens/internal/domain"
	"hivelens/internal/probe"
	"hivelens/internal/publisher"
	"hivelens/internal/service"
	"hivelens/internal/source/hive"
	"hivelens/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	fromStr := flag.String("from", "", "start of the date window (YYYY-MM-DD, inclusive)")
	toStr := flag.String("to", "", "end of the date window (YYYY-MM-DD, exclusive)")
	confirmed := flag.Bool("confirm", false, "confirm the estimated sync cost and run")
	initiator := flag.String("initiator", "", "free-text label for who started this sync")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	from, to, err := parseWindow(*fromStr, *toStr)
	if err != nil {
		logger.Error("invalid date window", "error", err)
		os.Exit(1)
	}

	sourceDB, err := sqlx.Connect("sqlserver", cfg.Source.DSN())
	if err != nil {
		logger.Error("failed to connect to hivesql", "error", err)
		os.Exit(1)
	}
	defer sourceDB.Close()
	logger.Info("connected to hivesql", "host", cfg.Source.Host)

	storeDB, err := sqlx.Connect("sqlite3", cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open local store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer storeDB.Close()

	store := sqlite.NewImageStore(storeDB, cfg.Store.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to prepare local store", "error", err)
		os.Exit(1)
	}

	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	prober := probe.New(probe.Config{
		Timeout:     cfg.Sync.ProbeTimeout,
		Concurrency: cfg.Sync.ProbeConcurrency,
	}, logger)

	syncService := service.NewSyncService(
		hive.New(sourceDB, logger),
		store,
		prober,
		pub,
		service.NewLockRegistry(),
		logger,
		cfg.Sync,
	)

	result := syncService.Run(ctx, from, to, domain.SyncOptions{
		Confirmed: *confirmed,
		Initiator: *initiator,
	})

	os.Exit(render(logger, result))
}

func parseWindow(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.DateOnly, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse(time.DateOnly, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func render(logger *slog.Logger, result *domain.SyncResult) int {
	switch result.Status {
	case domain.SyncStatusSuccess:
		logger.Info(result.Message,
			"new", result.Counters.NewImagesAdded,
			"duplicates", result.Counters.ExistingImagesSkipped,
			"invalid", result.Counters.InvalidOrInaccessibleImagesSkipped,
			"persistence_errors", result.Counters.PersistenceErrors,
			"store_bytes", result.StoreSizeBytes,
		)
		return 0
	case domain.SyncStatusConfirmationRequired:
		logger.Info(result.Message,
			"estimated_days", result.Estimate.Days,
			"estimated_minutes", result.Estimate.TotalTimeMinutes,
		)
		return 0
	case domain.SyncStatusQuotaExceeded:
		logger.Error(result.Message,
			"store_bytes", result.StoreSizeBytes,
			"max_bytes", result.MaxStoreBytes,
		)
		return 1
	case domain.SyncStatusInProgress:
		logger.Error(result.Message,
			"holder", result.Conflict.Initiator,
			"since", result.Conflict.AcquiredAt,
		)
		return 1
	default:
		logger.Error(result.Message,
			"new", result.Counters.NewImagesAdded,
			"persistence_errors", result.Counters.PersistenceErrors,
		)
		return 1
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
