// Package main contains the entrypoint for the chat message API server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/edgard/chatmessages/internal/app"
	"github.com/edgard/chatmessages/internal/config"
	"github.com/edgard/chatmessages/internal/database"
	"github.com/edgard/chatmessages/internal/domain/service"
	"github.com/edgard/chatmessages/internal/httpapi"
	"github.com/edgard/chatmessages/internal/logger"
	"github.com/edgard/chatmessages/internal/scheduler"
	"github.com/edgard/chatmessages/internal/tasks"
	"github.com/edgard/chatmessages/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires config, logger, storage, the message pipeline, the HTTP router
// and the scheduler, blocks until shutdown, and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database, log)
	if err != nil {
		log.Error("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		return 1
	}
	defer database.CloseDB(db, log)
	store := database.NewStore(db, log)

	filter, err := service.NewContentFilter(cfg.ContentFilter.DenyList)
	if err != nil {
		log.Error("Failed to build content filter", "error", err)
		return 1
	}
	processor := service.NewMessageProcessor(nil)

	createMessage := usecase.NewCreateMessageUseCase(store, filter, processor, log)
	getMessages := usecase.NewGetMessagesUseCase(store, usecase.Pagination{
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	}, log)

	var (
		metrics  *httpapi.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = httpapi.NewMetrics(registry)
		gatherer = registry
	}

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Logger:         log,
		App:            cfg.App,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MetricsPath:    cfg.Metrics.Path,
		Messages:       httpapi.NewMessageHandler(createMessage, getMessages, cfg.Pagination.MaxLimit, metrics, log),
		Health:         httpapi.NewHealthHandler(cfg.App, store, log),
		Metrics:        metrics,
		Gatherer:       gatherer,
	})

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:    log,
		Store:     store,
		Processor: processor,
	})
	sched, err := scheduler.NewScheduler(log, cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	log.Info("Starting server...", "app", cfg.App.Name, "version", cfg.App.Version, "environment", cfg.App.Environment)
	if err := app.New(log, cfg.HTTP, router, sched).Run(ctx); err != nil {
		log.Error("Server stopped due to error", "error", err)
		return 1
	}

	log.Info("Server stopped gracefully")
	return 0
}
