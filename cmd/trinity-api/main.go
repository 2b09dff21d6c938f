// Trinity API — HTTP сервер редактора процессов.
//
// API:
//   - Строит раскладку YAML по уровням (preview) без сохранения
//   - Хранит процессы и их версии в PostgreSQL
//   - Публикует process.version_created в RabbitMQ для индексатора
//
// Без RabbitMQ сервер работает, но сводки раскладки не пересчитываются.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Trinity/internal/api"
	"github.com/shaiso/Trinity/internal/config"
	"github.com/shaiso/Trinity/internal/mq"
	"github.com/shaiso/Trinity/internal/repo"
	"github.com/shaiso/Trinity/internal/telemetry"
)

var startTime = time.Now()

func main() {
	cfg, err := config.Load(os.Getenv("TRINITY_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	logger.Info("starting trinity-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// RabbitMQ опционален
	var publisher api.EventPublisher
	mqConn, err := mq.NewConnection(cfg.RabbitMQ.URL, "trinity-api", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, layout summaries will not be indexed", "error", err)
	} else {
		defer mqConn.Close()

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		publisher = mq.NewPublisher(mqConn, logger)
	}

	handler := api.NewHandler(api.Config{
		Processes:    repo.NewProcessRepo(pool),
		Layouts:      repo.NewLayoutRepo(pool),
		Publisher:    publisher,
		Logger:       logger,
		FireTimes:    cfg.Preview.FireTimes,
		MaxBodyBytes: cfg.API.MaxBodyBytes,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.API.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
