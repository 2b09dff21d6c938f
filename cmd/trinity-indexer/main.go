// Trinity Indexer — считает сводки раскладки опубликованных версий.
//
// Indexer:
//   - Получает process.version_created из RabbitMQ
//   - Строит раскладку YAML по уровням
//   - Сохраняет сводку (шаги, уровни, параллелизм, висячие шаги)
//
// Индексаторы масштабируются горизонтально.
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

	"github.com/shaiso/Trinity/internal/config"
	"github.com/shaiso/Trinity/internal/indexer"
	"github.com/shaiso/Trinity/internal/mq"
	"github.com/shaiso/Trinity/internal/repo"
	"github.com/shaiso/Trinity/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("TRINITY_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	logger.Info("starting trinity-indexer")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Без брокера индексатору нечего делать
	mqConn, err := mq.NewConnection(cfg.RabbitMQ.URL, "trinity-indexer", logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}
	logger.Debug("topology ready", "topology", mq.TopologyInfo())

	ix := indexer.New(indexer.Config{
		Versions: repo.NewProcessRepo(pool),
		Layouts:  repo.NewLayoutRepo(pool),
		Conn:     mqConn,
		Prefetch: cfg.Indexer.Prefetch,
		Logger:   logger,
	})

	if err := ix.Start(ctx); err != nil {
		logger.Error("failed to start indexer", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			http.Error(w, "amqp disconnected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Indexer.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	ix.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("trinity-indexer stopped")
}
