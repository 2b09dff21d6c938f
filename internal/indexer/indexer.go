package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Trinity/internal/domain"
	"github.com/shaiso/Trinity/internal/engine"
	"github.com/shaiso/Trinity/internal/mq"
	"github.com/shaiso/Trinity/internal/repo"
	"github.com/shaiso/Trinity/internal/telemetry"
)

const defaultPrefetch = 4

// VersionSource — откуда брать YAML версии (repo.ProcessRepo).
type VersionSource interface {
	GetVersion(ctx context.Context, processID uuid.UUID, version int) (*domain.ProcessVersion, error)
}

// LayoutSink — куда сохранять сводку (repo.LayoutRepo).
type LayoutSink interface {
	Save(ctx context.Context, l *domain.ProcessLayout) error
}

// ErrVersionGone — версия удалена раньше, чем до неё дошла очередь.
var ErrVersionGone = errors.New("process version no longer exists")

// Indexer потребляет события о версиях и сохраняет сводки раскладки.
type Indexer struct {
	versions VersionSource
	layouts  LayoutSink

	conn     *mq.Connection
	consumer *mq.Consumer
	prefetch int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Indexer.
type Config struct {
	Versions VersionSource
	Layouts  LayoutSink

	// Conn нужен только для Start; Index работает без брокера.
	Conn     *mq.Connection
	Prefetch int

	Logger *slog.Logger
}

// New создаёт новый Indexer.
func New(cfg Config) *Indexer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Indexer{
		versions: cfg.Versions,
		layouts:  cfg.Layouts,
		conn:     cfg.Conn,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Start запускает consumer очереди processes.version_created.
func (ix *Indexer) Start(ctx context.Context) error {
	if ix.conn == nil {
		return fmt.Errorf("indexer: amqp connection is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	ix.cancelFunc = cancel

	ix.consumer = mq.NewConsumer(ix.conn, ix.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueVersionCreated),
		Handler:  ix.handleVersionCreated,
		Prefetch: ix.prefetch,
	})

	ix.wg.Add(1)
	go func() {
		defer ix.wg.Done()
		if err := ix.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			ix.logger.Error("version consumer error", "error", err)
		}
	}()

	ix.logger.Info("indexer started", "queue", mq.QueueVersionCreated, "prefetch", ix.prefetch)
	return nil
}

// Stop останавливает consumer и ждёт завершения обработки.
func (ix *Indexer) Stop() {
	ix.logger.Info("stopping indexer...")

	if ix.cancelFunc != nil {
		ix.cancelFunc()
	}
	if ix.consumer != nil {
		ix.consumer.Stop()
	}
	ix.wg.Wait()

	ix.logger.Info("indexer stopped")
}

// Index строит и сохраняет сводку раскладки одной версии.
func (ix *Indexer) Index(ctx context.Context, processID uuid.UUID, version int) (*domain.ProcessLayout, error) {
	logger := telemetry.WithVersion(telemetry.WithProcessID(ix.logger, processID.String()), version)

	pv, err := ix.versions.GetVersion(ctx, processID, version)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrVersionGone
	}
	if err != nil {
		return nil, fmt.Errorf("load version: %w", err)
	}

	start := time.Now()
	layout := engine.BuildLayout(pv.Definition)
	stats := layout.Stats()
	telemetry.ObserveLayout(telemetry.SourceIndexer, stats.StepCount, stats.UnresolvedCount, layout.Err != nil, time.Since(start))

	summary := Summarize(processID, version, layout)
	if err := ix.layouts.Save(ctx, &summary); err != nil {
		return nil, fmt.Errorf("save layout: %w", err)
	}

	logger.Info("layout indexed",
		"steps", summary.StepCount,
		"levels", summary.LevelCount,
		"max_parallel", summary.MaxParallel,
		"unresolved", len(summary.Unresolved),
		"parse_error", summary.ParseError != "",
	)

	return &summary, nil
}

// Summarize сворачивает раскладку в хранимую сводку.
func Summarize(processID uuid.UUID, version int, layout engine.Layout) domain.ProcessLayout {
	stats := layout.Stats()
	summary := domain.ProcessLayout{
		ProcessID:   processID,
		Version:     version,
		StepCount:   stats.StepCount,
		LevelCount:  stats.LevelCount,
		MaxParallel: stats.MaxParallel,
		Unresolved:  layout.UnresolvedIDs(),
	}
	if layout.Err != nil {
		summary.ParseError = layout.Err.Error()
	}
	return summary
}
