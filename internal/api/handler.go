package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Trinity/internal/domain"
	"github.com/shaiso/Trinity/internal/steps"
)

// ProcessStore — хранилище процессов и их версий (repo.ProcessRepo).
type ProcessStore interface {
	Create(ctx context.Context, p *domain.Process) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Process, error)
	List(ctx context.Context) ([]domain.Process, error)
	Update(ctx context.Context, p *domain.Process) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateVersion(ctx context.Context, processID uuid.UUID, definition string) (*domain.ProcessVersion, error)
	GetVersion(ctx context.Context, processID uuid.UUID, version int) (*domain.ProcessVersion, error)
	GetLatestVersion(ctx context.Context, processID uuid.UUID) (*domain.ProcessVersion, error)
	ListVersions(ctx context.Context, processID uuid.UUID) ([]domain.ProcessVersion, error)
}

// LayoutStore — хранилище сводок раскладки (repo.LayoutRepo).
type LayoutStore interface {
	Get(ctx context.Context, processID uuid.UUID, version int) (*domain.ProcessLayout, error)
}

// EventPublisher — публикация событий (mq.Publisher).
type EventPublisher interface {
	PublishVersionCreated(ctx context.Context, processID uuid.UUID, version int) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	processes ProcessStore
	layouts   LayoutStore
	publisher EventPublisher
	kinds     *steps.Registry
	logger    *slog.Logger

	fireTimes    int
	maxBodyBytes int64
	now          func() time.Time
}

// Config — конфигурация для создания Handler.
type Config struct {
	Processes ProcessStore
	Layouts   LayoutStore

	// Publisher может быть nil: тогда события не публикуются.
	Publisher EventPublisher

	// StepKinds — реестр типов шагов; по умолчанию steps.DefaultRegistry.
	StepKinds *steps.Registry
	Logger    *slog.Logger

	// FireTimes — сколько ближайших запусков показывать в preview.
	FireTimes int

	// MaxBodyBytes — ограничение размера тела запроса.
	MaxBodyBytes int64
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	kinds := cfg.StepKinds
	if kinds == nil {
		kinds = steps.DefaultRegistry()
	}

	return &Handler{
		processes:    cfg.Processes,
		layouts:      cfg.Layouts,
		publisher:    cfg.Publisher,
		kinds:        kinds,
		logger:       cfg.Logger,
		fireTimes:    cfg.FireTimes,
		maxBodyBytes: maxBody,
		now:          time.Now,
	}
}
