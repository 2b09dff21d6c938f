package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Trinity/internal/domain"
	"github.com/shaiso/Trinity/internal/engine"
)

// Process DTOs

// CreateProcessRequest — запрос на создание процесса.
type CreateProcessRequest struct {
	Name string `json:"name"`
}

// UpdateProcessRequest — запрос на обновление процесса.
type UpdateProcessRequest struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// ProcessResponse — ответ с процессом.
type ProcessResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ProcessFromDomain конвертирует domain.Process в ProcessResponse.
func ProcessFromDomain(p domain.Process) ProcessResponse {
	return ProcessResponse{
		ID:        p.ID,
		Name:      p.Name,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}

// ProcessVersion DTOs

// ProcessVersionResponse — ответ с версией процесса.
type ProcessVersionResponse struct {
	ProcessID  uuid.UUID `json:"process_id"`
	Version    int       `json:"version"`
	Definition string    `json:"definition"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProcessVersionFromDomain конвертирует domain.ProcessVersion в ProcessVersionResponse.
func ProcessVersionFromDomain(v domain.ProcessVersion) ProcessVersionResponse {
	return ProcessVersionResponse{
		ProcessID:  v.ProcessID,
		Version:    v.Version,
		Definition: v.Definition,
		CreatedAt:  v.CreatedAt,
	}
}

// Preview DTOs

// DefinitionRequest — JSON-форма тела для предпросмотра и публикации версии.
// Definition — исходный YAML.
type DefinitionRequest struct {
	Definition string `json:"definition"`
}

// PreviewResponse — раскладка процесса для редактора.
type PreviewResponse = engine.View

// Layout DTOs

// LayoutResponse — сохранённая сводка раскладки версии.
type LayoutResponse struct {
	ProcessID   uuid.UUID `json:"process_id"`
	Version     int       `json:"version"`
	StepCount   int       `json:"step_count"`
	LevelCount  int       `json:"level_count"`
	MaxParallel int       `json:"max_parallel"`
	ParseError  string    `json:"parse_error,omitempty"`
	Unresolved  []string  `json:"unresolved"`
	ComputedAt  time.Time `json:"computed_at"`
}

// LayoutFromDomain конвертирует domain.ProcessLayout в LayoutResponse.
func LayoutFromDomain(l domain.ProcessLayout) LayoutResponse {
	unresolved := l.Unresolved
	if unresolved == nil {
		unresolved = []string{}
	}
	return LayoutResponse{
		ProcessID:   l.ProcessID,
		Version:     l.Version,
		StepCount:   l.StepCount,
		LevelCount:  l.LevelCount,
		MaxParallel: l.MaxParallel,
		ParseError:  l.ParseError,
		Unresolved:  unresolved,
		ComputedAt:  l.ComputedAt,
	}
}

// StepKindResponse — DTO для типа шага.
type StepKindResponse struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Color       string `json:"color"`
}
