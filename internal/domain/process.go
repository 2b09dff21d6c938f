package domain

import (
	"time"

	"github.com/google/uuid"
)

// Process — сохранённое определение процесса.
//
// Сам YAML хранится в версиях (ProcessVersion): каждое сохранение
// из редактора создаёт новую версию, Process остаётся "шапкой".
type Process struct {
	// ID — уникальный идентификатор процесса.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя процесса (например, "content-review").
	Name string `json:"name"`

	// IsActive — флаг активности. Неактивные процессы не запускаются триггерами.
	IsActive bool `json:"is_active"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// ProcessVersion — версия процесса с исходным YAML.
type ProcessVersion struct {
	// ProcessID — ссылка на родительский процесс.
	ProcessID uuid.UUID `json:"process_id"`

	// Version — номер версии (1, 2, 3, ...), автоинкремент.
	Version int `json:"version"`

	// Definition — исходный YAML, ровно в том виде, в каком его прислали.
	Definition string `json:"definition"`

	// CreatedAt — время создания версии.
	CreatedAt time.Time `json:"created_at"`
}

// ProcessLayout — предрассчитанная сводка раскладки версии процесса.
// Заполняется индексатором после публикации версии.
type ProcessLayout struct {
	ProcessID   uuid.UUID `json:"process_id"`
	Version     int       `json:"version"`
	StepCount   int       `json:"step_count"`
	LevelCount  int       `json:"level_count"`
	MaxParallel int       `json:"max_parallel"`

	// ParseError — текст ошибки парсинга, если YAML битый.
	ParseError string `json:"parse_error,omitempty"`

	// Unresolved — ID шагов, которым не удалось назначить уровень.
	Unresolved []string `json:"unresolved,omitempty"`

	ComputedAt time.Time `json:"computed_at"`
}
