package engine

import (
	"time"

	"github.com/shaiso/Trinity/internal/domain"
	"github.com/shaiso/Trinity/internal/scheduler"
)

// View — раскладка в форме для редактора: её отдаёт API
// и печатает CLI (preview --json).
type View struct {
	Name        string          `json:"name,omitempty"`
	Version     string          `json:"version,omitempty"`
	Description string          `json:"description,omitempty"`
	Trigger     *domain.Trigger `json:"trigger,omitempty"`
	Steps       []ViewStep      `json:"steps"`
	Levels      map[string]int  `json:"levels"`
	Groups      []ViewGroup     `json:"groups"`
	Unresolved  []Diagnostic    `json:"unresolved"`
	Stats       Stats           `json:"stats"`

	// NextFireTimes — ближайшие запуски schedule-триггера.
	NextFireTimes []time.Time `json:"next_fire_times,omitempty"`

	// ScheduleError — cron-выражение не разобралось.
	ScheduleError string `json:"schedule_error,omitempty"`

	// Error — текст ошибки парсинга YAML. Пусто, если YAML корректен.
	Error string `json:"error,omitempty"`
}

// ViewStep — шаг с назначенным уровнем.
// Level = nil, если уровень назначить не удалось.
type ViewStep struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Type      string   `json:"type"`
	DependsOn []string `json:"depends_on"`
	Level     *int     `json:"level"`
}

// ViewGroup — одна дорожка (уровень), шаги перечислены по ID.
type ViewGroup struct {
	Level    int      `json:"level"`
	Steps    []string `json:"steps"`
	Parallel bool     `json:"parallel"`
}

// NewView строит View по раскладке и добавляет fireTimes ближайших
// запусков триггера начиная с now. При ошибке парсинга запуски
// не считаются.
func NewView(l Layout, now time.Time, fireTimes int) View {
	v := View{
		Name:        l.Definition.Name,
		Version:     l.Definition.Version,
		Description: l.Definition.Description,
		Trigger:     l.Definition.Trigger,
		Steps:       make([]ViewStep, len(l.Steps)),
		Levels:      l.Levels,
		Groups:      make([]ViewGroup, len(l.Groups)),
		Unresolved:  l.Unresolved,
		Stats:       l.Stats(),
	}

	for i, s := range l.Steps {
		v.Steps[i] = ViewStep{ID: s.ID, Name: s.Name, Type: s.Type.String(), DependsOn: s.DependsOn}
		if level, ok := l.Levels[s.ID]; ok {
			v.Steps[i].Level = &level
		}
	}

	for i, g := range l.Groups {
		ids := make([]string, len(g.Steps))
		for j, s := range g.Steps {
			ids[j] = s.ID
		}
		v.Groups[i] = ViewGroup{Level: g.Level, Steps: ids, Parallel: g.Parallel()}
	}

	if l.Err != nil {
		v.Error = l.Err.Error()
		return v
	}

	times, err := scheduler.NextFireTimes(l.Definition.Trigger, now, fireTimes)
	if err != nil {
		v.ScheduleError = err.Error()
	} else {
		v.NextFireTimes = times
	}
	return v
}
