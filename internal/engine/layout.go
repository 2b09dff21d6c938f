package engine

import (
	"github.com/shaiso/Trinity/internal/domain"
)

// Reason — причина, по которой шаг остался без уровня.
type Reason string

const (
	// ReasonMissingDependency — depends_on ссылается на несуществующий шаг.
	ReasonMissingDependency Reason = "missing_dependency"

	// ReasonSelfDependency — шаг зависит от самого себя.
	ReasonSelfDependency Reason = "self_dependency"

	// ReasonCycle — шаг лежит на цикле зависимостей.
	ReasonCycle Reason = "cycle"

	// ReasonBlocked — шаг зависит от другого шага без уровня.
	ReasonBlocked Reason = "blocked"
)

// Diagnostic — шаг без уровня и причина.
//
// Диагностика не влияет на группировку: такие шаги всё равно
// рисуются на уровне 0.
type Diagnostic struct {
	StepID    string   `json:"step_id"`
	Reason    Reason   `json:"reason"`
	Missing   []string `json:"missing,omitempty"`
	BlockedBy []string `json:"blocked_by,omitempty"`
}

// Layout — готовая к отрисовке раскладка процесса.
type Layout struct {
	Definition domain.ProcessDefinition
	Steps      []domain.Step
	Levels     map[string]int
	Groups     []LevelGroup
	Unresolved []Diagnostic

	// Err — ошибка парсинга; при ней Steps и Groups пустые.
	Err error
}

// Stats — сводка по раскладке.
type Stats struct {
	StepCount       int `json:"step_count"`
	LevelCount      int `json:"level_count"`
	MaxParallel     int `json:"max_parallel"`
	UnresolvedCount int `json:"unresolved_count"`
}

// BuildLayout парсит YAML и строит раскладку.
// Вызывается на каждое изменение текста, ничего не кэширует.
func BuildLayout(text string) Layout {
	parsed := Parse(text)
	if parsed.Err != nil {
		return Layout{
			Steps:      parsed.Steps,
			Levels:     map[string]int{},
			Groups:     []LevelGroup{},
			Unresolved: []Diagnostic{},
			Err:        parsed.Err,
		}
	}

	layout := LayoutSteps(parsed.Steps)
	layout.Definition = parsed.Definition
	return layout
}

// LayoutSteps строит раскладку для уже разобранных шагов.
func LayoutSteps(steps []domain.Step) Layout {
	levels := AssignLevels(steps)

	return Layout{
		Definition: domain.ProcessDefinition{Steps: steps},
		Steps:      steps,
		Levels:     levels,
		Groups:     GroupByLevel(steps, levels),
		Unresolved: Diagnose(steps, levels),
	}
}

// Stats возвращает сводку по раскладке.
func (l Layout) Stats() Stats {
	stats := Stats{
		StepCount:       len(l.Steps),
		LevelCount:      len(l.Groups),
		UnresolvedCount: len(l.Unresolved),
	}
	for _, g := range l.Groups {
		stats.MaxParallel = max(stats.MaxParallel, len(g.Steps))
	}
	return stats
}

// UnresolvedIDs возвращает ID шагов без уровня.
func (l Layout) UnresolvedIDs() []string {
	ids := make([]string, 0, len(l.Unresolved))
	for _, d := range l.Unresolved {
		ids = append(ids, d.StepID)
	}
	return ids
}

// Diagnose объясняет, почему шаги остались без уровня.
//
// Приоритет причин: self_dependency, missing_dependency, cycle, blocked.
// Шаги с повторяющимся ID проверяются один раз.
func Diagnose(steps []domain.Step, levels map[string]int) []Diagnostic {
	diagnostics := make([]Diagnostic, 0)

	var graph *Graph
	seen := make(map[string]bool)

	for _, step := range steps {
		if _, ok := levels[step.ID]; ok || seen[step.ID] {
			continue
		}
		seen[step.ID] = true

		if graph == nil {
			graph = BuildGraph(steps)
		}
		node := graph.GetNode(step.ID)

		d := Diagnostic{StepID: step.ID}
		switch {
		case node.SelfDependent:
			d.Reason = ReasonSelfDependency
		case len(node.Missing) > 0:
			d.Reason = ReasonMissingDependency
			d.Missing = node.Missing
		case graph.InCycle(step.ID):
			d.Reason = ReasonCycle
		default:
			d.Reason = ReasonBlocked
		}

		if d.Reason != ReasonMissingDependency {
			for _, dep := range node.DependsOn {
				if _, ok := levels[dep.ID]; !ok {
					d.BlockedBy = append(d.BlockedBy, dep.ID)
				}
			}
		}

		diagnostics = append(diagnostics, d)
	}

	return diagnostics
}
