package engine

import (
	"maps"
	"slices"

	"github.com/shaiso/Trinity/internal/domain"
)

// AssignLevels назначает шагам уровни.
//
// Шаги без depends_on получают уровень 0. Дальше итеративно: шаг получает
// уровень 1 + max(уровни зависимостей), как только все зависимости уже
// имеют уровень. Проходов не больше len(steps)+1, выход раньше, если
// проход ничего не изменил.
//
// Шаги с висячими ссылками, зависимостью от себя или в цикле уровень
// не получают и в результат не попадают.
func AssignLevels(steps []domain.Step) map[string]int {
	levels := make(map[string]int, len(steps))

	for _, step := range steps {
		if !step.HasDependencies() {
			levels[step.ID] = 0
		}
	}

	for pass := 0; pass < len(steps)+1; pass++ {
		progress := false

		for _, step := range steps {
			if _, done := levels[step.ID]; done {
				continue
			}

			if level, ok := levelFromDependencies(step, levels); ok {
				// Уровень виден следующим шагам уже в этом проходе
				levels[step.ID] = level
				progress = true
			}
		}

		if !progress {
			break
		}
	}

	return levels
}

// levelFromDependencies возвращает 1 + max(уровни зависимостей),
// если все зависимости уже получили уровень.
func levelFromDependencies(step domain.Step, levels map[string]int) (int, bool) {
	highest := -1
	for _, dep := range step.DependsOn {
		level, ok := levels[dep]
		if !ok {
			return 0, false
		}
		highest = max(highest, level)
	}
	return highest + 1, true
}

// LevelGroup — шаги одного уровня (одна swimlane).
type LevelGroup struct {
	Level int           `json:"level"`
	Steps []domain.Step `json:"steps"`
}

// Parallel возвращает true, если в группе больше одного шага.
func (g LevelGroup) Parallel() bool {
	return len(g.Steps) > 1
}

// GroupByLevel группирует шаги по уровням.
//
// Группы идут по возрастанию уровня, внутри группы — порядок объявления.
// Шаги без уровня попадают на уровень 0.
func GroupByLevel(steps []domain.Step, levels map[string]int) []LevelGroup {
	byLevel := make(map[int][]domain.Step)
	for _, step := range steps {
		level := levels[step.ID] // нет уровня → 0
		byLevel[level] = append(byLevel[level], step)
	}

	groups := make([]LevelGroup, 0, len(byLevel))
	for _, level := range slices.Sorted(maps.Keys(byLevel)) {
		groups = append(groups, LevelGroup{
			Level: level,
			Steps: byLevel[level],
		})
	}

	return groups
}
