package steps

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/Trinity/internal/domain"
)

// Registry — реестр типов шагов.
//
// Хранит описание каждого типа: подпись и цвет для swimlane,
// краткое описание для API. Потокобезопасен.
type Registry struct {
	mu    sync.RWMutex
	kinds map[domain.StepType]Kind
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		kinds: make(map[domain.StepType]Kind),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными типами.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, k := range builtinKinds() {
		r.Register(k)
	}
	return r
}

// Register регистрирует тип шага.
// Если тип уже существует, он будет перезаписан.
func (r *Registry) Register(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind.Type] = kind
}

// Get возвращает описание по типу.
// Возвращает ErrKindNotFound, если тип не найден.
func (r *Registry) Get(stepType domain.StepType) (Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, exists := r.kinds[stepType]
	if !exists {
		return Kind{}, fmt.Errorf("%w: %s", ErrKindNotFound, stepType)
	}
	return kind, nil
}

// Lookup возвращает описание типа или Fallback, если его нет.
func (r *Registry) Lookup(stepType domain.StepType) Kind {
	if kind, err := r.Get(stepType); err == nil {
		return kind
	}
	return Fallback(stepType)
}

// Has проверяет, зарегистрирован ли тип.
func (r *Registry) Has(stepType domain.StepType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.kinds[stepType]
	return exists
}

// Kinds возвращает все описания, отсортированные по типу.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.kinds))
	for _, k := range r.kinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Type < kinds[j].Type })
	return kinds
}

// Count возвращает количество зарегистрированных типов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds)
}

// Unregister удаляет тип из реестра.
func (r *Registry) Unregister(stepType domain.StepType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.kinds, stepType)
}
