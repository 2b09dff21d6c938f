package engine

import "errors"

// Ошибки парсинга.
var (
	// ErrMalformedYAML — YAML не удалось разобрать.
	ErrMalformedYAML = errors.New("malformed process definition")
)

// Ошибки валидации определения процесса.
var (
	// ErrEmptySteps — процесс не содержит шагов.
	ErrEmptySteps = errors.New("process definition has no steps")

	// ErrEmptyStepID — шаг не имеет ID.
	ErrEmptyStepID = errors.New("step has empty ID")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")

	// ErrUnknownStepType — неизвестный тип шага.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrMissingDependency — шаг зависит от несуществующего шага.
	ErrMissingDependency = errors.New("step depends on unknown step")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrSelfDependency — шаг зависит от самого себя.
	ErrSelfDependency = errors.New("step depends on itself")

	// ErrInvalidTrigger — секция trigger некорректна.
	ErrInvalidTrigger = errors.New("invalid trigger")
)

// ParseError — ошибка разбора YAML.
// Error() возвращает исходное сообщение парсера без префиксов,
// именно его показывает редактор.
type ParseError struct {
	Err error
}

// Error реализует интерфейс error.
func (e *ParseError) Error() string {
	return e.Err.Error()
}

// Unwrap позволяет errors.Is(err, ErrMalformedYAML).
func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedYAML, e.Err}
}

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	StepID  string // ID шага, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StepID != "" {
		return "step " + e.StepID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(stepID, field, message string, err error) *ValidationError {
	return &ValidationError{
		StepID:  stepID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
