package engine

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/shaiso/Trinity/internal/domain"
	"github.com/shaiso/Trinity/internal/scheduler"
)

// validate — общий экземпляр validator, потокобезопасен.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("steptype", func(fl validator.FieldLevel) bool {
		return IsValidStepType(fl.Field().String())
	})
	return v
}

// stepRules — правила для одного шага при строгой валидации.
type stepRules struct {
	ID   string `validate:"required"`
	Type string `validate:"steptype"`
}

// Validate выполняет строгую валидацию определения процесса.
//
// Раскладка (BuildLayout) работает и без неё: висячие ссылки и циклы
// там не ошибка. Validate используется при публикации со strict=true.
//
// Проверяет:
// - Наличие шагов
// - Непустые и уникальные ID
// - Известные типы шагов
// - Отсутствие self-dependency, висячих ссылок и циклов
// - Корректность trigger (тип, cron, timezone)
func Validate(def *domain.ProcessDefinition) error {
	if def == nil || len(def.Steps) == 0 {
		return ErrEmptySteps
	}

	stepIDs := make(map[string]bool, len(def.Steps))
	for i := range def.Steps {
		if err := ValidateStep(&def.Steps[i], stepIDs); err != nil {
			return err
		}
	}

	if err := validateDependencies(def.Steps, stepIDs); err != nil {
		return err
	}

	if graph := BuildGraph(def.Steps); graph.HasCycle() {
		node := graph.Leftover[0]
		for _, candidate := range graph.Leftover {
			if graph.InCycle(candidate.ID) {
				node = candidate
				break
			}
		}
		return NewValidationError(node.ID, "depends_on",
			fmt.Sprintf("step %s is part of a dependency cycle", node.ID), ErrCyclicDependency)
	}

	return ValidateTrigger(def.Trigger)
}

// ValidateStep валидирует один шаг.
// stepIDs — уже встреченные ID шагов (для проверки уникальности).
func ValidateStep(step *domain.Step, stepIDs map[string]bool) error {
	err := validate.Struct(stepRules{ID: step.ID, Type: string(step.Type)})
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		switch fieldErrs[0].Field() {
		case "ID":
			return NewValidationError("", "id", "step has empty ID", ErrEmptyStepID)
		case "Type":
			return NewValidationError(step.ID, "type",
				fmt.Sprintf("unknown step type: %s", step.Type), ErrUnknownStepType)
		}
	}
	if err != nil {
		return fmt.Errorf("validate step %s: %w", step.ID, err)
	}

	if stepIDs[step.ID] {
		return NewValidationError(step.ID, "id",
			fmt.Sprintf("duplicate step ID: %s", step.ID), ErrDuplicateStepID)
	}
	stepIDs[step.ID] = true

	for _, dep := range step.DependsOn {
		if dep == step.ID {
			return NewValidationError(step.ID, "depends_on",
				"step depends on itself", ErrSelfDependency)
		}
	}

	return nil
}

// validateDependencies проверяет, что все depends_on ссылаются на существующие шаги.
func validateDependencies(steps []domain.Step, stepIDs map[string]bool) error {
	for i := range steps {
		step := &steps[i]

		for _, dep := range step.DependsOn {
			if !stepIDs[dep] {
				return NewValidationError(step.ID, "depends_on",
					fmt.Sprintf("depends on unknown step: %s", dep), ErrMissingDependency)
			}
		}
	}

	return nil
}

// ValidateTrigger проверяет секцию trigger. nil допустим (ручной запуск).
func ValidateTrigger(trigger *domain.Trigger) error {
	if trigger == nil {
		return nil
	}

	err := validate.Struct(trigger)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fe := fieldErrs[0]
		switch fe.Field() {
		case "Type":
			return NewValidationError("", "trigger.type",
				fmt.Sprintf("trigger type must be one of manual, schedule, webhook, got %q", trigger.Type), ErrInvalidTrigger)
		case "Schedule":
			return NewValidationError("", "trigger.schedule",
				"schedule trigger requires a cron expression", ErrInvalidTrigger)
		case "Timezone":
			return NewValidationError("", "trigger.timezone",
				fmt.Sprintf("unknown timezone: %s", trigger.Timezone), ErrInvalidTrigger)
		}
	}
	if err != nil {
		return fmt.Errorf("validate trigger: %w", err)
	}

	if trigger.Type == domain.TriggerSchedule {
		if err := scheduler.ValidateCronExpr(trigger.Schedule); err != nil {
			return NewValidationError("", "trigger.schedule", err.Error(), ErrInvalidTrigger)
		}
	}

	return nil
}

// IsValidStepType проверяет, является ли тип шага допустимым.
func IsValidStepType(stepType string) bool {
	return domain.StepType(stepType).IsKnown()
}
