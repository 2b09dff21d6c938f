package domain

// StepType — тип шага процесса.
type StepType string

const (
	StepTypeAgentTask     StepType = "agent_task"
	StepTypeHumanApproval StepType = "human_approval"
	StepTypeGateway       StepType = "gateway"
	StepTypeNotification  StepType = "notification"
	StepTypeSubProcess    StepType = "sub_process"
	StepTypeTimer         StepType = "timer"

	// StepTypeUnknown — тип не указан в YAML.
	StepTypeUnknown StepType = "unknown"
)

// KnownStepTypes — типы, которые понимает backend.
var KnownStepTypes = []StepType{
	StepTypeAgentTask,
	StepTypeHumanApproval,
	StepTypeGateway,
	StepTypeNotification,
	StepTypeSubProcess,
	StepTypeTimer,
}

// IsKnown возвращает true, если тип входит в KnownStepTypes.
// StepTypeUnknown сюда не входит.
func (t StepType) IsKnown() bool {
	for _, k := range KnownStepTypes {
		if t == k {
			return true
		}
	}
	return false
}

// String возвращает строковое представление StepType.
func (t StepType) String() string {
	return string(t)
}

// TriggerType — способ запуска процесса.
type TriggerType string

const (
	TriggerManual   TriggerType = "manual"
	TriggerSchedule TriggerType = "schedule"
	TriggerWebhook  TriggerType = "webhook"
)

// Trigger — секция trigger в определении процесса.
type Trigger struct {
	// Type — manual, schedule или webhook.
	Type TriggerType `json:"type" validate:"required,oneof=manual schedule webhook"`

	// Schedule — cron-выражение (5 полей), только для type=schedule.
	Schedule string `json:"schedule,omitempty" validate:"required_if=Type schedule"`

	// Timezone — IANA timezone для расписания. Пусто — UTC.
	Timezone string `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// Step — шаг процесса.
type Step struct {
	// ID — идентификатор шага, на него ссылаются depends_on.
	ID string `json:"id"`

	// Name — человекочитаемое имя.
	Name string `json:"name,omitempty"`

	// Type — тип шага. Неизвестные строки сохраняются как есть.
	Type StepType `json:"type"`

	// DependsOn — ID шагов, которые должны завершиться раньше.
	// Порядок сохраняется из YAML.
	DependsOn []string `json:"depends_on"`
}

// HasDependencies возвращает true, если у шага есть depends_on.
func (s Step) HasDependencies() bool {
	return len(s.DependsOn) > 0
}

// ProcessDefinition — разобранное определение процесса.
type ProcessDefinition struct {
	Name        string   `json:"name,omitempty"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Trigger     *Trigger `json:"trigger,omitempty"`
	Steps       []Step   `json:"steps"`
}
