package steps

import (
	"errors"

	"github.com/shaiso/Trinity/internal/domain"
)

// ErrKindNotFound — тип шага не зарегистрирован.
var ErrKindNotFound = errors.New("step kind not found")

// Kind — описание типа шага для отображения.
type Kind struct {
	Type        domain.StepType `json:"type"`
	Label       string          `json:"label"`
	Description string          `json:"description"`

	// Color — ANSI 256 код цвета рамки в swimlane.
	Color string `json:"color"`
}

// Fallback — описание для типов, которых нет в реестре.
func Fallback(stepType domain.StepType) Kind {
	label := string(stepType)
	if label == "" {
		label = string(domain.StepTypeUnknown)
	}
	return Kind{
		Type:        stepType,
		Label:       label,
		Description: "Unrecognised step type",
		Color:       "245",
	}
}

func builtinKinds() []Kind {
	return []Kind{
		{
			Type:        domain.StepTypeAgentTask,
			Label:       "agent",
			Description: "Task executed by an AI agent",
			Color:       "39",
		},
		{
			Type:        domain.StepTypeHumanApproval,
			Label:       "approval",
			Description: "Waits for a human decision",
			Color:       "214",
		},
		{
			Type:        domain.StepTypeGateway,
			Label:       "gateway",
			Description: "Branching or merging point",
			Color:       "170",
		},
		{
			Type:        domain.StepTypeNotification,
			Label:       "notify",
			Description: "Sends a notification",
			Color:       "42",
		},
		{
			Type:        domain.StepTypeSubProcess,
			Label:       "subprocess",
			Description: "Runs another process definition",
			Color:       "111",
		},
		{
			Type:        domain.StepTypeTimer,
			Label:       "timer",
			Description: "Waits until a time or duration",
			Color:       "180",
		},
	}
}
