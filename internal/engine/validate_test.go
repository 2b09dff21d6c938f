package engine

import (
	"errors"
	"testing"
	_ "time/tzdata"

	"github.com/shaiso/Trinity/internal/domain"
)

func TestValidate_EmptySteps(t *testing.T) {
	tests := []struct {
		name string
		def  *domain.ProcessDefinition
	}{
		{
			name: "nil definition",
			def:  nil,
		},
		{
			name: "empty steps",
			def:  &domain.ProcessDefinition{Steps: []domain.Step{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.def)
			if !errors.Is(err, ErrEmptySteps) {
				t.Errorf("expected ErrEmptySteps, got %v", err)
			}
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	parsed := Parse(`
name: nightly-digest
trigger:
  type: schedule
  schedule: "0 6 * * 1-5"
  timezone: Europe/Berlin
steps:
  - id: collect
    type: agent_task
  - id: approve
    type: human_approval
    depends_on: [collect]
  - id: notify
    type: notification
    depends_on: [approve]
`)
	if parsed.Err != nil {
		t.Fatalf("unexpected parse error: %v", parsed.Err)
	}

	if err := Validate(&parsed.Definition); err != nil {
		t.Errorf("expected valid definition, got %v", err)
	}
}

func TestValidate_StepErrors(t *testing.T) {
	tests := []struct {
		name     string
		steps    []domain.Step
		wantErr  error
		wantStep string
	}{
		{
			name:    "empty id",
			steps:   []domain.Step{{ID: "", Type: domain.StepTypeAgentTask}},
			wantErr: ErrEmptyStepID,
		},
		{
			name: "duplicate id",
			steps: []domain.Step{
				{ID: "a", Type: domain.StepTypeAgentTask},
				{ID: "a", Type: domain.StepTypeTimer},
			},
			wantErr:  ErrDuplicateStepID,
			wantStep: "a",
		},
		{
			name:     "unknown type",
			steps:    []domain.Step{{ID: "a", Type: "teleport"}},
			wantErr:  ErrUnknownStepType,
			wantStep: "a",
		},
		{
			name:     "type missing in yaml",
			steps:    []domain.Step{{ID: "a", Type: domain.StepTypeUnknown}},
			wantErr:  ErrUnknownStepType,
			wantStep: "a",
		},
		{
			name:     "self dependency",
			steps:    []domain.Step{{ID: "a", Type: domain.StepTypeGateway, DependsOn: []string{"a"}}},
			wantErr:  ErrSelfDependency,
			wantStep: "a",
		},
		{
			name: "missing dependency",
			steps: []domain.Step{
				{ID: "a", Type: domain.StepTypeAgentTask},
				{ID: "b", Type: domain.StepTypeAgentTask, DependsOn: []string{"ghost"}},
			},
			wantErr:  ErrMissingDependency,
			wantStep: "b",
		},
		{
			name: "cycle",
			steps: []domain.Step{
				{ID: "a", Type: domain.StepTypeAgentTask},
				{ID: "b", Type: domain.StepTypeAgentTask, DependsOn: []string{"a", "c"}},
				{ID: "c", Type: domain.StepTypeAgentTask, DependsOn: []string{"b"}},
			},
			wantErr:  ErrCyclicDependency,
			wantStep: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&domain.ProcessDefinition{Steps: tt.steps})
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if !errors.Is(vErr, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, vErr.Err)
			}
			if vErr.StepID != tt.wantStep {
				t.Errorf("expected step %q, got %q", tt.wantStep, vErr.StepID)
			}
		})
	}
}

func TestValidateTrigger(t *testing.T) {
	tests := []struct {
		name      string
		trigger   *domain.Trigger
		wantErr   bool
		wantField string
	}{
		{name: "nil", trigger: nil},
		{name: "manual", trigger: &domain.Trigger{Type: domain.TriggerManual}},
		{name: "webhook", trigger: &domain.Trigger{Type: domain.TriggerWebhook}},
		{name: "schedule", trigger: &domain.Trigger{Type: domain.TriggerSchedule, Schedule: "*/5 * * * *"}},
		{
			name:      "empty type",
			trigger:   &domain.Trigger{},
			wantErr:   true,
			wantField: "trigger.type",
		},
		{
			name:      "unknown type",
			trigger:   &domain.Trigger{Type: "email"},
			wantErr:   true,
			wantField: "trigger.type",
		},
		{
			name:      "schedule without expression",
			trigger:   &domain.Trigger{Type: domain.TriggerSchedule},
			wantErr:   true,
			wantField: "trigger.schedule",
		},
		{
			name:      "bad cron",
			trigger:   &domain.Trigger{Type: domain.TriggerSchedule, Schedule: "daily"},
			wantErr:   true,
			wantField: "trigger.schedule",
		},
		{
			name:      "bad timezone",
			trigger:   &domain.Trigger{Type: domain.TriggerSchedule, Schedule: "0 1 * * *", Timezone: "Mars/Olympus"},
			wantErr:   true,
			wantField: "trigger.timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTrigger(tt.trigger)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !errors.Is(err, ErrInvalidTrigger) {
				t.Errorf("expected ErrInvalidTrigger, got %v", vErr.Err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, vErr.Field)
			}
		})
	}
}

func TestIsValidStepType(t *testing.T) {
	for _, st := range domain.KnownStepTypes {
		if !IsValidStepType(string(st)) {
			t.Errorf("%s should be valid", st)
		}
	}
	for _, st := range []string{"", "unknown", "http"} {
		if IsValidStepType(st) {
			t.Errorf("%q should be invalid", st)
		}
	}
}
