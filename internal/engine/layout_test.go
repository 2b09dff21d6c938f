package engine

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildLayout_Diamond(t *testing.T) {
	text := `
name: diamond
steps:
  - id: A
    type: agent_task
  - id: B
    type: agent_task
    depends_on: [A]
  - id: C
    type: gateway
    depends_on: [A]
  - id: D
    type: human_approval
    depends_on: [B, C]
`
	layout := BuildLayout(text)
	if layout.Err != nil {
		t.Fatalf("unexpected error: %v", layout.Err)
	}

	if got := groupIDs(layout.Groups); !reflect.DeepEqual(got, [][]string{{"A"}, {"B", "C"}, {"D"}}) {
		t.Errorf("unexpected groups: %v", got)
	}
	if len(layout.Unresolved) != 0 {
		t.Errorf("expected no diagnostics, got %+v", layout.Unresolved)
	}
	if layout.Definition.Name != "diamond" {
		t.Errorf("expected name diamond, got %q", layout.Definition.Name)
	}

	stats := layout.Stats()
	want := Stats{StepCount: 4, LevelCount: 3, MaxParallel: 2}
	if stats != want {
		t.Errorf("expected stats %+v, got %+v", want, stats)
	}
}

func TestBuildLayout_ParseError(t *testing.T) {
	layout := BuildLayout("steps: [oops\n")

	if !errors.Is(layout.Err, ErrMalformedYAML) {
		t.Fatalf("expected ErrMalformedYAML, got %v", layout.Err)
	}
	if len(layout.Steps) != 0 || len(layout.Groups) != 0 || len(layout.Levels) != 0 {
		t.Errorf("expected empty layout, got %+v", layout)
	}
	if layout.Stats() != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", layout.Stats())
	}
}

func TestBuildLayout_EmptySteps(t *testing.T) {
	layout := BuildLayout("steps: []\n")

	if layout.Err != nil {
		t.Fatalf("unexpected error: %v", layout.Err)
	}
	if len(layout.Groups) != 0 {
		t.Errorf("expected no groups, got %d", len(layout.Groups))
	}
}

func TestDiagnose(t *testing.T) {
	text := `
steps:
  - id: start
  - id: orphan
    depends_on: [ghost]
  - id: loop_a
    depends_on: [start, loop_b]
  - id: loop_b
    depends_on: [loop_a]
  - id: after_loop
    depends_on: [loop_b]
  - id: narcissus
    depends_on: [narcissus]
  - id: blank_ref
    depends_on: ['']
  - id: null_ref
    depends_on: [~]
`
	layout := BuildLayout(text)
	if layout.Err != nil {
		t.Fatalf("unexpected error: %v", layout.Err)
	}

	want := []Diagnostic{
		{StepID: "orphan", Reason: ReasonMissingDependency, Missing: []string{"ghost"}},
		{StepID: "loop_a", Reason: ReasonCycle, BlockedBy: []string{"loop_b"}},
		{StepID: "loop_b", Reason: ReasonCycle, BlockedBy: []string{"loop_a"}},
		{StepID: "after_loop", Reason: ReasonBlocked, BlockedBy: []string{"loop_b"}},
		{StepID: "narcissus", Reason: ReasonSelfDependency},
		{StepID: "blank_ref", Reason: ReasonMissingDependency, Missing: []string{""}},
		{StepID: "null_ref", Reason: ReasonMissingDependency, Missing: []string{""}},
	}
	if !reflect.DeepEqual(layout.Unresolved, want) {
		t.Errorf("diagnostics mismatch:\n got  %+v\n want %+v", layout.Unresolved, want)
	}
	if got := layout.UnresolvedIDs(); !reflect.DeepEqual(got, []string{"orphan", "loop_a", "loop_b", "after_loop", "narcissus", "blank_ref", "null_ref"}) {
		t.Errorf("unexpected unresolved ids: %v", got)
	}

	// Диагностика не меняет группировку: всё нерешённое — на уровне 0
	want0 := []string{"start", "orphan", "loop_a", "loop_b", "after_loop", "narcissus", "blank_ref", "null_ref"}
	if got := groupIDs(layout.Groups); !reflect.DeepEqual(got, [][]string{want0}) {
		t.Errorf("expected single level-0 group, got %v", got)
	}
}
