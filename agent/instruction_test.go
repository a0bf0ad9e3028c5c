package agent

import (
	"errors"
	"testing"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/internal/testutil"
	"github.com/hupe1980/fittelligence/internal/util"
)

func newTestRunContext() *core.RunContext {
	rc, _ := testutil.NewRunContext("hello", core.Stores{})
	return rc
}

func render(t *testing.T, inst Instruction, rc *core.RunContext) string {
	t.Helper()
	text, err := inst.Resolve(rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := util.RenderTemplate(text, rc.StateView())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out
}

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("You are a master personal trainer.")
	if !inst.IsStatic() {
		t.Fatalf("expected static instruction")
	}
	got, err := inst.Resolve(newTestRunContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "You are a master personal trainer." {
		t.Fatalf("unexpected instruction %q", got)
	}
}

func TestInstruction_FromFunc(t *testing.T) {
	inst := NewInstructionFromFunc(func(rc *core.RunContext) (string, error) {
		return "Coach for " + rc.GetAgentName(), nil
	})
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(newTestRunContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Coach for "+newTestRunContext().GetAgentName() {
		t.Fatalf("unexpected instruction %q", got)
	}
}

func TestInstruction_BuildError(t *testing.T) {
	boom := errors.New("boom")
	inst := NewInstructionFromFunc(func(*core.RunContext) (string, error) { return "", boom })
	_, err := inst.Resolve(newTestRunContext())
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestInstruction_WithState(t *testing.T) {
	inst := NewInstructionFromText("You are a master nutritionist.").WithState("previous_answer", "nutrition_plan")
	if inst.IsStatic() {
		t.Fatalf("expected state sections to make the instruction dynamic")
	}

	rc := newTestRunContext()
	if got := render(t, inst, rc); got != "You are a master nutritionist." {
		t.Fatalf("expected no section before the key is set, got %q", got)
	}

	rc.SetState("nutrition_plan", "2400 kcal, {{ not a template }}")
	want := "You are a master nutritionist.\n\n<PREVIOUS_ANSWER>\n2400 kcal, {{ not a template }}\n</PREVIOUS_ANSWER>"
	if got := render(t, inst, rc); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	rc.SetState("nutrition_plan", "")
	if got := render(t, inst, rc); got != "You are a master nutritionist." {
		t.Fatalf("expected empty value to be skipped, got %q", got)
	}
}

func TestInstruction_WithStateEmptyKey(t *testing.T) {
	inst := NewInstructionFromText("static").WithState("previous_answer", "")
	if !inst.IsStatic() {
		t.Fatalf("expected empty key to be ignored")
	}
}

func TestInstruction_WithStateDoesNotShareSections(t *testing.T) {
	base := NewInstructionFromText("base").WithState("a", "a")
	left := base.WithState("b", "b")
	right := base.WithState("c", "c")

	if len(left.sections) != 2 || len(right.sections) != 2 {
		t.Fatalf("unexpected sections: %v / %v", left.sections, right.sections)
	}
	if left.sections[1].key != "b" || right.sections[1].key != "c" {
		t.Fatalf("sections aliased: %v / %v", left.sections, right.sections)
	}
}
