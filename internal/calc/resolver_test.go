package calc

import (
	"strings"
	"testing"

	"github.com/molforge/qmdelta/pkg/errors"
)

func TestResolveModels_Dedup(t *testing.T) {
	ids, err := resolveModels(
		[]Task{TaskEHOMO, TaskELUMO, TaskEForm, TaskEGap, TaskCharges, TaskDipole},
		ModeDelta,
	)
	if err != nil {
		t.Fatalf("resolveModels: %v", err)
	}
	want := []ModelID{"multitask_delta", "single_energy_delta", "charges_delta"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestResolveModels_ModeSuffix(t *testing.T) {
	ids, err := resolveModels([]Task{TaskEForm}, ModeDirect)
	if err != nil {
		t.Fatalf("resolveModels: %v", err)
	}
	if len(ids) != 1 || !strings.HasSuffix(string(ids[0]), "_direct") {
		t.Fatalf("ids = %v, want single _direct identifier", ids)
	}
}

func TestResolveModels_Unrecognized(t *testing.T) {
	_, err := resolveModels([]Task{Task("entropy")}, ModeDelta)
	if !errors.IsCode(err, errors.CodeUnrecognizedTask) {
		t.Fatalf("err = %v, want CodeUnrecognizedTask", err)
	}
}

func TestModelID_Group(t *testing.T) {
	cases := map[ModelID]ModelGroup{
		"multitask_delta":      GroupMultitask,
		"single_energy_direct": GroupSingleEnergy,
		"charges_direct":       GroupCharges,
		"bogus":                ModelGroup(""),
	}
	for id, want := range cases {
		if got := id.Group(); got != want {
			t.Errorf("%s.Group() = %q, want %q", id, got, want)
		}
	}
}

func TestParseTask(t *testing.T) {
	if _, err := ParseTask("E_homo"); err != nil {
		t.Errorf("E_homo rejected: %v", err)
	}
	if _, err := ParseTask("E_HOMO"); err == nil {
		t.Error("task names are case-sensitive; E_HOMO must be rejected")
	}
}
