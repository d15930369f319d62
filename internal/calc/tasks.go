// Package calc implements the prediction orchestration pipeline: molecule
// validation, model resolution, batched inference, aggregation, baseline
// correction, and order-preserving result assembly.
package calc

import (
	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

// Task names a predictable molecular property.
type Task string

const (
	TaskEForm   Task = "E_form"
	TaskEHOMO   Task = "E_homo"
	TaskELUMO   Task = "E_lumo"
	TaskEGap    Task = "E_gap"
	TaskDipole  Task = "dipole"
	TaskCharges Task = "charges"
)

// AllTasks lists every supported task in canonical output order.
var AllTasks = []Task{TaskEForm, TaskEHOMO, TaskELUMO, TaskEGap, TaskDipole, TaskCharges}

// PerAtom reports whether the task produces one value per atom rather than
// a molecule-level scalar.
func (t Task) PerAtom() bool { return t == TaskCharges }

// ParseTask validates a task name from external input.
func ParseTask(name string) (Task, error) {
	for _, t := range AllTasks {
		if string(t) == name {
			return t, nil
		}
	}
	return "", errors.Newf(errors.CodeUnrecognizedTask, "unrecognized task %q", name)
}

// ---------------------------------------------------------------------------
// Learning modes
// ---------------------------------------------------------------------------

// LearningMode selects between predicting a property directly and
// predicting a correction on top of a baseline computation.
type LearningMode string

const (
	ModeDirect LearningMode = "direct"
	ModeDelta  LearningMode = "delta"
)

// ParseMode validates a learning-mode name from external input.
func ParseMode(name string) (LearningMode, error) {
	switch LearningMode(name) {
	case ModeDirect, ModeDelta:
		return LearningMode(name), nil
	}
	return "", errors.InvalidParam("unknown learning mode: " + name)
}

// ---------------------------------------------------------------------------
// Model groups and identifiers
// ---------------------------------------------------------------------------

// ModelGroup names a family of trained models sharing one architecture.
type ModelGroup string

const (
	GroupMultitask    ModelGroup = "multitask"
	GroupCharges      ModelGroup = "charges"
	GroupSingleEnergy ModelGroup = "single_energy"
)

// ModelID is a concrete trained-model identifier, composed from a group
// and a learning mode (for example "multitask_delta").
type ModelID string

// NewModelID composes the identifier for a group under a mode.
func NewModelID(group ModelGroup, mode LearningMode) ModelID {
	return ModelID(string(group) + "_" + string(mode))
}

// Group returns the model-group prefix of the identifier.
func (id ModelID) Group() ModelGroup {
	s := string(id)
	for _, g := range []ModelGroup{GroupMultitask, GroupCharges, GroupSingleEnergy} {
		if len(s) > len(g) && s[:len(g)] == string(g) && s[len(g)] == '_' {
			return g
		}
	}
	return ModelGroup("")
}

// multitaskColumn fixes the output column of each multitask property. The
// ordering is part of the trained models' contract and must not change.
var multitaskColumn = map[Task]int{
	TaskEHOMO:  0,
	TaskELUMO:  1,
	TaskEGap:   2,
	TaskDipole: 3,
}

// multitaskWidth is the number of output columns of a multitask model.
const multitaskWidth = 4

// supportedElements is the element set the models were trained on.
// Molecules containing anything else are excluded during validation.
var supportedElements = map[int]bool{
	1: true, 6: true, 7: true, 8: true, 9: true,
	15: true, 16: true, 17: true, 35: true, 53: true,
}
