package calc

import (
	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Model resolver
// ---------------------------------------------------------------------------

// groupFor maps a task to the model group serving it.
func groupFor(t Task) (ModelGroup, error) {
	switch t {
	case TaskEHOMO, TaskELUMO, TaskEGap, TaskDipole:
		return GroupMultitask, nil
	case TaskCharges:
		return GroupCharges, nil
	case TaskEForm:
		return GroupSingleEnergy, nil
	}
	return "", errors.Newf(errors.CodeUnrecognizedTask, "unrecognized task %q", t)
}

// resolveModels maps the requested task set under a mode to a deduplicated
// list of model identifiers, preserving first-seen order so that model
// execution order is deterministic. Several multitask properties share one
// identifier.
func resolveModels(tasks []Task, mode LearningMode) ([]ModelID, error) {
	seen := make(map[ModelID]bool, len(tasks))
	ids := make([]ModelID, 0, len(tasks))
	for _, t := range tasks {
		group, err := groupFor(t)
		if err != nil {
			return nil, err
		}
		id := NewModelID(group, mode)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// tasksFor filters the requested task list down to those served by the
// given model group, preserving request order.
func tasksFor(tasks []Task, group ModelGroup) []Task {
	var out []Task
	for _, t := range tasks {
		if g, err := groupFor(t); err == nil && g == group {
			out = append(out, t)
		}
	}
	return out
}
