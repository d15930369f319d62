package calc

import (
	"gonum.org/v1/gonum/floats"

	"github.com/molforge/qmdelta/internal/baseline"
	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Delta corrector
// ---------------------------------------------------------------------------

// baselineValue extracts the scalar baseline for a molecule-level task.
func baselineValue(r *baseline.Result, t Task) float64 {
	switch t {
	case TaskEForm:
		return r.EForm
	case TaskEHOMO:
		return r.EHOMO
	case TaskELUMO:
		return r.ELUMO
	case TaskEGap:
		return r.EGap
	case TaskDipole:
		return r.Dipole
	}
	return 0
}

// applyDelta adds the baseline values to the learned corrections in place.
// Scalar tasks are corrected with dense array addition; charges are
// corrected per molecule, and a per-atom length mismatch is a contract
// violation, not a recoverable condition.
func (c *Calculator) applyDelta(pred *predictionSet, baselines []*baseline.Result) error {
	for t, deltas := range pred.scalars {
		if len(deltas) != len(baselines) {
			return errors.Newf(errors.CodeShapeMismatch,
				"task %s: %d corrections for %d baselines", t, len(deltas), len(baselines))
		}
		base := make([]float64, len(baselines))
		for i, b := range baselines {
			base[i] = baselineValue(b, t)
		}
		floats.Add(deltas, base)
	}

	if pred.charges != nil {
		if len(pred.charges) != len(baselines) {
			return errors.Newf(errors.CodeShapeMismatch,
				"charges: %d corrections for %d baselines", len(pred.charges), len(baselines))
		}
		for i, deltas := range pred.charges {
			if len(deltas) != len(baselines[i].Charges) {
				return errors.Newf(errors.CodeShapeMismatch,
					"charges for molecule %d: %d atoms predicted, %d in baseline",
					i, len(deltas), len(baselines[i].Charges))
			}
			floats.Add(deltas, baselines[i].Charges)
		}
	}
	return nil
}
