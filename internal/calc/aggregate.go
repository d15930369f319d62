package calc

import (
	"gonum.org/v1/gonum/mat"

	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Prediction set
// ---------------------------------------------------------------------------

// predictionSet accumulates per-task results over the valid molecules. The
// scalar arrays are dense (one entry per valid molecule); charges holds one
// per-atom slice per valid molecule.
type predictionSet struct {
	scalars map[Task][]float64
	charges [][]float64
}

func newPredictionSet() *predictionSet {
	return &predictionSet{scalars: make(map[Task][]float64)}
}

// ---------------------------------------------------------------------------
// Aggregator
// ---------------------------------------------------------------------------

// aggregate reshapes the raw per-batch output of one model into per-task
// arrays and merges them into pred. Multitask output is inverse-scaled with
// the model's normalization entry before column routing; the single-energy
// model is never inverse-scaled.
func (c *Calculator) aggregate(id ModelID, outs []batchOutput, pred *predictionSet) error {
	group := id.Group()
	if group == GroupCharges {
		for _, out := range outs {
			for i := 0; i < out.count; i++ {
				atoms := out.values[out.ptr[i]:out.ptr[i+1]]
				row := make([]float64, len(atoms))
				copy(row, atoms)
				pred.charges = append(pred.charges, row)
			}
		}
		return nil
	}

	width := 1
	if group == GroupMultitask {
		width = multitaskWidth
	}
	rows := 0
	for _, out := range outs {
		rows += out.count
	}
	if rows == 0 {
		if group == GroupSingleEnergy {
			pred.scalars[TaskEForm] = nil
		} else {
			for _, t := range tasksFor(c.tasks, GroupMultitask) {
				pred.scalars[t] = nil
			}
		}
		return nil
	}

	// Stack per-batch rows into one dense (valid molecules x width) matrix.
	stacked := mat.NewDense(rows, width, nil)
	r := 0
	for _, out := range outs {
		for i := 0; i < out.count; i++ {
			stacked.SetRow(r, out.values[i*width:(i+1)*width])
			r++
		}
	}

	if group == GroupMultitask {
		params, ok := c.norm[id]
		if !ok {
			return errors.Newf(errors.CodeShapeMismatch,
				"no normalization entry for model %s", id)
		}
		// Inverse min-max scaling, column-wise: unscaled = raw*scale + location.
		for j := 0; j < width; j++ {
			for i := 0; i < rows; i++ {
				stacked.Set(i, j, stacked.At(i, j)*params.Scale[j]+params.Location[j])
			}
		}
	}

	// Route columns to output tasks.
	switch group {
	case GroupSingleEnergy:
		pred.scalars[TaskEForm] = mat.Col(nil, 0, stacked)
	case GroupMultitask:
		for _, t := range tasksFor(c.tasks, GroupMultitask) {
			pred.scalars[t] = mat.Col(nil, multitaskColumn[t], stacked)
		}
	}
	return nil
}
