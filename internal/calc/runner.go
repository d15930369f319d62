package calc

import (
	"context"
	"time"

	"github.com/molforge/qmdelta/internal/chem"
	"github.com/molforge/qmdelta/internal/logging"
	"github.com/molforge/qmdelta/internal/model"
	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Batch runner
// ---------------------------------------------------------------------------

// batchOutput is the raw result of evaluating one model over one batch.
// ptr holds cumulative atom counts (length = molecule count + 1) so that
// per-atom output can later be split back into per-molecule slices.
type batchOutput struct {
	values []float64
	ptr    []int
	count  int
}

// runBatches partitions the valid molecules into fixed-size, order-preserving
// batches (the last may be shorter) and evaluates the backend over each.
// Batches run sequentially in input order so the atom-count boundaries align
// with the aggregator's splitting.
func (c *Calculator) runBatches(ctx context.Context, backend model.Backend, mols []chem.Molecule) ([]batchOutput, error) {
	nBatches := (len(mols) + c.batchSize - 1) / c.batchSize
	outs := make([]batchOutput, 0, nBatches)

	for start := 0; start < len(mols); start += c.batchSize {
		end := start + c.batchSize
		if end > len(mols) {
			end = len(mols)
		}
		batch := mols[start:end]

		ptr := make([]int, len(batch)+1)
		for i, m := range batch {
			ptr[i+1] = ptr[i] + m.AtomCount()
		}

		began := time.Now()
		values, err := backend.Eval(ctx, batch)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal,
				"evaluating model "+backend.ID())
		}
		c.metrics.RecordInference(backend.ID(), len(batch), time.Since(began).Seconds())

		want := len(batch) * backend.Width()
		if backend.PerAtom() {
			want = ptr[len(batch)]
		}
		if len(values) != want {
			return nil, errors.Newf(errors.CodeShapeMismatch,
				"model %s returned %d values for a batch expecting %d",
				backend.ID(), len(values), want)
		}

		c.log.Debug("batch evaluated",
			logging.String("model", backend.ID()),
			logging.Int("batch_start", start),
			logging.Int("batch_size", len(batch)),
		)
		outs = append(outs, batchOutput{values: values, ptr: ptr, count: len(batch)})
	}
	return outs, nil
}
