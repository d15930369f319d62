package calc

import (
	"context"
	"io"

	"github.com/molforge/qmdelta/internal/chem"
	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Streaming mode
// ---------------------------------------------------------------------------

// PredictStream consumes a lazily-produced molecule stream to exhaustion,
// running the full pipeline over chunks of at most the configured batch
// size and accumulating per-task results across chunks. Positions in the
// returned Result follow consumption order. A stream that yields no
// molecules is treated like an empty input.
func (c *Calculator) PredictStream(ctx context.Context, stream chem.MoleculeStream) (*Result, error) {
	acc := &Result{
		Values: make(map[Task][]float64),
		Fatal:  make(map[int]ValidationOutcome),
	}
	consumed := 0

	for {
		chunk, err := c.nextChunk(stream)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}

		res, err := c.Predict(ctx, chunk)
		if err != nil {
			return nil, err
		}

		for t, vals := range res.Values {
			acc.Values[t] = append(acc.Values[t], vals...)
		}
		if res.Charges != nil {
			acc.Charges = append(acc.Charges, res.Charges...)
		}
		for pos, outcome := range res.Fatal {
			acc.Fatal[consumed+pos] = outcome
		}
		consumed += len(chunk)
	}

	if consumed == 0 {
		return nil, errors.New(errors.CodeNoMolecules, "no molecules provided")
	}
	return acc, nil
}

// nextChunk pulls up to batchSize molecules from the stream. A short or
// empty chunk signals the stream is exhausted.
func (c *Calculator) nextChunk(stream chem.MoleculeStream) ([]chem.Molecule, error) {
	chunk := make([]chem.Molecule, 0, c.batchSize)
	for len(chunk) < c.batchSize {
		m, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		chunk = append(chunk, m)
	}
	return chunk, nil
}
