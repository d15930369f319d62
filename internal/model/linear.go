package model

import (
	"context"
	"encoding/json"

	"github.com/molforge/qmdelta/internal/chem"
	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Weight blob layout
// ---------------------------------------------------------------------------

// weightBlob is the JSON layout of a stored weight file. Contributions are
// keyed by element symbol; each entry carries one term per output column.
type weightBlob struct {
	ID            string               `json:"id"`
	PerAtom       bool                 `json:"per_atom"`
	Width         int                  `json:"width"`
	Bias          []float64            `json:"bias"`
	Contributions map[string][]float64 `json:"contributions"`
}

// ---------------------------------------------------------------------------
// Atomic-contribution backend
// ---------------------------------------------------------------------------

// linearBackend is a deterministic additive model: every output column is a
// bias plus the sum of per-element contribution terms over the molecule's
// atoms. Per-atom models emit the single-column term of each atom instead.
type linearBackend struct {
	id      string
	perAtom bool
	width   int
	bias    []float64
	terms   map[int][]float64 // atomic number -> per-column contribution
}

// Load decodes a weight blob into a runnable backend for the given model
// identifier.
func Load(id string, blob []byte) (Backend, error) {
	var w weightBlob
	if err := json.Unmarshal(blob, &w); err != nil {
		return nil, errors.Wrap(err, errors.CodeWeightCorrupt,
			"decoding weight blob for "+id)
	}
	if w.ID != "" && w.ID != id {
		return nil, errors.Newf(errors.CodeWeightCorrupt,
			"weight blob identifies as %q, loaded for %q", w.ID, id)
	}
	if w.Width < 1 {
		return nil, errors.Newf(errors.CodeWeightCorrupt,
			"model %s: invalid output width %d", id, w.Width)
	}
	if w.PerAtom && w.Width != 1 {
		return nil, errors.Newf(errors.CodeWeightCorrupt,
			"model %s: per-atom model must have width 1, got %d", id, w.Width)
	}
	if len(w.Bias) != w.Width {
		return nil, errors.Newf(errors.CodeWeightCorrupt,
			"model %s: bias length %d does not match width %d", id, len(w.Bias), w.Width)
	}
	terms := make(map[int][]float64, len(w.Contributions))
	for sym, row := range w.Contributions {
		z, ok := chem.AtomicNumber(sym)
		if !ok {
			return nil, errors.Newf(errors.CodeWeightCorrupt,
				"model %s: unknown element %q in contributions", id, sym)
		}
		if len(row) != w.Width {
			return nil, errors.Newf(errors.CodeWeightCorrupt,
				"model %s: contribution for %s has %d terms, want %d", id, sym, len(row), w.Width)
		}
		terms[z] = row
	}
	return &linearBackend{
		id:      id,
		perAtom: w.PerAtom,
		width:   w.Width,
		bias:    w.Bias,
		terms:   terms,
	}, nil
}

func (b *linearBackend) ID() string    { return b.id }
func (b *linearBackend) PerAtom() bool { return b.perAtom }
func (b *linearBackend) Width() int    { return b.width }

// Eval accumulates contribution terms over each molecule's atoms. Elements
// without a stored contribution contribute zero.
func (b *linearBackend) Eval(ctx context.Context, mols []chem.Molecule) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "model evaluation cancelled")
	}
	if b.perAtom {
		var out []float64
		for _, m := range mols {
			for _, z := range m.AtomicNumbers() {
				v := b.bias[0]
				if row, ok := b.terms[z]; ok {
					v += row[0]
				}
				out = append(out, v)
			}
		}
		return out, nil
	}
	out := make([]float64, 0, len(mols)*b.width)
	for _, m := range mols {
		row := make([]float64, b.width)
		copy(row, b.bias)
		for _, z := range m.AtomicNumbers() {
			if terms, ok := b.terms[z]; ok {
				for j, t := range terms {
					row[j] += t
				}
			}
		}
		out = append(out, row...)
	}
	return out, nil
}
