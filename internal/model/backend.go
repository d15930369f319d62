package model

import (
	"context"

	"github.com/molforge/qmdelta/internal/chem"
)

// ---------------------------------------------------------------------------
// Backend interface
// ---------------------------------------------------------------------------

// Backend evaluates a trained model over an ordered batch of molecules.
// Evaluation is inference-only: implementations never mutate their
// parameters, and two calls over the same batch return identical output.
type Backend interface {
	// ID returns the model identifier the backend was loaded for.
	ID() string

	// PerAtom reports whether the model emits one value per atom rather
	// than a fixed-width row per molecule. Per-atom backends have Width 1.
	PerAtom() bool

	// Width returns the number of output columns per molecule.
	Width() int

	// Eval runs the model over mols and returns the flat output tensor:
	// row-major molecule rows of Width values, or one value per atom in
	// batch order when PerAtom is true.
	Eval(ctx context.Context, mols []chem.Molecule) ([]float64, error)
}
