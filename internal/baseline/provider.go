// Package baseline supplies reference property values from a cheap
// quantum-chemistry computation, against which learned corrections are
// applied in delta mode.
package baseline

import (
	"context"

	"github.com/molforge/qmdelta/internal/chem"
)

// ---------------------------------------------------------------------------
// Provider interface
// ---------------------------------------------------------------------------

// Result holds the baseline values for one molecule. Energies are in
// Hartree, the dipole moment in Debye, charges in elementary charge units
// with one entry per atom in atom order.
type Result struct {
	EForm   float64   `json:"E_form"`
	EHOMO   float64   `json:"E_homo"`
	ELUMO   float64   `json:"E_lumo"`
	EGap    float64   `json:"E_gap"`
	Dipole  float64   `json:"dipole"`
	Charges []float64 `json:"charges"`
}

// Provider computes baseline properties for a single molecule. Compute is
// invoked synchronously, once per valid molecule; when optimize is set the
// geometry is relaxed before the property evaluation and the molecule's
// coordinates are not written back.
type Provider interface {
	Compute(ctx context.Context, mol chem.Molecule, optimize bool) (*Result, error)
}
