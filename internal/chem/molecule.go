// Package chem defines the molecule abstraction consumed by the prediction
// pipeline, a concrete in-memory implementation, and readers for common
// molecule file formats.
package chem

// Molecule is the capability contract every prediction input must satisfy.
// The pipeline borrows molecules from the caller for the duration of one
// predict call; Embed3D and AddHydrogens mutate the molecule in place as a
// documented side effect of validation.
type Molecule interface {
	// AtomCount returns the number of explicit atoms.
	AtomCount() int

	// AtomicNumbers returns the atomic number of every explicit atom, in
	// atom order. Callers must not mutate the returned slice.
	AtomicNumbers() []int

	// Coordinates returns one (x, y, z) triple per explicit atom, in
	// ångström. Callers must not mutate the returned slice.
	Coordinates() [][3]float64

	// FormalCharge returns the net formal charge.
	FormalCharge() int

	// Is3D reports whether the molecule carries a 3D conformation.
	Is3D() bool

	// Embed3D synthesizes 3D coordinates in place for molecules lacking
	// them. After a successful call Is3D reports true.
	Embed3D() error

	// ExplicitHydrogenCount returns the number of explicit hydrogen atoms.
	ExplicitHydrogenCount() int

	// AddHydrogens materializes all missing hydrogens as explicit atoms,
	// mutating the molecule in place.
	AddHydrogens() error

	// CloneStripped returns an independent scratch copy with all explicit
	// hydrogens removed (and remembered as missing), used to probe whether
	// the original was fully hydrogenated.
	CloneStripped() Molecule
}
