package chem

import (
	"math"

	"github.com/molforge/qmdelta/pkg/errors"
)

type atom struct {
	number int
	pos    [3]float64
}

// Mol is the in-memory Molecule implementation produced by the file
// readers. Hydrogens known to be absent (e.g. implicit hydrogens from an
// SDF bond block) are tracked per heavy atom and materialized on demand by
// AddHydrogens.
type Mol struct {
	atoms    []atom
	missingH []int // parallel to atoms; implicit hydrogens not yet explicit
	charge   int
	threeD   bool
}

// MolOption configures a Mol during construction.
type MolOption func(*Mol)

// WithCharge sets the net formal charge.
func WithCharge(c int) MolOption {
	return func(m *Mol) { m.charge = c }
}

// WithMissingHydrogens records per-atom implicit hydrogen counts, parallel
// to the atom list. Shorter slices are zero-extended.
func WithMissingHydrogens(counts []int) MolOption {
	return func(m *Mol) {
		copy(m.missingH, counts)
	}
}

// NewMol builds a molecule from parallel atomic-number and coordinate
// slices. A molecule whose coordinates are all exactly zero is treated as
// having no geometry; one whose z column is all zero as planar (2D); any
// other as 3D.
func NewMol(numbers []int, coords [][3]float64, opts ...MolOption) (*Mol, error) {
	if len(numbers) != len(coords) {
		return nil, errors.Newf(errors.CodeMoleculeParse,
			"atom count mismatch: %d numbers vs %d coordinates", len(numbers), len(coords))
	}
	m := &Mol{
		atoms:    make([]atom, len(numbers)),
		missingH: make([]int, len(numbers)),
	}
	anyNonZero, anyZ := false, false
	for i := range numbers {
		m.atoms[i] = atom{number: numbers[i], pos: coords[i]}
		for k, v := range coords[i] {
			if v != 0 {
				anyNonZero = true
				if k == 2 {
					anyZ = true
				}
			}
		}
	}
	m.threeD = anyNonZero && anyZ
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

func (m *Mol) AtomCount() int { return len(m.atoms) }

func (m *Mol) AtomicNumbers() []int {
	out := make([]int, len(m.atoms))
	for i, a := range m.atoms {
		out[i] = a.number
	}
	return out
}

func (m *Mol) Coordinates() [][3]float64 {
	out := make([][3]float64, len(m.atoms))
	for i, a := range m.atoms {
		out[i] = a.pos
	}
	return out
}

func (m *Mol) FormalCharge() int { return m.charge }

func (m *Mol) Is3D() bool { return m.threeD }

// Embed3D assigns a deterministic extended-chain conformation to molecules
// lacking 3D coordinates. The layout is a geometry placeholder, not an
// optimized conformer; callers needing physical geometries should supply
// them or enable baseline geometry optimization.
func (m *Mol) Embed3D() error {
	if m.threeD {
		return nil
	}
	const spacing = 1.5
	for i := range m.atoms {
		m.atoms[i].pos = [3]float64{
			spacing * float64(i),
			0.75 * float64(1-2*(i%2)),
			0.40 * float64(i%3),
		}
	}
	m.threeD = true
	return nil
}

func (m *Mol) ExplicitHydrogenCount() int {
	n := 0
	for _, a := range m.atoms {
		if a.number == 1 {
			n++
		}
	}
	return n
}

// hOffsets are the unit directions used to place materialized hydrogens
// around their heavy atom.
var hOffsets = [4][3]float64{
	{1, 0, 0}, {-0.5, 0.87, 0}, {-0.5, -0.87, 0.5}, {0, 0, -1},
}

// AddHydrogens materializes every tracked implicit hydrogen as an explicit
// atom at a fixed bond length from its heavy atom.
func (m *Mol) AddHydrogens() error {
	const bondLength = 1.1
	heavy := len(m.atoms)
	for i := 0; i < heavy; i++ {
		n := m.missingH[i]
		if n == 0 {
			continue
		}
		base := m.atoms[i].pos
		for k := 0; k < n; k++ {
			off := hOffsets[k%len(hOffsets)]
			scale := bondLength * (1 + 0.15*float64(k/len(hOffsets)))
			m.atoms = append(m.atoms, atom{
				number: 1,
				pos: [3]float64{
					base[0] + off[0]*scale,
					base[1] + off[1]*scale,
					base[2] + off[2]*scale,
				},
			})
			m.missingH = append(m.missingH, 0)
		}
		m.missingH[i] = 0
	}
	return nil
}

// CloneStripped returns an independent copy with explicit hydrogens
// removed. Each stripped hydrogen is credited back to its nearest heavy
// atom so a subsequent AddHydrogens restores the original count.
func (m *Mol) CloneStripped() Molecule {
	clone := &Mol{charge: m.charge, threeD: m.threeD}
	heavyIdx := make([]int, 0, len(m.atoms))
	for i, a := range m.atoms {
		if a.number != 1 {
			clone.atoms = append(clone.atoms, a)
			clone.missingH = append(clone.missingH, m.missingH[i])
			heavyIdx = append(heavyIdx, i)
		}
	}
	for i, a := range m.atoms {
		if a.number != 1 {
			continue
		}
		j := nearestIndex(m, heavyIdx, i)
		if j >= 0 {
			clone.missingH[j]++
		}
	}
	return clone
}

// nearestIndex returns the position within heavyIdx of the heavy atom
// closest to atom i, or -1 when the molecule has no heavy atoms.
func nearestIndex(m *Mol, heavyIdx []int, i int) int {
	best, bestD := -1, math.Inf(1)
	for k, j := range heavyIdx {
		d := dist2(m.atoms[i].pos, m.atoms[j].pos)
		if d < bestD {
			best, bestD = k, d
		}
	}
	return best
}

func dist2(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}
