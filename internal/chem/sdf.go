package chem

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/molforge/qmdelta/pkg/errors"
)

// SDFStream lazily yields molecules from an SDF/MOL (V2000) file. Implicit
// hydrogens are derived from default valences minus the explicit bond
// degree, and formal charges are taken from `M  CHG` property lines.
type SDFStream struct {
	s    *bufio.Scanner
	line int
}

// NewSDFStream wraps r in a lazy SDF reader.
func NewSDFStream(r io.Reader) *SDFStream {
	return &SDFStream{s: bufio.NewScanner(r)}
}

// Next returns the next record in the file, or io.EOF once the input is
// exhausted.
func (f *SDFStream) Next() (Molecule, error) {
	// Three header lines: title, program, comment. A clean EOF before the
	// first one ends the stream.
	if _, ok := f.scanNonBlank(); !ok {
		return nil, io.EOF
	}
	for i := 0; i < 2; i++ {
		if !f.scan() {
			return nil, f.truncated("header")
		}
	}

	if !f.scan() {
		return nil, f.truncated("counts line")
	}
	counts := f.s.Text()
	nAtoms, err1 := fixedField(counts, 0, 3)
	nBonds, err2 := fixedField(counts, 3, 6)
	if err1 != nil || err2 != nil {
		return nil, errors.Newf(errors.CodeMoleculeParse,
			"sdf line %d: bad counts line %q", f.line, counts)
	}

	numbers := make([]int, 0, nAtoms)
	coords := make([][3]float64, 0, nAtoms)
	for i := 0; i < nAtoms; i++ {
		if !f.scan() {
			return nil, f.truncated("atom block")
		}
		fields := strings.Fields(f.s.Text())
		if len(fields) < 4 {
			return nil, errors.Newf(errors.CodeMoleculeParse,
				"sdf line %d: bad atom line %q", f.line, f.s.Text())
		}
		var pos [3]float64
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return nil, errors.Newf(errors.CodeMoleculeParse,
					"sdf line %d: bad coordinate %q", f.line, fields[k])
			}
			pos[k] = v
		}
		z, ok := AtomicNumber(fields[3])
		if !ok {
			return nil, errors.Newf(errors.CodeMoleculeParse,
				"sdf line %d: unknown element %q", f.line, fields[3])
		}
		numbers = append(numbers, z)
		coords = append(coords, pos)
	}

	degree := make([]int, nAtoms)
	for i := 0; i < nBonds; i++ {
		if !f.scan() {
			return nil, f.truncated("bond block")
		}
		l := f.s.Text()
		a, err1 := fixedField(l, 0, 3)
		b, err2 := fixedField(l, 3, 6)
		order, err3 := fixedField(l, 6, 9)
		if err1 != nil || err2 != nil || err3 != nil ||
			a < 1 || a > nAtoms || b < 1 || b > nAtoms {
			return nil, errors.Newf(errors.CodeMoleculeParse,
				"sdf line %d: bad bond line %q", f.line, l)
		}
		degree[a-1] += order
		degree[b-1] += order
	}

	// Property block up to M  END, then trailing data items up to $$$$.
	charge := 0
	for {
		if !f.scan() {
			return nil, f.truncated("property block")
		}
		l := f.s.Text()
		if strings.HasPrefix(l, "M  CHG") {
			fields := strings.Fields(l)
			// M  CHG n (idx chg){n}
			for k := 3; k+1 < len(fields); k += 2 {
				c, err := strconv.Atoi(fields[k+1])
				if err != nil {
					return nil, errors.Newf(errors.CodeMoleculeParse,
						"sdf line %d: bad charge entry %q", f.line, l)
				}
				charge += c
			}
		}
		if strings.HasPrefix(l, "M  END") {
			break
		}
	}
	for f.scan() {
		if strings.HasPrefix(f.s.Text(), "$$$$") {
			break
		}
	}

	missing := make([]int, nAtoms)
	for i, z := range numbers {
		if z == 1 {
			continue
		}
		if v, ok := DefaultValence(z); ok && degree[i] < v {
			missing[i] = v - degree[i]
		}
	}
	return NewMol(numbers, coords, WithCharge(charge), WithMissingHydrogens(missing))
}

func (f *SDFStream) scan() bool {
	if !f.s.Scan() {
		return false
	}
	f.line++
	return true
}

func (f *SDFStream) scanNonBlank() (string, bool) {
	for f.scan() {
		if strings.TrimSpace(f.s.Text()) != "" {
			return f.s.Text(), true
		}
	}
	return "", false
}

func (f *SDFStream) truncated(section string) error {
	return errors.Newf(errors.CodeMoleculeParse,
		"sdf line %d: truncated record in %s", f.line, section)
}

// fixedField parses the integer in the fixed-width column [from, to) of a
// V2000 line, tolerating short lines by trimming.
func fixedField(line string, from, to int) (int, error) {
	if len(line) < to {
		to = len(line)
	}
	if from >= to {
		return 0, errors.New(errors.CodeMoleculeParse, "field out of range")
	}
	return strconv.Atoi(strings.TrimSpace(line[from:to]))
}

// ReadSDF drains r and returns every record as a molecule.
func ReadSDF(r io.Reader) ([]Molecule, error) {
	stream := NewSDFStream(r)
	var mols []Molecule
	for {
		m, err := stream.Next()
		if err == io.EOF {
			return mols, nil
		}
		if err != nil {
			return nil, err
		}
		mols = append(mols, m)
	}
}
