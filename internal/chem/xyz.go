package chem

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/molforge/qmdelta/pkg/errors"
)

// XYZStream lazily yields molecules from a multi-frame XYZ file. XYZ
// carries explicit atoms only, so molecules read from it have no implicit
// hydrogen bookkeeping and a neutral formal charge.
type XYZStream struct {
	s    *bufio.Scanner
	line int
}

// NewXYZStream wraps r in a lazy XYZ reader.
func NewXYZStream(r io.Reader) *XYZStream {
	return &XYZStream{s: bufio.NewScanner(r)}
}

// Next returns the next molecule in the file, or io.EOF once the input is
// exhausted.
func (x *XYZStream) Next() (Molecule, error) {
	header, ok := x.scanNonBlank()
	if !ok {
		return nil, io.EOF
	}
	n, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || n <= 0 {
		return nil, errors.Newf(errors.CodeMoleculeParse,
			"xyz line %d: expected atom count, got %q", x.line, header)
	}
	if !x.scan() { // comment line
		return nil, errors.Newf(errors.CodeMoleculeParse,
			"xyz line %d: truncated frame, missing comment line", x.line)
	}

	numbers := make([]int, 0, n)
	coords := make([][3]float64, 0, n)
	for i := 0; i < n; i++ {
		if !x.scan() {
			return nil, errors.Newf(errors.CodeMoleculeParse,
				"xyz line %d: truncated frame, expected %d atoms, got %d", x.line, n, i)
		}
		fields := strings.Fields(x.s.Text())
		if len(fields) < 4 {
			return nil, errors.Newf(errors.CodeMoleculeParse,
				"xyz line %d: expected `symbol x y z`, got %q", x.line, x.s.Text())
		}
		z, ok := AtomicNumber(fields[0])
		if !ok {
			return nil, errors.Newf(errors.CodeMoleculeParse,
				"xyz line %d: unknown element %q", x.line, fields[0])
		}
		var pos [3]float64
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k+1], 64)
			if err != nil {
				return nil, errors.Newf(errors.CodeMoleculeParse,
					"xyz line %d: bad coordinate %q", x.line, fields[k+1])
			}
			pos[k] = v
		}
		numbers = append(numbers, z)
		coords = append(coords, pos)
	}
	return NewMol(numbers, coords)
}

func (x *XYZStream) scan() bool {
	if !x.s.Scan() {
		return false
	}
	x.line++
	return true
}

func (x *XYZStream) scanNonBlank() (string, bool) {
	for x.scan() {
		if strings.TrimSpace(x.s.Text()) != "" {
			return x.s.Text(), true
		}
	}
	return "", false
}

// ReadXYZ drains r and returns every frame as a molecule.
func ReadXYZ(r io.Reader) ([]Molecule, error) {
	stream := NewXYZStream(r)
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
