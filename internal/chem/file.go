package chem

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/molforge/qmdelta/pkg/errors"
)

// MoleculeStream is the lazy molecule source satisfied by XYZStream and
// SDFStream: Next returns io.EOF once the underlying input is exhausted.
type MoleculeStream interface {
	Next() (Molecule, error)
}

// ReadMoleculeFile loads every molecule in path, dispatching on the file
// extension (.xyz, .sdf, .mol).
func ReadMoleculeFile(path string) ([]Molecule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "open molecule file")
	}
	defer f.Close()

	stream, err := streamFor(path, f)
	if err != nil {
		return nil, err
	}
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

// OpenMoleculeStream opens path as a lazy molecule stream. The returned
// closer must be called once the stream is drained.
func OpenMoleculeStream(path string) (MoleculeStream, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeIO, "open molecule file")
	}
	stream, err := streamFor(path, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return stream, f, nil
}

func streamFor(path string, r io.Reader) (MoleculeStream, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xyz":
		return NewXYZStream(r), nil
	case ".sdf", ".mol":
		return NewSDFStream(r), nil
	default:
		return nil, errors.Newf(errors.CodeMoleculeFormat,
			"unsupported molecule file extension %q", filepath.Ext(path))
	}
}
