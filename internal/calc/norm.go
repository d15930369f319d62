package calc

import (
	"encoding/json"
	"io"
	"os"

	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Normalization table
// ---------------------------------------------------------------------------

// NormParams holds the inverse min-max scaling parameters of one multitask
// model: unscaled = raw*Scale + Location, per output column.
type NormParams struct {
	Scale    []float64 `json:"scale"`
	Location []float64 `json:"location"`
}

// NormTable maps model identifiers to their scaling parameters. Only
// multitask models carry an entry; the single-energy model is trained on
// unscaled targets and is never inverse-scaled.
type NormTable map[ModelID]NormParams

// LoadNormTable decodes a normalization table from JSON and validates that
// every entry matches the multitask output width.
func LoadNormTable(r io.Reader) (NormTable, error) {
	var t NormTable
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "decoding normalization table")
	}
	for id, p := range t {
		if len(p.Scale) != multitaskWidth || len(p.Location) != multitaskWidth {
			return nil, errors.Newf(errors.CodeShapeMismatch,
				"normalization entry %s: want %d scale/location terms, got %d/%d",
				id, multitaskWidth, len(p.Scale), len(p.Location))
		}
	}
	return t, nil
}

// LoadNormTableFile reads a normalization table from disk.
func LoadNormTableFile(path string) (NormTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "opening normalization table")
	}
	defer f.Close()
	return LoadNormTable(f)
}

// DefaultNormTable returns the scaling parameters the shipped multitask
// models were trained with.
func DefaultNormTable() NormTable {
	return NormTable{
		NewModelID(GroupMultitask, ModeDelta): {
			Scale:    []float64{0.1203, 0.1931, 0.1921, 0.3400},
			Location: []float64{-0.2513, 0.0367, 0.2880, 1.1723},
		},
		NewModelID(GroupMultitask, ModeDirect): {
			Scale:    []float64{0.2905, 0.3093, 0.3154, 1.2825},
			Location: []float64{-0.2501, 0.0362, 0.2863, 1.4907},
		},
	}
}
