package baseline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/molforge/qmdelta/internal/chem"
	"github.com/molforge/qmdelta/internal/logging"
	"github.com/molforge/qmdelta/internal/metrics"
	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// GFN2-xTB provider
// ---------------------------------------------------------------------------

// XTBConfig configures the external GFN2-xTB invocation.
type XTBConfig struct {
	// Binary is the xtb executable. Defaults to "xtb" on PATH.
	Binary string `mapstructure:"binary"`
	// Scratch is the parent directory for per-invocation work directories.
	// Defaults to the system temp directory.
	Scratch string `mapstructure:"scratch"`
}

// XTB runs the xtb binary once per molecule and parses its JSON output.
type XTB struct {
	bin     string
	scratch string
	log     logging.Logger
	metrics metrics.Metrics
}

// NewXTB builds a provider over the external xtb binary.
func NewXTB(cfg XTBConfig, log logging.Logger, m metrics.Metrics) *XTB {
	bin := cfg.Binary
	if bin == "" {
		bin = "xtb"
	}
	return &XTB{bin: bin, scratch: cfg.Scratch, log: log, metrics: m}
}

// xtbOutput mirrors the fields of xtbout.json this pipeline consumes.
// Energies and orbital eigenvalues are in Hartree except the gap, which
// xtb reports in eV; the dipole is a vector in atomic units.
type xtbOutput struct {
	TotalEnergy    float64   `json:"total energy"`
	HOMO           float64   `json:"HOMO"`
	LUMO           float64   `json:"LUMO"`
	Gap            float64   `json:"HOMO-LUMO gap/eV"`
	Dipole         []float64 `json:"dipole"`
	PartialCharges []float64 `json:"partial charges"`
}

// auToDebye converts a dipole moment from atomic units to Debye.
const auToDebye = 2.5417464519

// atomReference holds the GFN2-xTB single-atom energies (Hartree) used to
// turn a total energy into a formation energy.
var atomReference = map[int]float64{
	1:  -0.393482763936,
	6:  -1.793296371365,
	7:  -2.605824161279,
	8:  -3.767606950376,
	9:  -4.619339964238,
	15: -2.377807088084,
	16: -3.146456870402,
	17: -4.482525134961,
	35: -4.048339371234,
	53: -3.779630263390,
}

// Compute writes the molecule as XYZ into a scratch directory, runs
// `xtb mol.xyz --json` (with --opt when optimize is set), and extracts the
// baseline properties from xtbout.json.
func (x *XTB) Compute(ctx context.Context, mol chem.Molecule, optimize bool) (*Result, error) {
	began := time.Now()
	dir, err := os.MkdirTemp(x.scratch, "qmdelta-xtb-*")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "creating xtb scratch directory")
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "mol.xyz")
	if err := os.WriteFile(input, []byte(formatXYZ(mol)), 0o644); err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "writing xtb input")
	}

	args := []string{"mol.xyz", "--json"}
	if optimize {
		args = append(args, "--opt")
	}
	cmd := exec.CommandContext(ctx, x.bin, args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		x.log.Warn("xtb invocation failed",
			logging.String("binary", x.bin),
			logging.Err(err),
		)
		return nil, errors.Wrap(err, errors.CodeBaselineFailure,
			"xtb failed: "+tail(string(out), 400))
	}

	raw, err := os.ReadFile(filepath.Join(dir, "xtbout.json"))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBaselineParse, "reading xtbout.json")
	}
	res, err := parseXTBOutput(raw, mol)
	if err != nil {
		return nil, err
	}
	x.metrics.RecordBaseline(time.Since(began).Seconds(), false)
	return res, nil
}

// parseXTBOutput converts the raw xtbout.json payload into a Result.
func parseXTBOutput(raw []byte, mol chem.Molecule) (*Result, error) {
	var out xtbOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, errors.CodeBaselineParse, "decoding xtbout.json")
	}
	if len(out.PartialCharges) != mol.AtomCount() {
		return nil, errors.Newf(errors.CodeBaselineParse,
			"xtb returned %d partial charges for %d atoms",
			len(out.PartialCharges), mol.AtomCount())
	}

	eform := out.TotalEnergy
	for _, z := range mol.AtomicNumbers() {
		ref, ok := atomReference[z]
		if !ok {
			return nil, errors.Newf(errors.CodeBaselineParse,
				"no atomic reference energy for element %s", chem.Symbol(z))
		}
		eform -= ref
	}

	dipole := 0.0
	if len(out.Dipole) == 3 {
		dipole = math.Sqrt(out.Dipole[0]*out.Dipole[0]+
			out.Dipole[1]*out.Dipole[1]+
			out.Dipole[2]*out.Dipole[2]) * auToDebye
	}

	return &Result{
		EForm:   eform,
		EHOMO:   out.HOMO,
		ELUMO:   out.LUMO,
		EGap:    out.Gap,
		Dipole:  dipole,
		Charges: out.PartialCharges,
	}, nil
}

// formatXYZ renders the molecule in XYZ format for the xtb input file.
func formatXYZ(mol chem.Molecule) string {
	var b strings.Builder
	numbers := mol.AtomicNumbers()
	coords := mol.Coordinates()
	fmt.Fprintf(&b, "%d\n\n", len(numbers))
	for i, z := range numbers {
		fmt.Fprintf(&b, "%s %.8f %.8f %.8f\n",
			chem.Symbol(z), coords[i][0], coords[i][1], coords[i][2])
	}
	return b.String()
}

// tail returns at most the last n bytes of s.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
