package calc

import (
	"fmt"

	"github.com/molforge/qmdelta/internal/chem"
	"github.com/molforge/qmdelta/internal/logging"
	"github.com/molforge/qmdelta/internal/metrics"
)

// ---------------------------------------------------------------------------
// Validation outcomes
// ---------------------------------------------------------------------------

// ValidationOutcome classifies a molecule after the ordered check sequence.
// Exactly one outcome is assigned per molecule; everything except
// OutcomeValid is fatal and excludes the molecule from all later stages.
type ValidationOutcome int

const (
	OutcomeValid ValidationOutcome = iota
	OutcomeInvalidStructure
	OutcomeUnsupportedAtomType
	OutcomeNonNeutralCharge
	OutcomeMissingGeometryAndHydrogens
	OutcomeBaselineFailure
)

// String returns the diagnostic category name of the outcome.
func (o ValidationOutcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeInvalidStructure:
		return "invalid_structure"
	case OutcomeUnsupportedAtomType:
		return "unsupported_atom_type"
	case OutcomeNonNeutralCharge:
		return "non_neutral_charge"
	case OutcomeMissingGeometryAndHydrogens:
		return "missing_geometry_and_hydrogens"
	case OutcomeBaselineFailure:
		return "baseline_failure"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(o))
	}
}

// Informational diagnostic categories that do not fail a molecule.
const (
	categoryGeometryAssigned = "3d_assigned"
	categoryGeometryMissing  = "3d_missing"
	categoryHydrogensAdded   = "hydrogens_added"
	categoryHydrogensMissing = "hydrogens_missing"
)

// ---------------------------------------------------------------------------
// Diagnostics sink
// ---------------------------------------------------------------------------

// DiagnosticsSink receives aggregated validation diagnostics, one call per
// category per predict invocation. Positions are original input indices.
type DiagnosticsSink interface {
	Record(category string, positions []int)
}

// logSink reports diagnostics through the structured logger.
type logSink struct {
	log logging.Logger
}

// NewLogSink returns a DiagnosticsSink that writes one warning per
// category through log.
func NewLogSink(log logging.Logger) DiagnosticsSink {
	return &logSink{log: log}
}

func (s *logSink) Record(category string, positions []int) {
	s.log.Warn("validation diagnostics",
		logging.String("category", category),
		logging.Int("count", len(positions)),
		logging.Ints("positions", positions),
	)
}

// ---------------------------------------------------------------------------
// Validator
// ---------------------------------------------------------------------------

// validator runs the fixed check sequence over an input batch. Checks
// short-circuit on the first fatal outcome, so a molecule appears in
// exactly one diagnostic category.
type validator struct {
	force3D bool
	addH    bool
	sink    DiagnosticsSink
	metrics metrics.Metrics
}

// validationResult carries everything downstream stages need: the surviving
// molecules in input order, their original positions, and the fatal set.
type validationResult struct {
	valid    []chem.Molecule
	validIdx []int
	fatal    map[int]ValidationOutcome
}

func (v *validator) run(mols []chem.Molecule) *validationResult {
	res := &validationResult{
		valid:    make([]chem.Molecule, 0, len(mols)),
		validIdx: make([]int, 0, len(mols)),
		fatal:    make(map[int]ValidationOutcome),
	}
	diag := make(map[string][]int)

	for i, m := range mols {
		outcome := v.check(m, diag, i)
		if outcome == OutcomeValid {
			res.valid = append(res.valid, m)
			res.validIdx = append(res.validIdx, i)
		} else {
			res.fatal[i] = outcome
			diag[outcome.String()] = append(diag[outcome.String()], i)
		}
		v.metrics.RecordValidation(outcome.String(), 1)
	}

	// One sink call per category, never per molecule.
	for _, category := range []string{
		OutcomeInvalidStructure.String(),
		OutcomeUnsupportedAtomType.String(),
		OutcomeNonNeutralCharge.String(),
		OutcomeMissingGeometryAndHydrogens.String(),
		categoryGeometryAssigned,
		categoryGeometryMissing,
		categoryHydrogensAdded,
		categoryHydrogensMissing,
	} {
		if positions := diag[category]; len(positions) > 0 {
			v.sink.Record(category, positions)
		}
	}
	return res
}

// check applies the ordered checks to one molecule, mutating geometry and
// hydrogens in place where configuration allows.
func (v *validator) check(m chem.Molecule, diag map[string][]int, pos int) ValidationOutcome {
	if m == nil || m.AtomCount() == 0 {
		return OutcomeInvalidStructure
	}
	for _, z := range m.AtomicNumbers() {
		if !supportedElements[z] {
			return OutcomeUnsupportedAtomType
		}
	}
	if m.FormalCharge() != 0 {
		return OutcomeNonNeutralCharge
	}

	missing3D := !m.Is3D()
	if missing3D && v.force3D {
		if err := m.Embed3D(); err == nil {
			diag[categoryGeometryAssigned] = append(diag[categoryGeometryAssigned], pos)
			missing3D = false
		}
	}

	// Hydrogen probe: strip a scratch copy, re-add, compare counts.
	probe := m.CloneStripped()
	missingH := false
	if err := probe.AddHydrogens(); err == nil {
		missingH = probe.ExplicitHydrogenCount() != m.ExplicitHydrogenCount()
	}

	if missing3D && missingH && !v.addH {
		return OutcomeMissingGeometryAndHydrogens
	}
	if missingH && v.addH {
		if err := m.AddHydrogens(); err == nil {
			diag[categoryHydrogensAdded] = append(diag[categoryHydrogensAdded], pos)
			missingH = false
		}
	}

	// Non-fatal deficits that configuration left unresolved are still
	// surfaced so callers can see which inputs went through incomplete.
	if missing3D {
		diag[categoryGeometryMissing] = append(diag[categoryGeometryMissing], pos)
	}
	if missingH {
		diag[categoryHydrogensMissing] = append(diag[categoryHydrogensMissing], pos)
	}
	return OutcomeValid
}
