package calc

import (
	"testing"

	"github.com/molforge/qmdelta/internal/chem"
	"github.com/molforge/qmdelta/internal/metrics"
)

func newValidator(force3D, addH bool, sink DiagnosticsSink) *validator {
	if sink == nil {
		sink = newCaptureSink()
	}
	return &validator{force3D: force3D, addH: addH, sink: sink, metrics: metrics.NewNoopMetrics()}
}

// flatCarbon has no geometry and four implicit hydrogens, the combination
// that exercises the geometry/hydrogen interplay.
func flatCarbon(t *testing.T) chem.Molecule {
	t.Helper()
	m, err := chem.NewMol([]int{6}, [][3]float64{{0, 0, 0}}, chem.WithMissingHydrogens([]int{4}))
	if err != nil {
		t.Fatalf("NewMol: %v", err)
	}
	return m
}

// bareCarbon3D has a conformation but no hydrogens.
func bareCarbon3D(t *testing.T) chem.Molecule {
	t.Helper()
	m, err := chem.NewMol([]int{6}, [][3]float64{{0.1, 0.2, 0.3}}, chem.WithMissingHydrogens([]int{4}))
	if err != nil {
		t.Fatalf("NewMol: %v", err)
	}
	return m
}

func TestValidator_ShortCircuitOrder(t *testing.T) {
	// A charged molecule with an unsupported atom must be reported as
	// unsupported, never as charged: the atom-type check runs first.
	sodium, err := chem.NewMol([]int{11}, [][3]float64{{0.1, 0.2, 0.3}}, chem.WithCharge(1))
	if err != nil {
		t.Fatalf("NewMol: %v", err)
	}
	sink := newCaptureSink()
	v := newValidator(false, false, sink)

	res := v.run([]chem.Molecule{sodium})
	if res.fatal[0] != OutcomeUnsupportedAtomType {
		t.Fatalf("outcome = %v, want unsupported_atom_type", res.fatal[0])
	}
	if len(sink.records[OutcomeNonNeutralCharge.String()]) != 0 {
		t.Error("charge check ran despite earlier fatal outcome")
	}
	if got := sink.records[OutcomeUnsupportedAtomType.String()]; len(got) != 1 || got[0] != 0 {
		t.Errorf("diagnostics = %v, want [0]", got)
	}
}

func TestValidator_NilAndEmptyAreStructural(t *testing.T) {
	empty, _ := chem.NewMol(nil, nil)
	v := newValidator(false, false, nil)

	res := v.run([]chem.Molecule{nil, empty})
	if res.fatal[0] != OutcomeInvalidStructure || res.fatal[1] != OutcomeInvalidStructure {
		t.Fatalf("fatal = %v, want invalid_structure at 0 and 1", res.fatal)
	}
	if len(res.valid) != 0 {
		t.Errorf("valid = %d molecules, want 0", len(res.valid))
	}
}

func TestValidator_CombinedGeometryHydrogenRule(t *testing.T) {
	cases := []struct {
		name    string
		force3D bool
		addH    bool
		fatal   bool
	}{
		{"neither flag", false, false, true},
		{"addh only", false, true, false},
		{"force3d only", true, false, false},
		{"both", true, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newValidator(tc.force3D, tc.addH, nil)
			res := v.run([]chem.Molecule{flatCarbon(t)})
			if gotFatal := len(res.fatal) > 0; gotFatal != tc.fatal {
				t.Fatalf("fatal = %v, want %v (outcomes %v)", gotFatal, tc.fatal, res.fatal)
			}
			if tc.fatal && res.fatal[0] != OutcomeMissingGeometryAndHydrogens {
				t.Errorf("outcome = %v, want missing_geometry_and_hydrogens", res.fatal[0])
			}
		})
	}
}

func TestValidator_Force3DMutatesInPlace(t *testing.T) {
	m := flatCarbon(t)
	sink := newCaptureSink()
	v := newValidator(true, true, sink)

	res := v.run([]chem.Molecule{m})
	if len(res.fatal) != 0 {
		t.Fatalf("unexpected fatal outcomes: %v", res.fatal)
	}
	if !m.Is3D() {
		t.Error("molecule was not embedded in place")
	}
	if got := sink.records[categoryGeometryAssigned]; len(got) != 1 || got[0] != 0 {
		t.Errorf("3d_assigned diagnostics = %v, want [0]", got)
	}
}

func TestValidator_AddHydrogensMutatesInPlace(t *testing.T) {
	m := bareCarbon3D(t)
	sink := newCaptureSink()
	v := newValidator(false, true, sink)

	res := v.run([]chem.Molecule{m})
	if len(res.fatal) != 0 {
		t.Fatalf("unexpected fatal outcomes: %v", res.fatal)
	}
	if got := m.ExplicitHydrogenCount(); got != 4 {
		t.Errorf("explicit hydrogens = %d, want 4", got)
	}
	if got := sink.records[categoryHydrogensAdded]; len(got) != 1 || got[0] != 0 {
		t.Errorf("hydrogens_added diagnostics = %v, want [0]", got)
	}
}

func TestValidator_MissingHydrogensAloneNotFatal(t *testing.T) {
	// Geometry present, hydrogens missing, addition disabled: the probe is
	// informational only and the molecule proceeds as-is.
	m := bareCarbon3D(t)
	v := newValidator(false, false, nil)

	res := v.run([]chem.Molecule{m})
	if len(res.fatal) != 0 {
		t.Fatalf("unexpected fatal outcomes: %v", res.fatal)
	}
	if got := m.ExplicitHydrogenCount(); got != 0 {
		t.Errorf("molecule was hydrogenated without addh: %d explicit H", got)
	}
}

func TestValidator_RecordsUnresolvedGeometry(t *testing.T) {
	// Geometry missing with embedding disabled: the molecule proceeds but
	// the deficit is reported.
	m, err := chem.NewMol([]int{8, 1, 1}, [][3]float64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}})
	if err != nil {
		t.Fatalf("NewMol: %v", err)
	}
	sink := newCaptureSink()
	v := newValidator(false, false, sink)

	res := v.run([]chem.Molecule{m})
	if len(res.fatal) != 0 {
		t.Fatalf("unexpected fatal outcomes: %v", res.fatal)
	}
	if got := sink.records[categoryGeometryMissing]; len(got) != 1 || got[0] != 0 {
		t.Errorf("3d_missing diagnostics = %v, want [0]", got)
	}
	if len(sink.records[categoryHydrogensMissing]) != 0 {
		t.Errorf("hydrogens_missing recorded for a fully hydrogenated molecule: %v",
			sink.records[categoryHydrogensMissing])
	}
}

func TestValidator_RecordsUnresolvedHydrogens(t *testing.T) {
	sink := newCaptureSink()
	v := newValidator(false, false, sink)

	res := v.run([]chem.Molecule{water3D(t), bareCarbon3D(t)})
	if len(res.fatal) != 0 {
		t.Fatalf("unexpected fatal outcomes: %v", res.fatal)
	}
	if got := sink.records[categoryHydrogensMissing]; len(got) != 1 || got[0] != 1 {
		t.Errorf("hydrogens_missing diagnostics = %v, want [1]", got)
	}
	if len(sink.records[categoryGeometryMissing]) != 0 {
		t.Errorf("3d_missing recorded for 3D molecules: %v",
			sink.records[categoryGeometryMissing])
	}
}

func TestValidator_OrderPreserved(t *testing.T) {
	a, b := water3D(t), water3D(t)
	v := newValidator(false, false, nil)

	res := v.run([]chem.Molecule{a, chargedWater(t), b})
	if len(res.valid) != 2 || res.valid[0] != a || res.valid[1] != b {
		t.Fatalf("valid order broken: %v", res.validIdx)
	}
	if res.validIdx[0] != 0 || res.validIdx[1] != 2 {
		t.Errorf("validIdx = %v, want [0 2]", res.validIdx)
	}
}
