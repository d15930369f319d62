package calc

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/molforge/qmdelta/internal/baseline"
	"github.com/molforge/qmdelta/internal/chem"
	"github.com/molforge/qmdelta/internal/logging"
	"github.com/molforge/qmdelta/internal/metrics"
	"github.com/molforge/qmdelta/internal/model"
	"github.com/molforge/qmdelta/internal/weights"
	"github.com/molforge/qmdelta/pkg/errors"
)

const defaultBatchSize = 32

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Option customizes a Calculator at construction.
type Option func(*Calculator)

// WithLogger injects the structured logger. Defaults to a nop logger.
func WithLogger(log logging.Logger) Option {
	return func(c *Calculator) { c.log = log }
}

// WithMetrics injects the metrics recorder. Defaults to noop.
func WithMetrics(m metrics.Metrics) Option {
	return func(c *Calculator) { c.metrics = m }
}

// WithDiagnostics injects the validation diagnostics sink. Defaults to a
// sink that logs one warning per category.
func WithDiagnostics(sink DiagnosticsSink) Option {
	return func(c *Calculator) { c.sink = sink }
}

// WithBatchSize sets the inference batch size. Values below one fall back
// to the default.
func WithBatchSize(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithForce3D enables in-place 3D embedding for molecules lacking one.
func WithForce3D(on bool) Option {
	return func(c *Calculator) { c.force3D = on }
}

// WithAddHydrogens enables in-place hydrogenation during validation.
func WithAddHydrogens(on bool) Option {
	return func(c *Calculator) { c.addH = on }
}

// WithGeometryOptimization relaxes each molecule's geometry in the baseline
// tool before property evaluation. Delta mode only.
func WithGeometryOptimization(on bool) Option {
	return func(c *Calculator) { c.optimize = on }
}

// WithNormTable overrides the built-in normalization table.
func WithNormTable(t NormTable) Option {
	return func(c *Calculator) { c.norm = t }
}

// ---------------------------------------------------------------------------
// Calculator
// ---------------------------------------------------------------------------

// Calculator runs the full prediction pipeline for a fixed task set and
// learning mode. Construction resolves and loads every required model, so
// an unrecognized task or missing weights fail before any molecule is
// processed. A Calculator is safe for sequential reuse across calls; the
// normalization table and loaded backends are immutable after construction.
type Calculator struct {
	tasks    []Task
	mode     LearningMode
	backends []model.Backend
	baseline baseline.Provider
	norm     NormTable

	batchSize int
	force3D   bool
	addH      bool
	optimize  bool

	log     logging.Logger
	metrics metrics.Metrics
	sink    DiagnosticsSink
}

// Result is the outcome of one predict call. Every per-task sequence is
// aligned 1:1 with the original input: Values holds molecule-level scalars
// (NaN at fatal positions), Charges one per-atom slice per molecule (a
// single-element NaN sentinel at fatal positions, present only when the
// charges task was requested). Fatal maps excluded input positions to the
// outcome that excluded them.
type Result struct {
	Values  map[Task][]float64
	Charges [][]float64
	Fatal   map[int]ValidationOutcome
}

// New builds a Calculator for the requested tasks under the given mode.
// store supplies trained weights; base is required in delta mode and
// ignored otherwise.
func New(ctx context.Context, tasks []Task, mode LearningMode, store weights.Store, base baseline.Provider, opts ...Option) (*Calculator, error) {
	if len(tasks) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "no tasks requested")
	}
	if mode != ModeDirect && mode != ModeDelta {
		return nil, errors.InvalidParam("unknown learning mode: " + string(mode))
	}
	if mode == ModeDelta && base == nil {
		return nil, errors.New(errors.CodeInvalidParam, "delta mode requires a baseline provider")
	}

	c := &Calculator{
		tasks:     append([]Task(nil), tasks...),
		mode:      mode,
		baseline:  base,
		norm:      DefaultNormTable(),
		batchSize: defaultBatchSize,
		log:       logging.NewNopLogger(),
		metrics:   metrics.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sink == nil {
		c.sink = NewLogSink(c.log)
	}

	ids, err := resolveModels(c.tasks, mode)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		blob, err := store.Resolve(ctx, string(id))
		if err != nil {
			return nil, err
		}
		backend, err := model.Load(string(id), blob)
		if err != nil {
			return nil, err
		}
		if want := expectedShape(id); backend.PerAtom() != want.perAtom || backend.Width() != want.width {
			return nil, errors.Newf(errors.CodeShapeMismatch,
				"model %s declares per_atom=%v width=%d, expected per_atom=%v width=%d",
				id, backend.PerAtom(), backend.Width(), want.perAtom, want.width)
		}
		c.backends = append(c.backends, backend)
	}
	return c, nil
}

type shape struct {
	perAtom bool
	width   int
}

func expectedShape(id ModelID) shape {
	switch id.Group() {
	case GroupCharges:
		return shape{perAtom: true, width: 1}
	case GroupMultitask:
		return shape{width: multitaskWidth}
	default:
		return shape{width: 1}
	}
}

// Tasks returns the requested task list in request order.
func (c *Calculator) Tasks() []Task { return append([]Task(nil), c.tasks...) }

// Mode returns the calculator's learning mode.
func (c *Calculator) Mode() LearningMode { return c.mode }

// ---------------------------------------------------------------------------
// Predict
// ---------------------------------------------------------------------------

// PredictOne runs the pipeline over a single molecule.
func (c *Calculator) PredictOne(ctx context.Context, mol chem.Molecule) (*Result, error) {
	return c.Predict(ctx, []chem.Molecule{mol})
}

// Predict runs the full pipeline over mols and returns per-task sequences
// aligned 1:1 with the input. Molecules failing validation or baseline
// computation degrade to placeholders at their positions; an empty input is
// a call-level error.
func (c *Calculator) Predict(ctx context.Context, mols []chem.Molecule) (*Result, error) {
	if len(mols) == 0 {
		return nil, errors.New(errors.CodeNoMolecules, "no molecules provided")
	}
	began := time.Now()
	log := c.log.With(logging.String("run_id", uuid.NewString()))

	v := &validator{force3D: c.force3D, addH: c.addH, sink: c.sink, metrics: c.metrics}
	state := v.run(mols)
	log.Info("validation complete",
		logging.Int("input", len(mols)),
		logging.Int("valid", len(state.valid)),
		logging.Int("fatal", len(state.fatal)),
	)

	var baselines []*baseline.Result
	if c.mode == ModeDelta {
		var err error
		baselines, err = c.runBaselines(ctx, log, state)
		if err != nil {
			return nil, err
		}
	}

	pred := newPredictionSet()
	for _, backend := range c.backends {
		outs, err := c.runBatches(ctx, backend, state.valid)
		if err != nil {
			return nil, err
		}
		if err := c.aggregate(ModelID(backend.ID()), outs, pred); err != nil {
			return nil, err
		}
	}

	if c.mode == ModeDelta {
		if err := c.applyDelta(pred, baselines); err != nil {
			return nil, err
		}
	}

	res := &Result{Values: make(map[Task][]float64), Fatal: state.fatal}
	for _, t := range c.tasks {
		if t == TaskCharges {
			res.Charges = assembleCharges(pred.charges, len(mols), state.fatal)
			continue
		}
		res.Values[t] = assembleScalars(pred.scalars[t], len(mols), state.fatal)
	}

	c.metrics.RecordPredict(string(c.mode), len(mols), time.Since(began).Seconds())
	log.Info("prediction complete",
		logging.Int("molecules", len(mols)),
		logging.Duration("elapsed", time.Since(began)),
	)
	return res, nil
}

// runBaselines invokes the baseline tool once per valid molecule, in order.
// A failing molecule is demoted to fatal and removed from the valid set so
// one bad input cannot abort the whole call.
func (c *Calculator) runBaselines(ctx context.Context, log logging.Logger, state *validationResult) ([]*baseline.Result, error) {
	baselines := make([]*baseline.Result, 0, len(state.valid))
	kept := state.valid[:0]
	keptIdx := state.validIdx[:0]
	var failed []int

	for i, m := range state.valid {
		res, err := c.baseline.Compute(ctx, m, c.optimize)
		if err != nil {
			pos := state.validIdx[i]
			state.fatal[pos] = OutcomeBaselineFailure
			failed = append(failed, pos)
			c.metrics.RecordValidation(OutcomeBaselineFailure.String(), 1)
			log.Warn("baseline computation failed",
				logging.Int("position", pos),
				logging.Err(err),
			)
			continue
		}
		baselines = append(baselines, res)
		kept = append(kept, m)
		keptIdx = append(keptIdx, state.validIdx[i])
	}
	if len(failed) > 0 {
		c.sink.Record(OutcomeBaselineFailure.String(), failed)
	}
	state.valid = kept
	state.validIdx = keptIdx
	return baselines, nil
}
