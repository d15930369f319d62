package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/molforge/qmdelta/internal/baseline"
	"github.com/molforge/qmdelta/internal/calc"
	"github.com/molforge/qmdelta/internal/chem"
	"github.com/molforge/qmdelta/internal/config"
	"github.com/molforge/qmdelta/internal/logging"
	"github.com/molforge/qmdelta/internal/metrics"
	"github.com/molforge/qmdelta/internal/output"
	"github.com/molforge/qmdelta/internal/weights"
)

// predictOptions holds the per-invocation prediction flags.
type predictOptions struct {
	tasks     []string
	delta     bool
	direct    bool
	batchSize int
	force3D   bool
	addH      bool
	xtbOpt    bool
	csv       bool
	outfile   string
}

func newPredictCommand(root *RootOptions) *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict <molecule-file>",
		Short: "Predict molecular properties for an XYZ or SDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd.Context(), root, opts, args[0])
		},
	}

	cmd.Flags().StringSliceVar(&opts.tasks, "tasks", []string{"E_form", "E_homo", "E_lumo", "E_gap", "dipole", "charges"}, "tasks to predict")
	cmd.Flags().BoolVar(&opts.delta, "delta", false, "use delta learning (baseline + correction)")
	cmd.Flags().BoolVar(&opts.direct, "direct", false, "predict properties directly, without a baseline")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "inference batch size (default from config)")
	cmd.Flags().BoolVar(&opts.force3D, "force3d", false, "embed 3D coordinates for molecules lacking them")
	cmd.Flags().BoolVar(&opts.addH, "addh", false, "add missing hydrogens during validation")
	cmd.Flags().BoolVar(&opts.xtbOpt, "xtbopt", false, "optimize geometries in the baseline tool (delta mode)")
	cmd.Flags().BoolVar(&opts.csv, "csv", false, "write CSV instead of JSON")
	cmd.Flags().StringVarP(&opts.outfile, "outfile", "o", "", "write results to a file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("delta", "direct")
	return cmd
}

func runPredict(ctx context.Context, root *RootOptions, opts *predictOptions, path string) error {
	cfg := root.cfg
	log := root.log.Named("predict")

	mode := calc.LearningMode(cfg.Predict.Mode)
	if opts.delta {
		mode = calc.ModeDelta
	} else if opts.direct {
		mode = calc.ModeDirect
	}

	tasks := make([]calc.Task, 0, len(opts.tasks))
	for _, name := range opts.tasks {
		t, err := calc.ParseTask(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
	}

	store, closeStore, err := buildStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var provider baseline.Provider
	if mode == calc.ModeDelta {
		provider = buildBaseline(cfg, log)
	}

	calcOpts := []calc.Option{
		calc.WithLogger(log),
		calc.WithForce3D(opts.force3D || cfg.Predict.Force3D),
		calc.WithAddHydrogens(opts.addH || cfg.Predict.AddHydrogens),
		calc.WithGeometryOptimization(opts.xtbOpt || cfg.Predict.Optimize),
	}
	if bs := opts.batchSize; bs > 0 {
		calcOpts = append(calcOpts, calc.WithBatchSize(bs))
	} else {
		calcOpts = append(calcOpts, calc.WithBatchSize(cfg.Predict.BatchSize))
	}
	if cfg.Predict.NormTableFile != "" {
		table, err := calc.LoadNormTableFile(cfg.Predict.NormTableFile)
		if err != nil {
			return err
		}
		calcOpts = append(calcOpts, calc.WithNormTable(table))
	}

	calculator, err := calc.New(ctx, tasks, mode, store, provider, calcOpts...)
	if err != nil {
		return err
	}

	stream, closer, err := chem.OpenMoleculeStream(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	res, err := calculator.PredictStream(ctx, stream)
	if err != nil {
		return err
	}

	out, closeOut, err := openSink(opts.outfile)
	if err != nil {
		return err
	}
	defer closeOut()

	if opts.csv {
		return output.WriteCSV(out, res)
	}
	return output.WriteJSON(out, res)
}

// buildStore assembles the weight resolution chain: local directory,
// optional remote backfill, in-memory cache with optional file watching.
func buildStore(cfg *config.Config, log logging.Logger) (weights.Store, func(), error) {
	local := weights.NewLocalStore(cfg.Weights.Dir)

	var inner weights.Store = local
	if cfg.Weights.RemoteEnabled {
		remote, err := weights.NewRemoteStore(cfg.Weights.Remote, local, log.Named("weights"))
		if err != nil {
			return nil, nil, err
		}
		inner = remote
	}

	cache := weights.NewCache(inner, log.Named("weights"), metrics.NewNoopMetrics())
	if cfg.Weights.Watch {
		if err := cache.Watch(cfg.Weights.Dir); err != nil {
			log.Warn("weight watching disabled", logging.Err(err))
		}
	}
	return cache, func() { _ = cache.Close() }, nil
}

// buildBaseline assembles the baseline provider, wrapping it with the redis
// cache when configured.
func buildBaseline(cfg *config.Config, log logging.Logger) baseline.Provider {
	var provider baseline.Provider = baseline.NewXTB(cfg.Baseline.XTB, log.Named("xtb"), metrics.NewNoopMetrics())
	if cfg.Baseline.CacheEnabled {
		rdb := baseline.NewRedisClient(cfg.Baseline.Redis)
		provider = baseline.NewCachedProvider(provider, rdb, cfg.Baseline.Redis.TTL, log.Named("xtb"), metrics.NewNoopMetrics())
	}
	return provider
}

// openSink returns the output writer, stdout unless a file was requested.
func openSink(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
