// Package cli defines the qmdelta command tree: global flags, configuration
// loading, logger initialization, and the predict subcommand.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/molforge/qmdelta/internal/config"
	"github.com/molforge/qmdelta/internal/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	cfg *config.Config
	log logging.Logger
}

// NewRootCommand creates the root cobra command with global flags and all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "qmdelta",
		Short:   "Quantum-chemical molecular property prediction with delta learning",
		Long:    "qmdelta predicts formation energy, frontier orbital energies, dipole\nmoments, and atomic partial charges for organic molecules, either directly\nor as learned corrections on top of a GFN2-xTB baseline.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file (default: environment only)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	cmd.AddCommand(newPredictCommand(opts))
	return cmd
}

// setup loads configuration and initializes the logger, honoring flag
// overrides.
func (o *RootOptions) setup() error {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.Load(o.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}

	log, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = log
	return nil
}

// Execute runs the command tree.
func Execute() error {
	return NewRootCommand().Execute()
}
