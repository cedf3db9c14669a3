// Package cli wires the argsweep command-line surface: strategy
// subcommands, range-specification parsing, and output selection.
package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/argsweep/internal/config"
	"github.com/copyleftdev/argsweep/internal/errors"
)

// app carries the resolved configuration shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	outputJSON bool
	quiet      bool
	workers    int
	seed       int64
}

// NewRootCommand builds the argsweep command tree.
func NewRootCommand(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	a := &app{cfg: cfg, logger: logger}

	root := &cobra.Command{
		Use:   "argsweep",
		Short: "Run the same command many times with different argument values",
		Long: "argsweep runs a templated shell command repeatedly, substituting " +
			"values drawn from per-template ranges under a chosen search strategy, " +
			"and can drive the command's scalar output through Bayesian optimization.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&a.outputJSON, "output-json", false,
		"capture output and print it as one JSON array instead of streaming")
	flags.BoolVar(&a.quiet, "quiet", false, "disable the progress bar")
	flags.IntVar(&a.workers, "workers", cfg.Workers,
		"worker pool size for parallel execution (implies --output-json)")
	flags.Int64Var(&a.seed, "seed", 0, "random seed (0 means time-based)")

	root.AddCommand(
		a.randomCommand(),
		a.quasirandomCommand(),
		a.gridCommand(),
		a.repeatCommand(),
		a.optimizeCommand("minimize", "minimize the command's scalar output"),
		a.optimizeCommand("maximize", "maximize the command's scalar output"),
	)
	return root
}

// resolvedSeed returns the configured seed, falling back to wall-clock time
// so unseeded runs differ.
func (a *app) resolvedSeed() int64 {
	if a.seed != 0 {
		return a.seed
	}
	return time.Now().UnixNano()
}

// positiveInt parses a strategy's numeric parameter.
func positiveInt(arg, what string) (int, error) {
	v, err := strconv.Atoi(arg)
	if err != nil || v < 1 {
		return 0, errors.Newf("%s must be a positive integer, got %q", what, arg).
			WithComponent("cli")
	}
	return v, nil
}

// strategyArgs splits a subcommand's positional arguments into the numeric
// parameter, the command template, and the trailing range arguments.
func strategyArgs(args []string, what string) (int, string, []string, error) {
	if len(args) < 2 {
		return 0, "", nil, errors.Newf("expected %s and a command", what).
			WithComponent("cli")
	}
	n, err := positiveInt(args[0], what)
	if err != nil {
		return 0, "", nil, err
	}
	return n, args[1], args[2:], nil
}
