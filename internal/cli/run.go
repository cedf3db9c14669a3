package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/argsweep/internal/errors"
	"github.com/copyleftdev/argsweep/internal/optimize"
	"github.com/copyleftdev/argsweep/internal/runner"
	"github.com/copyleftdev/argsweep/internal/search"
)

// largeGridThreshold triggers a combinatorial-growth warning before a grid
// run.
const largeGridThreshold = 1000

func (a *app) randomCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "random TRIALS COMMAND [--name SPEC...]...",
		Short: "random search over the template ranges",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			trials, template, rangeArgs, err := strategyArgs(args, "trials")
			if err != nil {
				return err
			}
			space, err := buildSpace(template, rangeArgs)
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(a.resolvedSeed()))
			subs := search.RandomStrategy(space, trials, rng)
			return a.runStrategy(cmd, template, subs)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *app) quasirandomCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quasirandom TRIALS COMMAND [--name SPEC...]...",
		Short: "low-discrepancy (Sobol) search over the template ranges",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			trials, template, rangeArgs, err := strategyArgs(args, "trials")
			if err != nil {
				return err
			}
			space, err := buildSpace(template, rangeArgs)
			if err != nil {
				return err
			}
			subs, err := search.SobolStrategy(space, trials)
			if err != nil {
				return err
			}
			return a.runStrategy(cmd, template, subs)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *app) gridCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid DIVISIONS COMMAND [--name SPEC...]...",
		Short: "grid search over the Cartesian product of the template ranges",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			divisions, template, rangeArgs, err := strategyArgs(args, "divisions")
			if err != nil {
				return err
			}
			space, err := buildSpace(template, rangeArgs)
			if err != nil {
				return err
			}
			size := search.GridSize(space, divisions)
			if size > largeGridThreshold {
				a.logger.Warn("grid size grows as the product of every range's grid",
					zap.Int("commands", size))
			}
			subs := search.GridStrategy(space, divisions)
			return a.runStrategy(cmd, template, subs)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *app) repeatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repeat REPEATS COMMAND",
		Short: "repeat a command with no templates",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repeats, template, rangeArgs, err := strategyArgs(args, "repeats")
			if err != nil {
				return err
			}
			if len(rangeArgs) > 0 {
				return errors.New("the repeat strategy does not accept range arguments").
					WithComponent("cli")
			}
			if names := search.TemplateNames(template); len(names) > 0 {
				return errors.Newf("the repeat strategy does not accept templates, found {%s}",
					strings.Join(names, "}, {")).WithComponent("cli")
			}
			return a.runStrategy(cmd, template, search.RepeatStrategy(repeats))
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// runStrategy executes a precomputed substitution sequence: streamed to the
// terminal by default, captured into one JSON array with --output-json or
// any worker pool. Both modes show a progress bar on stderr unless --quiet.
func (a *app) runStrategy(cmd *cobra.Command, template string, subs []search.Substitution) error {
	ctx := cmd.Context()
	units := runner.Units(template, subs, 0)
	bar := a.newBar(cmd, len(units), "running")
	progress := func(runner.Result) {
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if !a.outputJSON && a.workers <= 0 {
		r := runner.New(
			runner.WithShell(a.cfg.Shell),
			runner.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
			runner.WithLogger(a.logger),
			runner.WithProgress(progress),
		)
		err := r.Stream(ctx, units)
		if bar != nil {
			_ = bar.Finish()
		}
		return err
	}

	r := runner.New(
		runner.WithShell(a.cfg.Shell),
		runner.WithWorkers(a.workers),
		runner.WithLogger(a.logger),
		runner.WithProgress(progress),
	)
	results := r.Capture(ctx, units)
	if bar != nil {
		_ = bar.Finish()
	}
	return emitJSON(cmd.OutOrStdout(), results)
}

func (a *app) optimizeCommand(name, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " TRIALS COMMAND [--name SPEC...]...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			trials, template, rangeArgs, err := strategyArgs(args, "trials")
			if err != nil {
				return err
			}
			space, err := buildSpace(template, rangeArgs)
			if err != nil {
				return err
			}

			mode := optimize.Minimize
			if name == "maximize" {
				mode = optimize.Maximize
			}
			return a.runOptimize(cmd, template, space, trials, mode)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *app) runOptimize(cmd *cobra.Command, template string, space search.Space,
	trials int, mode optimize.Mode) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	bar := a.newBar(cmd, trials, "optimizing")

	var collected []runner.Result
	onResult := func(res runner.Result, p optimize.Progress) {
		if a.outputJSON {
			collected = append(collected, res)
		} else {
			fmt.Fprintln(out, runner.Header(res.Step, res.Command))
			fmt.Fprint(out, res.Stdout)
			if res.Stderr != "" {
				fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)
			}
		}
		if bar != nil {
			bar.Describe(fmt.Sprintf("best=%g since=%d", p.BestObjective, p.SinceImprovement))
			_ = bar.Add(1)
		}
	}

	r := runner.New(
		runner.WithShell(a.cfg.Shell),
		runner.WithWorkers(a.workers),
		runner.WithLogger(a.logger),
	)
	driver := optimize.New(optimize.Config{
		Template: template,
		Space:    space,
		Trials:   trials,
		Mode:     mode,
		Workers:  a.workers,
		Seed:     a.resolvedSeed(),
		Runner:   r,
		OnResult: onResult,
		Logger:   a.logger,
	})

	best, _, err := driver.Run(ctx)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	// In JSON mode stdout carries exactly one machine-readable array; the
	// summary lines belong to the plain mode only.
	if a.outputJSON {
		return emitJSON(out, collected)
	}
	if best != nil {
		fmt.Fprintf(out, "Best value: %g\n", best.Objective)
		fmt.Fprintf(out, "Best setting: %s\n", formatSetting(space, best.Substitutions))
	}
	return nil
}

// newBar builds the terminal progress bar, or nil when disabled. The bar
// writes to stderr so stdout stays clean for results.
func (a *app) newBar(cmd *cobra.Command, total int, description string) *progressbar.ProgressBar {
	if a.quiet {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// emitJSON writes results as a single JSON array.
func emitJSON(w io.Writer, results []runner.Result) error {
	if results == nil {
		results = []runner.Result{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// formatSetting renders a substitution in space order, as it would be passed
// on the command line.
func formatSetting(space search.Space, subs search.Substitution) string {
	parts := make([]string, 0, len(space))
	for _, p := range space {
		parts = append(parts, fmt.Sprintf("--%s %s", p.Name, subs[p.Name]))
	}
	return strings.Join(parts, " ")
}
