// Package optimize drives closed-loop Bayesian optimization of a command:
// ask the surrogate for candidate argument vectors, evaluate them through
// the execution engine, tell the model the observed objectives.
package optimize

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/copyleftdev/argsweep/internal/optimize/bayesian"
	"github.com/copyleftdev/argsweep/internal/runner"
	"github.com/copyleftdev/argsweep/internal/search"
)

// Mode selects the user-facing objective direction. Internally the driver
// always minimizes; Maximize negates objectives on tell and un-negates them
// on report.
type Mode int

const (
	Minimize Mode = iota
	Maximize
)

// Config configures a Driver.
type Config struct {
	// Template is the command template with {name} placeholders.
	Template string

	// Space is the ordered parameter space, one entry per template.
	Space search.Space

	// Trials is the total evaluation budget, rounded up to a full final
	// batch.
	Trials int

	// Mode selects minimization or maximization.
	Mode Mode

	// Workers sets both the evaluation parallelism and the ask batch size.
	// Zero or one means one evaluation per round.
	Workers int

	// Seed makes proposals reproducible.
	Seed int64

	// Runner executes candidate commands. Required.
	Runner *runner.Runner

	// OnResult is invoked for every completed evaluation, in completion
	// order, with the driver's running progress.
	OnResult func(runner.Result, Progress)

	// Logger is the structured logger; nil means no logging.
	Logger *zap.Logger
}

// Progress is the driver's running state, surfaced per completed
// evaluation.
type Progress struct {
	Done             int
	BestObjective    float64
	SinceImprovement int
}

// Best is the winning evaluation of a finished (or interrupted) run.
type Best struct {
	// Objective is the best raw objective seen, in the user's sign
	// convention.
	Objective float64

	// Substitutions produced the best objective.
	Substitutions search.Substitution

	// Command is the fully substituted best command.
	Command string
}

// Driver runs the sequential optimization loop.
type Driver struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Driver.
func New(cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{cfg: cfg, logger: logger}
}

// Run executes the optimization loop for the configured trial budget and
// returns the best observation plus every collected result. Cancelling ctx
// stops the loop at the next batch boundary; the best found so far is still
// returned.
func (d *Driver) Run(ctx context.Context) (*Best, []runner.Result, error) {
	batch := d.cfg.Workers
	if batch < 1 {
		batch = 1
	}

	proposer, err := bayesian.NewProposer(d.cfg.Space.OptimizerSpaces(), d.cfg.Seed, d.logger)
	if err != nil {
		return nil, nil, err
	}

	var (
		allResults       []runner.Result
		best             *Best
		bestSigned       float64
		sinceImprovement int
		done             int
	)

	for step := 0; step < d.cfg.Trials; step += batch {
		if ctx.Err() != nil {
			d.logger.Info("optimization interrupted",
				zap.Int("evaluations", done))
			break
		}

		points := proposer.Ask(batch)
		subs := make([]search.Substitution, len(points))
		for i, pt := range points {
			subs[i] = d.cfg.Space.Decode(pt)
		}
		units := runner.Units(d.cfg.Template, subs, step)

		results := d.cfg.Runner.Capture(ctx, units)

		// Pair each completed result back to its proposal by step index;
		// under an interrupt only the completed pairs are told.
		toldPoints := make([][]float64, 0, len(results))
		toldObjectives := make([]float64, 0, len(results))
		for _, res := range results {
			objective, err := ExtractObjective(res.Stdout)
			if err != nil {
				return nil, nil, err
			}

			signed := objective
			if d.cfg.Mode == Maximize {
				signed = -objective
			}

			idx := res.Step - step
			toldPoints = append(toldPoints, points[idx])
			toldObjectives = append(toldObjectives, signed)
			allResults = append(allResults, res)
			done++

			if best == nil || signed < bestSigned {
				bestSigned = signed
				sinceImprovement = 0
				best = &Best{
					Objective:     objective,
					Substitutions: res.Substitutions,
					Command:       res.Command,
				}
			} else {
				sinceImprovement++
			}

			if d.cfg.OnResult != nil {
				d.cfg.OnResult(res, Progress{
					Done:             done,
					BestObjective:    best.Objective,
					SinceImprovement: sinceImprovement,
				})
			}
		}

		if err := proposer.Tell(toldPoints, toldObjectives); err != nil {
			return nil, nil, err
		}

		if best != nil {
			d.logger.Debug("batch complete",
				zap.Int("evaluations", done),
				zap.Float64("best", best.Objective),
				zap.Int("since_improvement", sinceImprovement))
		}
	}

	return best, allResults, nil
}

// ExtractObjective parses the scalar objective from a command's captured
// stdout: the last non-empty line must be a single floating-point number.
// Anything else violates the command's contract and is returned as an
// *ObjectiveError.
func ExtractObjective(stdout string) (float64, error) {
	trimmed := strings.TrimSpace(stdout)
	line := trimmed
	if i := strings.LastIndexByte(trimmed, '\n'); i >= 0 {
		line = strings.TrimSpace(trimmed[i+1:])
	}
	return parseObjectiveLine(line)
}
