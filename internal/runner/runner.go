// Package runner executes substituted commands through the shell, serially
// or across a bounded worker pool, in capture or streaming mode.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/copyleftdev/argsweep/internal/search"
)

// Result is the record of one command execution. Step reflects submission
// order, not completion order; under a worker pool the caller reconstructs
// submission order from it.
type Result struct {
	Step          int                 `json:"step"`
	Command       string              `json:"command"`
	Substitutions search.Substitution `json:"substitutions"`
	Stdout        string              `json:"stdout"`
	Stderr        string              `json:"stderr"`
	ReturnCode    int                 `json:"returncode"`
}

// Unit is one command execution to perform.
type Unit struct {
	Step          int
	Command       string
	Substitutions search.Substitution
}

// Units builds the execution units for a command template and an ordered
// sequence of substitutions, assigning steps from firstStep in submission
// order.
func Units(template string, subs []search.Substitution, firstStep int) []Unit {
	units := make([]Unit, len(subs))
	for i, s := range subs {
		units[i] = Unit{
			Step:          firstStep + i,
			Command:       search.Apply(template, s),
			Substitutions: s,
		}
	}
	return units
}

// Runner executes units. The zero value is not usable; construct with New.
type Runner struct {
	shell   string
	workers int
	stdout  io.Writer
	stderr  io.Writer
	onDone  func(Result)
	logger  *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the size of the worker pool. Zero means strictly
// sequential execution in submission order.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithShell overrides the shell used to interpret commands.
func WithShell(shell string) Option {
	return func(r *Runner) { r.shell = shell }
}

// WithOutput redirects the streaming sinks, primarily for tests.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) { r.stdout = stdout; r.stderr = stderr }
}

// WithProgress registers a hook invoked once per completed unit, in
// completion order.
func WithProgress(fn func(Result)) Option {
	return func(r *Runner) { r.onDone = fn }
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		shell:  "/bin/sh",
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Capture runs every unit and returns the buffered results. With a worker
// pool the results arrive in completion order; without one, submission
// order. Cancelling ctx stops submitting new units, lets in-flight
// subprocesses finish, and returns the results completed so far.
func (r *Runner) Capture(ctx context.Context, units []Unit) []Result {
	if r.workers <= 0 {
		return r.captureSerial(ctx, units)
	}
	return r.capturePool(ctx, units)
}

func (r *Runner) captureSerial(ctx context.Context, units []Unit) []Result {
	results := make([]Result, 0, len(units))
	for _, u := range units {
		if ctx.Err() != nil {
			r.logger.Info("interrupted, returning partial results",
				zap.Int("completed", len(results)))
			break
		}
		res := r.capture(u)
		results = append(results, res)
		if r.onDone != nil {
			r.onDone(res)
		}
	}
	return results
}

func (r *Runner) capturePool(ctx context.Context, units []Unit) []Result {
	p := pool.New().WithMaxGoroutines(r.workers)
	completed := make(chan Result, len(units))

	for _, u := range units {
		u := u
		p.Go(func() {
			// Cancellation gates the start of new work; a unit already
			// running is allowed to finish.
			if ctx.Err() != nil {
				return
			}
			completed <- r.capture(u)
		})
	}
	go func() {
		p.Wait()
		close(completed)
	}()

	results := make([]Result, 0, len(units))
	for res := range completed {
		results = append(results, res)
		if r.onDone != nil {
			r.onDone(res)
		}
	}
	if len(results) < len(units) {
		r.logger.Info("interrupted, returning partial results",
			zap.Int("completed", len(results)),
			zap.Int("submitted", len(units)))
	}
	return results
}

// capture runs one unit to completion, buffering its output. A non-zero
// exit code is recorded in the result, never returned as an error.
func (r *Runner) capture(u Unit) Result {
	cmd := exec.Command(r.shell, "-c", u.Command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	returncode := 0
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			returncode = exitErr.ExitCode()
		} else {
			// The command could not be started at all; surface the reason
			// through stderr like a shell would.
			returncode = 127
			fmt.Fprintln(&stderr, err.Error())
		}
	}

	r.logger.Debug("command finished",
		zap.Int("step", u.Step),
		zap.String("command", u.Command),
		zap.Int("returncode", returncode))

	return Result{
		Step:          u.Step,
		Command:       u.Command,
		Substitutions: u.Substitutions,
		Stdout:        stdout.String(),
		Stderr:        stderr.String(),
		ReturnCode:    returncode,
	}
}

// Stream runs units sequentially, forwarding each one's stdout line by line
// under a step header and its stderr as it arrives. Exit status is awaited
// but not reported in-line.
func (r *Runner) Stream(ctx context.Context, units []Unit) error {
	for _, u := range units {
		if ctx.Err() != nil {
			r.logger.Info("interrupted, stopping stream", zap.Int("next_step", u.Step))
			return nil
		}
		if err := r.stream(u); err != nil {
			return err
		}
		if r.onDone != nil {
			r.onDone(Result{Step: u.Step, Command: u.Command, Substitutions: u.Substitutions})
		}
	}
	return nil
}

// Header formats the per-command line printed before streamed output.
func Header(step int, command string) string {
	return fmt.Sprintf("--- [%d] %s", step, command)
}

func (r *Runner) stream(u Unit) error {
	fmt.Fprintln(r.stdout, Header(u.Step, u.Command))

	cmd := exec.Command(r.shell, "-c", u.Command)
	cmd.Stderr = r.stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fmt.Fprintln(r.stdout, scanner.Text())
	}

	// Non-zero exit status is data, not an engine error.
	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return err
		}
	}
	return scanner.Err()
}
