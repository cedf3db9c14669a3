package runner

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/argsweep/internal/search"
)

func TestUnits(t *testing.T) {
	subs := []search.Substitution{{"x": "1"}, {"x": "2"}}
	units := Units("echo {x}", subs, 3)

	require.Len(t, units, 2)
	assert.Equal(t, 3, units[0].Step)
	assert.Equal(t, "echo 1", units[0].Command)
	assert.Equal(t, 4, units[1].Step)
	assert.Equal(t, "echo 2", units[1].Command)
}

func TestCaptureGridScenario(t *testing.T) {
	space, err := search.NewSpace([]string{"x"}, map[string]search.Range{
		"x": search.NewIntRange(1, 3),
	})
	require.NoError(t, err)

	subs := search.GridStrategy(space, 3)
	units := Units("echo {x}", subs, 0)

	r := New()
	results := r.Capture(context.Background(), units)

	require.Len(t, results, 3)
	for i, want := range []string{"1\n", "2\n", "3\n"} {
		assert.Equal(t, i, results[i].Step)
		assert.Equal(t, want, results[i].Stdout)
		assert.Equal(t, 0, results[i].ReturnCode)
		assert.Equal(t, search.Substitution{"x": fmt.Sprint(i + 1)}, results[i].Substitutions)
	}
}

func TestCaptureRepeatScenario(t *testing.T) {
	units := Units("echo hi", search.RepeatStrategy(5), 0)
	r := New()
	results := r.Capture(context.Background(), units)

	require.Len(t, results, 5)
	for i, res := range results {
		assert.Equal(t, i, res.Step)
		assert.Equal(t, "echo hi", res.Command)
		assert.Equal(t, "hi\n", res.Stdout)
		assert.Equal(t, 0, res.ReturnCode)
	}
}

func TestCaptureRecordsFailureAsData(t *testing.T) {
	units := []Unit{{Step: 0, Command: "echo oops >&2; exit 3", Substitutions: search.Substitution{}}}
	r := New()
	results := r.Capture(context.Background(), units)

	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].ReturnCode)
	assert.Equal(t, "oops\n", results[0].Stderr)
	assert.Empty(t, results[0].Stdout)
}

func TestCaptureParallelProducesEveryStep(t *testing.T) {
	const n = 10
	units := make([]Unit, n)
	for i := range units {
		// Small jitter so completion order differs from submission order.
		units[i] = Unit{
			Step:          i,
			Command:       fmt.Sprintf("sleep 0.0%d; echo %d", (n-i)%4, i),
			Substitutions: search.Substitution{},
		}
	}

	done := make(chan []Result, 1)
	go func() {
		r := New(WithWorkers(4))
		done <- r.Capture(context.Background(), units)
	}()

	var results []Result
	select {
	case results = <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("parallel capture did not complete")
	}

	require.Len(t, results, n)
	steps := make(map[int]int, n)
	for _, res := range results {
		steps[res.Step]++
		assert.Equal(t, fmt.Sprintf("%d\n", res.Step), res.Stdout)
	}
	for i := 0; i < n; i++ {
		assert.Equal(t, 1, steps[i], "step %d", i)
	}
}

func TestCaptureProgressHook(t *testing.T) {
	var completed int
	r := New(WithProgress(func(Result) { completed++ }))
	r.Capture(context.Background(), Units("true", search.RepeatStrategy(4), 0))
	assert.Equal(t, 4, completed)
}

func TestCaptureHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r := New(WithProgress(func(Result) {
		// Interrupt after the first completion; no new work may start.
		cancel()
	}))
	results := r.Capture(ctx, Units("echo hi", search.RepeatStrategy(5), 0))

	require.NotEmpty(t, results, "completed results must still be reported")
	assert.Less(t, len(results), 5)
}

func TestCaptureCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(WithWorkers(2))
	results := r.Capture(ctx, Units("echo hi", search.RepeatStrategy(3), 0))
	assert.Empty(t, results)
}

func TestStream(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := New(WithOutput(&stdout, &stderr))

	units := []Unit{
		{Step: 0, Command: "echo one"},
		{Step: 1, Command: "echo two; echo warn >&2"},
	}
	require.NoError(t, r.Stream(context.Background(), units))

	assert.Equal(t, "--- [0] echo one\none\n--- [1] echo two; echo warn >&2\ntwo\n", stdout.String())
	assert.Equal(t, "warn\n", stderr.String())
}

func TestStreamProgressHook(t *testing.T) {
	var stdout, stderr bytes.Buffer
	var completed int
	r := New(
		WithOutput(&stdout, &stderr),
		WithProgress(func(Result) { completed++ }),
	)
	require.NoError(t, r.Stream(context.Background(), Units("true", search.RepeatStrategy(3), 0)))
	assert.Equal(t, 3, completed)
}

func TestStreamNonZeroExitIsNotAnError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := New(WithOutput(&stdout, &stderr))
	err := r.Stream(context.Background(), []Unit{{Step: 0, Command: "exit 7"}})
	assert.NoError(t, err)
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "--- [4] echo hi", Header(4, "echo hi"))
}
