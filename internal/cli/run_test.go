package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/copyleftdev/argsweep/internal/config"
	"github.com/copyleftdev/argsweep/internal/runner"
)

func execute(t *testing.T, args ...string) (string, string) {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)

	root := NewRootCommand(cfg, zap.NewNop())
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()))
	return stdout.String(), stderr.String()
}

func TestOptimizeJSONOutputIsSingleArray(t *testing.T) {
	stdout, _ := execute(t,
		"minimize", "--output-json", "--quiet", "--seed", "3",
		"3", "echo {x}", "--x", "1", "2")

	// Stdout must be exactly one machine-readable array, with no summary
	// lines after it.
	var results []runner.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &results),
		"stdout is not a single JSON document: %q", stdout)
	assert.Len(t, results, 3)
	assert.NotContains(t, stdout, "Best value")
}

func TestOptimizePlainOutputEndsWithSummary(t *testing.T) {
	stdout, _ := execute(t,
		"minimize", "--quiet", "--seed", "3",
		"3", "echo {x}", "--x", "1", "2")

	assert.Contains(t, stdout, "--- [0] echo ")
	assert.Contains(t, stdout, "Best value: 1\n")
	assert.Contains(t, stdout, "Best setting: --x 1\n")
}

func TestStrategyJSONOutputIsSingleArray(t *testing.T) {
	stdout, _ := execute(t,
		"grid", "--output-json", "--quiet",
		"2", "echo {x}", "--x", "1", "2")

	var results []runner.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.Len(t, results, 2)
}

func TestStreamOutput(t *testing.T) {
	stdout, stderr := execute(t, "repeat", "--quiet", "3", "echo hi")

	want := "--- [0] echo hi\nhi\n--- [1] echo hi\nhi\n--- [2] echo hi\nhi\n"
	assert.Equal(t, want, stdout)
	assert.Empty(t, stderr, "--quiet must disable the progress bar")
}

func TestStreamShowsProgressBar(t *testing.T) {
	stdout, stderr := execute(t, "repeat", "2", "echo hi")

	assert.NotEmpty(t, stderr, "streaming runs must render a progress bar on stderr")
	assert.False(t, strings.Contains(stdout, "\r"), "bar output must not reach stdout")
}
