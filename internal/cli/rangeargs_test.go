package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/argsweep/internal/search"
)

func TestGroupRangeArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string][]string
		wantErr string
	}{
		{
			name: "single group",
			args: []string{"--lr", "0.001", "0.1"},
			want: map[string][]string{"lr": {"0.001", "0.1"}},
		},
		{
			name: "multiple groups",
			args: []string{"--lr", "0.001", "0.1", "--depth", "2", "8", "--opt", "adam", "sgd"},
			want: map[string][]string{
				"lr":    {"0.001", "0.1"},
				"depth": {"2", "8"},
				"opt":   {"adam", "sgd"},
			},
		},
		{
			name: "log prefix stays inside the group",
			args: []string{"--lr", "LOG", "0.001", "0.1"},
			want: map[string][]string{"lr": {"LOG", "0.001", "0.1"}},
		},
		{
			name: "no arguments",
			args: nil,
			want: map[string][]string{},
		},
		{
			name:    "token before any flag",
			args:    []string{"0.1", "--lr", "0.001"},
			wantErr: "unexpected argument",
		},
		{
			name:    "duplicate group",
			args:    []string{"--lr", "0.1", "--lr", "0.2"},
			wantErr: "duplicate range",
		},
		{
			name:    "empty name",
			args:    []string{"--", "0.1"},
			wantErr: "empty range name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := groupRangeArgs(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSpace(t *testing.T) {
	space, err := buildSpace("train --lr {lr} --depth {depth}",
		[]string{"--lr", "0.001", "0.1", "--depth", "2", "8"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lr", "depth"}, space.Names())

	// lr is a float pair, depth an int pair.
	assert.IsType(t, search.FloatRange{}, space[0].Range)
	assert.IsType(t, search.IntRange{}, space[1].Range)
}

func TestBuildSpaceNoTemplates(t *testing.T) {
	_, err := buildSpace("echo hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one {name} template")
}

func TestBuildSpaceMissingRange(t *testing.T) {
	_, err := buildSpace("echo {x} {y}", []string{"--x", "1", "10"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{y}")
}

func TestBuildSpaceUnknownRange(t *testing.T) {
	_, err := buildSpace("echo {x}", []string{"--x", "1", "10", "--y", "1", "2"})
	require.Error(t, err)
}

func TestBuildSpaceBadSpec(t *testing.T) {
	_, err := buildSpace("echo {x}", []string{"--x", "solo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--x")
}

func TestStrategyArgs(t *testing.T) {
	n, template, rangeArgs, err := strategyArgs(
		[]string{"20", "echo {x}", "--x", "1", "10"}, "trials")
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, "echo {x}", template)
	assert.Equal(t, []string{"--x", "1", "10"}, rangeArgs)
}

func TestStrategyArgsErrors(t *testing.T) {
	_, _, _, err := strategyArgs([]string{"20"}, "trials")
	require.Error(t, err)

	_, _, _, err = strategyArgs([]string{"zero", "echo {x}"}, "trials")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trials")

	_, _, _, err = strategyArgs([]string{"0", "echo {x}"}, "trials")
	require.Error(t, err)
}
