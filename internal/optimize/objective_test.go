package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObjective(t *testing.T) {
	tests := []struct {
		name     string
		stdout   string
		expected float64
	}{
		{name: "single line", stdout: "2.5\n", expected: 2.5},
		{name: "last line wins", stdout: "ignored\n2.5\n", expected: 2.5},
		{name: "trailing blank lines ignored", stdout: "log text\n7\n\n\n", expected: 7},
		{name: "negative value", stdout: "-0.125\n", expected: -0.125},
		{name: "scientific notation", stdout: "epoch done\n1e-3\n", expected: 0.001},
		{name: "surrounding whitespace", stdout: "  42.0  \n", expected: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObjective(tt.stdout)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractObjectiveErrors(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		quoted string
	}{
		{name: "not a number", stdout: "abc\n", quoted: "abc"},
		{name: "empty output", stdout: "", quoted: ""},
		{name: "last line not numeric", stdout: "3.0\ndone\n", quoted: "done"},
		{name: "two numbers on one line", stdout: "1.0 2.0\n", quoted: "1.0 2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractObjective(tt.stdout)
			require.Error(t, err)

			var objErr *ObjectiveError
			require.ErrorAs(t, err, &objErr)
			assert.Equal(t, tt.quoted, objErr.Line)
			assert.Contains(t, err.Error(), tt.quoted)
		})
	}
}
