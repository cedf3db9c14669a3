package optimize

import (
	"fmt"
	"strconv"
)

// ObjectiveError reports stdout whose last line did not parse as a single
// number. It is fatal: a malformed objective means the command itself is
// broken, so the loop never retries.
type ObjectiveError struct {
	// Line is the offending output line.
	Line string
}

func (e *ObjectiveError) Error() string {
	return fmt.Sprintf("command's last line of output must be a single number, got %q", e.Line)
}

func parseObjectiveLine(line string) (float64, error) {
	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, &ObjectiveError{Line: line}
	}
	return v, nil
}
