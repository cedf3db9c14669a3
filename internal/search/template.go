package search

import (
	"regexp"
	"strings"

	"github.com/copyleftdev/argsweep/internal/errors"
)

// templatePattern matches one {name} placeholder in a command string.
var templatePattern = regexp.MustCompile(`\{([^{}]+?)\}`)

// Substitution is one complete set of template-name to value assignments for
// a single command invocation.
type Substitution map[string]string

// TemplateNames returns the distinct bracketed template names in a command
// string, in discovery order. The order is load-bearing: Sobol dimensions
// and optimizer vector coordinates are assigned by it.
func TemplateNames(command string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range templatePattern.FindAllStringSubmatch(command, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Apply substitutes every {name} occurrence in the command with its value
// from subs. Substitution is a single pass: a value containing brace syntax
// is inserted literally and never re-scanned. Placeholders with no matching
// substitution are left untouched.
func Apply(command string, subs Substitution) string {
	return templatePattern.ReplaceAllStringFunc(command, func(m string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(m, "{"), "}")
		if v, ok := subs[name]; ok {
			return v
		}
		return m
	})
}

// Param pairs a template name with its range.
type Param struct {
	Name  string
	Range Range
}

// Space is the ordered set of parameters a search runs over. Order matches
// template discovery order in the command string.
type Space []Param

// NewSpace builds a Space from discovered template names and parsed ranges.
// Every template must have a range; ranges for unknown templates are
// rejected as well, since they indicate a misspelled specification.
func NewSpace(names []string, ranges map[string]Range) (Space, error) {
	known := make(map[string]bool, len(names))
	space := make(Space, 0, len(names))
	for _, name := range names {
		known[name] = true
		r, ok := ranges[name]
		if !ok {
			return nil, errors.Newf("no range specified for template {%s}", name).
				WithComponent("search").WithOperation("NewSpace")
		}
		space = append(space, Param{Name: name, Range: r})
	}
	for name := range ranges {
		if !known[name] {
			return nil, errors.Newf("range specified for unknown template {%s}", name).
				WithComponent("search").WithOperation("NewSpace")
		}
	}
	return space, nil
}

// Names returns the parameter names in space order.
func (s Space) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name
	}
	return names
}

// OptimizerSpaces returns each parameter's surrogate-model description, in
// space order.
func (s Space) OptimizerSpaces() []OptimizerSpace {
	out := make([]OptimizerSpace, len(s))
	for i, p := range s {
		out[i] = p.Range.OptimizerSpace()
	}
	return out
}

// Decode maps one point of the unit hypercube to a Substitution, coordinate
// i through parameter i's TransformUniform.
func (s Space) Decode(point []float64) Substitution {
	subs := make(Substitution, len(s))
	for i, p := range s {
		subs[p.Name] = p.Range.TransformUniform(point[i])
	}
	return subs
}
