package search

import (
	"strconv"

	"github.com/copyleftdev/argsweep/internal/errors"
)

// specKind classifies a raw range specification before construction.
type specKind int

const (
	specInt specKind = iota
	specFloat
	specLogInt
	specLogFloat
	specCategorical
)

// logToken marks a range specification as log-scaled when it precedes two
// numeric tokens.
const logToken = "LOG"

// classified is the result of token classification: a kind plus the parsed
// numeric values (or the raw tokens for categorical specs).
type classified struct {
	kind   specKind
	ints   [2]int64
	floats [2]float64
	cats   []string
}

// classify maps raw tokens to a range kind and parsed values. Precedence for
// a bare numeric pair: integer if both tokens parse as integers, else float
// if both parse as numbers, else categorical of the raw tokens. A LOG prefix
// before two numeric tokens selects the log variant of the same precedence;
// a LOG triple whose tail is not numeric falls back to categorical treatment
// of all three tokens.
func classify(tokens []string) (classified, error) {
	if len(tokens) < 2 {
		return classified{}, errSpec("a range requires 2 or more values")
	}

	if len(tokens) == 2 {
		if c, ok := classifyPair(tokens[0], tokens[1], false); ok {
			return c, nil
		}
		return classified{kind: specCategorical, cats: tokens}, nil
	}

	if len(tokens) == 3 && tokens[0] == logToken {
		if c, ok := classifyPair(tokens[1], tokens[2], true); ok {
			return c, nil
		}
	}

	return classified{kind: specCategorical, cats: tokens}, nil
}

func classifyPair(a, b string, log bool) (classified, bool) {
	i1, err1 := strconv.ParseInt(a, 10, 64)
	i2, err2 := strconv.ParseInt(b, 10, 64)
	if err1 == nil && err2 == nil {
		kind := specInt
		if log {
			kind = specLogInt
		}
		return classified{kind: kind, ints: [2]int64{i1, i2}}, true
	}

	f1, err1 := strconv.ParseFloat(a, 64)
	f2, err2 := strconv.ParseFloat(b, 64)
	if err1 == nil && err2 == nil {
		kind := specFloat
		if log {
			kind = specLogFloat
		}
		return classified{kind: kind, floats: [2]float64{f1, f2}}, true
	}

	return classified{}, false
}

// build constructs the Range variant for a classified spec.
func build(c classified) (Range, error) {
	switch c.kind {
	case specInt:
		return NewIntRange(c.ints[0], c.ints[1]), nil
	case specLogInt:
		return NewLogIntRange(c.ints[0], c.ints[1])
	case specFloat:
		return NewFloatRange(c.floats[0], c.floats[1]), nil
	case specLogFloat:
		return NewLogFloatRange(c.floats[0], c.floats[1])
	default:
		return NewCategoricalRange(c.cats)
	}
}

// ParseSpec turns raw range-specification tokens into a Range. The tokens
// are either two numeric bounds, LOG followed by two positive numeric
// bounds, or a list treated as categories.
func ParseSpec(tokens []string) (Range, error) {
	c, err := classify(tokens)
	if err != nil {
		return nil, err
	}
	return build(c)
}

func errSpec(message string) *errors.Error {
	return errors.New(message).WithComponent("search").WithOperation("ParseSpec")
}

func errNonPositiveLogBound(bound string) *errors.Error {
	return errors.Newf("log range bounds must be strictly positive, got %s", bound).
		WithComponent("search").WithOperation("ParseSpec")
}

func errEmptyCategories() *errors.Error {
	return errors.New("categorical range requires at least one category").
		WithComponent("search").WithOperation("ParseSpec")
}
