package cli

import (
	"strings"

	"github.com/copyleftdev/argsweep/internal/errors"
	"github.com/copyleftdev/argsweep/internal/search"
)

// groupRangeArgs splits the trailing range arguments into per-template token
// lists. Each group is introduced by --<template-name> and collects every
// following token up to the next --.
func groupRangeArgs(args []string) (map[string][]string, error) {
	const op = "groupRangeArgs"

	groups := make(map[string][]string)
	var current string
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			name := strings.TrimPrefix(arg, "--")
			if name == "" {
				return nil, errors.New("empty range name").
					WithComponent("cli").WithOperation(op)
			}
			if _, dup := groups[name]; dup {
				return nil, errors.Newf("duplicate range specified for --%s", name).
					WithComponent("cli").WithOperation(op)
			}
			current = name
			groups[name] = []string{}
			continue
		}
		if current == "" {
			return nil, errors.Newf("unexpected argument %q before any --name range flag", arg).
				WithComponent("cli").WithOperation(op)
		}
		groups[current] = append(groups[current], arg)
	}
	return groups, nil
}

// buildSpace parses the range arguments and binds them to the command's
// templates, in template-discovery order.
func buildSpace(command string, rangeArgs []string) (search.Space, error) {
	names := search.TemplateNames(command)
	if len(names) == 0 {
		return nil, errors.New("the command must contain at least one {name} template").
			WithComponent("cli").WithOperation("buildSpace")
	}

	groups, err := groupRangeArgs(rangeArgs)
	if err != nil {
		return nil, err
	}

	ranges := make(map[string]search.Range, len(groups))
	for name, tokens := range groups {
		r, err := search.ParseSpec(tokens)
		if err != nil {
			return nil, errors.Wrapf(err, "range --%s", name).WithComponent("cli")
		}
		ranges[name] = r
	}

	return search.NewSpace(names, ranges)
}
