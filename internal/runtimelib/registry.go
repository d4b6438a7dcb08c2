// Package runtimelib implements the built-in libraries a foxlox VM
// loads via vm.WithLib (§11): fox.io, fox.term, fox.uuid, fox.yaml,
// fox.humanize, fox.sql, fox.rpc, fox.profiler, fox.math, and
// fox.algorithm. Each concern gets its own file, following the
// teacher's internal/evaluator/builtins_*.go split.
package runtimelib

import "github.com/lone-wolf-akela/foxlox/internal/value"

// All returns every built-in library keyed by its import name, ready
// to be passed one at a time to vm.WithLib.
func All() map[string]map[string]value.Value {
	return map[string]map[string]value.Value{
		"fox.io":        ioLib(),
		"fox.term":      termLib(),
		"fox.uuid":      uuidLib(),
		"fox.yaml":      yamlLib(),
		"fox.humanize":  humanizeLib(),
		"fox.sql":       sqlLib(),
		"fox.rpc":       rpcLib(),
		"fox.profiler":  profilerLib(),
		"fox.math":      mathLib(),
		"fox.algorithm": algorithmLib(),
	}
}

func fn(name string, arity int, f func(ctx value.HostContext, args []value.Value) value.Value) value.Value {
	return value.FromObj(&value.HostFunc{Name: name, Arity: arity, Fn: f})
}
