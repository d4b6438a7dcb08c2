package runtimelib

import (
	"sort"

	"github.com/lone-wolf-akela/foxlox/internal/value"
)

func algorithmLib() map[string]value.Value {
	return map[string]value.Value{
		"sort": fn("fox.algorithm.sort", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsTuple() {
				ctx.Raise("algorithm.sort: argument must be a tuple")
			}
			elems := append([]value.Value(nil), args[0].AsTuple().Elems...)
			sort.SliceStable(elems, func(i, j int) bool { return less(ctx, elems[i], elems[j]) })
			return value.FromObj(ctx.NewTuple(elems))
		}),
		"find": fn("fox.algorithm.find", 2, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsTuple() {
				ctx.Raise("algorithm.find: first argument must be a tuple")
			}
			for i, e := range args[0].AsTuple().Elems {
				if e.RefEqual(args[1]) {
					return value.Int(int64(i))
				}
			}
			return value.Int(-1)
		}),
	}
}

func less(ctx value.HostContext, a, b value.Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.AsFloat64() < b.AsFloat64()
	}
	if a.IsString() && b.IsString() {
		return a.AsString().Bytes < b.AsString().Bytes
	}
	ctx.Raise("algorithm.sort: cannot compare %s and %s", a.TypeName(), b.TypeName())
	return false
}
