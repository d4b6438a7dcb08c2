package runtimelib

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lone-wolf-akela/foxlox/internal/value"
)

func humanizeLib() map[string]value.Value {
	return map[string]value.Value{
		"bytes": fn("fox.humanize.bytes", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsNumber() {
				ctx.Raise("humanize.bytes: argument must be a number")
			}
			n := uint64(args[0].AsFloat64())
			return value.FromObj(ctx.Intern(humanize.Bytes(n)))
		}),
		"time_ago": fn("fox.humanize.time_ago", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsNumber() {
				ctx.Raise("humanize.time_ago: argument must be a unix timestamp")
			}
			t := time.Unix(int64(args[0].AsFloat64()), 0)
			return value.FromObj(ctx.Intern(humanize.Time(t)))
		}),
		"ordinal": fn("fox.humanize.ordinal", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsInt() {
				ctx.Raise("humanize.ordinal: argument must be an int")
			}
			return value.FromObj(ctx.Intern(humanize.Ordinal(int(args[0].AsInt()))))
		}),
	}
}
