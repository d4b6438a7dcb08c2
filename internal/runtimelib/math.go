package runtimelib

import (
	"math"

	"github.com/lone-wolf-akela/foxlox/internal/value"
)

func mathLib() map[string]value.Value {
	unary := func(name string, f func(float64) float64) value.Value {
		return fn("fox.math."+name, 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsNumber() {
				ctx.Raise("%s: argument must be a number", name)
			}
			return value.Float(f(args[0].AsFloat64()))
		})
	}

	return map[string]value.Value{
		"sqrt":  unary("sqrt", math.Sqrt),
		"floor": unary("floor", math.Floor),
		"ceil":  unary("ceil", math.Ceil),
		"round": unary("round", math.Round),
		"abs": fn("fox.math.abs", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsNumber() {
				ctx.Raise("abs: argument must be a number")
			}
			if args[0].IsInt() {
				n := args[0].AsInt()
				if n < 0 {
					n = -n
				}
				return value.Int(n)
			}
			return value.Float(math.Abs(args[0].AsFloat64()))
		}),
		"pow": fn("fox.math.pow", 2, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsNumber() || !args[1].IsNumber() {
				ctx.Raise("pow: arguments must be numbers")
			}
			return value.Float(math.Pow(args[0].AsFloat64(), args[1].AsFloat64()))
		}),
		"min": fn("fox.math.min", 2, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsNumber() || !args[1].IsNumber() {
				ctx.Raise("min: arguments must be numbers")
			}
			if args[0].AsFloat64() <= args[1].AsFloat64() {
				return args[0]
			}
			return args[1]
		}),
		"max": fn("fox.math.max", 2, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsNumber() || !args[1].IsNumber() {
				ctx.Raise("max: arguments must be numbers")
			}
			if args[0].AsFloat64() >= args[1].AsFloat64() {
				return args[0]
			}
			return args[1]
		}),
	}
}
