package runtimelib

import (
	"github.com/google/uuid"

	"github.com/lone-wolf-akela/foxlox/internal/value"
)

func uuidLib() map[string]value.Value {
	return map[string]value.Value{
		"new_v4": fn("fox.uuid.new_v4", 0, func(ctx value.HostContext, args []value.Value) value.Value {
			return value.FromObj(ctx.Intern(uuid.NewString()))
		}),
		"new_v7": fn("fox.uuid.new_v7", 0, func(ctx value.HostContext, args []value.Value) value.Value {
			id, err := uuid.NewV7()
			if err != nil {
				ctx.Raise("uuid.new_v7: %v", err)
			}
			return value.FromObj(ctx.Intern(id.String()))
		}),
		"parse": fn("fox.uuid.parse", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsString() {
				ctx.Raise("uuid.parse: argument must be a string")
			}
			id, err := uuid.Parse(args[0].AsString().Bytes)
			if err != nil {
				ctx.Raise("uuid.parse: %v", err)
			}
			return value.FromObj(ctx.Intern(id.String()))
		}),
	}
}
