package runtimelib

import (
	"gopkg.in/yaml.v3"

	"github.com/lone-wolf-akela/foxlox/internal/value"
)

func yamlLib() map[string]value.Value {
	return map[string]value.Value{
		"encode": fn("fox.yaml.encode", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			out, err := yaml.Marshal(toGo(args[0]))
			if err != nil {
				ctx.Raise("yaml.encode: %v", err)
			}
			return value.FromObj(ctx.Intern(string(out)))
		}),
		"decode": fn("fox.yaml.decode", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsString() {
				ctx.Raise("yaml.decode: argument must be a string")
			}
			var data interface{}
			if err := yaml.Unmarshal([]byte(args[0].AsString().Bytes), &data); err != nil {
				ctx.Raise("yaml.decode: %v", err)
			}
			return fromGo(ctx, data)
		}),
	}
}

// toGo converts a foxlox Value into the plain interface{} shape
// encoding/yaml and encoding/json both expect: Dicts become
// map[string]interface{} (keyed on string values only; a non-string
// key has no YAML representation), Tuples become []interface{}.
func toGo(v value.Value) interface{} {
	switch {
	case v.IsNil():
		return nil
	case v.Kind == value.KindBool:
		return v.AsBool()
	case v.Kind == value.KindInt:
		return v.AsInt()
	case v.Kind == value.KindFloat:
		return v.AsFloat()
	case v.IsString():
		return v.AsString().Bytes
	case v.IsTuple():
		elems := v.AsTuple().Elems
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = toGo(e)
		}
		return out
	case v.IsDict():
		out := make(map[string]interface{})
		for k, val := range v.AsDict().Entries {
			if k.IsString() {
				out[k.AsString().Bytes] = toGo(val)
			}
		}
		return out
	default:
		return v.Inspect()
	}
}

// fromGo is toGo's inverse, used to bring decoded YAML/JSON data back
// into foxlox values.
func fromGo(ctx value.HostContext, data interface{}) value.Value {
	switch d := data.(type) {
	case nil:
		return value.Nil()
	case bool:
		return value.Bool(d)
	case int:
		return value.Int(int64(d))
	case int64:
		return value.Int(d)
	case float64:
		return value.Float(d)
	case string:
		return value.FromObj(ctx.Intern(d))
	case []interface{}:
		elems := make([]value.Value, len(d))
		for i, e := range d {
			elems[i] = fromGo(ctx, e)
		}
		return value.FromObj(ctx.NewTuple(elems))
	case map[string]interface{}:
		dict := ctx.NewDict()
		for k, v := range d {
			dict.Entries[value.FromObj(ctx.Intern(k))] = fromGo(ctx, v)
		}
		return value.FromObj(dict)
	case map[interface{}]interface{}:
		dict := ctx.NewDict()
		for k, v := range d {
			if ks, ok := k.(string); ok {
				dict.Entries[value.FromObj(ctx.Intern(ks))] = fromGo(ctx, v)
			}
		}
		return value.FromObj(dict)
	default:
		return value.Nil()
	}
}
