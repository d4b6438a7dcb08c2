package vm

import "github.com/lone-wolf-akela/foxlox/internal/value"

// VM satisfies value.HostContext, the narrow capability set a
// runtimelib host function body is handed instead of the whole VM.

func (v *VM) Intern(s string) *value.String {
	return v.internTracked(s)
}

func (v *VM) InternConcat(a, b string) *value.String {
	str := v.strings.InternConcat(a, b)
	v.maybeCollect()
	return str
}

func (v *VM) NewTuple(elems []value.Value) *value.Tuple {
	return v.registerTuple(&value.Tuple{Elems: elems})
}

func (v *VM) NewDict() *value.Dict {
	return v.registerDict(value.NewDict())
}

func (v *VM) Raise(format string, args ...interface{}) {
	v.raiseLib(format, args...)
}

// Call invokes callee with args and returns its result, the mechanism
// a host function uses to call back into foxlox code (e.g. a
// fox.algorithm.sort comparator).
func (v *VM) Call(callee value.Value, args []value.Value) value.Value {
	if callee.Kind != value.KindObj || callee.Obj == nil {
		v.raise("'%s' is not callable", callee.TypeName())
	}

	switch o := callee.Obj.(type) {
	case *value.Subroutine:
		return v.callSubroutine(o, args, -1)

	case *value.HostFunc:
		return o.Fn(v, args)

	case *value.BoundMethod:
		full := make([]value.Value, 0, len(args)+1)
		full = append(full, value.FromObj(o.Receiver))
		full = append(full, args...)
		return v.callSubroutine(o.Sub, full, o.SuperLevel)

	case *value.Class:
		for _, a := range args {
			v.push(a)
		}
		v.construct(o, len(args))
		return v.pop()

	default:
		v.raise("'%s' is not callable", callee.TypeName())
		return value.Nil()
	}
}
