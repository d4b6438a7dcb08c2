package vm

import (
	"github.com/lone-wolf-akela/foxlox/internal/config"
	"github.com/lone-wolf-akela/foxlox/internal/value"
)

// constStr resolves a chunk-local const-string index, recorded by the
// code generator alongside GET_PROPERTY/SET_PROPERTY/GET_SUPER_METHOD
// and IMPORT operands, to the VM-global interned *String the loader
// produced when the owning chunk was attached (§4.9).
func (v *VM) constStr(idx uint16) *value.String {
	return v.constPool[uint32(idx)+v.cur.sub.Chunk.ConstStringIdxBase]
}

// callSubroutine runs sub to completion with args as its initial stack
// locals, returning whatever RETURN/RETURN_V produced (Nil for a bare
// RETURN). It is the entry point used both for a freshly loaded
// chunk's top-level body (Run, doImport) and, indirectly, by every
// OP_CALL the dispatch loop executes against a plain foxlox function:
// OP_CALL's own handling pushes a frame and keeps running inside the
// same runLoop invocation rather than recursing through here, so this
// path is only taken when no runLoop is already unwinding that frame.
func (v *VM) callSubroutine(sub *value.Subroutine, args []value.Value, superLevel int) value.Value {
	floor := v.top
	for _, a := range args {
		v.push(a)
	}

	prevCur, prevHasCur := v.cur, v.hasCur
	base := len(v.frames)
	if v.hasCur {
		v.frames = append(v.frames, v.cur)
	}
	stopAt := len(v.frames)
	v.cur = frame{sub: sub, floor: floor, superLevel: superLevel}
	v.hasCur = true

	result := v.runLoop(stopAt)

	v.frames = v.frames[:base]
	v.cur, v.hasCur = prevCur, prevHasCur
	return result
}

// dispatchCall implements OP_CALL (§4.6): the callee sits on top of the
// n argument values, which are themselves already laid out on the
// operand stack in call order. For a plain foxlox function this pushes
// a new frame in place and lets the enclosing runLoop keep iterating;
// every other callable kind is handled synchronously right here.
func (v *VM) dispatchCall(n int) {
	callee := v.pop()

	if callee.Kind != value.KindObj || callee.Obj == nil {
		v.raise("'%s' is not callable", callee.TypeName())
	}

	switch o := callee.Obj.(type) {
	case *value.Subroutine:
		v.enterSubroutine(o, n, -1)

	case *value.BoundMethod:
		v.insertReceiver(n, value.FromObj(o.Receiver))
		v.enterSubroutine(o.Sub, n+1, o.SuperLevel)

	case *value.HostFunc:
		if o.Arity != -1 && o.Arity != n {
			v.raiseInternal("%s() expected %d argument(s), got %d", o.Name, o.Arity, n)
		}
		args := v.popArgs(n)
		v.push(o.Fn(v, args))

	case *value.Class:
		v.construct(o, n)

	default:
		v.raise("'%s' is not callable", callee.TypeName())
	}
}

// enterSubroutine pushes a new call frame for sub, whose nArgs initial
// locals are already sitting on top of the operand stack.
func (v *VM) enterSubroutine(sub *value.Subroutine, nArgs int, superLevel int) {
	raw := sub.Raw()
	if raw.Arity != nArgs {
		v.raiseInternal("%s() expected %d argument(s), got %d", raw.Name, raw.Arity, nArgs)
	}
	if len(v.frames) >= config.CallTraceMax {
		v.raiseInternal("call stack overflow")
	}
	floor := v.top - nArgs
	v.frames = append(v.frames, v.cur)
	v.cur = frame{sub: sub, floor: floor, superLevel: superLevel}
}

// construct implements calling a Class value: allocate a fresh
// Instance and, if the class (or an ancestor) declares __init__, run
// it bound to that instance. A class with no __init__ requires exactly
// zero arguments. Either way the constructed Instance ends up pushed.
func (v *VM) construct(class *value.Class, n int) {
	inst := v.registerInstance(&value.Instance{Class: class, Fields: make(map[*value.String]value.Value)})

	entry, ok := class.Lookup(v.initName)
	if !ok {
		if n != 0 {
			v.raiseInternal("%s() expected 0 argument(s), got %d", class.Name.Bytes, n)
		}
		v.push(value.FromObj(inst))
		return
	}

	v.insertReceiver(n, value.FromObj(inst))
	// The code generator forces every __init__ to end with
	// `return this` (its RETURN_V loads the receiver), so the
	// constructed instance is exactly what this call leaves behind.
	v.enterSubroutine(entry.Sub, n+1, entry.SuperLevel)
}

// insertReceiver makes room for an implicit receiver beneath the n
// explicit arguments already on the stack, so a bound-method or
// constructor call can be dispatched as an ordinary (n+1)-arg call.
func (v *VM) insertReceiver(n int, receiver value.Value) {
	floor := v.top - n
	v.push(value.Nil())
	copy(v.stack[floor+1:v.top], v.stack[floor:v.top-1])
	v.stack[floor] = receiver
}

func (v *VM) popArgs(n int) []value.Value {
	args := make([]value.Value, n)
	copy(args, v.stack[v.top-n:v.top])
	v.top -= n
	return args
}

// doGetProperty implements GET_PROPERTY (§4.7): on an Instance, its
// class's method table is consulted before its field table, so a
// field can never shadow a method of the same name; on a Dict, lookup
// is by the same interned-string key its Entries are already indexed
// under.
func (v *VM) doGetProperty(nameIdx uint16) {
	name := v.constStr(nameIdx)
	obj := v.pop()

	switch o := obj.Obj.(type) {
	case *value.Instance:
		if entry, ok := o.Class.Lookup(name); ok {
			v.push(value.FromObj(&value.BoundMethod{Receiver: o, Sub: entry.Sub, SuperLevel: entry.SuperLevel}))
			return
		}
		if field, ok := o.Fields[name]; ok {
			v.push(field)
			return
		}
		v.raise("undefined property '%s' on %s instance", name.Bytes, o.Class.Name.Bytes)

	case *value.Dict:
		key := value.FromObj(name)
		val, ok := o.Entries[key]
		if !ok {
			v.raise("undefined property '%s'", name.Bytes)
		}
		v.push(val)

	default:
		v.raise("'%s' has no properties", obj.TypeName())
	}
}

// doSetProperty implements SET_PROPERTY: only an Instance may be
// assigned into, and only into a field, never a method name (§4.7).
func (v *VM) doSetProperty(nameIdx uint16) {
	name := v.constStr(nameIdx)
	obj := v.pop()
	val := v.pop()

	inst, ok := obj.Obj.(*value.Instance)
	if !ok {
		v.raise("'%s' does not support field assignment", obj.TypeName())
	}
	if _, isMethod := inst.Class.Lookup(name); isMethod {
		v.raise("cannot assign to method '%s' on %s instance", name.Bytes, inst.Class.Name.Bytes)
	}
	inst.Fields[name] = val
	v.push(val)
}

// doGetSuperMethod implements GET_SUPER_METHOD (§4.6): the operand
// stack holds `this`; the search starts one class above the level the
// currently executing method was itself found at, walking the actual
// superclass chain rather than the (already-flattened) method table of
// the instance's dynamic class.
func (v *VM) doGetSuperMethod(nameIdx uint16) {
	name := v.constStr(nameIdx)
	this := v.pop()

	inst, ok := this.Obj.(*value.Instance)
	if !ok {
		v.raise("'super' used outside of a method")
	}

	level := v.cur.superLevel + 1
	cls := inst.Class
	for i := 0; i < level && cls != nil; i++ {
		cls = cls.Super
	}
	if cls == nil {
		v.raise("no superclass defines '%s'", name.Bytes)
	}

	entry, ok := cls.Lookup(name)
	if !ok {
		v.raise("no superclass defines '%s'", name.Bytes)
	}
	v.push(value.FromObj(&value.BoundMethod{Receiver: inst, Sub: entry.Sub, SuperLevel: level + entry.SuperLevel}))
}
