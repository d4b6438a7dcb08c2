// Package value defines the runtime value representation shared by the
// virtual machine, the string intern pool, and the built-in libraries.
//
// A Value is a small tagged struct rather than an interface: primitives
// (nil, bool, int64, float64) live inline in Num, and everything else —
// heap objects as well as the non-heap callable kinds (host functions,
// compiled subroutines, bound methods) — sits behind the Obj field. Go
// gives no way to pack this into one machine word without unsafe
// pointer tricks this codebase does not otherwise use, so Value costs a
// little more than the conceptual 16 bytes; see DESIGN.md.
package value

import (
	"fmt"
	"math"
)

// Kind tags a Value's primitive shape. Everything past KindObj defers
// to the Obj field's own Kind().
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindObj
)

// Obj is satisfied by every non-primitive payload a Value can carry.
// Heap objects (String, Tuple, Class, Instance, Dict) additionally
// embed Header and are tracked by the collector; HostFunc, Subroutine,
// and BoundMethod live for the lifetime of the chunk that produced
// them and never need collecting.
type Obj interface {
	ObjKind() ObjKind
	Inspect() string
}

type ObjKind uint8

const (
	OString ObjKind = iota
	OTuple
	OClass
	OInstance
	ODict
	OHostFunc
	OSubroutine
	OBoundMethod
)

// Value is the uniform runtime representation of every foxlox value.
type Value struct {
	Kind Kind
	Num  uint64 // bool (0/1), int64 bits, or float64 bits
	Obj  Obj
}

func Nil() Value                { return Value{Kind: KindNil} }
func Bool(b bool) Value         { return Value{Kind: KindBool, Num: boolBits(b)}}
func Int(i int64) Value         { return Value{Kind: KindInt, Num: uint64(i)} }
func Float(f float64) Value     { return Value{Kind: KindFloat, Num: math.Float64bits(f)} }
func FromObj(o Obj) Value       { return Value{Kind: KindObj, Obj: o} }

func boolBits(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) IsNil() bool   { return v.Kind == KindNil }
func (v Value) IsBool() bool  { return v.Kind == KindBool }
func (v Value) IsInt() bool   { return v.Kind == KindInt }
func (v Value) IsFloat() bool { return v.Kind == KindFloat }
func (v Value) IsObj() bool   { return v.Kind == KindObj }

func (v Value) AsBool() bool     { return v.Num == 1 }
func (v Value) AsInt() int64     { return int64(v.Num) }
func (v Value) AsFloat() float64 { return math.Float64frombits(v.Num) }

// IsNumber reports whether v is an int64 or float64.
func (v Value) IsNumber() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// AsFloat64 widens either numeric kind to float64, for mixed arithmetic.
func (v Value) AsFloat64() float64 {
	if v.Kind == KindInt {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

// Truthy implements §4.5's truthiness rule: nil and false are falsy,
// everything else (0, 0.0, "", the empty tuple) is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.AsBool()
	default:
		return true
	}
}

// objKindOrZero returns the Obj field's discriminator and true, or
// zero and false for non-object values; callers that already checked v.IsObj() can call
// v.Obj.ObjKind() directly.
func (v Value) objKindOrZero() (ObjKind, bool) {
	if v.Kind != KindObj || v.Obj == nil {
		return 0, false
	}
	return v.Obj.ObjKind(), true
}

func (v Value) IsString() bool { k, ok := v.objKindOrZero(); return ok && k == OString }
func (v Value) IsTuple() bool  { k, ok := v.objKindOrZero(); return ok && k == OTuple }
func (v Value) IsClass() bool  { k, ok := v.objKindOrZero(); return ok && k == OClass }
func (v Value) IsInstance() bool {
	k, ok := v.objKindOrZero()
	return ok && k == OInstance
}
func (v Value) IsDict() bool { k, ok := v.objKindOrZero(); return ok && k == ODict }

func (v Value) AsString() *String       { return v.Obj.(*String) }
func (v Value) AsTuple() *Tuple         { return v.Obj.(*Tuple) }
func (v Value) AsClass() *Class         { return v.Obj.(*Class) }
func (v Value) AsInstance() *Instance   { return v.Obj.(*Instance) }
func (v Value) AsDict() *Dict           { return v.Obj.(*Dict) }
func (v Value) AsHostFunc() *HostFunc   { return v.Obj.(*HostFunc) }
func (v Value) AsSubroutine() *Subroutine { return v.Obj.(*Subroutine) }
func (v Value) AsBoundMethod() *BoundMethod {
	return v.Obj.(*BoundMethod)
}

// TypeName renders the name used in runtime type-error messages.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindObj:
		switch v.Obj.ObjKind() {
		case OString:
			return "string"
		case OTuple:
			return "tuple"
		case OClass:
			return "class"
		case OInstance:
			return "instance"
		case ODict:
			return "dict"
		case OHostFunc, OSubroutine:
			return "function"
		case OBoundMethod:
			return "method"
		}
	}
	return "unknown"
}

// Inspect renders v for diagnostics and fox.io.print.
func (v Value) Inspect() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case KindInt:
		return fmt.Sprintf("%d", v.AsInt())
	case KindFloat:
		return fmt.Sprintf("%g", v.AsFloat())
	case KindObj:
		if v.Obj == nil {
			return "nil"
		}
		return v.Obj.Inspect()
	}
	return "?"
}

// RefEqual reports reference-or-structural equality as used by dict
// keys and the `==` operator's non-numeric branch: strings compare by
// their interned pointer (so logically-equal strings always compare
// equal), everything else in Obj compares by pointer identity.
func (v Value) RefEqual(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool, KindInt:
		return v.Num == o.Num
	case KindFloat:
		return v.Num == o.Num
	case KindObj:
		vb, vIsBound := v.Obj.(*BoundMethod)
		ob, oIsBound := o.Obj.(*BoundMethod)
		if vIsBound || oIsBound {
			return vIsBound && oIsBound && vb.Receiver == ob.Receiver && vb.Sub == ob.Sub
		}
		return v.Obj == o.Obj
	}
	return false
}
