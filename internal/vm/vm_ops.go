package vm

import "github.com/lone-wolf-akela/foxlox/internal/value"

// binaryArith implements ADD/SUB/MUL/DIV/INTDIV (§9): int op int stays
// int except for true division, which always promotes to float; any
// other numeric mix promotes both operands to float64. ADD on two
// strings concatenates via the intern pool's unmaterialized path.
func (v *VM) binaryArith(op opKind) {
	b := v.pop()
	a := v.pop()

	if op == opAdd && a.IsString() && b.IsString() {
		v.push(value.FromObj(v.strings.InternConcat(a.AsString().Bytes, b.AsString().Bytes)))
		return
	}

	if op == opAdd && (a.IsTuple() || b.IsTuple()) {
		v.push(value.FromObj(v.registerTuple(&value.Tuple{Elems: tupleCat(a, b)})))
		return
	}

	if !a.IsNumber() || !b.IsNumber() {
		v.raise("unsupported operand types for arithmetic: %s and %s", a.TypeName(), b.TypeName())
	}

	if op == opDiv {
		v.push(value.Float(a.AsFloat64() / b.AsFloat64()))
		return
	}

	if a.IsInt() && b.IsInt() {
		x, y := a.AsInt(), b.AsInt()
		var r int64
		switch op {
		case opAdd:
			r = x + y
		case opSub:
			r = x - y
		case opMul:
			r = x * y
		case opIntDiv:
			if y == 0 {
				v.raise("integer division by zero")
			}
			r = x / y
		}
		v.push(value.Int(r))
		return
	}

	x, y := a.AsFloat64(), b.AsFloat64()
	var r float64
	switch op {
	case opAdd:
		r = x + y
	case opSub:
		r = x - y
	case opMul:
		r = x * y
	case opIntDiv:
		v.raise("'//' requires both operands to be int")
	}
	v.push(value.Float(r))
}

// tupleCat implements ADD's tuple branch, mirroring the original
// runtime's Tuple::tuplecat: tuple+tuple joins both element slices,
// tuple+scalar appends, scalar+tuple prepends.
func tupleCat(a, b value.Value) []value.Value {
	if a.IsTuple() && b.IsTuple() {
		at, bt := a.AsTuple(), b.AsTuple()
		elems := make([]value.Value, 0, len(at.Elems)+len(bt.Elems))
		elems = append(elems, at.Elems...)
		elems = append(elems, bt.Elems...)
		return elems
	}
	if a.IsTuple() {
		at := a.AsTuple()
		elems := make([]value.Value, 0, len(at.Elems)+1)
		elems = append(elems, at.Elems...)
		elems = append(elems, b)
		return elems
	}
	bt := b.AsTuple()
	elems := make([]value.Value, 0, len(bt.Elems)+1)
	elems = append(elems, a)
	elems = append(elems, bt.Elems...)
	return elems
}

type opKind int

const (
	opAdd opKind = iota
	opSub
	opMul
	opDiv
	opIntDiv
)

// compareKind selects an ordering comparison (§9); equality has its own
// path since it also covers non-numeric operands.
type compareKind int

const (
	cmpGT compareKind = iota
	cmpGE
	cmpLT
	cmpLE
)

func (v *VM) compare(kind compareKind) {
	b := v.pop()
	a := v.pop()

	if !a.IsNumber() || !b.IsNumber() {
		v.raise("unsupported operand types for comparison: %s and %s", a.TypeName(), b.TypeName())
	}

	var result bool
	if a.IsInt() && b.IsInt() {
		x, y := a.AsInt(), b.AsInt()
		switch kind {
		case cmpGT:
			result = x > y
		case cmpGE:
			result = x >= y
		case cmpLT:
			result = x < y
		case cmpLE:
			result = x <= y
		}
	} else {
		x, y := a.AsFloat64(), b.AsFloat64()
		switch kind {
		case cmpGT:
			result = x > y
		case cmpGE:
			result = x >= y
		case cmpLT:
			result = x < y
		case cmpLE:
			result = x <= y
		}
	}
	v.push(value.Bool(result))
}

// equal implements EQ/NE (§9): numbers compare across int/float by
// numeric value; everything else falls back to RefEqual (pointer
// identity, or interned-pointer equality for strings).
func (v *VM) equal() bool {
	b := v.pop()
	a := v.pop()

	if a.IsNumber() && b.IsNumber() {
		if a.IsInt() && b.IsInt() {
			return a.AsInt() == b.AsInt()
		}
		return a.AsFloat64() == b.AsFloat64()
	}
	return a.RefEqual(b)
}

func (v *VM) negate() {
	a := v.pop()
	switch {
	case a.IsInt():
		v.push(value.Int(-a.AsInt()))
	case a.IsFloat():
		v.push(value.Float(-a.AsFloat()))
	default:
		v.raise("unsupported operand type for unary '-': %s", a.TypeName())
	}
}

func (v *VM) not() {
	a := v.pop()
	v.push(value.Bool(!a.Truthy()))
}

// doTuple implements TUPLE n: pop n elements (stack order) into a new
// immutable Tuple.
func (v *VM) doTuple(n int) {
	elems := make([]value.Value, n)
	copy(elems, v.stack[v.top-n:v.top])
	v.top -= n
	v.push(value.FromObj(v.registerTuple(&value.Tuple{Elems: elems})))
}

// doUnpack implements UNPACK n: pop one Tuple and push its n elements,
// used by tuple-pattern assignment (§4.5).
func (v *VM) doUnpack(n int) {
	t := v.pop()
	tup, ok := t.Obj.(*value.Tuple)
	if !ok {
		v.raiseInternal("cannot unpack a %s into %d value(s)", t.TypeName(), n)
	}
	if len(tup.Elems) != n {
		v.raiseInternal("expected a %d-tuple, got a %d-tuple", n, len(tup.Elems))
	}
	for _, e := range tup.Elems {
		v.push(e)
	}
}

// doInherit implements INHERIT: stack holds [subclass, superclass];
// pop the superclass, attach it, copy its method table down with every
// entry's SuperLevel bumped by one, and leave only the subclass.
func (v *VM) doInherit() {
	super := v.pop()
	sup, ok := super.Obj.(*value.Class)
	if !ok {
		v.raise("superclass must be a class, got %s", super.TypeName())
	}
	sub := v.peek(0).Obj.(*value.Class)
	sub.Super = sup
	for name, m := range sup.Methods {
		if _, overridden := sub.Methods[name]; overridden {
			continue
		}
		sub.Methods[name] = value.ClassMethod{Sub: m.Sub, SuperLevel: m.SuperLevel + 1}
	}
}

// doClass implements CLASS idx: materialize a runtime Class from the
// chunk's compile-time descriptor.
func (v *VM) doClass(idx uint16) {
	desc := v.cur.sub.Chunk.Classes[idx]
	class := &value.Class{
		Name:    v.strings.Intern(desc.Name),
		Methods: make(map[*value.String]value.ClassMethod, len(desc.Methods)),
	}
	chunk := v.cur.sub.Chunk
	for _, m := range desc.Methods {
		name := v.constPool[uint32(m.NameIdx)+chunk.ConstStringIdxBase]
		class.Methods[name] = value.ClassMethod{
			Sub: &value.Subroutine{Chunk: chunk, Idx: m.FuncIdx},
		}
	}
	globalIdx := uint32(idx) + chunk.ClassIdxBase
	v.classPool[globalIdx] = class
	v.push(value.FromObj(class))
}
