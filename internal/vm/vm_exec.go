package vm

import (
	"fmt"
	"os"

	"github.com/lone-wolf-akela/foxlox/internal/bytecode"
	"github.com/lone-wolf-akela/foxlox/internal/value"
)

// runLoop is the single switch-dispatch bytecode interpreter every
// call path funnels through (§4.7): callSubroutine seeds the first
// frame and calls this once; OP_CALL within the loop pushes further
// frames and keeps iterating rather than recursing. It returns once
// the call-trace unwinds back down to stopAt frames deep.
func (v *VM) runLoop(stopAt int) value.Value {
	for {
		raw := v.cur.sub.Raw()
		code := raw.Code
		op := bytecode.Opcode(code[v.cur.ip])
		v.cur.ip++

		if v.traceInst {
			fmt.Fprintf(os.Stderr, "%04d %s\n", v.cur.ip-1, op)
		}

		switch op {
		case bytecode.OP_NOP:

		case bytecode.OP_NIL:
			v.push(value.Nil())

		case bytecode.OP_RETURN:
			v.top = v.cur.floor
			if len(v.frames) == stopAt {
				return value.Nil()
			}
			v.cur, v.frames = v.frames[len(v.frames)-1], v.frames[:len(v.frames)-1]
			v.push(value.Nil())
			v.maybeCollect()

		case bytecode.OP_RETURN_V:
			result := v.pop()
			v.top = v.cur.floor
			if len(v.frames) == stopAt {
				return result
			}
			v.cur, v.frames = v.frames[len(v.frames)-1], v.frames[:len(v.frames)-1]
			v.push(result)
			v.maybeCollect()

		case bytecode.OP_POP:
			v.pop()

		case bytecode.OP_POP_N:
			n := v.readU16()
			v.top -= int(n)

		case bytecode.OP_NEGATE:
			v.negate()

		case bytecode.OP_NOT:
			v.not()

		case bytecode.OP_ADD:
			v.binaryArith(opAdd)
		case bytecode.OP_SUB:
			v.binaryArith(opSub)
		case bytecode.OP_MUL:
			v.binaryArith(opMul)
		case bytecode.OP_DIV:
			v.binaryArith(opDiv)
		case bytecode.OP_INTDIV:
			v.binaryArith(opIntDiv)

		case bytecode.OP_EQ:
			v.push(value.Bool(v.equal()))
		case bytecode.OP_NE:
			v.push(value.Bool(!v.equal()))
		case bytecode.OP_GT:
			v.compare(cmpGT)
		case bytecode.OP_GE:
			v.compare(cmpGE)
		case bytecode.OP_LT:
			v.compare(cmpLT)
		case bytecode.OP_LE:
			v.compare(cmpLE)

		case bytecode.OP_CONSTANT:
			idx := v.readU16()
			c := v.cur.sub.Chunk.Constants[idx]
			if c.Kind == bytecode.ConstInt {
				v.push(value.Int(c.Int))
			} else {
				v.push(value.Float(c.Float))
			}

		case bytecode.OP_STRING:
			idx := v.readU16()
			v.push(value.FromObj(v.constStr(idx)))

		case bytecode.OP_BOOL:
			b := code[v.cur.ip]
			v.cur.ip++
			v.push(value.Bool(b != 0))

		case bytecode.OP_TUPLE:
			n := v.readU16()
			v.doTuple(int(n))

		case bytecode.OP_FUNC:
			idx := v.readU16()
			v.push(value.FromObj(&value.Subroutine{Chunk: v.cur.sub.Chunk, Idx: idx}))

		case bytecode.OP_CLASS:
			idx := v.readU16()
			v.doClass(idx)

		case bytecode.OP_INHERIT:
			v.doInherit()

		case bytecode.OP_LOAD_STACK:
			k := v.readU16()
			v.push(v.stack[v.top-int(k)])

		case bytecode.OP_STORE_STACK:
			k := v.readU16()
			v.stack[v.top-int(k)] = v.peek(0)

		case bytecode.OP_LOAD_STATIC:
			slot := v.readU16()
			v.push(v.staticPool[uint32(slot)+v.cur.sub.Chunk.StaticValueIdxBase])

		case bytecode.OP_STORE_STATIC:
			slot := v.readU16()
			v.staticPool[uint32(slot)+v.cur.sub.Chunk.StaticValueIdxBase] = v.peek(0)

		case bytecode.OP_JUMP:
			delta := v.readI16()
			v.branch(delta)

		case bytecode.OP_JUMP_IF_TRUE:
			delta := v.readI16()
			if v.pop().Truthy() {
				v.branch(delta)
			}

		case bytecode.OP_JUMP_IF_FALSE:
			delta := v.readI16()
			if !v.pop().Truthy() {
				v.branch(delta)
			}

		case bytecode.OP_JUMP_IF_TRUE_NO_POP:
			delta := v.readI16()
			if v.peek(0).Truthy() {
				v.branch(delta)
			}

		case bytecode.OP_JUMP_IF_FALSE_NO_POP:
			delta := v.readI16()
			if !v.peek(0).Truthy() {
				v.branch(delta)
			}

		case bytecode.OP_CALL:
			n := v.readU16()
			v.dispatchCall(int(n))

		case bytecode.OP_SET_PROPERTY:
			idx := v.readU16()
			v.doSetProperty(idx)

		case bytecode.OP_GET_PROPERTY:
			idx := v.readU16()
			v.doGetProperty(idx)

		case bytecode.OP_GET_SUPER_METHOD:
			idx := v.readU16()
			v.doGetSuperMethod(idx)

		case bytecode.OP_IMPORT:
			n := v.readU16()
			v.doImportOp(int(n))

		case bytecode.OP_UNPACK:
			n := v.readU16()
			v.doUnpack(int(n))

		default:
			v.raise("unknown opcode %d", op)
		}
	}
}

// readU16/readI16 read the two-byte immediate at the current
// instruction pointer and advance past it.
func (v *VM) readU16() uint16 {
	k := v.cur.sub.Raw().ReadU16(v.cur.ip)
	v.cur.ip += 2
	return k
}

func (v *VM) readI16() int16 {
	d := v.cur.sub.Raw().ReadI16(v.cur.ip)
	v.cur.ip += 2
	return d
}

// branch applies a jump delta relative to the byte position right
// after its own operand (§4.5), running a GC check on backward edges
// (loop bodies are where allocation-heavy code tends to spin, §4.8).
func (v *VM) branch(delta int16) {
	v.cur.ip += int(delta)
	if delta < 0 {
		v.maybeCollect()
	}
}

// doImportOp implements OP_IMPORT n: the n path components already sit
// on the stack, left to right, bottom to top.
func (v *VM) doImportOp(n int) {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = v.stack[v.top-n+i].AsString().Bytes
	}
	v.top -= n
	v.push(v.doImport(parts))
}
