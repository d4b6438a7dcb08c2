package vm

import (
	"fmt"
	"strings"

	"github.com/lone-wolf-akela/foxlox/internal/bytecode"
)

// Disassemble renders every subroutine in chunk as human-readable
// bytecode, following the teacher's OpcodeNames-map-plus-one-routine
// idiom rather than a per-opcode String method.
func Disassemble(chunk *bytecode.Chunk) string {
	var sb strings.Builder
	for i, sub := range chunk.Subroutines {
		fmt.Fprintf(&sb, "== %s (subroutine %d) ==\n", sub.Name, i)
		offset := 0
		for offset < len(sub.Code) {
			offset = disassembleInstruction(&sb, chunk, sub, offset)
		}
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, chunk *bytecode.Chunk, sub *bytecode.Subroutine, offset int) int {
	fmt.Fprintf(sb, "%04d %4d ", offset, sub.Lines.LineAt(offset))

	op := bytecode.Opcode(sub.Code[offset])
	name := bytecode.OpcodeNames[op]

	switch op {
	case bytecode.OP_NOP, bytecode.OP_NIL, bytecode.OP_RETURN, bytecode.OP_RETURN_V,
		bytecode.OP_POP, bytecode.OP_NEGATE, bytecode.OP_NOT,
		bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV, bytecode.OP_INTDIV,
		bytecode.OP_EQ, bytecode.OP_NE, bytecode.OP_GT, bytecode.OP_GE, bytecode.OP_LT, bytecode.OP_LE,
		bytecode.OP_INHERIT:
		fmt.Fprintf(sb, "%s\n", name)
		return offset + 1

	case bytecode.OP_BOOL:
		fmt.Fprintf(sb, "%-18s %v\n", name, sub.Code[offset+1] != 0)
		return offset + 2

	case bytecode.OP_POP_N, bytecode.OP_TUPLE, bytecode.OP_CALL, bytecode.OP_IMPORT, bytecode.OP_UNPACK,
		bytecode.OP_LOAD_STACK, bytecode.OP_STORE_STACK, bytecode.OP_LOAD_STATIC, bytecode.OP_STORE_STATIC:
		n := sub.ReadU16(offset + 1)
		fmt.Fprintf(sb, "%-18s %d\n", name, n)
		return offset + 3

	case bytecode.OP_CONSTANT:
		idx := sub.ReadU16(offset + 1)
		c := chunk.Constants[idx]
		if c.Kind == bytecode.ConstInt {
			fmt.Fprintf(sb, "%-18s %d\n", name, c.Int)
		} else {
			fmt.Fprintf(sb, "%-18s %g\n", name, c.Float)
		}
		return offset + 3

	case bytecode.OP_STRING, bytecode.OP_SET_PROPERTY, bytecode.OP_GET_PROPERTY, bytecode.OP_GET_SUPER_METHOD:
		idx := sub.ReadU16(offset + 1)
		fmt.Fprintf(sb, "%-18s %q\n", name, chunk.ConstStrings[idx])
		return offset + 3

	case bytecode.OP_FUNC:
		idx := sub.ReadU16(offset + 1)
		fmt.Fprintf(sb, "%-18s %s\n", name, chunk.Subroutines[idx].Name)
		return offset + 3

	case bytecode.OP_CLASS:
		idx := sub.ReadU16(offset + 1)
		fmt.Fprintf(sb, "%-18s %s\n", name, chunk.Classes[idx].Name)
		return offset + 3

	case bytecode.OP_JUMP, bytecode.OP_JUMP_IF_TRUE, bytecode.OP_JUMP_IF_FALSE,
		bytecode.OP_JUMP_IF_TRUE_NO_POP, bytecode.OP_JUMP_IF_FALSE_NO_POP:
		delta := sub.ReadI16(offset + 1)
		fmt.Fprintf(sb, "%-18s %d -> %d\n", name, offset, offset+3+int(delta))
		return offset + 3

	default:
		fmt.Fprintf(sb, "unknown opcode %d\n", op)
		return offset + 1
	}
}
