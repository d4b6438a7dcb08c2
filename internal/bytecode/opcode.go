// Package bytecode defines the foxlox instruction set and the Chunk
// container the code generator emits into and the VM executes from.
package bytecode

// Opcode is a single VM instruction.
type Opcode byte

const (
	OP_NOP Opcode = iota
	OP_NIL
	OP_RETURN
	OP_RETURN_V
	OP_POP
	OP_POP_N // u16 n

	OP_NEGATE
	OP_NOT

	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_INTDIV

	OP_EQ
	OP_NE
	OP_GT
	OP_GE
	OP_LT
	OP_LE

	OP_CONSTANT // u16 idx
	OP_STRING   // u16 idx
	OP_BOOL     // u8
	OP_TUPLE    // u16 n
	OP_FUNC     // u16 idx
	OP_CLASS    // u16 idx
	OP_INHERIT

	OP_LOAD_STACK    // u16 k
	OP_STORE_STACK   // u16 k
	OP_LOAD_STATIC   // u16 slot
	OP_STORE_STATIC  // u16 slot

	OP_JUMP                  // i16 delta
	OP_JUMP_IF_TRUE          // i16 delta
	OP_JUMP_IF_FALSE         // i16 delta
	OP_JUMP_IF_TRUE_NO_POP   // i16 delta
	OP_JUMP_IF_FALSE_NO_POP  // i16 delta

	OP_CALL // u16 n

	OP_SET_PROPERTY     // u16 name_idx
	OP_GET_PROPERTY     // u16 name_idx
	OP_GET_SUPER_METHOD // u16 name_idx

	OP_IMPORT // u16 n
	OP_UNPACK // u16 n
)

// OpcodeNames maps opcodes to their disassembly mnemonic.
var OpcodeNames = map[Opcode]string{
	OP_NOP:      "NOP",
	OP_NIL:      "NIL",
	OP_RETURN:   "RETURN",
	OP_RETURN_V: "RETURN_V",
	OP_POP:      "POP",
	OP_POP_N:    "POP_N",

	OP_NEGATE: "NEGATE",
	OP_NOT:    "NOT",

	OP_ADD:    "ADD",
	OP_SUB:    "SUB",
	OP_MUL:    "MUL",
	OP_DIV:    "DIV",
	OP_INTDIV: "INTDIV",

	OP_EQ: "EQ",
	OP_NE: "NE",
	OP_GT: "GT",
	OP_GE: "GE",
	OP_LT: "LT",
	OP_LE: "LE",

	OP_CONSTANT: "CONSTANT",
	OP_STRING:   "STRING",
	OP_BOOL:     "BOOL",
	OP_TUPLE:    "TUPLE",
	OP_FUNC:     "FUNC",
	OP_CLASS:    "CLASS",
	OP_INHERIT:  "INHERIT",

	OP_LOAD_STACK:   "LOAD_STACK",
	OP_STORE_STACK:  "STORE_STACK",
	OP_LOAD_STATIC:  "LOAD_STATIC",
	OP_STORE_STATIC: "STORE_STATIC",

	OP_JUMP:                 "JUMP",
	OP_JUMP_IF_TRUE:         "JUMP_IF_TRUE",
	OP_JUMP_IF_FALSE:        "JUMP_IF_FALSE",
	OP_JUMP_IF_TRUE_NO_POP:  "JUMP_IF_TRUE_NO_POP",
	OP_JUMP_IF_FALSE_NO_POP: "JUMP_IF_FALSE_NO_POP",

	OP_CALL: "CALL",

	OP_SET_PROPERTY:     "SET_PROPERTY",
	OP_GET_PROPERTY:     "GET_PROPERTY",
	OP_GET_SUPER_METHOD: "GET_SUPER_METHOD",

	OP_IMPORT: "IMPORT",
	OP_UNPACK: "UNPACK",
}

func (op Opcode) String() string {
	if n, ok := OpcodeNames[op]; ok {
		return n
	}
	return "UNKNOWN_OP"
}
