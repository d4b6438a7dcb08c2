package bytecode

import "encoding/binary"

// ConstKind tags the two numeric compile-time constant shapes a chunk's
// constant table can hold (§3.3; strings live in a separate table, §3.4).
type ConstKind byte

const (
	ConstInt ConstKind = iota
	ConstFloat
)

// Constant is one entry of a chunk's numeric constants table.
type Constant struct {
	Kind  ConstKind
	Int   int64
	Float float64
}

// LineEntry is one (first-byte-offset, line-number) pair (§3.5).
type LineEntry struct {
	Offset int
	Line   int
}

// LineTable is a sorted run-length-collapsed list of LineEntry: the
// line attached to a byte offset is that of the largest recorded entry
// whose Offset is <= the query.
type LineTable struct {
	Entries []LineEntry
}

// Add records that byte offset maps to line, collapsing identical
// consecutive line numbers.
func (lt *LineTable) Add(offset, line int) {
	if n := len(lt.Entries); n > 0 && lt.Entries[n-1].Line == line {
		return
	}
	lt.Entries = append(lt.Entries, LineEntry{Offset: offset, Line: line})
}

// LineAt returns the line for offset, per the largest-offset-<=-query rule.
func (lt *LineTable) LineAt(offset int) int {
	line := 0
	for _, e := range lt.Entries {
		if e.Offset > offset {
			break
		}
		line = e.Line
	}
	return line
}

// Subroutine is one compiled function body within a chunk.
type Subroutine struct {
	Arity      int
	Code       []byte
	Lines      LineTable
	Name       string
	StaticRefs []uint16 // static slots this subroutine's code references (GC roots)
}

// Len returns the current length of the instruction stream.
func (s *Subroutine) Len() int { return len(s.Code) }

// WriteByte appends one raw byte, recording the source line if it
// differs from the line most recently recorded.
func (s *Subroutine) WriteByte(b byte, line int) {
	s.Lines.Add(len(s.Code), line)
	s.Code = append(s.Code, b)
}

// WriteOp appends an opcode byte.
func (s *Subroutine) WriteOp(op Opcode, line int) {
	s.WriteByte(byte(op), line)
}

// WriteU16 appends a big-endian uint16 immediate.
func (s *Subroutine) WriteU16(v uint16, line int) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	s.WriteByte(buf[0], line)
	s.WriteByte(buf[1], line)
}

// WriteI16 appends a big-endian int16 immediate (used for jump deltas).
func (s *Subroutine) WriteI16(v int16, line int) {
	s.WriteU16(uint16(v), line)
}

// PatchU16 overwrites the u16 immediate at byte offset pos (used for
// back-patching jump targets once known).
func (s *Subroutine) PatchU16(pos int, v uint16) {
	binary.BigEndian.PutUint16(s.Code[pos:pos+2], v)
}

// ReadU16 reads the big-endian uint16 at offset pos.
func (s *Subroutine) ReadU16(pos int) uint16 {
	return binary.BigEndian.Uint16(s.Code[pos : pos+2])
}

// ReadI16 reads the big-endian int16 at offset pos.
func (s *Subroutine) ReadI16(pos int) int16 {
	return int16(s.ReadU16(pos))
}

// AddStaticRef records that this subroutine references the given
// static slot, so the GC can use it as a marking root (§4.8).
func (s *Subroutine) AddStaticRef(slot uint16) {
	for _, r := range s.StaticRefs {
		if r == slot {
			return
		}
	}
	s.StaticRefs = append(s.StaticRefs, slot)
}

// MethodEntry is one (method-name-index, subroutine-index) pair of a
// compile-time class descriptor.
type MethodEntry struct {
	NameIdx uint16
	FuncIdx uint16
}

// ClassDesc is a compile-time class descriptor (§3.4); the VM
// instantiates a runtime Class from one of these when it executes
// OP_CLASS.
type ClassDesc struct {
	Name    string
	Methods []MethodEntry
}

// Export is one (name-index-in-const-strings, static-value-index) pair.
type Export struct {
	NameIdx  uint16
	ValueIdx uint16
}

// Chunk is a compiled module (§3.4).
type Chunk struct {
	SourcePath       string
	SourcePerLine    []string // 1-indexed; index 0 unused
	Subroutines      []*Subroutine
	Classes          []ClassDesc
	Constants        []Constant
	ConstStrings     []string
	Exports          []Export
	StaticValueNum   uint16

	// Runtime-only, set by the loader when this chunk is attached to a VM.
	StaticValueIdxBase uint32
	ClassIdxBase       uint32
	ConstStringIdxBase uint32
}

// NewChunk creates an empty chunk with its index-0 top-level subroutine.
func NewChunk(sourcePath string) *Chunk {
	c := &Chunk{SourcePath: sourcePath, SourcePerLine: []string{""}}
	c.Subroutines = append(c.Subroutines, &Subroutine{Name: "<script>"})
	return c
}

// AddConstant interns a numeric constant, returning its index. Equal
// constants are not deduplicated (the original does not either): each
// call site addresses its own literal.
func (c *Chunk) AddConstant(v Constant) uint16 {
	c.Constants = append(c.Constants, v)
	return uint16(len(c.Constants) - 1)
}

// AddConstString interns a string into the chunk-local const-string
// table (distinct from the VM's runtime string-intern pool, §3.8),
// returning its index.
func (c *Chunk) AddConstString(s string) uint16 {
	for i, existing := range c.ConstStrings {
		if existing == s {
			return uint16(i)
		}
	}
	c.ConstStrings = append(c.ConstStrings, s)
	return uint16(len(c.ConstStrings) - 1)
}

// AddClass appends a class descriptor, returning its index.
func (c *Chunk) AddClass(desc ClassDesc) uint16 {
	c.Classes = append(c.Classes, desc)
	return uint16(len(c.Classes) - 1)
}

// AddSubroutine appends a new, empty subroutine, returning its index.
func (c *Chunk) AddSubroutine(name string, arity int) uint16 {
	c.Subroutines = append(c.Subroutines, &Subroutine{Name: name, Arity: arity})
	return uint16(len(c.Subroutines) - 1)
}

// AddStaticSlot reserves a fresh static-pool slot local to this chunk,
// returning its index.
func (c *Chunk) AddStaticSlot() uint16 {
	slot := c.StaticValueNum
	c.StaticValueNum++
	return slot
}
