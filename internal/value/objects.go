package value

import (
	"fmt"
	"strings"

	"github.com/lone-wolf-akela/foxlox/internal/bytecode"
)

// Header is embedded by every heap object the collector sweeps:
// String, Tuple, Class, Instance, Dict. It carries the mark bit the
// tracing GC flips during mark and clears during sweep (§4.8); the
// VM's own index vectors (tuples/instances/dicts) and the intern pool
// are what let sweep enumerate every live allocation, so Header itself
// needs nothing but the bit.
type Header struct {
	Marked bool
}

func (h *Header) Mark()        { h.Marked = true }
func (h *Header) Unmark()      { h.Marked = false }
func (h *Header) IsMarked() bool { return h.Marked }

// String is an immutable, interned UTF-8 byte sequence. Two
// logically-equal strings always share one *String — see strpool.
type String struct {
	Header
	Bytes string
}

func (s *String) ObjKind() ObjKind { return OString }
func (s *String) Inspect() string  { return s.Bytes }

// Tuple is an immutable fixed-length sequence of values.
type Tuple struct {
	Header
	Elems []Value
}

func (t *Tuple) ObjKind() ObjKind { return OTuple }
func (t *Tuple) Inspect() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, e := range t.Elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Inspect())
	}
	if len(t.Elems) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

// ClassMethod is one entry of a runtime class's method table.
// SuperLevel counts how many `super.` hops past the class that
// directly declared this method a super call through this entry must
// skip (§4.6): 0 for a method declared directly on this class, and
// parent's SuperLevel+1 once INHERIT copies it down to a subclass.
type ClassMethod struct {
	Sub        *Subroutine
	SuperLevel int
}

// Class is a runtime class: a name, an optional superclass, and a
// method table keyed by interned method name.
type Class struct {
	Header
	Name    *String
	Super   *Class
	Methods map[*String]ClassMethod
}

func (c *Class) ObjKind() ObjKind { return OClass }
func (c *Class) Inspect() string  { return fmt.Sprintf("<class %s>", c.Name.Bytes) }

// Lookup finds a method by its interned name, searching this class's
// own table (INHERIT already copied every ancestor's entries in, so
// there is no need to walk Super at lookup time).
func (c *Class) Lookup(name *String) (ClassMethod, bool) {
	m, ok := c.Methods[name]
	return m, ok
}

// Instance is a live object of some Class, with its own field table.
type Instance struct {
	Header
	Class  *Class
	Fields map[*String]Value
}

func (i *Instance) ObjKind() ObjKind { return OInstance }
func (i *Instance) Inspect() string  { return fmt.Sprintf("<%s instance>", i.Class.Name.Bytes) }

// Dict backs both `import`-produced module namespaces and the Dict
// values built-in libraries return (fox.yaml, fox.sql, fox.rpc). Keys
// compare with Value's native struct equality (RefEqual semantics):
// structural for interned strings, reference for every other object.
type Dict struct {
	Header
	Entries map[Value]Value
}

func (d *Dict) ObjKind() ObjKind { return ODict }
func (d *Dict) Inspect() string  { return fmt.Sprintf("<dict %d entries>", len(d.Entries)) }

func NewDict() *Dict { return &Dict{Entries: make(map[Value]Value)} }

// Subroutine is a callable compiled function: a module-level function,
// a method body, or the module's own top-level code. It is never
// collected — it lives as long as the Chunk that owns it, which is
// retained for the life of the program once loaded.
type Subroutine struct {
	Chunk *bytecode.Chunk
	Idx   uint16
}

func (s *Subroutine) ObjKind() ObjKind { return OSubroutine }
func (s *Subroutine) Inspect() string  { return fmt.Sprintf("<fn %s>", s.Raw().Name) }
func (s *Subroutine) Raw() *bytecode.Subroutine { return s.Chunk.Subroutines[s.Idx] }

// HostContext is the capability set a host function body is given
// instead of the whole VM: allocation entry points plus the ability to
// call back into foxlox code and to raise a runtime error. Keeping it
// narrow lets runtimelib packages depend only on value, not on vm.
type HostContext interface {
	Intern(s string) *String
	InternConcat(a, b string) *String
	NewTuple(elems []Value) *Tuple
	NewDict() *Dict
	Call(callee Value, args []Value) Value
	Raise(format string, args ...interface{})
}

// HostFunc is a Go-implemented callable registered under a built-in
// library name (fox.io.print, fox.uuid.new_v4, ...). Fn panics via
// ctx.Raise on error rather than returning one, matching the
// panic/recover boundary the VM's own dispatch loop uses for runtime
// errors raised by bytecode (§4.7, §6.4).
type HostFunc struct {
	Name  string
	Arity int // -1 means variadic
	Fn    func(ctx HostContext, args []Value) Value
}

func (f *HostFunc) ObjKind() ObjKind { return OHostFunc }
func (f *HostFunc) Inspect() string  { return fmt.Sprintf("<host fn %s>", f.Name) }

// BoundMethod pairs a receiver with the subroutine super.-dispatch
// should run and the super-level that call must execute at (§4.6).
type BoundMethod struct {
	Receiver   *Instance
	Sub        *Subroutine
	SuperLevel int
}

func (b *BoundMethod) ObjKind() ObjKind { return OBoundMethod }
func (b *BoundMethod) Inspect() string  { return fmt.Sprintf("<bound method %s>", b.Sub.Raw().Name) }
