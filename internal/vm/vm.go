// Package vm executes compiled foxlox chunks: a single-threaded
// switch-dispatch bytecode loop (§4.7), the call/property/super
// protocols (§4.6–4.7), a tracing mark-and-sweep collector (§4.8), and
// the module loader (§4.9). The run loop follows the teacher's
// internal/vm/vm.go shape (a `for` loop switching over Opcode, a
// CallFrame slice, a "current frame" shortcut), not a computed-goto
// trick Go has no portable way to express.
package vm

import (
	"context"
	"fmt"
	"os"

	"github.com/lone-wolf-akela/foxlox/internal/bytecode"
	"github.com/lone-wolf-akela/foxlox/internal/config"
	"github.com/lone-wolf-akela/foxlox/internal/strpool"
	"github.com/lone-wolf-akela/foxlox/internal/value"
)

// frame is one call-trace entry (§3.9): the state to restore when the
// callee currently executing returns to its caller.
type frame struct {
	sub        *value.Subroutine
	ip         int
	floor      int // stack index where this frame's args/receiver begin
	superLevel int
}

// VM owns every pool and piece of mutable state a running program needs.
type VM struct {
	stack []value.Value // len == StackMax; only [:top] is live
	top   int

	frames []frame // suspended caller frames, innermost last
	cur    frame    // the currently executing frame
	hasCur bool

	strings  *strpool.Pool
	initName *value.String // "__init__", cached at construction

	staticPool []value.Value
	classPool  []*value.Class
	constPool  []*value.String // VM-global interned const-string index space

	chunks []*bytecode.Chunk // every chunk ever loaded; kept alive for the VM's life

	tuples    []*value.Tuple
	instances []*value.Instance
	dicts     []*value.Dict

	currentHeapSize int64
	nextGCHeapSize  int64

	libs        map[string]map[string]value.Value // built-in library name -> contents
	moduleCache map[string]*value.Dict            // resolved .fox path -> its exports

	traceInst bool
	traceGC   bool
	stressGC  bool

	stdout *os.File
	stdin  *os.File
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithLib preloads a built-in library under name, equivalent to
// calling LoadLib after construction.
func WithLib(name string, table map[string]value.Value) Option {
	return func(v *VM) { v.LoadLib(name, table) }
}

// New constructs a VM with empty pools. Trace switches are read once
// from the environment (§10.3): FOXLOX_TRACE_INST, FOXLOX_LOG_GC,
// FOXLOX_STRESS_GC — the Go analogue of the original's compile-time
// FOXLOX_DEBUG_TRACE_* defines, following this codebase's own
// config.IsTestMode pattern of a startup-latched package var.
func New(opts ...Option) *VM {
	v := &VM{
		stack:          make([]value.Value, config.StackMax),
		strings:        strpool.New(),
		libs:           make(map[string]map[string]value.Value),
		moduleCache:    make(map[string]*value.Dict),
		nextGCHeapSize: config.FirstGCHeapSize,
		stdout:         os.Stdout,
		stdin:          os.Stdin,
	}
	v.initName = v.strings.Intern("__init__")
	v.traceInst = os.Getenv("FOXLOX_TRACE_INST") == "1"
	v.traceGC = os.Getenv("FOXLOX_LOG_GC") == "1"
	v.stressGC = os.Getenv("FOXLOX_STRESS_GC") == "1"
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// LoadLib registers a built-in library's contents under name, so that
// `import name.components` (§4.9) resolves to it.
func (v *VM) LoadLib(name string, table map[string]value.Value) {
	v.libs[name] = table
}

// Run loads blob and executes its top-level body, returning whatever
// RETURN/RETURN_V produced (nil for a bare RETURN).
func (v *VM) Run(ctx context.Context, blob []byte) (result value.Value, err error) {
	select {
	case <-ctx.Done():
		return value.Nil(), ctx.Err()
	default:
	}

	chunk, loadErr := v.loadChunk(blob)
	if loadErr != nil {
		return value.Nil(), loadErr
	}

	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*value.RuntimeError); ok {
				err = re
				return
			}
			err = fmt.Errorf("foxlox: internal error: %v", r)
		}
	}()

	sub := &value.Subroutine{Chunk: chunk, Idx: 0}
	return v.callSubroutine(sub, nil, -1), nil
}

// RunModule runs blob the same way a `import` statement runs a
// compiled dependency (§4.9): its top-level body executes once, then
// an exports Dict is built from the entries its `export` statements
// registered. Useful for running a script as a self-contained unit
// whose bindings the caller wants back, not just its side effects.
func (v *VM) RunModule(ctx context.Context, blob []byte) (dict *value.Dict, err error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	chunk, loadErr := v.loadChunk(blob)
	if loadErr != nil {
		return nil, loadErr
	}

	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*value.RuntimeError); ok {
				err = re
				return
			}
			err = fmt.Errorf("foxlox: internal error: %v", r)
		}
	}()

	sub := &value.Subroutine{Chunk: chunk, Idx: 0}
	v.callSubroutine(sub, nil, -1)
	return v.exportsOf(chunk), nil
}

// push/pop/peek are the hot-path stack primitives; overflow/underflow
// are InternalRuntimeError conditions (§7).
func (v *VM) push(val value.Value) {
	if v.top >= len(v.stack) {
		v.raiseInternal("operand stack overflow")
	}
	v.stack[v.top] = val
	v.top++
}

func (v *VM) pop() value.Value {
	if v.top == 0 {
		v.raiseInternal("operand stack underflow")
	}
	v.top--
	return v.stack[v.top]
}

func (v *VM) peek(fromTop int) value.Value {
	return v.stack[v.top-1-fromTop]
}

// currentLine resolves the source line of the instruction the
// currently-executing frame is about to run, for error reporting.
func (v *VM) currentLine() int {
	if !v.hasCur || v.cur.sub == nil {
		return 0
	}
	return v.cur.sub.Raw().Lines.LineAt(v.cur.ip)
}

// raise panics with a ValueError-kind RuntimeError, the dispatch
// loop's default failure category (wrong operand type).
func (v *VM) raise(format string, args ...interface{}) {
	v.raiseAs(&value.ValueError{Message: fmt.Sprintf(format, args...)}, format, args...)
}

// raiseInternal panics with an InternalRuntimeError-kind RuntimeError:
// an invariant violated at a call boundary (arity, unpack size).
func (v *VM) raiseInternal(format string, args ...interface{}) {
	v.raiseAs(&value.InternalRuntimeError{Message: fmt.Sprintf(format, args...)}, format, args...)
}

// raiseLib panics with a RuntimeLibError-kind RuntimeError: a built-in
// library function rejecting its arguments.
func (v *VM) raiseLib(format string, args ...interface{}) {
	v.raiseAs(&value.RuntimeLibError{Message: fmt.Sprintf(format, args...)}, format, args...)
}

func (v *VM) raiseAs(kind error, format string, args ...interface{}) {
	trace := make([]string, 0, len(v.frames)+1)
	if v.hasCur && v.cur.sub != nil {
		trace = append(trace, v.cur.sub.Raw().Name)
	}
	for i := len(v.frames) - 1; i >= 0; i-- {
		trace = append(trace, v.frames[i].sub.Raw().Name)
	}
	panic(&value.RuntimeError{Line: v.currentLine(), Message: fmt.Sprintf(format, args...), Trace: trace, Kind: kind})
}
