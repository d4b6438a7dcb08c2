package value

import "fmt"

// The runtime error taxonomy (§7). Each is a small typed error in its
// own right, distinguishable with errors.As, rather than one
// stringly-typed failure. RuntimeError carries one of these as its
// Kind and formats it the same way regardless of which it holds.
type (
	// ValueError is a wrong-operand-type failure: arithmetic on
	// non-numbers, a property access on a non-object, calling a
	// non-callable, a missing super method.
	ValueError struct{ Message string }

	// InternalRuntimeError is an invariant violation caught at a call
	// boundary: wrong arity, a tuple-unpack size mismatch, too few or
	// too many arguments to a built-in.
	InternalRuntimeError struct{ Message string }

	// ChunkOperationError marks a chunk-local limit exceeded during
	// compilation (constants, strings, subroutines, classes, static
	// slots). Surfaced as a compile diagnostic, never as a VM panic.
	ChunkOperationError struct{ Message string }

	// UnimplementedError marks an AST construct this core does not
	// evaluate.
	UnimplementedError struct{ Message string }

	// RuntimeLibError is a built-in library rejecting its arguments.
	RuntimeLibError struct{ Message string }
)

func (e *ValueError) Error() string          { return e.Message }
func (e *InternalRuntimeError) Error() string { return e.Message }
func (e *ChunkOperationError) Error() string { return e.Message }
func (e *UnimplementedError) Error() string  { return e.Message }
func (e *RuntimeLibError) Error() string     { return e.Message }

// RuntimeError is the payload a dispatch-loop panic carries (§6.4):
// raised by a failing opcode or a host function's ctx.Raise, it
// unwinds through Go's panic/recover rather than threading an error
// return through every call frame, the same synchronization style this
// codebase's parser already uses for syntax errors. Kind holds one of
// the five taxonomy members above and is what errors.As unwraps to.
type RuntimeError struct {
	Line    int
	Message string
	Trace   []string // one entry per call frame, innermost first
	Kind    error
}

func (e *RuntimeError) Error() string {
	if len(e.Trace) == 0 {
		return fmt.Sprintf("[line %d] %s", e.Line, e.Message)
	}
	return fmt.Sprintf("[line %d] %s\n%s", e.Line, e.Message, joinTrace(e.Trace))
}

func (e *RuntimeError) Unwrap() error { return e.Kind }

func joinTrace(trace []string) string {
	s := ""
	for i, t := range trace {
		if i > 0 {
			s += "\n"
		}
		s += "  at " + t
	}
	return s
}
