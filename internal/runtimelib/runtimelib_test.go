package runtimelib_test

import (
	"fmt"
	"testing"

	"github.com/lone-wolf-akela/foxlox/internal/runtimelib"
	"github.com/lone-wolf-akela/foxlox/internal/value"
	"github.com/stretchr/testify/require"
)

// fakeCtx is a minimal value.HostContext good enough to exercise the
// pure-computation libraries (fox.math, fox.algorithm) without a real
// VM: Raise panics the same way vm.raise does, so host functions that
// reject bad arguments can be tested with require.Panics.
type fakeCtx struct{}

func (fakeCtx) Intern(s string) *value.String             { return &value.String{Bytes: s} }
func (fakeCtx) InternConcat(a, b string) *value.String     { return &value.String{Bytes: a + b} }
func (fakeCtx) NewTuple(elems []value.Value) *value.Tuple { return &value.Tuple{Elems: elems} }
func (fakeCtx) NewDict() *value.Dict                       { return value.NewDict() }
func (fakeCtx) Call(callee value.Value, args []value.Value) value.Value {
	panic("fakeCtx.Call not implemented")
}
func (fakeCtx) Raise(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func call(lib map[string]value.Value, name string, args ...value.Value) value.Value {
	fn := lib[name].AsHostFunc()
	return fn.Fn(fakeCtx{}, args)
}

func TestAllRegistersEveryLibrary(t *testing.T) {
	libs := runtimelib.All()
	for _, name := range []string{
		"fox.io", "fox.term", "fox.uuid", "fox.yaml", "fox.humanize",
		"fox.sql", "fox.rpc", "fox.profiler", "fox.math", "fox.algorithm",
	} {
		require.Contains(t, libs, name)
		require.NotEmpty(t, libs[name])
	}
}

func TestMathSqrtFloorCeilRound(t *testing.T) {
	lib := runtimelib.All()["fox.math"]
	require.Equal(t, "2", call(lib, "sqrt", value.Int(4)).Inspect())
	require.Equal(t, "1", call(lib, "floor", value.Float(1.9)).Inspect())
	require.Equal(t, "2", call(lib, "ceil", value.Float(1.1)).Inspect())
	require.Equal(t, "2", call(lib, "round", value.Float(1.6)).Inspect())
}

func TestMathAbsPreservesIntType(t *testing.T) {
	lib := runtimelib.All()["fox.math"]
	require.Equal(t, "5", call(lib, "abs", value.Int(-5)).Inspect())
	require.True(t, call(lib, "abs", value.Int(-5)).IsInt())
	require.Equal(t, "5.5", call(lib, "abs", value.Float(-5.5)).Inspect())
}

func TestMathMinMax(t *testing.T) {
	lib := runtimelib.All()["fox.math"]
	require.Equal(t, "1", call(lib, "min", value.Int(1), value.Int(2)).Inspect())
	require.Equal(t, "2", call(lib, "max", value.Int(1), value.Int(2)).Inspect())
}

func TestMathRejectsNonNumber(t *testing.T) {
	lib := runtimelib.All()["fox.math"]
	require.Panics(t, func() { call(lib, "sqrt", value.FromObj(&value.String{Bytes: "x"})) })
}

func TestAlgorithmSortNumbers(t *testing.T) {
	lib := runtimelib.All()["fox.algorithm"]
	tup := value.FromObj(&value.Tuple{Elems: []value.Value{value.Int(3), value.Int(1), value.Int(2)}})
	require.Equal(t, "(1, 2, 3)", call(lib, "sort", tup).Inspect())
}

func TestAlgorithmFindReturnsIndexOrNegativeOne(t *testing.T) {
	lib := runtimelib.All()["fox.algorithm"]
	tup := value.FromObj(&value.Tuple{Elems: []value.Value{value.Int(10), value.Int(20), value.Int(30)}})
	require.Equal(t, "1", call(lib, "find", tup, value.Int(20)).Inspect())
	require.Equal(t, "-1", call(lib, "find", tup, value.Int(99)).Inspect())
}
