// Package tests drives the compiler and VM together end to end, the
// way the teacher's functional suite drives a built binary against
// .want fixtures — except here the "binary" is just compiler.Compile
// + vm.New().Run invoked in-process, so the suite never shells out to
// the Go toolchain.
package tests

import (
	"context"
	"testing"

	"github.com/lone-wolf-akela/foxlox/internal/compiler"
	"github.com/lone-wolf-akela/foxlox/internal/vm"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, src string) string {
	t.Helper()
	status, blob := compiler.Compile([]byte(src))
	require.Equal(t, compiler.OK, status, "expected successful compile")

	machine := vm.New()
	result, err := machine.Run(context.Background(), blob)
	require.NoError(t, err)
	return result.Inspect()
}

// The six end-to-end scenarios are literal inputs/outputs.
func TestFunctionalArithmetic(t *testing.T) {
	require.Equal(t, "7", runScript(t, `return 1+2*3;`))
}

func TestFunctionalStringConcatInLoop(t *testing.T) {
	src := `var s = ""; for(var i = 0; i < 3; ++i) s = s + "x"; return s;`
	require.Equal(t, "xxx", runScript(t, src))
}

func TestFunctionalIndependentClosureCaptures(t *testing.T) {
	src := `var r=(); fun f(){ var x="X"; fun g(){ r+=x; } return g; } var g1=f(); var g2=f(); g1(); g2(); return r;`
	require.Equal(t, "(X, X)", runScript(t, src))
}

func TestFunctionalSuperChain(t *testing.T) {
	src := `
		class A{ greet(){return "A";} }
		class B:A{ greet(){return "B";} }
		class C:B{ greet(){return "C"+super.greet();} }
		return C().greet();
	`
	require.Equal(t, "CB", runScript(t, src))
}

func TestFunctionalSuperChainSkipsIntermediateOverride(t *testing.T) {
	src := `
		class A{ greet(){return "A";} }
		class B:A{ greet(){return super.greet();} }
		class C:B{ greet(){return super.greet();} }
		return C().greet();
	`
	require.Equal(t, "A", runScript(t, src))
}

func TestFunctionalNestedTupleUnpack(t *testing.T) {
	src := `var a; var b; (a,(b,))=("x",("y",)); return a+b;`
	require.Equal(t, "xy", runScript(t, src))
}

func TestFunctionalComparisonEquality(t *testing.T) {
	require.Equal(t, "true", runScript(t, `return (false == 2 < 1);`))
}
