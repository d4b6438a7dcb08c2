package codegen_test

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/lone-wolf-akela/foxlox/internal/codegen"
	"github.com/lone-wolf-akela/foxlox/internal/diagnostics"
	"github.com/lone-wolf-akela/foxlox/internal/parser"
	"github.com/lone-wolf-akela/foxlox/internal/resolver"
	"github.com/lone-wolf-akela/foxlox/internal/vm"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	diags := &diagnostics.Bag{}
	prog := parser.Parse(src, diags)
	require.False(t, diags.HadError(), "parse errors: %v", diags.Items())

	resolver.Resolve(prog, diags)
	require.False(t, diags.HadError(), "resolve errors: %v", diags.Items())

	chunk := codegen.Generate(prog, "<test>", diags)
	require.False(t, diags.HadError(), "codegen errors: %v", diags.Items())
	return vm.Disassemble(chunk)
}

func TestArithmeticEmitsBinaryOp(t *testing.T) {
	out := generate(t, `return 1 + 2;`)
	require.Contains(t, out, "ADD")
}

func TestIfElseEmitsConditionalJumps(t *testing.T) {
	out := generate(t, `if (true) { return 1; } else { return 2; }`)
	require.Contains(t, out, "JUMP_IF_FALSE")
	require.GreaterOrEqual(t, strings.Count(out, "JUMP"), 2)
}

func TestWhileLoopEmitsBackwardJump(t *testing.T) {
	out := generate(t, `var i = 0; while (i < 10) { i = i + 1; }`)
	require.Contains(t, out, "JUMP_IF_FALSE")
	backward := false
	for _, m := range regexp.MustCompile(`JUMP +(\d+) -> (\d+)`).FindAllStringSubmatch(out, -1) {
		from, _ := strconv.Atoi(m[1])
		to, _ := strconv.Atoi(m[2])
		backward = backward || to < from
	}
	require.True(t, backward, "no backward JUMP in:\n%s", out)
}

func TestClassDeclarationEmitsClassOp(t *testing.T) {
	out := generate(t, `class Foo { bar() { return 1; } }`)
	require.Contains(t, out, "CLASS")
}

func TestFunctionCallEmitsCallOp(t *testing.T) {
	out := generate(t, `fun f(a) { return a; } return f(1);`)
	require.Contains(t, out, "CALL")
}

func TestTupleLiteralEmitsTupleOp(t *testing.T) {
	out := generate(t, `return (1, 2, 3);`)
	lines := strings.Count(out, "TUPLE")
	require.GreaterOrEqual(t, lines, 1)
}
