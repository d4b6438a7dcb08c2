package vm_test

import (
	"context"
	"testing"

	"github.com/lone-wolf-akela/foxlox/internal/compiler"
	"github.com/lone-wolf-akela/foxlox/internal/value"
	"github.com/lone-wolf-akela/foxlox/internal/vm"
	"github.com/stretchr/testify/require"
)

// runModule compiles src and runs it as a module, returning its export
// table. Most tests funnel a result out through a single `export var`.
func runModule(t *testing.T, src string) *value.Dict {
	t.Helper()
	dict, err := compileAndRunModule(t, src)
	require.NoError(t, err)
	return dict
}

func compileAndRunModule(t *testing.T, src string) (*value.Dict, error) {
	t.Helper()
	status, blob := compiler.Compile([]byte(src))
	require.Equal(t, compiler.OK, status, "expected successful compile")

	machine := vm.New()
	return machine.RunModule(context.Background(), blob)
}

func exported(t *testing.T, dict *value.Dict, name string) value.Value {
	t.Helper()
	for k, v := range dict.Entries {
		if s, ok := k.Obj.(*value.String); ok && s.Bytes == name {
			return v
		}
	}
	t.Fatalf("no export named %q", name)
	return value.Nil()
}

func TestArithmeticPrecedence(t *testing.T) {
	dict := runModule(t, `
		export var x = 2 + 3 * 4;
	`)
	require.Equal(t, "14", exported(t, dict, "x").Inspect())
}

func TestStringConcatInLoop(t *testing.T) {
	dict := runModule(t, `
		var s = "";
		var i = 0;
		while (i < 3) {
			s = s + "a";
			i = i + 1;
		}
		export var result = s;
	`)
	require.Equal(t, "aaa", exported(t, dict, "result").Inspect())
}

func TestIndependentClosuresCaptureSeparateCells(t *testing.T) {
	dict := runModule(t, `
		fun make_counter() {
			var n = 0;
			fun inc() {
				n = n + 1;
				return n;
			}
			return inc;
		}
		var a = make_counter();
		var b = make_counter();
		a();
		a();
		var bFirst = b();
		export var out = (a(), bFirst);
	`)
	require.Equal(t, "(3, 1)", exported(t, dict, "out").Inspect())
}

func TestSuperDispatchAcrossThreeLevels(t *testing.T) {
	dict := runModule(t, `
		class A {
			greet() { return "A"; }
		}
		class B : A {
			greet() { return "B" + super.greet(); }
		}
		class C : B {
			greet() { return "C" + super.greet(); }
		}
		export var out = C().greet();
	`)
	require.Equal(t, "CBA", exported(t, dict, "out").Inspect())
}

func TestTupleDestructuringAssignment(t *testing.T) {
	dict := runModule(t, `
		var a = nil;
		var b = nil;
		var c = nil;
		(a, (b, c)) = (1, (2, 3));
		export var out = (a, b, c);
	`)
	require.Equal(t, "(1, 2, 3)", exported(t, dict, "out").Inspect())
}

func TestTupleConcatenationAdd(t *testing.T) {
	dict := runModule(t, `
		export var tt = (1, 2) + (3,);
		export var ts = (1, 2) + 3;
		export var st = 1 + (2, 3);
	`)
	require.Equal(t, "(1, 2, 3)", exported(t, dict, "tt").Inspect())
	require.Equal(t, "(1, 2, 3)", exported(t, dict, "ts").Inspect())
	require.Equal(t, "(1, 2, 3)", exported(t, dict, "st").Inspect())
}

func TestBoundMethodEqualityByReceiverAndSub(t *testing.T) {
	dict := runModule(t, `
		class Counter {
			__init__(start) { this.n = start; }
			bump() { this.n = this.n + 1; return this.n; }
		}
		var c = Counter(0);
		var other = Counter(0);
		export var sameMethod = c.bump == c.bump;
		export var differentInstance = c.bump == other.bump;
	`)
	require.Equal(t, "true", exported(t, dict, "sameMethod").Inspect())
	require.Equal(t, "false", exported(t, dict, "differentInstance").Inspect())
}

func TestComparisonChainingTruthiness(t *testing.T) {
	dict := runModule(t, `
		export var ok = 1 < 2 and 2 < 3 and !(3 < 1);
	`)
	require.Equal(t, "true", exported(t, dict, "ok").Inspect())
}

func TestUndefinedPropertyRaisesRuntimeError(t *testing.T) {
	_, err := compileAndRunModule(t, `
		class Empty {}
		var e = Empty();
		export var out = e.missing;
	`)
	require.Error(t, err)
}

func TestCallArityMismatchRaisesRuntimeError(t *testing.T) {
	_, err := compileAndRunModule(t, `
		fun needs_two(a, b) { return a + b; }
		export var out = needs_two(1);
	`)
	require.Error(t, err)
}

func TestClassFieldsAndMethods(t *testing.T) {
	dict := runModule(t, `
		class Counter {
			__init__(start) {
				this.n = start;
			}
			bump() {
				this.n = this.n + 1;
				return this.n;
			}
		}
		var c = Counter(10);
		c.bump();
		export var out = c.bump();
	`)
	require.Equal(t, "12", exported(t, dict, "out").Inspect())
}

func TestIntDivisionAndFloatPromotion(t *testing.T) {
	dict := runModule(t, `
		export var whole = 7 // 2;
		export var frac = 7 / 2;
	`)
	require.Equal(t, "3", exported(t, dict, "whole").Inspect())
	require.Equal(t, "3.5", exported(t, dict, "frac").Inspect())
}
