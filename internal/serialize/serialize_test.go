package serialize_test

import (
	"testing"

	"github.com/lone-wolf-akela/foxlox/internal/compiler"
	"github.com/lone-wolf-akela/foxlox/internal/serialize"
	"github.com/stretchr/testify/require"
)

// compiler.Compile already runs the chunk through serialize.Write, so
// round-tripping it through serialize.Read is the most direct way to
// exercise the binary module format against a real chunk.
func TestRoundTripSimpleScript(t *testing.T) {
	status, blob := compiler.Compile([]byte(`
		var x = 1 + 2;
		fun add(a, b) { return a + b; }
		export var y = add(x, 10);
	`))
	require.Equal(t, compiler.OK, status)

	chunk, err := serialize.Read(blob)
	require.NoError(t, err)
	require.NotNil(t, chunk)

	require.GreaterOrEqual(t, len(chunk.Subroutines), 2, "expect <script> plus add()")
	require.Len(t, chunk.Exports, 1)
	require.Equal(t, "y", chunk.ConstStrings[chunk.Exports[0].NameIdx])
}

func TestRoundTripClassesAndConstants(t *testing.T) {
	status, blob := compiler.Compile([]byte(`
		class Point {
			__init__(x, y) {
				this.x = x;
				this.y = y;
			}
		}
		var p = Point(1, 2);
		return "done";
	`))
	require.Equal(t, compiler.OK, status)

	chunk, err := serialize.Read(blob)
	require.NoError(t, err)
	require.Len(t, chunk.Classes, 1)
	require.Equal(t, "Point", chunk.Classes[0].Name)
	require.Contains(t, chunk.ConstStrings, "done")
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := serialize.Read([]byte("not a chunk"))
	require.Error(t, err)
}
