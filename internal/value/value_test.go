package value_test

import (
	"testing"

	"github.com/lone-wolf-akela/foxlox/internal/value"
	"github.com/stretchr/testify/require"
)

func TestTruthiness(t *testing.T) {
	require.False(t, value.Nil().Truthy())
	require.False(t, value.Bool(false).Truthy())
	require.True(t, value.Bool(true).Truthy())
	require.True(t, value.Int(0).Truthy())
	require.True(t, value.Float(0).Truthy())
}

func TestInspectFormatsPerKind(t *testing.T) {
	require.Equal(t, "nil", value.Nil().Inspect())
	require.Equal(t, "true", value.Bool(true).Inspect())
	require.Equal(t, "42", value.Int(42).Inspect())
	require.Equal(t, "3.5", value.Float(3.5).Inspect())
}

func TestInspectTuples(t *testing.T) {
	empty := value.FromObj(&value.Tuple{})
	require.Equal(t, "()", empty.Inspect())

	singleton := value.FromObj(&value.Tuple{Elems: []value.Value{value.Int(1)}})
	require.Equal(t, "(1,)", singleton.Inspect())

	pair := value.FromObj(&value.Tuple{Elems: []value.Value{value.Int(1), value.Int(2)}})
	require.Equal(t, "(1, 2)", pair.Inspect())
}

func TestRefEqualTreatsFalseAndZeroAsDistinct(t *testing.T) {
	require.False(t, value.Bool(false).RefEqual(value.Int(0)))
	require.False(t, value.Nil().RefEqual(value.Bool(false)))
}

func TestRefEqualNumbersCompareByBits(t *testing.T) {
	require.True(t, value.Int(5).RefEqual(value.Int(5)))
	require.False(t, value.Int(5).RefEqual(value.Float(5)))
}

func TestRefEqualBoundMethodByReceiverAndSub(t *testing.T) {
	inst := &value.Instance{}
	sub := &value.Subroutine{}
	a := value.FromObj(&value.BoundMethod{Receiver: inst, Sub: sub})
	b := value.FromObj(&value.BoundMethod{Receiver: inst, Sub: sub})
	require.True(t, a.RefEqual(b), "two wrappers over the same (receiver, sub) must be equal")

	other := value.FromObj(&value.BoundMethod{Receiver: &value.Instance{}, Sub: sub})
	require.False(t, a.RefEqual(other))
}

func TestAsFloat64WidensInt(t *testing.T) {
	require.Equal(t, 7.0, value.Int(7).AsFloat64())
	require.Equal(t, 7.5, value.Float(7.5).AsFloat64())
}

func TestTypeNameCoversAllKinds(t *testing.T) {
	require.Equal(t, "nil", value.Nil().TypeName())
	require.Equal(t, "bool", value.Bool(true).TypeName())
	require.Equal(t, "int", value.Int(1).TypeName())
	require.Equal(t, "float", value.Float(1).TypeName())
	require.Equal(t, "string", value.FromObj(&value.String{Bytes: "x"}).TypeName())
	require.Equal(t, "tuple", value.FromObj(&value.Tuple{}).TypeName())
}
