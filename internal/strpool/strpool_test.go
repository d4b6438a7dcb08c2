package strpool_test

import (
	"fmt"
	"testing"

	"github.com/lone-wolf-akela/foxlox/internal/strpool"
	"github.com/lone-wolf-akela/foxlox/internal/value"
	"github.com/stretchr/testify/require"
)

func TestInternDeduplicatesEqualStrings(t *testing.T) {
	p := strpool.New()
	a := p.Intern("hello")
	b := p.Intern("hello")
	require.True(t, a == b, "equal strings must share one *value.String")
}

func TestInternConcatMatchesMaterializedIntern(t *testing.T) {
	p := strpool.New()
	whole := p.Intern("foobar")
	concat := p.InternConcat("foo", "bar")
	require.True(t, whole == concat)
}

func TestInternDistinctStringsGetDistinctObjects(t *testing.T) {
	p := strpool.New()
	a := p.Intern("foo")
	b := p.Intern("bar")
	require.False(t, a == b)
}

func TestDeleteThenReinternYieldsFreshObject(t *testing.T) {
	p := strpool.New()
	first := p.Intern("purge-me")
	p.Delete("purge-me")
	second := p.Intern("purge-me")
	require.False(t, first == second, "re-interning after a purge must not resurrect the freed object")
	require.Equal(t, first.Bytes, second.Bytes)
}

func TestSweepTombstonesUnkeptEntries(t *testing.T) {
	p := strpool.New()
	keep := p.Intern("keep")
	drop := p.Intern("drop")

	p.Sweep(func(s *value.String) bool { return s == keep })

	reinterned := p.Intern("drop")
	require.False(t, reinterned == drop, "swept entry must be gone from the pool")
	stillThere := p.Intern("keep")
	require.True(t, stillThere == keep, "kept entry must survive the sweep")
}

func TestGrowthPreservesAllEntries(t *testing.T) {
	p := strpool.New()
	var strs []*value.String
	for i := 0; i < 200; i++ {
		strs = append(strs, p.Intern(fmt.Sprintf("s%d", i)))
	}
	for i, s := range strs {
		require.True(t, p.Intern(fmt.Sprintf("s%d", i)) == s)
	}
}
