package ident

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameRoundTrip(t *testing.T) {
	for _, name := range []string{"", "a", "Position", "config", strings.Repeat("x", 31), strings.Repeat("y", 32)} {
		id, err := New(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, id.Name())
		assert.Equal(t, name, id.String())
	}
}

func TestTooLong(t *testing.T) {
	_, err := New(strings.Repeat("z", 33))
	require.ErrorIs(t, err, ErrNameTooLong)

	_, err = NewComponentID("this-component-name-is-way-beyond-32-bytes")
	assert.ErrorIs(t, err, ErrNameTooLong)

	assert.Panics(t, func() { Component(strings.Repeat("q", 40)) })
}

func TestNULBytesRejected(t *testing.T) {
	for _, name := range []string{"ab\x00", "\x00", "a\x00b"} {
		_, err := New(name)
		assert.ErrorIs(t, err, ErrNameHasNUL, "%q", name)
	}
	_, err := NewEntityID("cube\x00")
	assert.ErrorIs(t, err, ErrNameHasNUL)
}

func TestEqualityAndHash(t *testing.T) {
	a := MustNew("Velocity")
	b := MustNew("Velocity")
	c := MustNew("Velocitz")

	assert.Equal(t, a, b)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Equal(t, 0, a.Compare(b))
}

func TestShortNamesDoNotCollide(t *testing.T) {
	seen := make(map[uint64]string)
	for _, name := range []string{"Position", "Velocity", "Mesh", "Radius", "config", "cube", "circle", "foo", "gravity", "origin", "direction"} {
		h := MustNew(name).Hash()
		prev, dup := seen[h]
		require.False(t, dup, "%s collides with %s", name, prev)
		seen[h] = name
	}
}

func TestOrdering(t *testing.T) {
	ids := []Identifier{MustNew("b"), MustNew("a"), MustNew("c"), MustNew("a")}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	for i := 1; i < len(ids); i++ {
		assert.LessOrEqual(t, ids[i-1].Compare(ids[i]), 0)
	}
	assert.False(t, ids[0].Less(ids[0]))

	hi := FromWords(0, 0, 0, 1)
	lo := FromWords(1, 0, 0, 0)
	assert.True(t, hi.Less(lo))
}

type sampleComponent struct{}

func TestOfType(t *testing.T) {
	id := OfType[sampleComponent]()
	assert.Equal(t, "ident.sampleComponent", id.Name())
	assert.Equal(t, id, OfType[sampleComponent]())

	long := OfType[map[string]map[string]map[string]sampleComponent]()
	assert.Len(t, long.Name(), MaxLength-1)
}

func TestKindsAreDistinct(t *testing.T) {
	c := Component("cube")
	e := Entity("cube")
	assert.Equal(t, c.Identifier, e.Identifier)
	assert.Equal(t, "cube", c.String())

	ids := Components("Position", "Velocity")
	require.Len(t, ids, 2)
	assert.Equal(t, Component("Velocity"), ids[1])
}

func TestAnonymousEntity(t *testing.T) {
	a := AnonymousEntity()
	b := AnonymousEntity()
	assert.Len(t, a.Name(), MaxLength)
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
}
