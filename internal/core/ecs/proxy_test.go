package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txecs/runtime/internal/core/event"
	"github.com/txecs/runtime/internal/core/ident"
	"github.com/txecs/runtime/internal/core/pool"
)

// spy is interested in every component event.
type spy struct {
	*BaseSystem
	events []event.Event
}

func newSpy() *spy { return &spy{BaseSystem: NewBaseSystem(ident.System("spy"), true)} }

func (s *spy) InterestedInComponent(Reader, ident.EntityID, ident.ComponentID) bool { return true }

func (s *spy) drain() []string {
	var out []string
	s.ProcessEvents(func(e event.Event) { out = append(out, e.String()) })
	return out
}

func TestSetEntityNew(t *testing.T) {
	c := New()
	s := newSpy()
	mustEmplace(t, c, s)

	src := NewEntity()
	SetComponent(src, position, vec3{1, 2, 3})
	SetComponent(src, velocity, vec3{})
	seed(t, c, cube, src)

	assert.Zero(t, src.Len(), "source entity is moved from")
	assert.Equal(t, []string{
		"ENTITYCREATED(cube)",
		"COMPONENTADDED(cube, Position)",
		"COMPONENTADDED(cube, Velocity)",
	}, s.drain())
}

func TestSetEntityDiff(t *testing.T) {
	c := New()
	s := newSpy()
	mustEmplace(t, c, s)

	before := NewEntity()
	SetComponent(before, position, vec3{})
	SetComponent(before, velocity, vec3{})
	seed(t, c, cube, before)
	s.drain()

	after := NewEntity()
	SetComponent(after, position, vec3{5, 0, 0})
	SetComponent(after, radius, float32(1))
	seed(t, c, cube, after)

	assert.Equal(t, []string{
		"COMPONENTCHANGED(cube, Position)",
		"COMPONENTREMOVED(cube, Velocity)",
		"COMPONENTADDED(cube, Radius)",
	}, s.drain())

	got, err := Exec(c, func(p *ReadOnlyProxy) (vec3, error) { return Get[vec3](p, cube, position) }).Get()
	require.NoError(t, err)
	assert.Equal(t, vec3{5, 0, 0}, got)
}

func TestEmplaceAddsThenChanges(t *testing.T) {
	c := New()
	s := newSpy()
	mustEmplace(t, c, s)

	_, err := Do(c, func(p *ModifyingProxy) error {
		Emplace(p, circle, radius, float32(1))
		Emplace(p, circle, radius, float32(2))
		return nil
	}).Get()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ENTITYCREATED(circle)",
		"COMPONENTADDED(circle, Radius)",
		"COMPONENTCHANGED(circle, Radius)",
	}, s.drain())
}

func TestWritable(t *testing.T) {
	c := New()
	seed(t, c, circle, SetComponent(NewEntity(), radius, float32(1)))
	s := newSpy()
	mustEmplace(t, c, s)

	_, err := Do(c, func(p *ModifyingProxy) error {
		r, err := Writable[float32](p, circle, radius)
		if err != nil {
			return err
		}
		*r = 4
		return nil
	}).Get()
	require.NoError(t, err)
	assert.Equal(t, []string{"COMPONENTCHANGED(circle, Radius)"}, s.drain())

	_, err = Do(c, func(p *ModifyingProxy) error {
		_, err := Writable[float32](p, foo, radius)
		return err
	}).Get()
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, err = Do(c, func(p *ModifyingProxy) error {
		_, err := Writable[float64](p, circle, radius)
		return err
	}).Get()
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Do(c, func(p *ModifyingProxy) error {
		_, err := Writable[float32](p, circle, position)
		return err
	}).Get()
	assert.ErrorIs(t, err, ErrComponentNotFound)
	assert.Empty(t, s.drain(), "failed lookups record nothing")

	got, err := Exec(c, func(p *ReadOnlyProxy) (float32, error) { return Get[float32](p, circle, radius) }).Get()
	require.NoError(t, err)
	assert.Equal(t, float32(4), got)
}

func TestRemoveComponentAndEntity(t *testing.T) {
	c := New()
	e := NewEntity()
	SetComponent(e, position, vec3{})
	SetComponent(e, meshID, mesh{})
	seed(t, c, foo, e)
	s := newSpy()
	mustEmplace(t, c, s)

	_, err := Do(c, func(p *ModifyingProxy) error {
		assert.True(t, p.RemoveComponent(foo, meshID))
		assert.False(t, p.RemoveComponent(foo, meshID))
		assert.False(t, p.RemoveComponent(cube, meshID))
		return nil
	}).Get()
	require.NoError(t, err)
	assert.Equal(t, []string{"COMPONENTREMOVED(foo, Mesh)"}, s.drain())

	_, err = Do(c, func(p *ModifyingProxy) error {
		assert.True(t, p.RemoveEntity(foo))
		assert.False(t, p.RemoveEntity(foo))
		return nil
	}).Get()
	require.NoError(t, err)
	assert.Equal(t, []string{"COMPONENTREMOVED(foo, Position)", "ENTITYREMOVED(foo)"}, s.drain())
	assert.Zero(t, c.Len())
}

func TestEventsHeldUntilVisitorReturns(t *testing.T) {
	c := New()
	s := newSpy()
	mustEmplace(t, c, s)

	_, err := Do(c, func(p *ModifyingProxy) error {
		Emplace(p, cube, position, vec3{})
		SetComponent(NewEntity(), velocity, vec3{})
		assert.Equal(t, 2, p.Recorded())
		assert.Zero(t, s.Pending())
		assert.True(t, p.Has(cube, position))
		return nil
	}).Get()
	require.NoError(t, err)
	assert.Equal(t, 2, s.Pending())
	assert.False(t, s.IsValid())
}

func TestEventsFlushedWhenVisitorFails(t *testing.T) {
	c := New()
	s := newSpy()
	mustEmplace(t, c, s)

	_, err := Do(c, func(p *ModifyingProxy) error {
		Emplace(p, cube, position, vec3{})
		panic("half way")
	}).Get()
	var pe *pool.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "half way", pe.Value)
	assert.Equal(t, 2, s.Pending(), "applied mutations are still announced")

	n, err := Exec(c, func(p *ReadOnlyProxy) (int, error) { return len(p.EntityIDs()), nil }).Get()
	require.NoError(t, err, "write lock released")
	assert.Equal(t, 1, n)
}

func TestReadOnlyExec(t *testing.T) {
	c := New()
	seed(t, c, cube, SetComponent(NewEntity(), position, vec3{1, 0, 0}))
	seed(t, c, circle, NewEntity())

	ids, err := Exec(c, func(p *ReadOnlyProxy) ([]ident.EntityID, error) {
		assert.True(t, p.Has(cube, position))
		assert.False(t, p.Has(circle, position))
		_, ok := p.Entity(foo)
		assert.False(t, ok)
		return p.EntityIDs(), nil
	}).Get()
	require.NoError(t, err)
	assert.Equal(t, []ident.EntityID{circle, cube}, ids)

	_, err = Exec(c, func(p *ReadOnlyProxy) (vec3, error) { return Get[vec3](p, foo, position) }).Get()
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, err = Exec(c, func(p *ReadOnlyProxy) (vec3, error) { return Get[vec3](p, circle, position) }).Get()
	assert.ErrorIs(t, err, ErrComponentNotFound)
}
