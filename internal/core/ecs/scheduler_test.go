package ecs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txecs/runtime/internal/core/event"
	"github.com/txecs/runtime/internal/core/ident"
)

func TestInvalidSystemRunsOnFirstPass(t *testing.T) {
	c := New()
	fresh := newRecorder("fresh", false, true)
	settled := newRecorder("settled", true, true)
	mustEmplace(t, c, fresh)
	mustEmplace(t, c, settled)

	assert.Equal(t, 1, fresh.inits)
	assert.Equal(t, 1, c.UpdateSystems())
	assert.Equal(t, 1, fresh.updates)
	assert.Zero(t, settled.updates)
	assert.True(t, fresh.IsValid())
}

func TestSettledSystemWaitsForEvent(t *testing.T) {
	c := New()
	s := newRecorder("drawing", false, true, SlotFor[vec3](position))
	mustEmplace(t, c, s)

	c.UpdateSystems()
	c.UpdateSystems()
	c.UpdateSystems()
	assert.Equal(t, 1, s.updates)

	c.emit(event.Changed(cube, position))
	c.UpdateSystems()
	assert.Equal(t, 2, s.updates)
	require.Len(t, s.events, 1)
	assert.Equal(t, event.ComponentChanged, s.events[0].Kind())
}

func TestUnsettledSystemRunsEveryPass(t *testing.T) {
	c := New()
	s := newRecorder("updater", false, false)
	mustEmplace(t, c, s)

	ticks := 0
	c.RunSequential(func() bool {
		ticks++
		return ticks <= 3
	})
	assert.Equal(t, 3, s.updates)
	assert.False(t, s.IsValid())
}

func TestDependentSystemInvalidatedByUpdate(t *testing.T) {
	c := New()
	// dependent is registered first, so it only sees the producer's update on
	// the following pass.
	dependent := newRecorder("dependent", true, true)
	producer := newRecorder("producer", false, true)
	dependent.DependOn(producer.ID())
	mustEmplace(t, c, dependent)
	mustEmplace(t, c, producer)

	c.UpdateSystems()
	assert.Zero(t, dependent.updates)
	assert.False(t, dependent.IsValid(), "invalidated by SYSTEMUPDATED")

	c.UpdateSystems()
	assert.Equal(t, 1, dependent.updates)
	require.Len(t, dependent.events, 1)
	se, ok := dependent.events[0].(event.SystemEvent)
	require.True(t, ok)
	assert.Equal(t, producer.ID(), se.System)
}

func TestUpdatedEventEmittedEvenWhenUnsettled(t *testing.T) {
	c := New()
	worker := newRecorder("worker", false, false)
	listener := newRecorder("listener", true, true)
	listener.DependOn(worker.ID())
	mustEmplace(t, c, worker)
	mustEmplace(t, c, listener)

	c.UpdateSystems()
	assert.Equal(t, 1, listener.updates)
	assert.False(t, worker.IsValid())
}

// chatty delivers an event to itself while updating, then claims to be
// settled.
type chatty struct {
	*AspectSystem
	updates int
}

func (s *chatty) Update(c *Context) bool {
	s.updates++
	s.ClearEventQueue()
	s.SystemState().Deliver(event.Changed(cube, position))
	return true
}

func TestDeliveryDuringUpdateStaysQueued(t *testing.T) {
	c := New()
	s := &chatty{AspectSystem: NewAspectSystem(ident.System("chatty"), false, NewAspect())}
	mustEmplace(t, c, s)

	c.UpdateSystems()
	assert.True(t, s.IsValid(), "settled result wins")
	assert.Equal(t, 1, s.Pending())
	c.UpdateSystems()
	assert.Equal(t, 1, s.updates)
}

func TestSelfWritesDoNotRetrigger(t *testing.T) {
	c := New()
	sim := newSimulation()
	mustEmplace(t, c, sim)
	e := NewEntity()
	SetComponent(e, position, vec3{})
	SetComponent(e, velocity, vec3{1, 0, 0})
	seed(t, c, cube, e)

	passes, err := c.RunUntilSettled(0)
	require.NoError(t, err)
	assert.Equal(t, 1, passes)
}

func TestRunUntilSettled(t *testing.T) {
	c := New(WithMaxPasses(5))
	a := newRecorder("a", false, true)
	b := newRecorder("b", true, true)
	b.DependOn(a.ID())
	mustEmplace(t, c, a)
	mustEmplace(t, c, b)

	passes, err := c.RunUntilSettled(0)
	require.NoError(t, err)
	assert.Equal(t, 1, passes)
	assert.True(t, c.Settled())

	never := newRecorder("never", false, false)
	mustEmplace(t, c, never)
	passes, err = c.RunUntilSettled(0)
	assert.ErrorIs(t, err, ErrNotSettled)
	assert.Equal(t, 5, passes)
}

func TestRunTicksUntilCancelled(t *testing.T) {
	c := New()
	s := newRecorder("ticker", false, false)
	mustEmplace(t, c, s)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := c.Run(ctx, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, s.updates)
}

func TestDuplicateSystemRejected(t *testing.T) {
	c := New()
	mustEmplace(t, c, newRecorder("setup", false, true))
	err := c.EmplaceSystem(newRecorder("setup", false, true))
	assert.ErrorIs(t, err, ErrDuplicateSystem)
	assert.Len(t, c.Systems(), 1)

	got, ok := c.System(ident.System("setup"))
	require.True(t, ok)
	assert.Equal(t, ident.System("setup"), got.ID())
}

type failingInit struct{ *BaseSystem }

func (failingInit) Init(*Context) error { return errors.New("no config") }

func TestInitErrorSurfaces(t *testing.T) {
	c := New()
	err := c.EmplaceSystem(failingInit{NewBaseSystem(ident.System("broken"), false)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestBaseSystemDefaults(t *testing.T) {
	c := New()
	b := NewBaseSystem(ident.System("base"), false)
	mustEmplace(t, c, b)
	b.Deliver(event.Updated(ident.System("x")))

	c.UpdateSystems()
	assert.True(t, b.IsValid())
	assert.Zero(t, b.Pending(), "default Update clears the mailbox")
	assert.False(t, b.InterestedInSystem(ident.System("x")))
	assert.False(t, b.InterestedInComponent(nil, cube, position))
}
