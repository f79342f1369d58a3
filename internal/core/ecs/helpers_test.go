package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/txecs/runtime/internal/core/event"
	"github.com/txecs/runtime/internal/core/ident"
)

// recorder keeps every event it drains and settles according to settle.
type recorder struct {
	*AspectSystem
	settle  bool
	updates int
	inits   int
	events  []event.Event
	closeFn func() error
}

func newRecorder(name string, valid, settle bool, slots ...Slot) *recorder {
	return &recorder{
		AspectSystem: NewAspectSystem(ident.System(name), valid, NewAspect(slots...)),
		settle:       settle,
	}
}

func (r *recorder) Init(*Context) error {
	r.inits++
	return nil
}

func (r *recorder) Update(*Context) bool {
	r.updates++
	r.ProcessEvents(func(e event.Event) { r.events = append(r.events, e) })
	return r.settle
}

func (r *recorder) Close() error {
	if r.closeFn != nil {
		return r.closeFn()
	}
	return nil
}

func (r *recorder) count(kind event.Kind, eid ident.EntityID, cid ident.ComponentID) int {
	n := 0
	for _, e := range r.events {
		if ce, ok := e.(event.ComponentEvent); ok && ce.Kind() == kind && ce.Entity == eid && ce.Component == cid {
			n++
		}
	}
	return n
}

func mustEmplace(t *testing.T, c *Context, s System) {
	t.Helper()
	require.NoError(t, c.EmplaceSystem(s))
}

func seed(t *testing.T, c *Context, id ident.EntityID, e *Entity) {
	t.Helper()
	_, err := Do(c, func(p *ModifyingProxy) error {
		p.SetEntity(id, e)
		return nil
	}).Get()
	require.NoError(t, err)
}
