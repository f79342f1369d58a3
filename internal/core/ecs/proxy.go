package ecs

import (
	"github.com/txecs/runtime/internal/core/event"
	"github.com/txecs/runtime/internal/core/ident"
	"github.com/txecs/runtime/internal/core/pool"
)

// ReadOnlyProxy is the lookup-only view of a Context handed to Exec
// visitors. It is only valid for the duration of the visitor.
type ReadOnlyProxy struct {
	c *Context
}

// Entity returns the entity stored under id. Callers must treat it as
// read-only.
func (p *ReadOnlyProxy) Entity(id ident.EntityID) (*Entity, bool) {
	e, ok := p.c.entities[id]
	return e, ok
}

// Has reports whether entity eid has a component under cid.
func (p *ReadOnlyProxy) Has(eid ident.EntityID, cid ident.ComponentID) bool {
	e, ok := p.c.entities[eid]
	return ok && e.Has(cid)
}

// EntityIDs returns every entity ID in identifier order.
func (p *ReadOnlyProxy) EntityIDs() []ident.EntityID { return p.c.sortedIDs() }

// ModifyingProxy adds mutation to ReadOnlyProxy. Every mutation records the
// events it implies; Exec emits them in order once the visitor returns, even
// if the visitor failed, since the mutations themselves are not rolled back.
type ModifyingProxy struct {
	ReadOnlyProxy
	events []event.Event
}

func (p *ModifyingProxy) record(ev event.Event) { p.events = append(p.events, ev) }

// Recorded returns the number of events waiting to be emitted.
func (p *ModifyingProxy) Recorded() int { return len(p.events) }

// entity returns the entity under eid, creating it if needed.
func (p *ModifyingProxy) entity(eid ident.EntityID) *Entity {
	e, ok := p.c.entities[eid]
	if !ok {
		e = NewEntity()
		p.c.entities[eid] = e
		p.record(event.Created(eid, ident.EntityID{}))
	}
	return e
}

// SetEntity replaces entity eid wholesale, taking ownership of e's
// components (e is left empty). Components only in the old entity raise
// REMOVED, components in both raise CHANGED, new ones raise ADDED.
func (p *ModifyingProxy) SetEntity(eid ident.EntityID, e *Entity) {
	before, existed := p.c.entities[eid]
	if !existed {
		p.record(event.Created(eid, ident.EntityID{}))
		before = &Entity{}
	}
	for _, cid := range before.IDs() {
		if e.Has(cid) {
			p.record(event.Changed(eid, cid))
		} else {
			p.record(event.Removed(eid, cid))
		}
	}
	for _, cid := range e.IDs() {
		if !before.Has(cid) {
			p.record(event.Added(eid, cid))
		}
	}
	p.c.entities[eid] = e.take()
}

// SetComponent adds or replaces one type-erased component.
func (p *ModifyingProxy) SetComponent(eid ident.EntityID, cid ident.ComponentID, c Component) {
	e := p.entity(eid)
	if e.Has(cid) {
		p.record(event.Changed(eid, cid))
	} else {
		p.record(event.Added(eid, cid))
	}
	e.Set(cid, c)
}

// Emplace adds or replaces the component cid of eid with v.
func Emplace[T any](p *ModifyingProxy, eid ident.EntityID, cid ident.ComponentID, v T) {
	p.SetComponent(eid, cid, NewComponent(v))
}

// Writable returns a pointer into component cid of eid and records
// COMPONENTCHANGED. Each call records one event.
func Writable[T any](p *ModifyingProxy, eid ident.EntityID, cid ident.ComponentID) (*T, error) {
	e, ok := p.c.entities[eid]
	if !ok {
		return nil, withEntity(ErrEntityNotFound, eid)
	}
	ref, err := ComponentRef[T](e, cid)
	if err != nil {
		return nil, withEntity(err, eid)
	}
	p.record(event.Changed(eid, cid))
	return ref, nil
}

// RemoveComponent drops component cid of eid and reports whether it existed.
func (p *ModifyingProxy) RemoveComponent(eid ident.EntityID, cid ident.ComponentID) bool {
	e, ok := p.c.entities[eid]
	if !ok || !e.Remove(cid) {
		return false
	}
	p.record(event.Removed(eid, cid))
	return true
}

// RemoveEntity destroys eid, raising REMOVED for each of its components and
// then ENTITYREMOVED.
func (p *ModifyingProxy) RemoveEntity(eid ident.EntityID) bool {
	e, ok := p.c.entities[eid]
	if !ok {
		return false
	}
	for _, cid := range e.IDs() {
		p.record(event.Removed(eid, cid))
	}
	delete(p.c.entities, eid)
	p.record(event.Destroyed(eid, ident.EntityID{}))
	return true
}

// Proxy is the set of views Exec can hand to a visitor.
type Proxy interface {
	*ReadOnlyProxy | *ModifyingProxy
}

// Exec runs fn once with the proxy its parameter asks for. A *ReadOnlyProxy
// visitor runs under the read lock; a *ModifyingProxy visitor runs under the
// write lock and its recorded events are emitted after the lock is released.
// The returned future is already fulfilled; a panic in fn resolves it with a
// *pool.PanicError.
func Exec[P Proxy, R any](c *Context, fn func(P) (R, error)) *pool.Future[R] {
	var probe P
	switch any(probe).(type) {
	case *ReadOnlyProxy:
		v, err := pool.Call(func() (R, error) {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return fn(any(&ReadOnlyProxy{c: c}).(P))
		})
		return pool.Resolved(v, err)
	default:
		mp := &ModifyingProxy{ReadOnlyProxy: ReadOnlyProxy{c: c}}
		v, err := pool.Call(func() (R, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			return fn(any(mp).(P))
		})
		c.emitAll(mp.events)
		return pool.Resolved(v, err)
	}
}

// Do is Exec for visitors without a result.
func Do[P Proxy](c *Context, fn func(P) error) *pool.Future[struct{}] {
	return Exec(c, func(p P) (struct{}, error) { return struct{}{}, fn(p) })
}
