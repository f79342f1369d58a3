package ecs

import (
	"github.com/txecs/runtime/internal/core/ident"
	"github.com/txecs/runtime/internal/core/system"
)

// System is the interface every system registered with a Context
// implements. Embed *BaseSystem or *AspectSystem to get defaults for
// everything except Update.
type System interface {
	ID() ident.SystemID
	SystemState() *system.State

	// Init runs once, from EmplaceSystem.
	Init(c *Context) error
	// Update does the work of one pass and reports whether the system is now
	// settled. An unsettled system runs again on the next pass.
	Update(c *Context) bool

	// InterestedInSystem decides whether SYSTEMUPDATED events from id are
	// delivered to this system.
	InterestedInSystem(id ident.SystemID) bool
	// InterestedInComponent decides delivery of component and entity events.
	// cid is zero for entity events.
	InterestedInComponent(r Reader, eid ident.EntityID, cid ident.ComponentID) bool
}

// BaseSystem supplies the state machine and default behavior: no interest in
// anything except the systems passed to DependOn, a no-op Init, and an Update
// that discards the mailbox and settles.
type BaseSystem struct {
	*system.State
	id        ident.SystemID
	dependsOn map[ident.SystemID]struct{}
}

// NewBaseSystem returns a base in the given initial validity. Pass false to
// make the system run on the first pass.
func NewBaseSystem(id ident.SystemID, valid bool) *BaseSystem {
	return &BaseSystem{State: system.NewState(valid), id: id}
}

func (b *BaseSystem) ID() ident.SystemID         { return b.id }
func (b *BaseSystem) SystemState() *system.State { return b.State }
func (b *BaseSystem) Init(*Context) error        { return nil }

func (b *BaseSystem) Update(*Context) bool {
	b.ClearEventQueue()
	return true
}

// DependOn makes SYSTEMUPDATED events from ids invalidate this system.
func (b *BaseSystem) DependOn(ids ...ident.SystemID) {
	if b.dependsOn == nil {
		b.dependsOn = make(map[ident.SystemID]struct{}, len(ids))
	}
	for _, id := range ids {
		b.dependsOn[id] = struct{}{}
	}
}

func (b *BaseSystem) InterestedInSystem(id ident.SystemID) bool {
	_, ok := b.dependsOn[id]
	return ok
}

func (b *BaseSystem) InterestedInComponent(Reader, ident.EntityID, ident.ComponentID) bool {
	return false
}

// AspectSystem is a BaseSystem interested in component events for the IDs
// of its aspect.
type AspectSystem struct {
	*BaseSystem
	aspect    Aspect
	fullMatch bool
}

// AspectOption configures an AspectSystem.
type AspectOption func(*AspectSystem)

// FullMatch narrows interest to events about entities that currently satisfy
// the whole aspect. Events whose component is no longer on the entity (a
// removal) still count, since the entity cannot satisfy the aspect anymore.
func FullMatch() AspectOption {
	return func(s *AspectSystem) { s.fullMatch = true }
}

func NewAspectSystem(id ident.SystemID, valid bool, aspect Aspect, opts ...AspectOption) *AspectSystem {
	s := &AspectSystem{BaseSystem: NewBaseSystem(id, valid), aspect: aspect}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *AspectSystem) Aspect() Aspect { return s.aspect }

// InterestedInComponent accepts any event whose component ID is part of the
// aspect. With FullMatch it also looks the entity up.
func (s *AspectSystem) InterestedInComponent(r Reader, eid ident.EntityID, cid ident.ComponentID) bool {
	if !s.aspect.IsIDPartOf(cid) {
		return false
	}
	if !s.fullMatch {
		return true
	}
	e, ok := r.Entity(eid)
	if !ok || !e.Has(cid) {
		return true
	}
	return s.aspect.Check(e)
}
