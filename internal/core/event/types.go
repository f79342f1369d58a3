package event

import (
	"fmt"

	"github.com/txecs/runtime/internal/core/ident"
)

// Kind tags an Event.
type Kind uint8

const (
	SystemUpdated Kind = iota
	ComponentAdded
	ComponentChanged
	ComponentRemoved
	EntityCreated
	EntityRemoved
)

func (k Kind) String() string {
	switch k {
	case SystemUpdated:
		return "SYSTEMUPDATED"
	case ComponentAdded:
		return "COMPONENTADDED"
	case ComponentChanged:
		return "COMPONENTCHANGED"
	case ComponentRemoved:
		return "COMPONENTREMOVED"
	case EntityCreated:
		return "ENTITYCREATED"
	case EntityRemoved:
		return "ENTITYREMOVED"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Event is a sum type over SystemEvent, EntityEvent and ComponentEvent.
// The set of variants is closed.
type Event interface {
	Kind() Kind
	String() string
	sealed()
}

// SystemEvent reports that a system finished an update.
type SystemEvent struct {
	System ident.SystemID
}

// EntityEvent reports an entity lifecycle change. Related is the zero ID
// unless the producer links a second entity.
type EntityEvent struct {
	kind    Kind
	Entity  ident.EntityID
	Related ident.EntityID
}

// ComponentEvent reports a change to a single component slot.
type ComponentEvent struct {
	kind      Kind
	Entity    ident.EntityID
	Component ident.ComponentID
}

func (SystemEvent) Kind() Kind       { return SystemUpdated }
func (e EntityEvent) Kind() Kind     { return e.kind }
func (e ComponentEvent) Kind() Kind  { return e.kind }
func (SystemEvent) sealed()          {}
func (EntityEvent) sealed()          {}
func (ComponentEvent) sealed()       {}
func (e SystemEvent) String() string { return fmt.Sprintf("%s(%s)", SystemUpdated, e.System) }

func (e EntityEvent) String() string {
	if e.Related.IsZero() {
		return fmt.Sprintf("%s(%s)", e.kind, e.Entity)
	}
	return fmt.Sprintf("%s(%s, %s)", e.kind, e.Entity, e.Related)
}

func (e ComponentEvent) String() string {
	return fmt.Sprintf("%s(%s, %s)", e.kind, e.Entity, e.Component)
}

func Updated(s ident.SystemID) SystemEvent { return SystemEvent{System: s} }

func Added(e ident.EntityID, c ident.ComponentID) ComponentEvent {
	return ComponentEvent{kind: ComponentAdded, Entity: e, Component: c}
}

func Changed(e ident.EntityID, c ident.ComponentID) ComponentEvent {
	return ComponentEvent{kind: ComponentChanged, Entity: e, Component: c}
}

func Removed(e ident.EntityID, c ident.ComponentID) ComponentEvent {
	return ComponentEvent{kind: ComponentRemoved, Entity: e, Component: c}
}

func Created(e, related ident.EntityID) EntityEvent {
	return EntityEvent{kind: EntityCreated, Entity: e, Related: related}
}

func Destroyed(e, related ident.EntityID) EntityEvent {
	return EntityEvent{kind: EntityRemoved, Entity: e, Related: related}
}
