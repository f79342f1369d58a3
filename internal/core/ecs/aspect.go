package ecs

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/txecs/runtime/internal/core/ident"
)

// Slot is one position of an Aspect: the component ID and the payload type
// expected under it. ReadOnly slots never raise COMPONENTCHANGED when visited.
type Slot struct {
	ID       ident.ComponentID
	Type     reflect.Type
	ReadOnly bool
}

// SlotFor declares a slot holding a T.
func SlotFor[T any](id ident.ComponentID) Slot {
	return Slot{ID: id, Type: reflect.TypeFor[T]()}
}

// ReadSlotFor declares a read-only slot holding a T.
func ReadSlotFor[T any](id ident.ComponentID) Slot {
	s := SlotFor[T](id)
	s.ReadOnly = true
	return s
}

// Aspect is an ordered, immutable list of slots that an entity can be
// matched against.
type Aspect struct {
	slots []Slot
}

func NewAspect(slots ...Slot) Aspect {
	return Aspect{slots: slices.Clone(slots)}
}

// AspectOf pairs ids with types slot by slot. Used where the type list is
// only known at run time.
func AspectOf(ids []ident.ComponentID, types []reflect.Type) (Aspect, error) {
	if len(ids) != len(types) {
		return Aspect{}, fmt.Errorf("%w: %d ids, %d types", ErrArity, len(ids), len(types))
	}
	slots := make([]Slot, len(ids))
	for i := range ids {
		slots[i] = Slot{ID: ids[i], Type: types[i]}
	}
	return Aspect{slots: slots}, nil
}

func (a Aspect) Len() int        { return len(a.slots) }
func (a Aspect) Slot(i int) Slot { return a.slots[i] }

// Slots returns a copy of the slot list.
func (a Aspect) Slots() []Slot { return slices.Clone(a.slots) }

// IDs returns the slot IDs in slot order.
func (a Aspect) IDs() []ident.ComponentID {
	ids := make([]ident.ComponentID, len(a.slots))
	for i, s := range a.slots {
		ids[i] = s.ID
	}
	return ids
}

// WithReadOnly returns a copy with the given slot indexes marked read-only.
func (a Aspect) WithReadOnly(idx ...int) Aspect {
	out := Aspect{slots: slices.Clone(a.slots)}
	for _, i := range idx {
		out.slots[i].ReadOnly = true
	}
	return out
}

// Check reports whether e has a component under every slot ID. Extra
// components on e do not matter.
func (a Aspect) Check(e *Entity) bool {
	if e == nil {
		return false
	}
	for _, s := range a.slots {
		if !e.Has(s.ID) {
			return false
		}
	}
	return true
}

// IsIDPartOf reports whether id names one of the slots.
func (a Aspect) IsIDPartOf(id ident.ComponentID) bool {
	for _, s := range a.slots {
		if s.ID == id {
			return true
		}
	}
	return false
}

// IsPartOf is IsIDPartOf restricted to slots declared with type t.
func (a Aspect) IsPartOf(id ident.ComponentID, t reflect.Type) bool {
	for _, s := range a.slots {
		if s.ID == id && s.Type == t {
			return true
		}
	}
	return false
}

// verify checks that every slot of a matching entity stores its declared
// type.
func (a Aspect) verify(eid ident.EntityID, e *Entity) error {
	for _, s := range a.slots {
		c, ok := e.Component(s.ID)
		if !ok {
			return fmt.Errorf("entity %s: %w: %s", eid, ErrComponentNotFound, s.ID)
		}
		if s.Type != nil && c.Type() != s.Type {
			return &TypeMismatchError{Entity: eid, Component: s.ID, Want: s.Type, Got: c.Type()}
		}
	}
	return nil
}
