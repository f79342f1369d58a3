package ecs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/txecs/runtime/internal/core/ident"
)

// noCopy trips go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Entity maps component IDs to owned components, at most one per ID.
// Entities are handled by pointer and moved, never copied: handing one to
// ModifyingProxy.SetEntity transfers its components and leaves it empty.
type Entity struct {
	_          noCopy
	components map[ident.ComponentID]Component
}

func NewEntity() *Entity {
	return &Entity{components: make(map[ident.ComponentID]Component, 4)}
}

// Set stores c under id, replacing whatever was there.
func (e *Entity) Set(id ident.ComponentID, c Component) {
	if e.components == nil {
		e.components = make(map[ident.ComponentID]Component, 4)
	}
	e.components[id] = c
}

// SetComponent stores v in a fresh holder under id and returns e so calls
// can be chained.
func SetComponent[T any](e *Entity, id ident.ComponentID, v T) *Entity {
	e.Set(id, NewComponent(v))
	return e
}

// Has reports whether a component is stored under id. The stored type is
// not checked.
func (e *Entity) Has(id ident.ComponentID) bool {
	_, ok := e.components[id]
	return ok
}

// Component returns the type-erased component under id.
func (e *Entity) Component(id ident.ComponentID) (Component, bool) {
	c, ok := e.components[id]
	return c, ok
}

// GetComponent copies out the value stored under id.
func GetComponent[T any](e *Entity, id ident.ComponentID) (T, error) {
	p, err := ComponentRef[T](e, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return *p, nil
}

// ComponentRef returns a pointer into the stored value under id. Writes
// through it change the entity in place.
func ComponentRef[T any](e *Entity, id ident.ComponentID) (*T, error) {
	c, ok := e.components[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, id)
	}
	return As[T](id, c)
}

// Remove drops the component under id and reports whether it existed.
func (e *Entity) Remove(id ident.ComponentID) bool {
	if _, ok := e.components[id]; !ok {
		return false
	}
	delete(e.components, id)
	return true
}

func (e *Entity) Len() int { return len(e.components) }

// IDs returns the component IDs in identifier order.
func (e *Entity) IDs() []ident.ComponentID {
	ids := make([]ident.ComponentID, 0, len(e.components))
	for id := range e.components {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ident.ComponentID) int { return a.Compare(b.Identifier) })
	return ids
}

// Each visits every component in identifier order.
func (e *Entity) Each(fn func(ident.ComponentID, Component)) {
	for _, id := range e.IDs() {
		fn(id, e.components[id])
	}
}

func (e *Entity) String() string {
	var sb strings.Builder
	sb.WriteString("Entity [")
	for _, id := range e.IDs() {
		fmt.Fprintf(&sb, "%s: %s|", id, e.components[id].Type())
	}
	sb.WriteString(" ]")
	return sb.String()
}

// take moves the components into a new Entity and empties e.
func (e *Entity) take() *Entity {
	moved := &Entity{components: e.components}
	if moved.components == nil {
		moved.components = make(map[ident.ComponentID]Component)
	}
	e.components = nil
	return moved
}
