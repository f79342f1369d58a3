package ident

import (
	"strings"

	"github.com/google/uuid"
)

// The four key kinds share Identifier's layout but are distinct types, so a
// ComponentID can never be passed where an EntityID is expected.
type (
	ComponentID struct{ Identifier }
	EntityID    struct{ Identifier }
	SystemID    struct{ Identifier }
	TagID       struct{ Identifier }
)

func NewComponentID(name string) (ComponentID, error) {
	id, err := New(name)
	return ComponentID{id}, err
}

func NewEntityID(name string) (EntityID, error) {
	id, err := New(name)
	return EntityID{id}, err
}

func NewSystemID(name string) (SystemID, error) {
	id, err := New(name)
	return SystemID{id}, err
}

func NewTagID(name string) (TagID, error) {
	id, err := New(name)
	return TagID{id}, err
}

// Component, Entity, System and Tag panic on names longer than MaxLength.
// Use them for literals.
func Component(name string) ComponentID { return ComponentID{MustNew(name)} }
func Entity(name string) EntityID       { return EntityID{MustNew(name)} }
func System(name string) SystemID       { return SystemID{MustNew(name)} }
func Tag(name string) TagID             { return TagID{MustNew(name)} }

// Components converts a list of literal names.
func Components(names ...string) []ComponentID {
	ids := make([]ComponentID, len(names))
	for i, n := range names {
		ids[i] = Component(n)
	}
	return ids
}

// AnonymousEntity returns a fresh entity ID named by a random UUID. The 32 hex
// digits fill the identifier exactly.
func AnonymousEntity() EntityID {
	return Entity(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
