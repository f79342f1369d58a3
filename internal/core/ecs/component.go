package ecs

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/txecs/runtime/internal/core/ident"
)

var (
	ErrComponentNotFound = errors.New("component not found")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrTypeMismatch      = errors.New("component type mismatch")
	ErrArity             = errors.New("aspect arity mismatch")
)

// TypeMismatchError reports a read of a component as the wrong type. Entity
// is zero when the lookup did not go through a Context.
type TypeMismatchError struct {
	Entity    ident.EntityID
	Component ident.ComponentID
	Want      reflect.Type
	Got       reflect.Type
}

func (e *TypeMismatchError) Error() string {
	if e.Entity.IsZero() {
		return fmt.Sprintf("component %s: requested %s, stored %s", e.Component, e.Want, e.Got)
	}
	return fmt.Sprintf("entity %s component %s: requested %s, stored %s", e.Entity, e.Component, e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// Component is a type-erased holder of exactly one payload value. It is owned
// by one Entity and never shared.
type Component interface {
	// Type is the payload's concrete type.
	Type() reflect.Type
	// Value returns a copy of the payload.
	Value() any
}

type holder[T any] struct {
	v T
}

// NewComponent wraps v in a fresh holder.
func NewComponent[T any](v T) Component { return &holder[T]{v: v} }

func (h *holder[T]) Type() reflect.Type { return reflect.TypeFor[T]() }
func (h *holder[T]) Value() any         { return h.v }

// As downcasts c to its payload, failing with *TypeMismatchError if the
// stored type is not T.
func As[T any](id ident.ComponentID, c Component) (*T, error) {
	h, ok := c.(*holder[T])
	if !ok {
		return nil, &TypeMismatchError{Component: id, Want: reflect.TypeFor[T](), Got: c.Type()}
	}
	return &h.v, nil
}
