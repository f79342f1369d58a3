package ecs

import (
	"github.com/txecs/runtime/internal/core/ident"
	"github.com/txecs/runtime/internal/core/pool"
)

// Query1, Query2 and Query3 are typed aspects: the type list is fixed by the
// type parameters and the constructor takes exactly one ID per type, so an
// ID/type count mismatch does not compile.
type Query1[A any] struct{ aspect Aspect }

type Query2[A, B any] struct{ aspect Aspect }

type Query3[A, B, C any] struct{ aspect Aspect }

func NewQuery1[A any](a ident.ComponentID) Query1[A] {
	return Query1[A]{NewAspect(SlotFor[A](a))}
}

func NewQuery2[A, B any](a, b ident.ComponentID) Query2[A, B] {
	return Query2[A, B]{NewAspect(SlotFor[A](a), SlotFor[B](b))}
}

func NewQuery3[A, B, C any](a, b, c ident.ComponentID) Query3[A, B, C] {
	return Query3[A, B, C]{NewAspect(SlotFor[A](a), SlotFor[B](b), SlotFor[C](c))}
}

// ReadOnly marks slots whose visits must not raise COMPONENTCHANGED.
func (q Query1[A]) ReadOnly(slots ...int) Query1[A] { return Query1[A]{q.aspect.WithReadOnly(slots...)} }

func (q Query2[A, B]) ReadOnly(slots ...int) Query2[A, B] {
	return Query2[A, B]{q.aspect.WithReadOnly(slots...)}
}

func (q Query3[A, B, C]) ReadOnly(slots ...int) Query3[A, B, C] {
	return Query3[A, B, C]{q.aspect.WithReadOnly(slots...)}
}

func (q Query1[A]) Aspect() Aspect       { return q.aspect }
func (q Query2[A, B]) Aspect() Aspect    { return q.aspect }
func (q Query3[A, B, C]) Aspect() Aspect { return q.aspect }

// ref is ComponentRef for a slot whose type was already verified.
func ref[T any](e *Entity, s Slot) *T {
	p, _ := As[T](s.ID, e.components[s.ID])
	return p
}

// Each1 visits every entity matching q with a pointer to its component.
func Each1[A any](c *Context, q Query1[A], fn func(ident.EntityID, *A)) *pool.Future[int] {
	a := q.aspect
	return c.EachMatch(a, func(id ident.EntityID, e *Entity) error {
		fn(id, ref[A](e, a.slots[0]))
		return nil
	})
}

// Each2 visits every entity matching q with pointers to its components in
// slot order.
func Each2[A, B any](c *Context, q Query2[A, B], fn func(ident.EntityID, *A, *B)) *pool.Future[int] {
	a := q.aspect
	return c.EachMatch(a, func(id ident.EntityID, e *Entity) error {
		fn(id, ref[A](e, a.slots[0]), ref[B](e, a.slots[1]))
		return nil
	})
}

func Each3[A, B, C any](c *Context, q Query3[A, B, C], fn func(ident.EntityID, *A, *B, *C)) *pool.Future[int] {
	a := q.aspect
	return c.EachMatch(a, func(id ident.EntityID, e *Entity) error {
		fn(id, ref[A](e, a.slots[0]), ref[B](e, a.slots[1]), ref[C](e, a.slots[2]))
		return nil
	})
}

// EachRead1 is the read-only form of Each1: the visitor gets copies and no
// events are raised.
func EachRead1[A any](c *Context, q Query1[A], fn func(ident.EntityID, A)) *pool.Future[int] {
	a := q.aspect
	return c.EachMatchRead(a, func(id ident.EntityID, e *Entity) error {
		fn(id, *ref[A](e, a.slots[0]))
		return nil
	})
}

func EachRead2[A, B any](c *Context, q Query2[A, B], fn func(ident.EntityID, A, B)) *pool.Future[int] {
	a := q.aspect
	return c.EachMatchRead(a, func(id ident.EntityID, e *Entity) error {
		fn(id, *ref[A](e, a.slots[0]), *ref[B](e, a.slots[1]))
		return nil
	})
}

func EachRead3[A, B, C any](c *Context, q Query3[A, B, C], fn func(ident.EntityID, A, B, C)) *pool.Future[int] {
	a := q.aspect
	return c.EachMatchRead(a, func(id ident.EntityID, e *Entity) error {
		fn(id, *ref[A](e, a.slots[0]), *ref[B](e, a.slots[1]), *ref[C](e, a.slots[2]))
		return nil
	})
}
