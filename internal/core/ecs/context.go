package ecs

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/txecs/runtime/internal/core/event"
	"github.com/txecs/runtime/internal/core/ident"
	"github.com/txecs/runtime/internal/core/pool"
	"github.com/txecs/runtime/internal/core/system"
)

// DefaultMaxPasses bounds RunUntilSettled when no limit is configured.
const DefaultMaxPasses = 64

// ErrDuplicateSystem is returned by EmplaceSystem for an already used ID.
var ErrDuplicateSystem = system.ErrDuplicate

// Context owns every entity and every system. It is the only root of
// mutation: entities are reached through Each*, Exec and the proxies.
//
// Entity-table access holds mu. Events produced while mu is held are
// buffered and emitted after it is released, so interest predicates may read
// the table. Visitors must not call back into the same Context.
type Context struct {
	mu       sync.RWMutex
	entities map[ident.EntityID]*Entity

	systems   *system.Registry[System]
	log       *zap.Logger
	maxPasses int
}

// Option configures a Context.
type Option func(*Context)

func WithLogger(log *zap.Logger) Option {
	return func(c *Context) { c.log = log }
}

// WithMaxPasses sets the default bound for RunUntilSettled.
func WithMaxPasses(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.maxPasses = n
		}
	}
}

func New(opts ...Option) *Context {
	c := &Context{
		entities:  make(map[ident.EntityID]*Entity, 256),
		systems:   system.NewRegistry[System](),
		log:       zap.NewNop(),
		maxPasses: DefaultMaxPasses,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// EmplaceSystem appends s to the update order and runs its Init once.
func (c *Context) EmplaceSystem(s System) error {
	if err := c.systems.Register(s); err != nil {
		return err
	}
	c.log.Debug("system registered", zap.Stringer("system", s.ID()), zap.Bool("valid", s.SystemState().IsValid()))
	if err := s.Init(c); err != nil {
		return fmt.Errorf("init system %s: %w", s.ID(), err)
	}
	return nil
}

// System looks a registered system up by ID.
func (c *Context) System(id ident.SystemID) (System, bool) { return c.systems.Get(id) }

// Systems returns the registered systems in update order.
func (c *Context) Systems() []System { return c.systems.Snapshot() }

// Len reports the number of entities.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities)
}

// EntityIDs returns every entity ID in identifier order.
func (c *Context) EntityIDs() []ident.EntityID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedIDs()
}

func (c *Context) sortedIDs() []ident.EntityID {
	ids := make([]ident.EntityID, 0, len(c.entities))
	for id := range c.entities {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ident.EntityID) int { return a.Compare(b.Identifier) })
	return ids
}

// Each visits every entity unconditionally and resolves to the count
// visited. It raises no events.
func (c *Context) Each(fn func(ident.EntityID, *Entity)) *pool.Future[int] {
	n, err := pool.Call(func() (int, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		n := 0
		for id, e := range c.entities {
			fn(id, e)
			n++
		}
		return n, nil
	})
	return pool.Resolved(n, err)
}

// EachMatch visits every entity satisfying a, after checking that each slot
// stores its declared type. After each visit it raises COMPONENTCHANGED for
// every slot not marked read-only, whether or not the visitor wrote to it.
// The first visitor error stops the iteration; events for entities already
// visited are still emitted.
func (c *Context) EachMatch(a Aspect, fn func(ident.EntityID, *Entity) error) *pool.Future[int] {
	var pending []event.Event
	n, err := pool.Call(func() (int, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		n := 0
		for id, e := range c.entities {
			if !a.Check(e) {
				continue
			}
			if err := a.verify(id, e); err != nil {
				return n, err
			}
			if err := fn(id, e); err != nil {
				return n, err
			}
			n++
			for _, s := range a.slots {
				if !s.ReadOnly {
					pending = append(pending, event.Changed(id, s.ID))
				}
			}
		}
		return n, nil
	})
	c.emitAll(pending)
	return pool.Resolved(n, err)
}

// EachMatchRead is EachMatch under the read lock. It never raises events,
// and fn must not modify the entities.
func (c *Context) EachMatchRead(a Aspect, fn func(ident.EntityID, *Entity) error) *pool.Future[int] {
	n, err := pool.Call(func() (int, error) {
		c.mu.RLock()
		defer c.mu.RUnlock()
		n := 0
		for id, e := range c.entities {
			if !a.Check(e) {
				continue
			}
			if err := a.verify(id, e); err != nil {
				return n, err
			}
			if err := fn(id, e); err != nil {
				return n, err
			}
			n++
		}
		return n, nil
	})
	return pool.Resolved(n, err)
}

// emit routes ev to the mailbox of every interested system in registration
// order. Must not be called with mu held.
func (c *Context) emit(ev event.Event) {
	systems := c.systems.Snapshot()
	delivered := 0
	switch e := ev.(type) {
	case event.SystemEvent:
		for _, s := range systems {
			if s.InterestedInSystem(e.System) {
				s.SystemState().Deliver(ev)
				delivered++
			}
		}
	case event.ComponentEvent:
		r := lockedReader{c}
		for _, s := range systems {
			if s.InterestedInComponent(r, e.Entity, e.Component) {
				s.SystemState().Deliver(ev)
				delivered++
			}
		}
	case event.EntityEvent:
		r := lockedReader{c}
		for _, s := range systems {
			if s.InterestedInComponent(r, e.Entity, ident.ComponentID{}) {
				s.SystemState().Deliver(ev)
				delivered++
			}
		}
	}
	if ce := c.log.Check(zap.DebugLevel, "event emitted"); ce != nil {
		ce.Write(zap.Stringer("event", ev), zap.Int("delivered", delivered))
	}
}

func (c *Context) emitAll(evs []event.Event) {
	for _, ev := range evs {
		c.emit(ev)
	}
}

// Close closes, in reverse registration order, every system that has a
// Close method.
func (c *Context) Close() error {
	var err error
	systems := c.systems.Snapshot()
	for i := len(systems) - 1; i >= 0; i-- {
		closer, ok := systems[i].(interface{ Close() error })
		if !ok {
			continue
		}
		if cerr := closer.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close system %s: %w", systems[i].ID(), cerr))
		}
	}
	return err
}

// Reader gives lookup access to entities.
type Reader interface {
	Entity(id ident.EntityID) (*Entity, bool)
}

// Get copies out the component cid of entity eid.
func Get[T any](r Reader, eid ident.EntityID, cid ident.ComponentID) (T, error) {
	var zero T
	e, ok := r.Entity(eid)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrEntityNotFound, eid)
	}
	v, err := GetComponent[T](e, cid)
	return v, withEntity(err, eid)
}

func withEntity(err error, eid ident.EntityID) error {
	var tm *TypeMismatchError
	if errors.As(err, &tm) {
		tm.Entity = eid
		return tm
	}
	if err != nil {
		return fmt.Errorf("entity %s: %w", eid, err)
	}
	return nil
}

// lockedReader takes the read lock for each lookup. Interest predicates get
// one of these.
type lockedReader struct{ c *Context }

func (r lockedReader) Entity(id ident.EntityID) (*Entity, bool) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()
	e, ok := r.c.entities[id]
	return e, ok
}
