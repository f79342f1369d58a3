package scripting

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/txecs/runtime/internal/core/ecs"
	"github.com/txecs/runtime/internal/core/ident"
)

// ErrNoUpdate is returned when a script does not define update.
var ErrNoUpdate = errors.New("lua script defines no update function")

type options struct {
	log       *zap.Logger
	convs     *Converters
	valid     bool
	fullMatch bool
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// WithConverters replaces the built-in converter set.
func WithConverters(c *Converters) Option { return func(o *options) { o.convs = c } }

// InitiallyValid starts the system Valid, so it waits for its first event.
func InitiallyValid(valid bool) Option { return func(o *options) { o.valid = valid } }

// FullMatch narrows component interest, see ecs.FullMatch.
func FullMatch() Option { return func(o *options) { o.fullMatch = true } }

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.convs == nil {
		o.convs = NewConverters()
	}
	return o
}

// System runs a Lua script against every entity matching its aspect.
//
// The script defines update(id, components), called once per matching
// entity with the entity's name and a table keyed by component name.
// Changes to writable components in that table are written back and raise
// COMPONENTCHANGED. Returning false keeps the system Invalid; any other
// result lets it settle. An optional init() runs when the system is
// registered.
//
// The Lua VM is not safe for concurrent use; Update and Init serialise on it.
type System struct {
	*ecs.AspectSystem
	mu      sync.Mutex
	vm      *lua.LState
	convs   []*converter
	log     *zap.Logger
	lastErr error
}

// NewSystem compiles script and binds it to aspect. Every slot's type needs
// a converter.
func NewSystem(id ident.SystemID, aspect ecs.Aspect, script string, opts ...Option) (*System, error) {
	o := buildOptions(opts)
	vm := newVM()
	if err := vm.DoString(script); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load script for %s: %w", id, err)
	}
	return bind(id, aspect, vm, o)
}

func bind(id ident.SystemID, aspect ecs.Aspect, vm *lua.LState, o options) (*System, error) {
	if vm.GetGlobal("update").Type() != lua.LTFunction {
		vm.Close()
		return nil, fmt.Errorf("system %s: %w", id, ErrNoUpdate)
	}
	convs := make([]*converter, aspect.Len())
	for i, slot := range aspect.Slots() {
		conv, err := o.convs.forType(slot.Type)
		if err != nil {
			vm.Close()
			return nil, fmt.Errorf("system %s slot %s: %w", id, slot.ID, err)
		}
		convs[i] = conv
	}

	var aopts []ecs.AspectOption
	if o.fullMatch {
		aopts = append(aopts, ecs.FullMatch())
	}
	return &System{
		AspectSystem: ecs.NewAspectSystem(id, o.valid, aspect, aopts...),
		vm:           vm,
		convs:        convs,
		log:          o.log,
	}, nil
}

// Init calls the script's init function if it has one.
func (s *System) Init(*ecs.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn := s.vm.GetGlobal("init")
	if fn.Type() != lua.LTFunction {
		return nil
	}
	if err := s.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("lua init: %w", err)
	}
	return nil
}

// Update drains the mailbox and runs update for every matching entity. A
// script error is logged and the system settles, so a broken script does
// not spin the scheduler; LastError reports it.
func (s *System) Update(c *ecs.Context) bool {
	s.ClearEventQueue()
	s.mu.Lock()
	defer s.mu.Unlock()

	fn := s.vm.GetGlobal("update")
	slots := s.Aspect().Slots()
	settled := true
	n, err := c.EachMatch(s.Aspect(), func(eid ident.EntityID, e *ecs.Entity) error {
		comps := s.vm.NewTable()
		for i, slot := range slots {
			comp, _ := e.Component(slot.ID)
			lv, err := s.convs[i].push(s.vm, comp)
			if err != nil {
				return fmt.Errorf("entity %s component %s: %w", eid, slot.ID, err)
			}
			comps.RawSetString(slot.ID.Name(), lv)
		}

		if err := s.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(eid.Name()), comps); err != nil {
			return fmt.Errorf("lua update %s: %w", eid, err)
		}
		ret := s.vm.Get(-1)
		s.vm.Pop(1)
		if ret == lua.LFalse {
			settled = false
		}

		// Convert every writable slot before touching the entity, so a bad
		// value leaves it unchanged.
		staged := make([]ecs.Component, len(slots))
		for i, slot := range slots {
			if slot.ReadOnly {
				continue
			}
			comp, err := s.convs[i].pull(comps.RawGetString(slot.ID.Name()))
			if err != nil {
				return fmt.Errorf("entity %s component %s: %w", eid, slot.ID, err)
			}
			staged[i] = comp
		}
		for i, slot := range slots {
			if staged[i] != nil {
				e.Set(slot.ID, staged[i])
			}
		}
		return nil
	}).Get()
	s.lastErr = err
	if err != nil {
		s.log.Error("lua system update failed", zap.Stringer("system", s.ID()), zap.Error(err))
		return true
	}
	s.log.Debug("lua system updated", zap.Stringer("system", s.ID()), zap.Int("entities", n), zap.Bool("settled", settled))
	return settled
}

// LastError is the error of the most recent Update, if any.
func (s *System) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close releases the Lua VM.
func (s *System) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vm.Close()
	return nil
}
