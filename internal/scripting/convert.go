package scripting

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	lua "github.com/yuin/gopher-lua"

	"github.com/txecs/runtime/internal/core/ecs"
	"github.com/txecs/runtime/internal/core/ident"
)

var (
	ErrNoConverter   = errors.New("no lua converter for type")
	ErrDuplicateKind = errors.New("lua converter already registered")
)

// converter moves one component type across the Lua boundary.
type converter struct {
	kind string
	typ  reflect.Type
	push func(*lua.LState, ecs.Component) (lua.LValue, error)
	pull func(lua.LValue) (ecs.Component, error)
}

// Converters is the set of component types Lua systems can see, keyed both
// by Go type and by the kind name scripts use in their aspect declaration.
type Converters struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*converter
	byKind map[string]*converter
}

// NewConverters registers the built-in kinds: float (float64), float32, int,
// string, bool, tag (ident.TagID, a Lua string) and vec3 (mgl64.Vec3, a Lua
// table with x, y and z).
func NewConverters() *Converters {
	c := &Converters{
		byType: make(map[reflect.Type]*converter),
		byKind: make(map[string]*converter),
	}
	mustRegister(c, "float", func(_ *lua.LState, v float64) lua.LValue { return lua.LNumber(v) }, number[float64])
	mustRegister(c, "float32", func(_ *lua.LState, v float32) lua.LValue { return lua.LNumber(v) }, number[float32])
	mustRegister(c, "int", func(_ *lua.LState, v int) lua.LValue { return lua.LNumber(v) }, integer)
	mustRegister(c, "string", func(_ *lua.LState, v string) lua.LValue { return lua.LString(v) }, str)
	mustRegister(c, "bool", func(_ *lua.LState, v bool) lua.LValue { return lua.LBool(v) }, boolean)
	mustRegister(c, "tag", func(_ *lua.LState, v ident.TagID) lua.LValue { return lua.LString(v.Name()) }, tag)
	mustRegister(c, "vec3", pushVec3, pullVec3)
	return c
}

// Register teaches c a component type T under kind.
func Register[T any](c *Converters, kind string, push func(*lua.LState, T) lua.LValue, pull func(lua.LValue) (T, error)) error {
	conv := &converter{
		kind: kind,
		typ:  reflect.TypeFor[T](),
		push: func(L *lua.LState, comp ecs.Component) (lua.LValue, error) {
			v, err := ecs.As[T](ident.ComponentID{}, comp)
			if err != nil {
				return lua.LNil, err
			}
			return push(L, *v), nil
		},
		pull: func(lv lua.LValue) (ecs.Component, error) {
			v, err := pull(lv)
			if err != nil {
				return nil, err
			}
			return ecs.NewComponent(v), nil
		},
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byKind[kind]; ok {
		return fmt.Errorf("%w: kind %s", ErrDuplicateKind, kind)
	}
	if _, ok := c.byType[conv.typ]; ok {
		return fmt.Errorf("%w: type %s", ErrDuplicateKind, conv.typ)
	}
	c.byKind[kind] = conv
	c.byType[conv.typ] = conv
	return nil
}

func mustRegister[T any](c *Converters, kind string, push func(*lua.LState, T) lua.LValue, pull func(lua.LValue) (T, error)) {
	if err := Register(c, kind, push, pull); err != nil {
		panic(err)
	}
}

func (c *Converters) forType(t reflect.Type) (*converter, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conv, ok := c.byType[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoConverter, t)
	}
	return conv, nil
}

func (c *Converters) forKind(kind string) (*converter, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conv, ok := c.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: kind %q", ErrNoConverter, kind)
	}
	return conv, nil
}

// Kinds lists the registered kind names, sorted.
func (c *Converters) Kinds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kinds := make([]string, 0, len(c.byKind))
	for k := range c.byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func number[T float32 | float64](lv lua.LValue) (T, error) {
	n, ok := lv.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("want number, got %s", lv.Type())
	}
	return T(n), nil
}

func integer(lv lua.LValue) (int, error) {
	f, err := number[float64](lv)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("want integer, got %v", f)
	}
	return int(f), nil
}

func str(lv lua.LValue) (string, error) {
	s, ok := lv.(lua.LString)
	if !ok {
		return "", fmt.Errorf("want string, got %s", lv.Type())
	}
	return string(s), nil
}

func boolean(lv lua.LValue) (bool, error) {
	b, ok := lv.(lua.LBool)
	if !ok {
		return false, fmt.Errorf("want boolean, got %s", lv.Type())
	}
	return bool(b), nil
}

func tag(lv lua.LValue) (ident.TagID, error) {
	s, err := str(lv)
	if err != nil {
		return ident.TagID{}, err
	}
	return ident.NewTagID(s)
}

func pushVec3(L *lua.LState, v mgl64.Vec3) lua.LValue {
	t := L.NewTable()
	t.RawSetString("x", lua.LNumber(v.X()))
	t.RawSetString("y", lua.LNumber(v.Y()))
	t.RawSetString("z", lua.LNumber(v.Z()))
	return t
}

func pullVec3(lv lua.LValue) (mgl64.Vec3, error) {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return mgl64.Vec3{}, fmt.Errorf("want table, got %s", lv.Type())
	}
	var v mgl64.Vec3
	for i, axis := range []string{"x", "y", "z"} {
		f, err := number[float64](t.RawGetString(axis))
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("vec3.%s: %w", axis, err)
		}
		v[i] = f
	}
	return v, nil
}
