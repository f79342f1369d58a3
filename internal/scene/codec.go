package scene

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/txecs/runtime/internal/core/ecs"
	"github.com/txecs/runtime/internal/core/ident"
)

var (
	ErrUnknownKind   = errors.New("unknown component kind")
	ErrDuplicateKind = errors.New("component kind already registered")
)

// Factory builds a fresh component holding an already decoded value. Scenes
// keep factories so every Apply hands out components nobody else owns.
type Factory func() ecs.Component

// Codec decodes the value node of one component.
type Codec func(value *yaml.Node) (Factory, error)

// Plain decodes the node straight into T with yaml's own rules. The node is
// checked once up front and decoded again for every component built, so
// slices and maps inside T are never shared.
func Plain[T any]() Codec {
	return func(n *yaml.Node) (Factory, error) {
		var v T
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		node := *n
		return func() ecs.Component {
			var fresh T
			if err := node.Decode(&fresh); err != nil {
				panic(fmt.Errorf("scene: decode %T again: %w", fresh, err))
			}
			return ecs.NewComponent(fresh)
		}, nil
	}
}

func decodeVec3(n *yaml.Node) (Factory, error) {
	var xs []float64
	if err := n.Decode(&xs); err != nil {
		return nil, err
	}
	if len(xs) != 3 {
		return nil, fmt.Errorf("vec3 needs 3 numbers, got %d", len(xs))
	}
	v := mgl64.Vec3{xs[0], xs[1], xs[2]}
	return func() ecs.Component { return ecs.NewComponent(v) }, nil
}

func decodeTag(n *yaml.Node) (Factory, error) {
	var name string
	if err := n.Decode(&name); err != nil {
		return nil, err
	}
	tag, err := ident.NewTagID(name)
	if err != nil {
		return nil, err
	}
	return func() ecs.Component { return ecs.NewComponent(tag) }, nil
}

// Codecs maps kind names to codecs. Safe for concurrent use.
type Codecs struct {
	mu     sync.RWMutex
	byKind map[string]Codec
}

// NewCodecs returns a table with the built-in kinds: vec3 (mgl64.Vec3),
// float (float64), float32, int, string, bool and tag (ident.TagID).
func NewCodecs() *Codecs {
	return &Codecs{byKind: map[string]Codec{
		"vec3":    decodeVec3,
		"float":   Plain[float64](),
		"float32": Plain[float32](),
		"int":     Plain[int](),
		"string":  Plain[string](),
		"bool":    Plain[bool](),
		"tag":     decodeTag,
	}}
}

// Register adds a kind. Built-in kinds cannot be replaced.
func (c *Codecs) Register(kind string, codec Codec) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byKind[kind]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}
	c.byKind[kind] = codec
	return nil
}

func (c *Codecs) lookup(kind string) (Codec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	codec, ok := c.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return codec, nil
}

// Kinds lists the registered kind names, sorted.
func (c *Codecs) Kinds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kinds := make([]string, 0, len(c.byKind))
	for k := range c.byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
