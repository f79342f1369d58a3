package scene

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/txecs/runtime/internal/core/ecs"
	"github.com/txecs/runtime/internal/core/ident"
)

var ErrDuplicateEntity = errors.New("entity listed twice")

// ComponentSpec is one component as written in a scene file.
type ComponentSpec struct {
	Kind  string    `yaml:"kind"`
	Value yaml.Node `yaml:"value"`
}

// EntitySpec is one entity as written in a scene file. An empty ID gets an
// anonymous one.
type EntitySpec struct {
	ID         string                   `yaml:"id"`
	Components map[string]ComponentSpec `yaml:"components"`
}

type file struct {
	Entities []EntitySpec `yaml:"entities"`
}

type seed struct {
	id    ident.ComponentID
	build Factory
}

type entry struct {
	id    ident.EntityID
	seeds []seed
}

// Scene is a decoded scene file. Every value has been checked, so applying
// it cannot fail halfway.
type Scene struct {
	entries []entry
}

// Load reads and decodes the scene at path. A nil codecs uses NewCodecs().
func Load(path string, codecs *Codecs) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	s, err := Parse(raw, codecs)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scene document.
func Parse(raw []byte, codecs *Codecs) (*Scene, error) {
	if codecs == nil {
		codecs = NewCodecs()
	}
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}

	s := &Scene{entries: make([]entry, 0, len(f.Entities))}
	seen := make(map[ident.EntityID]struct{}, len(f.Entities))
	for i := range f.Entities {
		spec := &f.Entities[i]
		e, err := decodeEntity(spec, codecs)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[e.id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.id)
		}
		seen[e.id] = struct{}{}
		s.entries = append(s.entries, e)
	}
	return s, nil
}

func decodeEntity(spec *EntitySpec, codecs *Codecs) (entry, error) {
	var e entry
	if spec.ID == "" {
		e.id = ident.AnonymousEntity()
	} else {
		id, err := ident.NewEntityID(spec.ID)
		if err != nil {
			return e, fmt.Errorf("entity: %w", err)
		}
		e.id = id
	}
	for name, cs := range spec.Components {
		cid, err := ident.NewComponentID(name)
		if err != nil {
			return e, fmt.Errorf("entity %s: %w", e.id, err)
		}
		codec, err := codecs.lookup(cs.Kind)
		if err != nil {
			return e, fmt.Errorf("entity %s component %s: %w", e.id, name, err)
		}
		build, err := codec(&cs.Value)
		if err != nil {
			return e, fmt.Errorf("entity %s component %s (%s): %w", e.id, name, cs.Kind, err)
		}
		e.seeds = append(e.seeds, seed{id: cid, build: build})
	}
	return e, nil
}

// Count returns the number of entities in the scene.
func (s *Scene) Count() int { return len(s.entries) }

// IDs lists the entity IDs in file order.
func (s *Scene) IDs() []ident.EntityID {
	ids := make([]ident.EntityID, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.id
	}
	return ids
}

// Apply replaces every scene entity in the proxy's context, so a reapplied
// scene resets those entities. Returns the number of entities written.
func (s *Scene) Apply(p *ecs.ModifyingProxy) int {
	for _, e := range s.entries {
		ent := ecs.NewEntity()
		for _, sd := range e.seeds {
			ent.Set(sd.id, sd.build())
		}
		p.SetEntity(e.id, ent)
	}
	return len(s.entries)
}

// Seed applies the scene to c in one modifying Exec.
func (s *Scene) Seed(c *ecs.Context) error {
	_, err := ecs.Do(c, func(p *ecs.ModifyingProxy) error {
		s.Apply(p)
		return nil
	}).Get()
	return err
}
