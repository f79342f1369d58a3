package main

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/txecs/runtime/internal/core/ecs"
	"github.com/txecs/runtime/internal/core/event"
	"github.com/txecs/runtime/internal/core/ident"
)

// Mesh is loaded from the scene file under kind "mesh".
type Mesh struct {
	Vertices []float64 `yaml:"vertices"`
	Indices  []int     `yaml:"indices"`
}

var (
	position  = ident.Component("Position")
	velocity  = ident.Component("Velocity")
	meshID    = ident.Component("Mesh")
	origin    = ident.Component("Origin")
	direction = ident.Component("Direction")
	gravity   = ident.Component("Gravity")

	configEntity = ident.Entity("config")
)

// setupSystem writes the shared config entity once.
type setupSystem struct {
	*ecs.BaseSystem
	log *zap.Logger
}

func newSetupSystem(log *zap.Logger) *setupSystem {
	return &setupSystem{BaseSystem: ecs.NewBaseSystem(ident.System("setup"), false), log: log}
}

func (s *setupSystem) Update(c *ecs.Context) bool {
	s.ClearEventQueue()
	_, err := ecs.Do(c, func(p *ecs.ModifyingProxy) error {
		ecs.Emplace(p, configEntity, origin, mgl64.Vec3{})
		ecs.Emplace(p, configEntity, direction, mgl64.Vec3{0, 0, -1})
		ecs.Emplace(p, configEntity, gravity, -9.81)
		return nil
	}).Get()
	if err != nil {
		s.log.Error("setup failed", zap.Error(err))
		return false
	}
	return true
}

// simulationSystem integrates velocity into position.
type simulationSystem struct {
	*ecs.AspectSystem
	query ecs.Query2[mgl64.Vec3, mgl64.Vec3]
	log   *zap.Logger
}

func newSimulationSystem(log *zap.Logger) *simulationSystem {
	q := ecs.NewQuery2[mgl64.Vec3, mgl64.Vec3](position, velocity).ReadOnly(1)
	return &simulationSystem{
		AspectSystem: ecs.NewAspectSystem(ident.System("simulation"), false, q.Aspect()),
		query:        q,
		log:          log,
	}
}

func (s *simulationSystem) Update(c *ecs.Context) bool {
	s.ClearEventQueue()
	n, err := ecs.Each2(c, s.query, func(_ ident.EntityID, p *mgl64.Vec3, v *mgl64.Vec3) {
		*p = p.Add(*v)
	}).Get()
	if err != nil {
		s.log.Error("simulation failed", zap.Error(err))
		return false
	}
	s.log.Debug("simulation step", zap.Int("moved", n))
	return true
}

// updaterSystem reacts to the simulation and walks every entity.
type updaterSystem struct {
	*ecs.BaseSystem
	log *zap.Logger
}

func newUpdaterSystem(log *zap.Logger) *updaterSystem {
	s := &updaterSystem{BaseSystem: ecs.NewBaseSystem(ident.System("updater"), false), log: log}
	s.DependOn(ident.System("simulation"))
	return s
}

func (s *updaterSystem) Update(c *ecs.Context) bool {
	s.ClearEventQueue()
	n, err := c.Each(func(id ident.EntityID, e *ecs.Entity) {
		s.log.Debug("entity", zap.Stringer("id", id), zap.Stringer("components", e))
	}).Get()
	if err != nil {
		s.log.Error("updater failed", zap.Error(err))
		return false
	}
	s.log.Info("entities walked", zap.Int("count", n))
	return true
}

// drawingSystem "draws" every entity that has a position and a mesh.
type drawingSystem struct {
	*ecs.AspectSystem
	query ecs.Query2[mgl64.Vec3, Mesh]
	log   *zap.Logger
}

func newDrawingSystem(valid bool, log *zap.Logger) *drawingSystem {
	q := ecs.NewQuery2[mgl64.Vec3, Mesh](position, meshID)
	return &drawingSystem{
		AspectSystem: ecs.NewAspectSystem(ident.System("drawing"), valid, q.Aspect()),
		query:        q,
		log:          log,
	}
}

func (s *drawingSystem) Update(c *ecs.Context) bool {
	changed := 0
	s.ProcessEvents(func(e event.Event) {
		if e.Kind() == event.ComponentChanged {
			changed++
		}
	})
	n, err := ecs.EachRead2(c, s.query, func(id ident.EntityID, p mgl64.Vec3, m Mesh) {
		s.log.Info("draw", zap.Stringer("entity", id),
			zap.Float64s("position", p[:]), zap.Int("triangles", len(m.Indices)/3))
	}).Get()
	if err != nil {
		s.log.Error("drawing failed", zap.Error(err))
		return false
	}
	s.log.Debug("frame drawn", zap.Int("entities", n), zap.Int("changes", changed))
	return true
}
