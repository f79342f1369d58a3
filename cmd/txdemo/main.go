package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/profile"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/txecs/runtime/internal/config"
	"github.com/txecs/runtime/internal/core/ecs"
	"github.com/txecs/runtime/internal/core/ident"
	"github.com/txecs/runtime/internal/core/pool"
	"github.com/txecs/runtime/internal/scene"
	"github.com/txecs/runtime/internal/scripting"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	// 1. Load config
	cfgPath := "config/txdemo.toml"
	if p := os.Getenv("TXECS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging, "txdemo")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if stop := startProfile(cfg.Profile); stop != nil {
		defer stop()
	}

	// 3. Worker pool and context
	workers := cfg.Runtime.Workers
	if workers == 0 {
		workers = pool.DefaultWorkers()
	}
	workPool := pool.New(workers, pool.WithLogger(log))
	defer workPool.Destroy()

	c := ecs.New(ecs.WithLogger(log), ecs.WithMaxPasses(cfg.Runtime.MaxPasses))
	defer func() {
		err = multierr.Append(err, c.Close())
	}()

	// 4. Systems, in update order
	systems := []ecs.System{
		newSetupSystem(log),
		newSimulationSystem(log),
		newUpdaterSystem(log),
		newDrawingSystem(cfg.Runtime.InitiallyValid, log),
	}
	if cfg.Scripting.Dir != "" {
		scripted, err := scripting.LoadDir(cfg.Scripting.Dir,
			scripting.WithLogger(log), scripting.InitiallyValid(cfg.Runtime.InitiallyValid))
		if err != nil {
			return fmt.Errorf("load scripts: %w", err)
		}
		for _, s := range scripted {
			systems = append(systems, s)
		}
	}
	for _, s := range systems {
		if err := c.EmplaceSystem(s); err != nil {
			return fmt.Errorf("register system: %w", err)
		}
	}
	log.Info("systems registered", zap.Int("count", len(systems)), zap.Int("workers", workPool.Workers()))

	// 5. Scene
	codecs := scene.NewCodecs()
	if err := codecs.Register("mesh", scene.Plain[Mesh]()); err != nil {
		return err
	}
	sc, err := scene.Load(cfg.Scene.Path, codecs)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	if err := sc.Seed(c); err != nil {
		return fmt.Errorf("seed scene: %w", err)
	}
	log.Info("scene loaded", zap.String("path", cfg.Scene.Path), zap.Int("entities", sc.Count()))

	// 6. Tick loop
	if cfg.Runtime.TickRate > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		log.Info("tick loop running", zap.Duration("tick_rate", cfg.Runtime.TickRate))
		if err := c.Run(ctx, cfg.Runtime.TickRate); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	} else {
		tick := 0
		c.RunSequential(func() bool {
			tick++
			return tick <= cfg.Runtime.Ticks
		})
		log.Info("ticks done", zap.Int("ticks", cfg.Runtime.Ticks), zap.Bool("settled", c.Settled()))
	}

	// 7. Off-loop report on the pool
	centroid := pool.SubmitErr(workPool, func() (mgl64.Vec3, error) {
		var sum mgl64.Vec3
		n, err := ecs.EachRead1(c, ecs.NewQuery1[mgl64.Vec3](position), func(_ ident.EntityID, p mgl64.Vec3) {
			sum = sum.Add(p)
		}).Get()
		if err != nil || n == 0 {
			return mgl64.Vec3{}, err
		}
		return sum.Mul(1 / float64(n)), nil
	})
	defer centroid.Release()
	v, err := centroid.Get()
	if err != nil {
		return fmt.Errorf("centroid: %w", err)
	}
	log.Info("centroid", zap.Float64s("position", v[:]))
	return nil
}

// startProfile returns the stop function, or nil when profiling is off.
func startProfile(cfg config.ProfileConfig) func() {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfileAllocs
	default:
		return nil
	}
	p := profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook)
	return p.Stop
}
