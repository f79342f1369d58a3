package ecs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/txecs/runtime/internal/core/event"
)

// ErrNotSettled is returned by RunUntilSettled when the pass budget runs out.
var ErrNotSettled = errors.New("systems did not settle")

// UpdateSystems runs one pass: every Invalid system is updated in
// registration order, becomes Valid if its Update reports settled, and a
// SYSTEMUPDATED event is emitted for it either way. Events delivered while a
// system updates, its own writes included, stay queued for its next run.
// Returns how many systems ran.
func (c *Context) UpdateSystems() int {
	ran := 0
	for _, s := range c.systems.Snapshot() {
		st := s.SystemState()
		if st.IsValid() {
			continue
		}
		settled := s.Update(c)
		if settled {
			st.SetValid()
		}
		c.log.Debug("system updated", zap.Stringer("system", s.ID()), zap.Bool("settled", settled))
		c.emit(event.Updated(s.ID()))
		ran++
	}
	return ran
}

// RunSequential calls UpdateSystems for as long as pred returns true. pred
// carries the caller's own loop state, e.g. a tick counter.
func (c *Context) RunSequential(pred func() bool) {
	for pred() {
		c.UpdateSystems()
	}
}

// Settled reports whether every system is Valid.
func (c *Context) Settled() bool {
	for _, s := range c.systems.Snapshot() {
		if !s.SystemState().IsValid() {
			return false
		}
	}
	return true
}

// RunUntilSettled runs passes until every system is Valid, at most
// maxPasses of them (the Context default when maxPasses <= 0). It returns
// the number of passes run.
func (c *Context) RunUntilSettled(maxPasses int) (int, error) {
	if maxPasses <= 0 {
		maxPasses = c.maxPasses
	}
	passes := 0
	for ; passes < maxPasses; passes++ {
		if c.Settled() {
			return passes, nil
		}
		c.UpdateSystems()
	}
	if !c.Settled() {
		return passes, fmt.Errorf("%w after %d passes", ErrNotSettled, passes)
	}
	return passes, nil
}

// Run calls UpdateSystems once per interval until ctx is done.
func (c *Context) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			c.log.Debug("tick loop stopped", zap.Uint64("ticks", tick))
			return ctx.Err()
		case <-ticker.C:
			tick++
			c.UpdateSystems()
		}
	}
}
