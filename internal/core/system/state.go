package system

import (
	"sync/atomic"

	"github.com/txecs/runtime/internal/core/event"
)

// State is the Valid/Invalid flag plus the event mailbox every system
// carries. The zero value is Invalid with an empty mailbox, so a system runs
// at least once unless it is marked valid up front.
//
// A State must not be copied after first use.
type State struct {
	valid   atomic.Bool
	mailbox event.Mailbox
}

// NewState returns a State in the given initial validity.
func NewState(valid bool) *State {
	s := &State{}
	s.valid.Store(valid)
	return s
}

func (s *State) IsValid() bool { return s.valid.Load() }
func (s *State) SetValid()     { s.valid.Store(true) }
func (s *State) SetInvalid()   { s.valid.Store(false) }

// Deliver enqueues e and marks the system Invalid. Safe for concurrent use.
func (s *State) Deliver(e event.Event) {
	s.mailbox.Push(e)
	s.valid.Store(false)
}

// ProcessEvents drains the mailbox, visiting each event in arrival order.
func (s *State) ProcessEvents(fn func(event.Event)) { s.mailbox.Process(fn) }

// ClearEventQueue drains the mailbox without visiting.
func (s *State) ClearEventQueue() { s.mailbox.Clear() }

// Pending reports how many events are queued right now.
func (s *State) Pending() int { return s.mailbox.Len() }
