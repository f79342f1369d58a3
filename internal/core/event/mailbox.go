package event

import (
	"sync"
	"sync/atomic"
)

// Mailbox is a double-buffered FIFO of events. Producers append to the front
// queue; while a consumer is draining the front queue, producers are
// redirected to the back queue so they never wait on a long drain.
//
// The zero value is ready to use. A Mailbox must not be copied.
type Mailbox struct {
	draining atomic.Bool

	frontMu sync.Mutex
	front   []Event

	backMu sync.Mutex
	back   []Event
}

// Push enqueues e. Safe for concurrent use.
func (m *Mailbox) Push(e Event) {
	if !m.draining.Load() {
		m.frontMu.Lock()
		m.front = append(m.front, e)
		m.frontMu.Unlock()
		return
	}
	m.backMu.Lock()
	m.back = append(m.back, e)
	m.backMu.Unlock()
}

// Process visits and removes every queued event, front queue first. fn may
// push into the same mailbox; such events land in the back queue during the
// front phase and in the front queue during the back phase.
//
// Events pushed concurrently may already be queued again when Process
// returns.
func (m *Mailbox) Process(fn func(Event)) {
	m.drainFront(fn)
	m.drainBack(fn)
}

// Clear discards every queued event using the same two-phase drain.
func (m *Mailbox) Clear() {
	m.Process(nil)
}

// Len reports the number of queued events at the time of the call.
func (m *Mailbox) Len() int {
	m.frontMu.Lock()
	n := len(m.front)
	m.frontMu.Unlock()
	m.backMu.Lock()
	n += len(m.back)
	m.backMu.Unlock()
	return n
}

func (m *Mailbox) drainFront(fn func(Event)) {
	m.draining.Store(true)
	defer m.draining.Store(false)

	m.frontMu.Lock()
	defer m.frontMu.Unlock()
	for i, e := range m.front {
		if fn != nil {
			fn(e)
		}
		m.front[i] = nil
	}
	m.front = m.front[:0]
}

func (m *Mailbox) drainBack(fn func(Event)) {
	m.backMu.Lock()
	defer m.backMu.Unlock()
	// The draining flag is already cleared, so pushes from fn go to the
	// front queue and cannot deadlock on backMu.
	for len(m.back) > 0 {
		e := m.back[0]
		m.back[0] = nil
		m.back = m.back[1:]
		if fn != nil {
			fn(e)
		}
	}
	m.back = nil
}
