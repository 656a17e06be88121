package session

import "sync"

// EventType names the notifications a session emits.
type EventType string

const (
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
	EventCommandSent  EventType = "command_sent"
	EventResponse     EventType = "response"
	EventUnknown      EventType = "unknown_command"
	EventError        EventType = "error"
)

// Event is one session notification. Which fields are set depends on Type:
// Command carries the sent command for command_sent and the discarded one
// for unknown_command; Payload carries the decoded frame for response;
// Reason carries the cause for disconnected and error.
type Event struct {
	Type         EventType `json:"type"`
	Device       string    `json:"device,omitempty"`
	ConnectionID string    `json:"connection_id,omitempty"`
	Command      string    `json:"command,omitempty"`
	Payload      string    `json:"payload,omitempty"`
	Reason       string    `json:"reason,omitempty"`
}

// dispatcher fans events out to subscribers from a single goroutine, so
// observers see notifications in emission order no matter which goroutine
// produced them.
type dispatcher struct {
	mu     sync.RWMutex
	closed bool
	ch     chan Event
	done   chan struct{}

	obsMu     sync.Mutex
	observers []func(Event)
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		ch:   make(chan Event, 64),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer close(d.done)
	for ev := range d.ch {
		d.obsMu.Lock()
		observers := make([]func(Event), len(d.observers))
		copy(observers, d.observers)
		d.obsMu.Unlock()
		for _, fn := range observers {
			fn(ev)
		}
	}
}

func (d *dispatcher) subscribe(fn func(Event)) {
	d.obsMu.Lock()
	d.observers = append(d.observers, fn)
	d.obsMu.Unlock()
}

// emit queues ev for delivery. Events emitted after close are dropped.
func (d *dispatcher) emit(ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	d.ch <- ev
}

// close stops delivery and waits for queued events to drain.
func (d *dispatcher) close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()
	<-d.done
}
