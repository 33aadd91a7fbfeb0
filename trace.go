package blockload

import (
	"sync"
	"time"
)

// EventKind classifies trace events.
type EventKind string

const (
	EventScan              EventKind = "scan"
	EventObserve           EventKind = "observe"
	EventActivate          EventKind = "activate"
	EventStylesheet        EventKind = "stylesheet"
	EventModuleLoad        EventKind = "module_load"
	EventModuleFailed      EventKind = "module_failed"
	EventBehaviorError     EventKind = "behavior_error"
	EventFragment          EventKind = "fragment"
	EventFragmentFailed    EventKind = "fragment_failed"
	EventMissingDescriptor EventKind = "missing_descriptor"
)

// Event is one entry in an engine's activation trace.
type Event struct {
	Kind     EventKind `msgpack:"k" json:"kind"`
	Selector string    `msgpack:"s,omitempty" json:"selector,omitempty"`
	Path     string    `msgpack:"p,omitempty" json:"path,omitempty"`
	Scan     string    `msgpack:"n,omitempty" json:"scan,omitempty"`
	Count    int       `msgpack:"c,omitempty" json:"count,omitempty"`
	Err      string    `msgpack:"e,omitempty" json:"error,omitempty"`
	At       time.Time `msgpack:"t" json:"at"`
}

type tracer struct {
	mu     sync.Mutex
	events []Event
}

func (t *tracer) record(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	t.mu.Lock()
	t.events = append(t.events, ev)
	t.mu.Unlock()
}

func (t *tracer) snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// Count returns the number of events of kind k in events.
func Count(events []Event, k EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}
