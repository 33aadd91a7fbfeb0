package viewport

import (
	"sync"

	"golang.org/x/net/html"
)

// Immediate returns a Factory whose observers report every target as
// intersecting as soon as it is observed. Use it for hosts without a
// notion of scrolling, where lazy blocks should simply load.
func Immediate() Factory {
	return func(_ Margin, cb Callback) Observer {
		return &immediateObserver{cb: cb}
	}
}

type immediateObserver struct {
	mu           sync.Mutex
	cb           Callback
	disconnected bool
}

func (o *immediateObserver) Observe(target *html.Node) Subscription {
	o.mu.Lock()
	done := o.disconnected
	o.mu.Unlock()
	if !done {
		o.cb([]Entry{{Target: target, IsIntersecting: true}})
	}
	return subscriptionFunc(func() {})
}

func (o *immediateObserver) Disconnect() {
	o.mu.Lock()
	o.disconnected = true
	o.mu.Unlock()
}

// Manual is a host-driven proximity mechanism. Entries are delivered only
// when Deliver is called, which makes it suitable for tests and for hosts
// that compute visibility elsewhere.
type Manual struct {
	mu        sync.Mutex
	observers []*manualObserver
	margins   []Margin
}

// NewManual creates an empty manual mechanism.
func NewManual() *Manual {
	return &Manual{}
}

// Factory returns a Factory producing observers registered with m.
func (m *Manual) Factory() Factory {
	return func(margin Margin, cb Callback) Observer {
		o := &manualObserver{
			owner:    m,
			cb:       cb,
			observed: make(map[*html.Node]int),
			active:   make(map[*html.Node]bool),
		}
		m.mu.Lock()
		m.observers = append(m.observers, o)
		m.margins = append(m.margins, margin)
		m.mu.Unlock()
		return o
	}
}

// Deliver sends entries to every observer that has ever observed their
// targets, whether or not the target is still observed. This reproduces
// duplicate and late deliveries from real mechanisms.
func (m *Manual) Deliver(entries ...Entry) {
	type delivery struct {
		cb      Callback
		entries []Entry
	}

	m.mu.Lock()
	var out []delivery
	for _, o := range m.observers {
		var batch []Entry
		for _, e := range entries {
			if _, seen := o.observed[e.Target]; seen {
				batch = append(batch, e)
			}
		}
		if len(batch) > 0 {
			out = append(out, delivery{cb: o.cb, entries: batch})
		}
	}
	m.mu.Unlock()

	for _, d := range out {
		d.cb(d.entries)
	}
}

// Reveal delivers an intersecting entry for each target.
func (m *Manual) Reveal(targets ...*html.Node) {
	entries := make([]Entry, len(targets))
	for i, t := range targets {
		entries[i] = Entry{Target: t, IsIntersecting: true}
	}
	m.Deliver(entries...)
}

// Observing reports whether any observer currently watches target.
func (m *Manual) Observing(target *html.Node) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.observers {
		if o.active[target] {
			return true
		}
	}
	return false
}

// Targets returns every target currently observed, across observers.
func (m *Manual) Targets() []*html.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*html.Node
	for _, o := range m.observers {
		for n, on := range o.active {
			if on {
				out = append(out, n)
			}
		}
	}
	return out
}

// Observers returns the number of observers created so far.
func (m *Manual) Observers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.observers)
}

// Margins returns the margin each observer was created with.
func (m *Manual) Margins() []Margin {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Margin(nil), m.margins...)
}

type manualObserver struct {
	owner    *Manual
	cb       Callback
	observed map[*html.Node]int
	active   map[*html.Node]bool
}

func (o *manualObserver) Observe(target *html.Node) Subscription {
	o.owner.mu.Lock()
	o.observed[target]++
	o.active[target] = true
	o.owner.mu.Unlock()

	return subscriptionFunc(func() {
		o.owner.mu.Lock()
		o.active[target] = false
		o.owner.mu.Unlock()
	})
}

func (o *manualObserver) Disconnect() {
	o.owner.mu.Lock()
	for n := range o.active {
		o.active[n] = false
	}
	o.owner.mu.Unlock()
}
