package blockload

import (
	"fmt"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/pthm/blockload/lib/dom"
)

// LoadState tracks a descriptor's behavior module.
type LoadState int

const (
	// NotRequested means no activation has asked for the module yet.
	NotRequested LoadState = iota
	// Loading means one load is in flight; activations queue behind it.
	Loading
	// Loaded means the behavior is cached on the descriptor.
	Loaded
	// Failed is terminal. Later activations skip the behavior.
	Failed
)

func (s LoadState) String() string {
	switch s {
	case NotRequested:
		return "not-requested"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// Descriptor describes how the matches of one selector are styled and
// scripted. The exported fields are configuration; everything else is load
// state owned by the engine's loop.
type Descriptor struct {
	Location   string
	Stylesheet string
	Script     string
	Lazy       bool

	selector  string
	matcher   cascadia.Sel
	synthetic bool
	loaded    bool
	module    moduleSlot
}

type moduleSlot struct {
	state    LoadState
	behavior Behavior
	err      error
	waiters  []*html.Node
}

// Selector returns the registry key.
func (d *Descriptor) Selector() string { return d.selector }

// Synthetic reports whether the descriptor was installed by the engine
// rather than configured.
func (d *Descriptor) Synthetic() bool { return d.synthetic }

// Loaded reports whether any element bound to the descriptor has been
// activated.
func (d *Descriptor) Loaded() bool { return d.loaded }

// State returns the behavior module's load state.
func (d *Descriptor) State() LoadState { return d.module.state }

// Err returns the load error of a Failed descriptor.
func (d *Descriptor) Err() error { return d.module.err }

// StylesheetPath returns Location+Stylesheet, or "" without a stylesheet.
func (d *Descriptor) StylesheetPath() string {
	if d.Stylesheet == "" {
		return ""
	}
	return d.Location + d.Stylesheet
}

// ScriptPath returns Location+Script, or "" without a script.
func (d *Descriptor) ScriptPath() string {
	if d.Script == "" {
		return ""
	}
	return d.Location + d.Script
}

// Registry is an ordered mapping from selector to descriptor. It may only
// be modified before the engine starts scanning.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*Descriptor
	frozen  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Descriptor)}
}

// Add registers a descriptor under selector. Load state on d is ignored.
func (r *Registry) Add(selector string, d Descriptor) error {
	sel, err := dom.Compile(selector)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if _, exists := r.entries[selector]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSelector, selector)
	}

	r.entries[selector] = &Descriptor{
		Location:   d.Location,
		Stylesheet: d.Stylesheet,
		Script:     d.Script,
		Lazy:       d.Lazy,
		selector:   selector,
		matcher:    sel,
	}
	r.order = append(r.order, selector)
	return nil
}

// RegisterSynthetic installs an engine-provided behavior under selector.
// The descriptor starts loaded with its behavior cached, so matches are
// never styled and never trigger a module load. A configured entry under
// the same selector is replaced in place and keeps its scan position.
func (r *Registry) RegisterSynthetic(selector string, b Behavior) error {
	sel, err := dom.Compile(selector)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	existing, ok := r.entries[selector]
	if ok && existing.synthetic {
		return fmt.Errorf("%w: %q", ErrDuplicateSelector, selector)
	}
	if !ok {
		r.order = append(r.order, selector)
	}

	r.entries[selector] = &Descriptor{
		selector:  selector,
		matcher:   sel,
		synthetic: true,
		loaded:    true,
		module:    moduleSlot{state: Loaded, behavior: b},
	}
	return nil
}

// Lookup returns the descriptor registered under selector.
func (r *Registry) Lookup(selector string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[selector]
	return d, ok
}

// Selectors returns the registered selectors in scan order.
func (r *Registry) Selectors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Frozen reports whether scanning has started.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

func (r *Registry) freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}
