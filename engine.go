package blockload

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/pthm/blockload/lib/dom"
	"github.com/pthm/blockload/lib/viewport"
)

// Engine hydrates one document. It owns the registry built from its
// config, the per-descriptor load state, and the loop that serializes all
// tree mutation.
//
// Engines are not reusable across documents: descriptor load state is
// page-scoped. Build one per page from a shared Config.
type Engine struct {
	cfg       *Config
	registry  *Registry
	loader    Loader
	fetcher   Fetcher
	proximity viewport.Factory
	margin    viewport.Margin
	origin    *url.URL
	domain    string
	logger    *zap.Logger
	trace     *tracer

	loop   *loop
	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	doc *html.Node

	// Loop-owned.
	activated map[*html.Node]map[string]bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLoader sets the behavior loader. Defaults to an empty ModuleTable.
func WithLoader(l Loader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithFetcher sets the fragment fetcher. Defaults to an HTTPFetcher
// resolving paths against the origin.
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithProximity sets the proximity mechanism used for lazy blocks.
// Defaults to viewport.Immediate.
func WithProximity(f viewport.Factory) Option {
	return func(e *Engine) {
		e.proximity = f
	}
}

// WithOrigin sets the runtime origin that canonical links are rewritten
// to. Without it links are left alone.
func WithOrigin(u *url.URL) Option {
	return func(e *Engine) {
		e.origin = u
	}
}

// New builds an engine for cfg. The fragment handler is registered under
// cfg.FragmentSelector before any scan can run.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	e := &Engine{
		cfg:       cfg,
		logger:    zap.NewNop(),
		trace:     &tracer{},
		activated: make(map[*html.Node]map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("blockload")

	margin, err := cfg.Margin()
	if err != nil {
		return nil, err
	}
	e.margin = margin

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	e.registry = reg

	if e.loader == nil {
		e.loader = NewModuleTable()
	}
	if e.fetcher == nil {
		e.fetcher = &HTTPFetcher{Base: e.origin}
	}
	if e.proximity == nil {
		e.proximity = viewport.Immediate()
	}
	e.domain = RuntimeDomain(e.origin)

	fragmentSelector := cfg.FragmentSelector
	if fragmentSelector == "" {
		fragmentSelector = DefaultFragmentSelector
	}
	if err := reg.RegisterSynthetic(fragmentSelector, &fragmentResolver{e: e}); err != nil {
		return nil, fmt.Errorf("register fragment handler: %w", err)
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.loop = newLoop(e.logger)
	return e, nil
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Domain returns the runtime domain links are rewritten to.
func (e *Engine) Domain() string {
	return e.domain
}

// Hydrate binds the engine to doc and runs the entry point on its body.
// Canonical links across the whole document are rewritten first. The
// work happens on the loop; call Settle to wait for it.
func (e *Engine) Hydrate(doc *html.Node) error {
	e.mu.Lock()
	if e.doc != nil {
		e.mu.Unlock()
		return ErrAlreadyHydrated
	}
	e.doc = doc
	e.mu.Unlock()

	e.registry.freeze()

	root := dom.Body(doc)
	if root == nil {
		root = doc
	}
	ok := e.loop.post(func() {
		e.rewriteLinks(doc)
		e.activateRoot(root)
	})
	if !ok {
		return ErrClosed
	}
	return nil
}

// Activate runs the entry point on a subtree, e.g. markup the host
// inserted after hydration.
func (e *Engine) Activate(root *html.Node) error {
	e.registry.freeze()
	if !e.loop.post(func() { e.activateRoot(root) }) {
		return ErrClosed
	}
	return nil
}

// Settle blocks until no work is queued or in flight.
func (e *Engine) Settle(ctx context.Context) error {
	return e.loop.settle(ctx)
}

// Close cancels in-flight loads and fetches and stops the loop.
func (e *Engine) Close() {
	e.cancel()
	e.loop.close()
}

// Trace returns a copy of the events recorded so far.
func (e *Engine) Trace() []Event {
	return e.trace.snapshot()
}

// activateRoot is the entry point: normalize, then match every registry
// selector under root and activate or observe each match.
func (e *Engine) activateRoot(root *html.Node) {
	scan := uuid.NewString()
	log := e.logger.With(zap.String("scan", scan))

	NormalizeVariants(root)

	sched := newScheduler(e, scan)
	matched := 0
	for _, selector := range e.registry.Selectors() {
		d, ok := e.registry.Lookup(selector)
		if !ok {
			continue
		}
		for _, el := range dom.QueryAll(root, d.matcher) {
			dom.SetAttr(el, BindingAttr, selector)
			matched++
			if d.Lazy {
				sched.observe(el, selector)
			} else {
				e.activateElement(el, scan)
			}
		}
	}

	log.Debug("scanned root", zap.Int("matched", matched))
	e.trace.record(Event{Kind: EventScan, Scan: scan, Count: matched})
}

func (e *Engine) rewriteLinks(root *html.Node) {
	if n := RewriteLinks(root, e.cfg.CanonicalDomain, e.domain); n > 0 {
		e.logger.Debug("rewrote links", zap.Int("count", n))
	}
}

func (e *Engine) document(el *html.Node) *html.Node {
	e.mu.Lock()
	doc := e.doc
	e.mu.Unlock()
	if doc != nil {
		return doc
	}
	for el.Parent != nil {
		el = el.Parent
	}
	return el
}
