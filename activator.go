package blockload

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/pthm/blockload/lib/dom"
)

const (
	// BindingAttr records which selector matched an element.
	BindingAttr = "data-block-select"

	// LoadedClass marks an activated element.
	LoadedClass = "is-Loaded"
)

// activateElement moves one bound element to loaded: stylesheet once per
// descriptor, behavior module loaded at most once per descriptor, then the
// behavior is invoked and the element marked.
func (e *Engine) activateElement(el *html.Node, scan string) {
	selector, _ := dom.Attr(el, BindingAttr)
	log := e.logger.With(zap.String("selector", selector), zap.String("scan", scan))

	d, ok := e.registry.Lookup(selector)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrDescriptorNotFound, selector)
		log.Warn("skipping bound element", zap.Error(err))
		e.trace.record(Event{Kind: EventMissingDescriptor, Selector: selector, Scan: scan, Err: err.Error()})
		return
	}

	seen := e.activated[el]
	if seen[selector] {
		log.Debug("element already activated")
		return
	}
	if seen == nil {
		seen = make(map[string]bool)
		e.activated[el] = seen
	}
	seen[selector] = true

	if !d.loaded && d.Stylesheet != "" {
		e.addStylesheet(el, d.StylesheetPath())
		e.trace.record(Event{Kind: EventStylesheet, Selector: selector, Path: d.StylesheetPath(), Scan: scan})
	}
	d.loaded = true

	e.initBehavior(el, d, scan)
}

func (e *Engine) initBehavior(el *html.Node, d *Descriptor, scan string) {
	slot := &d.module
	switch slot.state {
	case Loaded:
		e.invoke(el, d, scan)
		e.markLoaded(el, d, scan)

	case Loading:
		slot.waiters = append(slot.waiters, el)

	case Failed:
		e.logger.Debug("skipping behavior of failed module",
			zap.String("selector", d.selector), zap.Error(slot.err))

	default:
		if d.Script == "" {
			e.markLoaded(el, d, scan)
			return
		}
		slot.state = Loading
		slot.waiters = append(slot.waiters, el)
		path := d.ScriptPath()
		e.loop.spawn(e.ctx, func(ctx context.Context) func() {
			b, err := e.load(ctx, path)
			return func() { e.moduleLoaded(d, b, err, scan) }
		})
	}
}

// load calls the loader, turning a panic into a module failure so the
// descriptor always settles.
func (e *Engine) load(ctx context.Context, path string) (b Behavior, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: %s: panic: %v", ErrModuleFailed, path, r)
		}
	}()
	return e.loader.Load(ctx, path)
}

func (e *Engine) moduleLoaded(d *Descriptor, b Behavior, err error, scan string) {
	slot := &d.module
	waiters := slot.waiters
	slot.waiters = nil
	path := d.ScriptPath()

	if err == nil && b == nil {
		err = fmt.Errorf("%w: %s: loader returned no behavior", ErrModuleFailed, path)
	}
	if err != nil {
		slot.state = Failed
		slot.err = err
		e.logger.Warn("module load failed",
			zap.String("selector", d.selector), zap.String("path", path), zap.Error(err))
		e.trace.record(Event{Kind: EventModuleFailed, Selector: d.selector, Path: path, Scan: scan, Err: err.Error()})
		return
	}

	slot.state = Loaded
	slot.behavior = b
	e.trace.record(Event{Kind: EventModuleLoad, Selector: d.selector, Path: path, Scan: scan})

	for _, el := range waiters {
		e.invoke(el, d, scan)
		e.markLoaded(el, d, scan)
	}
}

// invoke runs the cached behavior. Errors and panics stay with the block.
func (e *Engine) invoke(el *html.Node, d *Descriptor, scan string) {
	log := e.logger.With(zap.String("selector", d.selector))
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			log.Error("behavior panicked", zap.Error(err))
			e.trace.record(Event{Kind: EventBehaviorError, Selector: d.selector, Scan: scan, Err: err.Error()})
		}
	}()

	if err := d.module.behavior.Initialize(el, &helpers{e: e, el: el, selector: d.selector, logger: log}); err != nil {
		log.Warn("behavior failed", zap.Error(err))
		e.trace.record(Event{Kind: EventBehaviorError, Selector: d.selector, Scan: scan, Err: err.Error()})
	}
}

func (e *Engine) markLoaded(el *html.Node, d *Descriptor, scan string) {
	dom.AddClass(el, LoadedClass)
	e.trace.record(Event{Kind: EventActivate, Selector: d.selector, Scan: scan})
}

func (e *Engine) addStylesheet(near *html.Node, href string) {
	head := dom.Head(e.document(near))
	if head == nil {
		e.logger.Warn("document has no head, stylesheet dropped", zap.String("href", href))
		return
	}
	appendStylesheet(head, href)
}

func appendStylesheet(head *html.Node, href string) {
	head.AppendChild(dom.NewElement("link",
		html.Attribute{Key: "rel", Val: "stylesheet"},
		html.Attribute{Key: "href", Val: href},
	))
}

// helpers is the Helpers view handed to behaviors.
type helpers struct {
	e        *Engine
	el       *html.Node
	selector string
	logger   *zap.Logger
}

func (h *helpers) AddStylesheet(href string) {
	h.e.addStylesheet(h.el, href)
	h.e.trace.record(Event{Kind: EventStylesheet, Selector: h.selector, Path: href})
}

func (h *helpers) RewriteLinks(root *html.Node) {
	h.e.rewriteLinks(root)
}

func (h *helpers) Activate(root *html.Node) {
	h.e.activateRoot(root)
}

func (h *helpers) Async(task func(ctx context.Context) func()) {
	h.e.loop.spawn(h.e.ctx, task)
}

func (h *helpers) Logger() *zap.Logger {
	return h.logger
}
