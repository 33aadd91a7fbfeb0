package blockload

import (
	"context"
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/pthm/blockload/lib/dom"
)

const (
	// PlainSuffix is appended to a fragment path to form its fetch path.
	PlainSuffix = ".plain.html"

	// VisibleClass marks a placeholder whose fragment has been inlined.
	VisibleClass = "is-Visible"
)

var pathHolderSelector = cascadia.MustCompile("div > div")

// fragmentResolver is the behavior behind the synthetic fragment entry.
// It reads the path authored inside the placeholder, fetches the plain
// fragment, inlines it, and runs the entry point on the placeholder so
// blocks and further fragments inside the fetched markup are handled.
//
// There is no cycle detection: a fragment that includes itself recurses
// for as long as the fetcher keeps serving it.
type fragmentResolver struct {
	e *Engine
}

func (f *fragmentResolver) Initialize(el *html.Node, h Helpers) error {
	path := strings.TrimSpace(dom.TextContent(dom.QueryFirst(el, pathHolderSelector)))
	if path == "" {
		return ErrFragmentPath
	}
	container := dom.FindFirst(el, ".//div")
	log := h.Logger().With(zap.String("path", path))
	e := f.e

	h.Async(func(ctx context.Context) func() {
		markup, err := e.fetcher.Fetch(ctx, path+PlainSuffix)
		if err != nil {
			return func() {
				log.Warn("fragment unavailable", zap.Error(err))
				e.trace.record(Event{Kind: EventFragmentFailed, Path: path, Err: err.Error()})
			}
		}
		return func() {
			if _, err := dom.Insert(el, markup, dom.BeforeEnd); err != nil {
				log.Warn("fragment markup rejected", zap.Error(err))
				e.trace.record(Event{Kind: EventFragmentFailed, Path: path, Err: err.Error()})
				return
			}
			dom.Remove(container)
			dom.AddClass(el, VisibleClass)
			e.trace.record(Event{Kind: EventFragment, Path: path})
			h.RewriteLinks(el)
			h.Activate(el)
		}
	})
	return nil
}
