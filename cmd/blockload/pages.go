package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/pthm/blockload"
	"github.com/pthm/blockload/lib/dom"
	"github.com/pthm/blockload/lib/viewport"
)

// maxViewportPasses bounds how often a simulated viewport is re-checked
// after fragments have grown the page.
const maxViewportPasses = 4

// hydrator builds one engine per page from shared settings.
type hydrator struct {
	cfg       *blockload.Config
	assets    fs.FS
	fragments blockload.Fetcher
	logger    *zap.Logger

	// geometry enables a simulated viewport instead of loading every lazy
	// block immediately.
	geometry       bool
	scroll         float64
	viewportWidth  float64
	viewportHeight float64
	blockHeight    float64
}

type page struct {
	doc      *html.Node
	template string
	trace    []blockload.Event
}

func (h *hydrator) hydrate(ctx context.Context, name string, r io.Reader, origin *url.URL) (*page, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: parse: %w", name, err)
	}

	var vp *viewport.Viewport
	proximity := viewport.Immediate()
	if h.geometry {
		vp = viewport.New(h.viewportWidth, h.viewportHeight, viewport.StackLayout(h.blockHeight))
		proximity = vp.Factory()
	}

	opts := []blockload.Option{
		blockload.WithLogger(h.logger.With(zap.String("page", name))),
		blockload.WithLoader(blockload.ScriptLoader{FS: h.assets}),
		blockload.WithFetcher(h.fragments),
		blockload.WithProximity(proximity),
	}
	if origin != nil {
		opts = append(opts, blockload.WithOrigin(origin))
	}

	eng, err := blockload.New(h.cfg, opts...)
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	tpl := blockload.ApplyTemplate(doc, h.cfg)
	if err := eng.Hydrate(doc); err != nil {
		return nil, err
	}
	if err := eng.Settle(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if vp != nil {
		vp.ScrollTo(h.scroll)
		for i := 0; i < maxViewportPasses; i++ {
			if err := eng.Settle(ctx); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			activated := blockload.Count(eng.Trace(), blockload.EventActivate)
			vp.Check()
			if err := eng.Settle(ctx); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if blockload.Count(eng.Trace(), blockload.EventActivate) == activated {
				break
			}
		}
	}

	return &page{doc: doc, template: tpl, trace: eng.Trace()}, nil
}
