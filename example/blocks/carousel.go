package blocks

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/pthm/blockload"
	"github.com/pthm/blockload/lib/dom"
)

// Carousel fills the block with slides from its collection. Slides are
// looked up off the engine loop and inserted in the continuation.
type Carousel struct {
	source SlideSource
}

// Initialize implements blockload.Behavior.
func (c *Carousel) Initialize(el *html.Node, h blockload.Helpers) error {
	collection, _ := dom.Attr(el, "data-collection")
	if collection == "" {
		collection = "featured"
	}
	log := h.Logger().With(zap.String("collection", collection))

	h.Async(func(ctx context.Context) func() {
		slides, err := c.source.Slides(ctx, collection)
		return func() {
			if err != nil {
				log.Warn("slides unavailable", zap.Error(err))
				return
			}
			track := dom.NewElement("div", html.Attribute{Key: "class", Val: "carousel-track"})
			for _, s := range slides {
				a := dom.NewElement("a",
					html.Attribute{Key: "class", Val: "carousel-slide"},
					html.Attribute{Key: "href", Val: s.Href},
				)
				a.AppendChild(&html.Node{Type: html.TextNode, Data: s.Title})
				track.AppendChild(a)
			}
			el.AppendChild(track)
			h.RewriteLinks(track)
		}
	})
	return nil
}
