package blocks

import (
	"context"

	"github.com/pthm/blockload"
)

// Slide is one carousel entry.
type Slide struct {
	Title string
	Href  string
}

// SlideSource supplies carousel slides by collection name.
type SlideSource interface {
	Slides(ctx context.Context, collection string) ([]Slide, error)
}

// Init registers every block behavior under the script path the site's
// blocks.yaml points at. Call it once at startup.
func Init(table *blockload.ModuleTable, slides SlideSource) {
	table.
		Add("/blocks/header/header.js", Header{}).
		Add("/blocks/cards/cards.js", Cards{}).
		Register("/blocks/carousel/carousel.js", func(ctx context.Context) (blockload.Behavior, error) {
			return &Carousel{source: slides}, nil
		})
}
