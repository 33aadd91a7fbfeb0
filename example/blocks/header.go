package blocks

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/pthm/blockload"
	"github.com/pthm/blockload/lib/dom"
)

var navLinks = cascadia.MustCompile("nav a")

// Header marks the navigation link for the current section.
type Header struct{}

// Initialize implements blockload.Behavior.
func (Header) Initialize(el *html.Node, h blockload.Helpers) error {
	section, _ := dom.Attr(el, "data-section")
	for _, a := range dom.QueryAll(el, navLinks) {
		if section != "" && dom.TextContent(a) == section {
			dom.SetAttr(a, "aria-current", "page")
		}
	}
	return nil
}
