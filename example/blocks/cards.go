package blocks

import (
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pthm/blockload"
	"github.com/pthm/blockload/lib/dom"
)

// Cards turns each row of the authored block into a list item. The dark
// variant pulls in an extra theme stylesheet.
type Cards struct{}

// Initialize implements blockload.Behavior.
func (Cards) Initialize(el *html.Node, h blockload.Helpers) error {
	var rows []*html.Node
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Div {
			rows = append(rows, c)
		}
	}
	list := dom.NewElement("ul")
	for _, row := range rows {
		li := dom.NewElement("li", html.Attribute{Key: "class", Val: "cards-card"})
		dom.Remove(row)
		li.AppendChild(row)
		list.AppendChild(li)
	}
	el.AppendChild(list)
	dom.SetAttr(el, "data-count", strconv.Itoa(len(rows)))

	if dom.HasClass(el, "dark") {
		h.AddStylesheet("/blocks/cards/cards-dark.css")
	}
	return nil
}
