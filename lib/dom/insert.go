package dom

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// InsertPosition defines where parsed markup lands relative to a target
// element. Values mirror the insertAdjacentHTML positions plus a full
// content replacement.
type InsertPosition string

const (
	// BeforeEnd appends the markup after the target's last child.
	// Fragments are inlined with this position.
	BeforeEnd InsertPosition = "beforeend"

	// AfterBegin inserts the markup before the target's first child.
	AfterBegin InsertPosition = "afterbegin"

	// BeforeBegin inserts the markup as previous siblings of the target.
	BeforeBegin InsertPosition = "beforebegin"

	// AfterEnd inserts the markup as next siblings of the target.
	AfterEnd InsertPosition = "afterend"

	// Inner replaces all of the target's children.
	Inner InsertPosition = "innerHTML"
)

// ErrDetached is returned when a sibling insertion targets a node without
// a parent.
var ErrDetached = errors.New("dom: target has no parent")

// Insert parses markup in the context of target and places the resulting
// nodes at pos. It returns the inserted top-level nodes.
func Insert(target *html.Node, markup string, pos InsertPosition) ([]*html.Node, error) {
	context := target
	if pos == BeforeBegin || pos == AfterEnd {
		if target.Parent == nil {
			return nil, ErrDetached
		}
		context = target.Parent
	}
	if context.Type != html.ElementNode {
		context = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}

	switch pos {
	case AfterBegin:
		first := target.FirstChild
		for _, n := range nodes {
			target.InsertBefore(n, first)
		}
	case BeforeBegin:
		for _, n := range nodes {
			target.Parent.InsertBefore(n, target)
		}
	case AfterEnd:
		next := target.NextSibling
		for _, n := range nodes {
			target.Parent.InsertBefore(n, next)
		}
	case Inner:
		for c := target.FirstChild; c != nil; {
			next := c.NextSibling
			target.RemoveChild(c)
			c = next
		}
		for _, n := range nodes {
			target.AppendChild(n)
		}
	default:
		for _, n := range nodes {
			target.AppendChild(n)
		}
	}
	return nodes, nil
}
