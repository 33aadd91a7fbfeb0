// Package dom provides the small set of tree operations the block engine
// performs on parsed HTML: class-list edits, attribute access, CSS and
// XPath lookups, fragment insertion and serialization.
//
// All functions operate on *html.Node values from golang.org/x/net/html and
// are not safe for concurrent use on the same tree.
package dom

import (
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses a complete HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// ParseString parses a complete HTML document from a string.
func ParseString(s string) (*html.Node, error) {
	return html.Parse(strings.NewReader(s))
}

// Head returns the document's <head> element, or nil.
func Head(doc *html.Node) *html.Node {
	return htmlquery.FindOne(doc, "//head")
}

// Body returns the document's <body> element, or nil.
func Body(doc *html.Node) *html.Node {
	return htmlquery.FindOne(doc, "//body")
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets the named attribute, replacing any existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes the named attribute if present.
func RemoveAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}

// Classes returns the element's class tokens in attribute order.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

// HasClass reports whether the element carries the class token.
func HasClass(n *html.Node, name string) bool {
	for _, c := range Classes(n) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends each token the element does not already carry.
// Empty tokens are ignored.
func AddClass(n *html.Node, names ...string) {
	classes := Classes(n)
	changed := false
	for _, name := range names {
		if name == "" || contains(classes, name) {
			continue
		}
		classes = append(classes, name)
		changed = true
	}
	if changed {
		SetAttr(n, "class", strings.Join(classes, " "))
	}
}

// RemoveClass removes every occurrence of the token.
func RemoveClass(n *html.Node, name string) {
	classes := Classes(n)
	kept := classes[:0]
	for _, c := range classes {
		if c != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(classes) {
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Compile parses a CSS selector.
func Compile(selector string) (cascadia.Sel, error) {
	return cascadia.Parse(selector)
}

// QueryAll returns the descendants of root matching sel, in document order.
// Root itself is never included.
func QueryAll(root *html.Node, sel cascadia.Matcher) []*html.Node {
	return cascadia.QueryAll(root, sel)
}

// QueryFirst returns the first descendant of root matching sel, or nil.
func QueryFirst(root *html.Node, sel cascadia.Matcher) *html.Node {
	return cascadia.Query(root, sel)
}

// FindFirst evaluates an XPath expression relative to root and returns the
// first match, or nil. The expression must be valid.
func FindFirst(root *html.Node, xpath string) *html.Node {
	return htmlquery.FindOne(root, xpath)
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	return htmlquery.InnerText(n)
}

// Elements calls fn for every element below root in document order.
// Root itself is skipped.
func Elements(root *html.Node, fn func(*html.Node)) {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
		}
		Elements(c, fn)
	}
}

// NewElement creates a detached element with the given attributes.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Remove detaches n from its parent.
func Remove(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Render serializes n and its descendants.
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// RenderString serializes n to a string.
func RenderString(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderInner serializes the children of n.
func RenderInner(n *html.Node) (string, error) {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
