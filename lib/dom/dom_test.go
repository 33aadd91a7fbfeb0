package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := ParseString(s)
	require.NoError(t, err)
	return doc
}

func first(t *testing.T, root *html.Node, selector string) *html.Node {
	t.Helper()
	sel, err := Compile(selector)
	require.NoError(t, err)
	n := QueryFirst(root, sel)
	require.NotNil(t, n, "no match for %q", selector)
	return n
}

func TestHeadAndBody(t *testing.T) {
	doc := mustParse(t, `<html><head><title>x</title></head><body><p>hi</p></body></html>`)

	head := Head(doc)
	require.NotNil(t, head)
	assert.Equal(t, "head", head.Data)

	body := Body(doc)
	require.NotNil(t, body)
	assert.Equal(t, "body", body.Data)
}

func TestClassEdits(t *testing.T) {
	doc := mustParse(t, `<div id="a" class="one  two"></div>`)
	el := first(t, doc, "#a")

	assert.Equal(t, []string{"one", "two"}, Classes(el))
	assert.True(t, HasClass(el, "two"))
	assert.False(t, HasClass(el, "three"))

	AddClass(el, "two", "three", "")
	assert.Equal(t, []string{"one", "two", "three"}, Classes(el))

	RemoveClass(el, "one")
	assert.Equal(t, []string{"two", "three"}, Classes(el))
	v, _ := Attr(el, "class")
	assert.Equal(t, "two three", v)

	RemoveClass(el, "missing")
	assert.Equal(t, []string{"two", "three"}, Classes(el))
}

func TestAttrs(t *testing.T) {
	el := NewElement("link")
	_, ok := Attr(el, "rel")
	assert.False(t, ok)

	SetAttr(el, "rel", "stylesheet")
	SetAttr(el, "rel", "preload")
	v, ok := Attr(el, "rel")
	assert.True(t, ok)
	assert.Equal(t, "preload", v)
	assert.Len(t, el.Attr, 1)

	RemoveAttr(el, "rel")
	assert.Empty(t, el.Attr)
}

func TestQueryAllExcludesRoot(t *testing.T) {
	doc := mustParse(t, `<div id="root" class="x"><div class="x"></div><span class="x"></span></div>`)
	root := first(t, doc, "#root")

	sel, err := Compile(".x")
	require.NoError(t, err)

	got := QueryAll(root, sel)
	require.Len(t, got, 2)
	assert.Equal(t, "div", got[0].Data)
	assert.Equal(t, "span", got[1].Data)
}

func TestCompileInvalid(t *testing.T) {
	_, err := Compile("a[")
	assert.Error(t, err)
}

func TestTextContentAndFindFirst(t *testing.T) {
	doc := mustParse(t, `<div class="fragment"><div><div>/nav/footer</div></div></div>`)
	frag := first(t, doc, ".fragment")

	holder := FindFirst(frag, ".//div")
	require.NotNil(t, holder)
	assert.Equal(t, "/nav/footer", TextContent(holder))
	assert.Equal(t, "", TextContent(nil))
}

func TestInsertPositions(t *testing.T) {
	tests := []struct {
		name string
		pos  InsertPosition
		want string
	}{
		{"beforeend", BeforeEnd, `<div id="t"><p>old</p><b>new</b></div>`},
		{"afterbegin", AfterBegin, `<div id="t"><b>new</b><p>old</p></div>`},
		{"inner", Inner, `<div id="t"><b>new</b></div>`},
		{"beforebegin", BeforeBegin, `<b>new</b><div id="t"><p>old</p></div>`},
		{"afterend", AfterEnd, `<div id="t"><p>old</p></div><b>new</b>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, `<section><div id="t"><p>old</p></div></section>`)
			target := first(t, doc, "#t")

			nodes, err := Insert(target, `<b>new</b>`, tt.pos)
			require.NoError(t, err)
			require.Len(t, nodes, 1)

			got, err := RenderInner(first(t, doc, "section"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInsertDetached(t *testing.T) {
	el := NewElement("div")
	_, err := Insert(el, `<p>x</p>`, BeforeBegin)
	assert.ErrorIs(t, err, ErrDetached)
}

func TestRemove(t *testing.T) {
	doc := mustParse(t, `<ul><li id="a"></li><li id="b"></li></ul>`)
	Remove(first(t, doc, "#a"))
	Remove(nil)

	got, err := RenderInner(first(t, doc, "ul"))
	require.NoError(t, err)
	assert.Equal(t, `<li id="b"></li>`, got)
}

func TestElementsSkipsRoot(t *testing.T) {
	doc := mustParse(t, `<main id="m"><a></a><div><span></span></div></main>`)
	var tags []string
	Elements(first(t, doc, "#m"), func(n *html.Node) {
		tags = append(tags, n.Data)
	})
	assert.Equal(t, []string{"a", "div", "span"}, tags)
}
