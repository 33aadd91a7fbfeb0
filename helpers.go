package blockload

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"golang.org/x/net/html"

	"github.com/pthm/blockload/lib/dom"
)

// Render writes a templ component to the HTTP response.
//
// Sets Content-Type to text/html and renders the component using the
// request's context:
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    blockload.Render(w, r, blockload.RenderDocument(doc))
//	}
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// RenderDocument returns a templ component that serializes a hydrated
// tree. Call it only once the engine has settled.
func RenderDocument(n *html.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return dom.Render(w, n)
	})
}

// FragmentPlaceholder returns the authored markup of a fragment
// placeholder: the path sits two containers deep inside an element
// carrying the default fragment class.
//
//	@blockload.FragmentPlaceholder("/nav/footer")
func FragmentPlaceholder(path string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="fragment"><div><div>`+templ.EscapeString(path)+`</div></div></div>`)
		return err
	})
}

// Block returns a templ component wrapping children in a block element
// with the given class. Compound variant classes ("card--dark-") are
// written as-is and expanded during hydration.
func Block(class string, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="`+templ.EscapeString(class)+`">`); err != nil {
			return err
		}
		if children != nil {
			if err := children.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
