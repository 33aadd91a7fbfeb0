package blockload

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func TestRender(t *testing.T) {
	doc := mustParse(t, `<html><head></head><body><p>hi</p></body></html>`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := Render(rec, req, RenderDocument(doc)); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "<p>hi</p>") {
		t.Errorf("body = %q", body)
	}
}

func TestFragmentPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	if err := FragmentPlaceholder("/nav/<x>").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	want := `<div class="fragment"><div><div>/nav/&lt;x&gt;</div></div></div>`
	if buf.String() != want {
		t.Errorf("FragmentPlaceholder() = %q, want %q", buf.String(), want)
	}
}

func TestBlockRendersAndHydrates(t *testing.T) {
	page := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, `<html><head></head><body>`)
		if err := Block("card--dark-", FragmentPlaceholder("/f")).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})

	var buf bytes.Buffer
	if err := page.Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}

	behavior := &RecordingBehavior{}
	cfg := testConfig(BlockConfig{Selector: ".card.dark", Location: "/c/", Scripts: "c.js"})
	eng := newEngine(t, cfg,
		WithLoader(NewModuleTable().Add("/c/c.js", behavior)),
		WithFetcher(NewStaticFetcher(map[string]string{"/f.plain.html": `<span>inlined</span>`})),
	)
	doc := mustParse(t, buf.String())
	hydrate(t, eng, doc)

	if behavior.CallCount() != 1 {
		t.Errorf("Initialize calls = %d, want 1", behavior.CallCount())
	}
	if len(query(t, doc, ".card .fragment.is-Visible span")) != 1 {
		t.Error("fragment inside block not inlined")
	}
}
