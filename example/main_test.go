package main

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestHandlePage(t *testing.T) {
	site, err := fs.Sub(siteFiles, "site")
	if err != nil {
		t.Fatal(err)
	}
	srv, err := newServer(site, NewStore(0), zap.NewNop())
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil)
	rec := httptest.NewRecorder()
	srv.handlePage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()

	wants := []string{
		`href="/blocks/cards/cards.css"`,
		`href="/blocks/cards/cards-dark.css"`,
		`href="/templates/landing/landing.css"`,
		`aria-current="page"`,
		`class="carousel-slide" href="http://localhost:8080/p/trail-runner"`,
		`href="http://localhost:8080/about"`,
		`data-count="3"`,
		`is-Visible`,
	}
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if n := strings.Count(body, `href="/blocks/cards/cards.css"`); n != 1 {
		t.Errorf("cards stylesheet linked %d times, want 1", n)
	}
}
