package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pthm/blockload"
)

const siteConfig = `
canonicalDomain: https://www.example.com
blocks:
  .hero:
    location: /blocks/hero/
    styles: hero.css
    scripts: hero.js
  .carousel:
    location: /blocks/carousel/
    styles: carousel.css
    scripts: carousel.js
    lazy: true
  .broken:
    location: /blocks/broken/
    scripts: broken.js
templates:
  article:
    location: /templates/article/
    styles: article.css
    class: article
`

const sitePage = `<!DOCTYPE html>
<html><head><meta name="template" content="article"></head>
<body>
<main>
<div class="hero--dark-">hero</div>
<div class="fragment"><div><div>/fragments/footer</div></div></div>
<div class="carousel">c</div>
<div class="broken">b</div>
</main>
</body></html>`

func writeSite(t *testing.T) (dir, config string) {
	t.Helper()
	dir = t.TempDir()
	files := map[string]string{
		"blocks.yaml":                  siteConfig,
		"index.html":                   sitePage,
		"blocks/hero/hero.js":          "export default () => {}",
		"blocks/carousel/carousel.js":  "export default () => {}",
		"fragments/footer.plain.html": `<footer><a href="https://www.example.com/about">about</a></footer>`,
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir, filepath.Join(dir, "blocks.yaml")
}

func TestHydrateCommand(t *testing.T) {
	dir, config := writeSite(t)
	out := filepath.Join(dir, "dist")

	opts := &hydrateOptions{
		rootOptions: &rootOptions{Config: config},
		Base:        dir,
		Origin:      "http://localhost:3000",
		Out:         out,
		Trace:       true,
		TraceKey:    "secret",
		Jobs:        2,
	}
	require.NoError(t, runHydrate(context.Background(), opts, false, []string{filepath.Join(dir, "index.html")}))

	data, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, `<link rel="stylesheet" href="/templates/article/article.css"/>`)
	assert.Contains(t, html, `<link rel="stylesheet" href="/blocks/hero/hero.css"/>`)
	assert.Contains(t, html, `<script type="module" src="/blocks/hero/hero.js"></script>`)
	assert.Contains(t, html, `<script type="module" src="/blocks/carousel/carousel.js"></script>`)
	assert.Contains(t, html, `class="hero dark is-Loaded"`)
	assert.Contains(t, html, `href="http://localhost:3000/about"`)
	assert.Contains(t, html, `class="broken"`)
	assert.NotContains(t, html, "/fragments/footer<")

	var buf bytes.Buffer
	topts := &traceOptions{rootOptions: opts.rootOptions, TraceKey: "secret", Format: "text"}
	require.NoError(t, runTrace(&buf, topts, filepath.Join(out, "index.trace")))
	assert.Contains(t, buf.String(), "module_failed")
	assert.Contains(t, buf.String(), ".broken")

	topts.TraceKey = "wrong"
	err = runTrace(&buf, topts, filepath.Join(out, "index.trace"))
	assert.ErrorIs(t, err, blockload.ErrInvalidTrace)
}

func TestHydrateCommandWithViewport(t *testing.T) {
	dir, config := writeSite(t)
	out := filepath.Join(dir, "dist")

	opts := &hydrateOptions{
		rootOptions:    &rootOptions{Config: config},
		Base:           dir,
		Out:            out,
		Scroll:         0,
		ViewportWidth:  1280,
		ViewportHeight: 100,
		BlockHeight:    1000,
		Jobs:           1,
	}
	require.NoError(t, runHydrate(context.Background(), opts, true, []string{filepath.Join(dir, "index.html")}))

	data, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "carousel.css", "lazy block far below the viewport should not load")
}

func TestHydrateCommandRequiresTraceKey(t *testing.T) {
	opts := &hydrateOptions{rootOptions: &rootOptions{}, Trace: true}
	assert.Error(t, runHydrate(context.Background(), opts, false, []string{"x.html"}))
}

func TestSiteServesHydratedPages(t *testing.T) {
	dir, config := writeSite(t)
	cfg, err := blockload.LoadConfig(config)
	require.NoError(t, err)
	s := newSite(dir, cfg, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "http://shop.example:8080/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="http://shop.example:8080/about"`)
	assert.Contains(t, rec.Body.String(), "is-Visible")

	req = httptest.NewRequest(http.MethodGet, "/fragments/footer.plain.html", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://www.example.com/about", "fragments are served raw")

	req = httptest.NewRequest(http.MethodGet, "/missing.html", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSiteReload(t *testing.T) {
	dir, config := writeSite(t)
	s := newSite(dir, blockload.DefaultConfig(), nil, zap.NewNop())

	require.NoError(t, s.reload(config))
	assert.Len(t, s.cfg.Load().Blocks, 3)

	require.NoError(t, os.WriteFile(config, []byte("lazyMargin: nope\n"), 0o644))
	assert.Error(t, s.reload(config))
	assert.Len(t, s.cfg.Load().Blocks, 3, "failed reload keeps the previous config")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "blockload version "))
}
