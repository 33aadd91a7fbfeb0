package blockload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pthm/blockload/lib/viewport"
)

const sampleConfig = `
lazyMargin: 500px 0px
canonicalDomain: https://www.example.com
blocks:
  .header:
    location: /blocks/header/
    styles: header.css
    scripts: header.js
  .carousel:
    location: /blocks/carousel/
    styles: carousel.css
    scripts: carousel.js
    lazy: true
  .about:
    location: /blocks/about/
    styles: about.css
templates:
  article:
    location: /templates/article/
    styles: article.css
    class: article
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "500px 0px", cfg.LazyMargin)
	assert.Equal(t, "https://www.example.com", cfg.CanonicalDomain)
	assert.Equal(t, DefaultFragmentSelector, cfg.FragmentSelector)

	require.Len(t, cfg.Blocks, 3)
	assert.Equal(t, []string{".header", ".carousel", ".about"},
		[]string{cfg.Blocks[0].Selector, cfg.Blocks[1].Selector, cfg.Blocks[2].Selector})
	assert.True(t, cfg.Blocks[1].Lazy)
	assert.Empty(t, cfg.Blocks[2].Scripts)

	assert.Equal(t, TemplateConfig{Location: "/templates/article/", Styles: "article.css", Class: "article"},
		cfg.Templates["article"])

	m, err := cfg.Margin()
	require.NoError(t, err)
	assert.Equal(t, viewport.Margin{Top: 500, Right: 0, Bottom: 500, Left: 0}, m)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("blocks: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, viewport.DefaultMargin, cfg.LazyMargin)
	assert.Equal(t, DefaultFragmentSelector, cfg.FragmentSelector)
	assert.Empty(t, cfg.Blocks)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		is   error
	}{
		{"bad margin", "lazyMargin: wide\n", viewport.ErrInvalidMargin},
		{"bad selector", "blocks:\n  \"[[[\":\n    location: /x/\n", ErrInvalidSelector},
		{"duplicate selector", "blocks:\n  .a: {location: /a/}\n  .a: {location: /b/}\n", ErrDuplicateSelector},
		{"blocks not a mapping", "blocks:\n  - .a\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.in))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestFragmentSelectorInBlocks(t *testing.T) {
	cfg, err := ParseConfig([]byte("blocks:\n  .fragment:\n    location: /blocks/fragment/\n    styles: fragment.css\n"))
	require.NoError(t, err)

	eng, err := New(cfg, WithFetcher(NewStaticFetcher(map[string]string{"/f.plain.html": "<p>hi</p>"})))
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	d, ok := eng.Registry().Lookup(DefaultFragmentSelector)
	require.True(t, ok)
	assert.True(t, d.Synthetic(), "fragment handler takes over the configured entry")

	doc := mustParse(t, `<html><head></head><body><div class="fragment"><div><div>/f</div></div></div></body></html>`)
	hydrate(t, eng, doc)
	assert.Len(t, query(t, doc, ".fragment p"), 1)
	assert.Zero(t, stylesheets(t, doc, "/blocks/fragment/fragment.css"))
}

func TestBlocksMarshalRoundTripKeepsOrder(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	again, err := ParseConfig(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Blocks, again.Blocks)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Blocks, 3)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigRegistry(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	a, err := cfg.Registry()
	require.NoError(t, err)
	b, err := cfg.Registry()
	require.NoError(t, err)

	assert.Equal(t, []string{".header", ".carousel", ".about"}, a.Selectors())

	da, _ := a.Lookup(".header")
	db, _ := b.Lookup(".header")
	assert.NotSame(t, da, db, "each registry owns its descriptors")
	assert.Equal(t, "/blocks/header/header.css", da.StylesheetPath())
	assert.Equal(t, "/blocks/header/header.js", da.ScriptPath())
}
