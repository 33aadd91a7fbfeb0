package blockload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm/blockload/lib/dom"
)

func templateConfig() *Config {
	cfg := DefaultConfig()
	cfg.Templates = map[string]TemplateConfig{
		"article": {Location: "/templates/article/", Styles: "article.css", Class: "article"},
	}
	return cfg
}

func TestApplyTemplate(t *testing.T) {
	doc := mustParse(t, `<html><head><meta name="template" content="article"></head><body></body></html>`)

	assert.Equal(t, "article", ApplyTemplate(doc, templateConfig()))

	body := dom.Body(doc)
	assert.True(t, dom.HasClass(body, "article"))
	assert.True(t, dom.HasClass(body, LoadedClass))
	assert.Equal(t, 1, stylesheets(t, doc, "/templates/article/article.css"))
}

func TestApplyTemplateUnknown(t *testing.T) {
	for _, markup := range []string{
		`<html><head></head><body></body></html>`,
		`<html><head><meta name="template" content="landing"></head><body></body></html>`,
	} {
		doc := mustParse(t, markup)
		assert.Equal(t, "", ApplyTemplate(doc, templateConfig()))
		assert.Equal(t, []string{LoadedClass}, dom.Classes(dom.Body(doc)))
		assert.Empty(t, query(t, dom.Head(doc), "link"))
	}
}

func TestMetadata(t *testing.T) {
	doc := mustParse(t, `<html><head>
<meta name="template" content="article">
<meta name="description" content="a page">
</head><body></body></html>`)

	assert.Equal(t, "article", Metadata(doc, "template"))
	assert.Equal(t, "a page", Metadata(doc, "description"))
	assert.Equal(t, "", Metadata(doc, "missing"))
}

func TestMetadataUnusualNames(t *testing.T) {
	doc := mustParse(t, `<html><head>
<meta name="a\b" content="backslash">
<meta name="thème" content="accent">
<meta name='quo"te' content="quote">
</head><body></body></html>`)

	assert.Equal(t, "backslash", Metadata(doc, `a\b`))
	assert.Equal(t, "accent", Metadata(doc, "thème"))
	assert.Equal(t, "quote", Metadata(doc, `quo"te`))
}
