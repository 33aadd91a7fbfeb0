package blockload

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/pthm/blockload/lib/dom"
)

var metaSelector = cascadia.MustCompile("meta[name]")

// TemplateMeta names the <meta> element selecting a page template.
const TemplateMeta = "template"

// Metadata returns the content of <meta name="..."> in the document head.
func Metadata(doc *html.Node, name string) string {
	head := dom.Head(doc)
	if head == nil {
		return ""
	}
	for _, meta := range dom.QueryAll(head, metaSelector) {
		if n, _ := dom.Attr(meta, "name"); n == name {
			v, _ := dom.Attr(meta, "content")
			return v
		}
	}
	return ""
}

// ApplyTemplate applies the page template named by the "template"
// metadata: its class goes on <body>, its stylesheet into <head>. The body
// is then marked loaded. It returns the template name, or "" when the
// page names none or an unknown one.
func ApplyTemplate(doc *html.Node, cfg *Config) string {
	body := dom.Body(doc)
	if body == nil {
		return ""
	}
	defer dom.AddClass(body, LoadedClass)

	name := Metadata(doc, TemplateMeta)
	if name == "" {
		return ""
	}
	tpl, ok := cfg.Templates[name]
	if !ok {
		return ""
	}
	if tpl.Class != "" {
		dom.AddClass(body, tpl.Class)
	}
	if tpl.Styles != "" {
		if head := dom.Head(doc); head != nil {
			appendStylesheet(head, tpl.Location+tpl.Styles)
		}
	}
	return name
}
