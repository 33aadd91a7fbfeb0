package blockload

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/pthm/blockload/lib/dom"
)

const (
	variantSentinel  = "-"
	variantDelimiter = "--"
)

// NormalizeVariants expands compound variant classes below root into
// discrete tokens: "marquee--small--contained-" becomes "marquee small
// contained". Root itself is left alone. It returns the number of
// elements rewritten.
//
// Trailing dashes are trimmed from every produced token, so no token ends
// in the sentinel and a second pass changes nothing.
func NormalizeVariants(root *html.Node) int {
	rewritten := 0
	dom.Elements(root, func(el *html.Node) {
		var compound []string
		for _, c := range dom.Classes(el) {
			if strings.HasSuffix(c, variantSentinel) {
				compound = append(compound, c)
			}
		}
		if len(compound) == 0 {
			return
		}
		for _, c := range compound {
			dom.RemoveClass(el, c)
			dom.AddClass(el, ExpandVariant(c)...)
		}
		rewritten++
	})
	return rewritten
}

// ExpandVariant splits one compound class into its tokens.
func ExpandVariant(class string) []string {
	trimmed := strings.TrimSuffix(class, variantSentinel)
	var out []string
	for _, part := range strings.Split(trimmed, variantDelimiter) {
		part = strings.TrimRight(part, variantSentinel)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
