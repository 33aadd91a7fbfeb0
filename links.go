package blockload

import (
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/pthm/blockload/lib/dom"
)

var anchorSelector = cascadia.MustCompile("a[href]")

// RuntimeDomain returns protocol, host and, when not the scheme default,
// port of u: "https://shop.example:8443". A nil URL yields "".
func RuntimeDomain(u *url.URL) string {
	if u == nil || u.Host == "" {
		return ""
	}
	host := u.Hostname()
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	domain := u.Scheme + "://" + host
	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		domain += ":" + port
	}
	return domain
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// RewriteLinks replaces the first occurrence of canonical with current in
// the href of every anchor under root. It is a plain substring match and
// returns the number of anchors changed.
func RewriteLinks(root *html.Node, canonical, current string) int {
	if canonical == "" || current == "" || canonical == current {
		return 0
	}
	n := 0
	for _, a := range dom.QueryAll(root, anchorSelector) {
		href, _ := dom.Attr(a, "href")
		if !strings.Contains(href, canonical) {
			continue
		}
		dom.SetAttr(a, "href", strings.Replace(href, canonical, current, 1))
		n++
	}
	return n
}
