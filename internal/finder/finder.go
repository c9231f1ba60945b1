// Package finder implements HTML-based icon detection strategies.
// Each Finder inspects a parsed page and optionally returns a reference to an
// icon: either a URL taken from an attribute, or inline SVG markup.
//
// Finders return the raw attribute value. Resolving relative references
// against the page URL is left to the caller.
package finder

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Kind tells how a Reference should be interpreted.
type Kind int

const (
	KindURL    Kind = iota // Value is a (possibly relative) URL
	KindMarkup             // Value is serialized inline markup
)

// Reference is an icon found in a page.
type Reference struct {
	Kind   Kind
	Value  string
	Finder string // name of the finder that produced it
}

// Finder is a single icon detection strategy.
// Small interface on purpose: a new strategy is a type with two methods.
type Finder interface {
	Name() string
	Find(doc *goquery.Document, base *url.URL) (Reference, bool)
}

// Default returns the built-in finders ordered from most to least specific.
func Default() []Finder {
	return []Finder{
		FaviconFinder{},
		AppleTouchIconFinder{},
		OpenGraphImageFinder{},
		HeaderLogoFinder{},
		SVGLogoFinder{},
	}
}

// FindFirst runs finders in order and returns the first reference found.
func FindFirst(doc *goquery.Document, base *url.URL, finders []Finder) (Reference, bool) {
	for _, f := range finders {
		if ref, ok := f.Find(doc, base); ok {
			return ref, true
		}
	}
	return Reference{}, false
}

// FindAll runs every finder and returns all references found, in finder order.
func FindAll(doc *goquery.Document, base *url.URL, finders []Finder) []Reference {
	var refs []Reference
	for _, f := range finders {
		if ref, ok := f.Find(doc, base); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// hasRelToken reports whether a space-separated rel attribute contains token.
func hasRelToken(rel, token string) bool {
	for _, t := range strings.Fields(strings.ToLower(rel)) {
		if t == token {
			return true
		}
	}
	return false
}

// firstAttr returns the named attribute of the first element in sel that
// satisfies match and has a non-empty value for it.
func firstAttr(sel *goquery.Selection, attr string, match func(*goquery.Selection) bool) (string, bool) {
	var value string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if match != nil && !match(s) {
			return true
		}
		v := strings.TrimSpace(s.AttrOr(attr, ""))
		if v == "" {
			return true
		}
		value = v
		return false
	})
	return value, value != ""
}
