package finder

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Header-like regions that usually hold the site logo.
const (
	headerImgSelector = "header img, #header img, #logo img, .logo img"
	headerSVGSelector = "header svg, #header svg, #logo svg, .logo svg"
)

// HeaderLogoFinder returns the src of the first <img> inside a header or
// logo container.
type HeaderLogoFinder struct{}

func (HeaderLogoFinder) Name() string { return "header-logo" }

func (f HeaderLogoFinder) Find(doc *goquery.Document, _ *url.URL) (Reference, bool) {
	src, ok := firstAttr(doc.Find(headerImgSelector), "src", nil)
	if !ok {
		return Reference{}, false
	}
	return Reference{Kind: KindURL, Value: src, Finder: f.Name()}, true
}

// SVGLogoFinder returns the serialized markup of the first inline <svg>
// inside a header or logo container.
type SVGLogoFinder struct{}

func (SVGLogoFinder) Name() string { return "svg-logo" }

func (f SVGLogoFinder) Find(doc *goquery.Document, _ *url.URL) (Reference, bool) {
	sel := doc.Find(headerSVGSelector).First()
	if sel.Length() == 0 {
		return Reference{}, false
	}

	markup, err := goquery.OuterHtml(sel)
	if err != nil || strings.TrimSpace(markup) == "" {
		return Reference{}, false
	}
	return Reference{Kind: KindMarkup, Value: markup, Finder: f.Name()}, true
}
