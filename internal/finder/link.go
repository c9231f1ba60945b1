package finder

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// FaviconFinder returns the href of the first <link rel="icon"> or
// <link rel="shortcut icon">. Matching is case-insensitive.
type FaviconFinder struct{}

func (FaviconFinder) Name() string { return "favicon" }

func (f FaviconFinder) Find(doc *goquery.Document, _ *url.URL) (Reference, bool) {
	href, ok := firstAttr(doc.Find("link[rel]"), "href", func(s *goquery.Selection) bool {
		return hasRelToken(s.AttrOr("rel", ""), "icon")
	})
	if !ok {
		return Reference{}, false
	}
	return Reference{Kind: KindURL, Value: href, Finder: f.Name()}, true
}

// AppleTouchIconFinder returns the href of the first <link rel="apple-touch-icon">.
type AppleTouchIconFinder struct{}

func (AppleTouchIconFinder) Name() string { return "apple-touch-icon" }

func (f AppleTouchIconFinder) Find(doc *goquery.Document, _ *url.URL) (Reference, bool) {
	href, ok := firstAttr(doc.Find("link[rel]"), "href", func(s *goquery.Selection) bool {
		return hasRelToken(s.AttrOr("rel", ""), "apple-touch-icon")
	})
	if !ok {
		return Reference{}, false
	}
	return Reference{Kind: KindURL, Value: href, Finder: f.Name()}, true
}

// OpenGraphImageFinder returns the content of <meta property="og:image">.
type OpenGraphImageFinder struct{}

func (OpenGraphImageFinder) Name() string { return "og-image" }

func (f OpenGraphImageFinder) Find(doc *goquery.Document, _ *url.URL) (Reference, bool) {
	content, ok := firstAttr(doc.Find(`meta[property="og:image"]`), "content", nil)
	if !ok {
		return Reference{}, false
	}
	return Reference{Kind: KindURL, Value: content, Finder: f.Name()}, true
}
