// Package detector flags pages whose product grid is likely populated by
// client-side script, so an empty extraction can be told apart from a page
// that simply has no products.
package detector

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
)

// DefaultBodyLengthThreshold is the size under which script density is checked.
const DefaultBodyLengthThreshold = 2048

// appRootSelectors match mount points of common single-page frameworks.
const appRootSelectors = `#__next, #root, #app, [data-reactroot], [ng-app], [data-v-app]`

// Heuristic implements a handful of rule-based checks.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a new detector. A zero threshold uses the default.
func NewHeuristic(threshold int) *Heuristic {
	if threshold <= 0 {
		threshold = DefaultBodyLengthThreshold
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

// ScriptRendered reports whether doc looks like a shell that needs script
// execution to show its content.
func (h *Heuristic) ScriptRendered(doc catalog.Document) bool {
	if doc.StatusCode >= 300 {
		return false
	}
	body := bytes.TrimSpace(doc.Body)
	if len(body) == 0 {
		return true
	}
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	if parsed.Find(appRootSelectors).Length() > 0 {
		return true
	}
	return len(body) < h.BodyLengthThreshold && scriptDensityHigh(parsed, len(body))
}

// scriptDensityHigh is true when inline script text makes up a quarter or more of the page.
func scriptDensityHigh(doc *goquery.Document, total int) bool {
	coverage := 0
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		html, err := goquery.OuterHtml(s)
		if err == nil {
			coverage += len(html)
		}
	})
	if coverage == 0 {
		return false
	}
	return coverage*100/total >= 25
}
