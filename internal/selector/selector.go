// Package selector resolves product containers in a parsed page. Candidate
// selectors are tried strictly in order and the first one matching enough
// elements wins; when none does, a structural scan looks for containers that
// hold an image next to price-like text.
package selector

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// Selector is a CSS selector.
type Selector string

// Outcome tags a Result.
type Outcome int

const (
	// Unmatched means nothing qualified.
	Unmatched Outcome = iota
	// Matched means a candidate selector reached the threshold.
	Matched
	// Scanned means the structural heuristic produced the elements.
	Scanned
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Scanned:
		return "heuristic"
	default:
		return "unmatched"
	}
}

// HeuristicLabel names the structural scan in logs and results.
const HeuristicLabel = "heuristic"

var genericContainers = "div, li, article, section"

var currencyIndicator = regexp.MustCompile(`(?i)[0-9]|৳|\btk\b|\bprice\b|\$|€|£|₹`)

// Result is the outcome of a resolution.
type Result struct {
	Outcome  Outcome
	Elements *goquery.Selection
	Index    int
	Selector Selector
}

// OK reports whether the result carries elements.
func (r Result) OK() bool {
	return r.Outcome != Unmatched
}

// Label returns the selector text or the heuristic label.
func (r Result) Label() string {
	switch r.Outcome {
	case Matched:
		return string(r.Selector)
	case Scanned:
		return HeuristicLabel
	default:
		return ""
	}
}

// Len returns the number of resolved elements.
func (r Result) Len() int {
	if r.Elements == nil {
		return 0
	}
	return r.Elements.Length()
}

// Resolve returns the first candidate whose match count under root reaches
// minMatches. Later candidates are never evaluated once one wins.
func Resolve(root *goquery.Selection, candidates []Selector, minMatches int) Result {
	if minMatches < 1 {
		minMatches = 1
	}
	for i, sel := range candidates {
		found := root.Find(string(sel))
		if found.Length() >= minMatches {
			return Result{Outcome: Matched, Elements: found, Index: i, Selector: sel}
		}
	}
	return Result{Outcome: Unmatched, Index: -1}
}

// ResolveFirst returns the first element matched by any candidate, in order.
func ResolveFirst(root *goquery.Selection, candidates []Selector) Result {
	for i, sel := range candidates {
		found := root.Find(string(sel))
		if found.Length() > 0 {
			return Result{Outcome: Matched, Elements: found.First(), Index: i, Selector: sel}
		}
	}
	return Result{Outcome: Unmatched, Index: -1}
}

// ResolveOrScan is Resolve followed by Scan when no candidate qualifies.
func ResolveOrScan(root *goquery.Selection, candidates []Selector, minMatches int) Result {
	if res := Resolve(root, candidates, minMatches); res.OK() {
		return res
	}
	return Scan(root)
}

// Scan walks generic containers in document order and keeps those holding at
// least one image and some price-like text. Every qualifying container is kept,
// including ancestors of other qualifying containers.
func Scan(root *goquery.Selection) Result {
	kept := root.Find(genericContainers).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("img").Length() > 0 && HasPriceText(s.Text())
	})
	if kept.Length() == 0 {
		return Result{Outcome: Unmatched, Index: -1}
	}
	return Result{Outcome: Scanned, Elements: kept, Index: -1, Selector: HeuristicLabel}
}

// HasPriceText reports whether text contains a digit or a currency token.
func HasPriceText(text string) bool {
	return currencyIndicator.MatchString(text)
}
