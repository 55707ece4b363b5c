package aggregator

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSubPageKeywords select category links worth sweeping.
var DefaultSubPageKeywords = []string{"mobile", "laptop", "tv", "camera", "headphone", "speaker"}

// DiscoverSubPages returns up to limit absolute http(s) links from body whose
// anchor text contains one of keywords. The base page itself is excluded.
func DiscoverSubPages(body []byte, baseURL string, keywords []string, limit int) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	seen := map[string]struct{}{canonical(base): {}}
	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if limit > 0 && len(links) >= limit {
			return false
		}
		if !matchesKeyword(a.Text(), keywords) {
			return true
		}
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		abs.Fragment = ""
		key := canonical(abs)
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		links = append(links, abs.String())
		return true
	})
	return links, nil
}

func matchesKeyword(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func canonical(u *url.URL) string {
	c := *u
	c.Fragment = ""
	return strings.TrimSuffix(c.String(), "/")
}
