package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
	"github.com/JakeFAU/product-catalog-extractor/internal/selector"
)

const (
	minDirectNameRunes = 2
	maxDirectNameRunes = 200
	maxSwatchRunes     = 50
)

// Element reads one candidate container into an unnormalized product. It
// returns catalog.ErrNoName or catalog.ErrNoImages when the candidate fails
// the acceptance gate.
func Element(el *goquery.Selection, base *url.URL) (catalog.Product, error) {
	name := Name(el)
	if name == "" {
		return catalog.Product{}, catalog.ErrNoName
	}
	description := Description(el, name)
	images := Images(el, base)
	if len(images) == 0 {
		return catalog.Product{}, catalog.ErrNoImages
	}
	return catalog.Product{
		Name:        name,
		Description: description,
		Images:      images,
		Price:       Price(el),
		Colors:      Colors(el, name, description),
		Category:    Category(el),
		Brand:       BrandOf(name),
	}, nil
}

// Name walks the name cascade: explicit classes, headings, class patterns,
// anchor titles, image alt text, and finally the element's own text.
func Name(el *goquery.Selection) string {
	if text := firstText(el, nameSelectors); text != "" {
		return text
	}
	if text := firstAttr(el, "a[title]", "title"); text != "" {
		return text
	}
	if text := firstAttr(el, "img[alt]", "alt"); text != "" {
		return text
	}
	direct := catalog.CollapseSpace(el.Clone().Children().Remove().End().Text())
	if n := utf8.RuneCountInString(direct); n >= minDirectNameRunes && n <= maxDirectNameRunes {
		return direct
	}
	return ""
}

// Description returns the first non-empty description that differs from name.
func Description(el *goquery.Selection, name string) string {
	for _, sel := range descriptionSelectors {
		text := catalog.CollapseSpace(el.Find(string(sel)).First().Text())
		if text != "" && text != name {
			return text
		}
	}
	return ""
}

// Images collects absolute image URLs, dropping inline data and placeholders.
func Images(el *goquery.Selection, base *url.URL) []string {
	seen := map[string]struct{}{}
	var out []string
	el.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		for _, attr := range imageAttributes {
			src, ok := img.Attr(attr)
			if !ok || !catalog.UsableImage(src) {
				continue
			}
			abs := catalog.ResolveURL(base, src)
			if _, dup := seen[abs]; !dup {
				seen[abs] = struct{}{}
				out = append(out, abs)
			}
			break
		}
		return len(out) < catalog.MaxImages
	})
	return out
}

// Price returns the first price text that contains a digit, verbatim apart
// from whitespace.
func Price(el *goquery.Selection) string {
	for _, sel := range priceSelectors {
		text := catalog.CollapseSpace(el.Find(string(sel)).First().Text())
		if hasDigit(text) {
			return text
		}
	}
	return ""
}

// Colors prefers explicit swatches and falls back to scanning name and
// description for known color words.
func Colors(el *goquery.Selection, name, description string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, sel := range swatchSelectors {
		el.Find(string(sel)).Each(func(_ int, s *goquery.Selection) {
			v := swatchValue(s)
			if v == "" {
				return
			}
			key := strings.ToLower(v)
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			out = append(out, v)
		})
	}
	if len(out) > 0 {
		return out
	}
	return ColorsInText(name + " " + description)
}

func swatchValue(s *goquery.Selection) string {
	candidates := []string{catalog.CollapseSpace(s.Text())}
	for _, attr := range []string{"data-color", "title", "alt"} {
		v, _ := s.Attr(attr)
		candidates = append(candidates, catalog.CollapseSpace(v))
	}
	for _, v := range candidates {
		if v != "" && utf8.RuneCountInString(v) < maxSwatchRunes {
			return v
		}
	}
	return ""
}

// Category returns the first non-empty category text.
func Category(el *goquery.Selection) string {
	return firstText(el, categorySelectors)
}

func firstText(el *goquery.Selection, candidates []selector.Selector) string {
	for _, sel := range candidates {
		text := catalog.CollapseSpace(el.Find(string(sel)).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(el *goquery.Selection, sel, attr string) string {
	var out string
	el.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr(attr)
		out = catalog.CollapseSpace(v)
		return out == ""
	})
	return out
}
