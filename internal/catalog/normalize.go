package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var absoluteURL = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// CollapseSpace trims s and folds every run of whitespace into a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsAbsoluteURL reports whether u carries a scheme.
func IsAbsoluteURL(u string) bool {
	return absoluteURL.MatchString(u)
}

// Origin returns scheme://host of u.
func Origin(u *url.URL) string {
	if u == nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

// ResolveURL makes src absolute against the site of base. Rules apply in order:
// protocol-relative sources get https, root-relative sources get the origin,
// absolute sources are kept, and anything else is appended to the origin.
func ResolveURL(base *url.URL, src string) string {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "/"):
		return Origin(base) + src
	case IsAbsoluteURL(src):
		return src
	default:
		return Origin(base) + "/" + src
	}
}

// UsableImage reports whether an image source should be kept at all.
func UsableImage(src string) bool {
	src = strings.TrimSpace(src)
	if src == "" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(src), "data:") {
		return false
	}
	return !strings.Contains(strings.ToLower(src), "placeholder")
}

// Normalize canonicalizes the text and list fields of p. Applying it twice
// yields the same record.
func Normalize(p Product) Product {
	out := p.Clone()
	out.Name = CollapseSpace(p.Name)
	out.Description = CollapseSpace(p.Description)
	out.Price = CollapseSpace(p.Price)
	out.Category = CollapseSpace(p.Category)
	out.Brand = CollapseSpace(p.Brand)

	base, _ := url.Parse(p.SourceURL)
	out.Images = normalizeImages(base, p.Images)
	out.Colors = normalizeColors(p.Colors)
	return out
}

func normalizeImages(base *url.URL, images []string) []string {
	seen := make(map[string]struct{}, len(images))
	out := make([]string, 0, len(images))
	for _, src := range images {
		if !UsableImage(src) {
			continue
		}
		abs := ResolveURL(base, src)
		if !IsAbsoluteURL(abs) {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
		if len(out) == MaxImages {
			break
		}
	}
	return out
}

func normalizeColors(colors []string) []string {
	seen := make(map[string]struct{}, len(colors))
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		c = CollapseSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
		if len(out) == MaxColors {
			break
		}
	}
	// The sentinel only stands in for an otherwise empty list.
	if len(out) > 1 {
		filtered := out[:0]
		for _, c := range out {
			if c != UnspecifiedColor {
				filtered = append(filtered, c)
			}
		}
		out = filtered
	}
	if len(out) == 0 {
		return []string{UnspecifiedColor}
	}
	return out
}

// Finalize assigns an id to p when it has none and fills the documented
// defaults for missing description, price and category.
func Finalize(p Product, ids IDGenerator) (Product, error) {
	out := p.Clone()
	if out.ID == "" {
		id, err := ids.NewID()
		if err != nil {
			return Product{}, fmt.Errorf("generate product id: %w", err)
		}
		out.ID = IDPrefix + id
	}
	if out.Description == "" {
		out.Description = DefaultDescription(out.Name, out.SourceURL)
	}
	if out.Price == "" {
		out.Price = PriceUnavailable
	}
	if out.Category == "" {
		out.Category = DefaultCategory
	}
	if len(out.Colors) == 0 {
		out.Colors = []string{UnspecifiedColor}
	}
	return out, nil
}

// DefaultDescription builds the description used when a page offers none.
func DefaultDescription(name, sourceURL string) string {
	host := sourceURL
	if u, err := url.Parse(sourceURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("%s - Electronics item from %s", name, host)
}
