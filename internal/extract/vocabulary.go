package extract

import (
	"regexp"
	"strings"
)

// colorVocabulary is matched as lowercase substrings; every hit is kept, so
// "rose gold" also reports "gold".
var colorVocabulary = []string{
	"rose gold",
	"space gray",
	"space grey",
	"deep purple",
	"sierra blue",
	"alpine green",
	"product red",
	"midnight",
	"starlight",
	"graphite",
	"black",
	"white",
	"red",
	"blue",
	"green",
	"yellow",
	"orange",
	"purple",
	"pink",
	"brown",
	"gray",
	"grey",
	"silver",
	"gold",
}

var knownBrands = []string{
	"Samsung", "Apple", "Xiaomi", "Redmi", "Realme", "Oppo", "Vivo", "OnePlus", "Nokia", "Huawei",
	"Dell", "HP", "Lenovo", "Asus", "Acer", "MSI",
	"LG", "Sony", "Panasonic", "Toshiba", "Hisense", "TCL",
	"JBL", "Bose", "Anker",
	"Canon", "Nikon", "Fujifilm", "GoPro",
	"Walton", "Vision", "Singer", "Sharp", "Philips", "Miyako", "Jamuna", "Minister",
}

var brandPatterns = wordPatterns(knownBrands)

func wordPatterns(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// ColorsInText returns every vocabulary color contained in text, compared
// case-insensitively, in vocabulary order.
func ColorsInText(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, color := range colorVocabulary {
		if strings.Contains(lower, color) {
			out = append(out, color)
		}
	}
	return out
}

// BrandOf returns the first known brand named in name, or "".
func BrandOf(name string) string {
	for i, re := range brandPatterns {
		if re.MatchString(name) {
			return knownBrands[i]
		}
	}
	return ""
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
