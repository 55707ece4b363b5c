package catalog

import (
	"net/http"
	"time"
)

const (
	// DefaultCategory is used when no category element is found.
	DefaultCategory = "Electronics & Appliances"
	// UnspecifiedColor is the sentinel stored when no color was detected.
	UnspecifiedColor = "Not specified"
	// PriceUnavailable is stored when no price text was found.
	PriceUnavailable = "Price not available"
	// MaxImages caps the image list of a record.
	MaxImages = 5
	// MaxColors caps the color list of a record.
	MaxColors = 10
	// IDPrefix prefixes every generated product id.
	IDPrefix = "product_"
)

// Product is a single normalized catalog entry.
type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Images         []string          `json:"images"`
	Price          string            `json:"price"`
	Colors         []string          `json:"colors"`
	Category       string            `json:"category"`
	Brand          string            `json:"brand,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	SourceURL      string            `json:"sourceUrl"`
	ScrapedAt      time.Time         `json:"scrapedAt"`
	LiveScraped    bool              `json:"isLiveScraped"`
}

// Clone returns a deep copy so callers can never mutate a record they do not own.
func (p Product) Clone() Product {
	out := p
	out.Images = append([]string(nil), p.Images...)
	out.Colors = append([]string(nil), p.Colors...)
	if p.Specifications != nil {
		out.Specifications = make(map[string]string, len(p.Specifications))
		for k, v := range p.Specifications {
			out.Specifications[k] = v
		}
	}
	return out
}

// FirstImage returns the first image URL or "".
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Document is a fetched page.
type Document struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Attempts   int
}
