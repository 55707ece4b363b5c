// Package export renders a run result into the catalog document and scraping
// summary and writes both to a blob store.
package export

import (
	"time"

	"github.com/JakeFAU/product-catalog-extractor/internal/aggregator"
	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
)

const (
	documentName    = "othoba-electronics-products"
	documentVersion = "2.0.0"

	methodologyLive     = "Live scraping"
	methodologyFallback = "Curated fallback catalog"
)

var documentKeywords = []string{
	"electronics",
	"othoba",
	"products",
	"scraping",
	"mobile",
	"laptop",
	"tv",
	"appliances",
	"bangladesh",
	"ecommerce",
}

// ScrapingInfo records where and how the products were collected.
type ScrapingInfo struct {
	SourceURL      string    `json:"sourceUrl"`
	ScrapedAt      time.Time `json:"scrapedAt"`
	TotalProducts  int       `json:"totalProducts"`
	Methodology    string    `json:"methodology"`
	PagesFetched   int       `json:"pagesFetched"`
	FallbackReason string    `json:"fallbackReason,omitempty"`
}

// Document is the exported catalog.
type Document struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description"`
	Keywords     []string          `json:"keywords"`
	ScrapingInfo ScrapingInfo      `json:"scrapingInfo"`
	Products     []catalog.Product `json:"electronics_products"`
	Stats        catalog.Stats     `json:"productStats"`
}

// Summary is the short run report written next to the document.
type Summary struct {
	TotalProducts           int       `json:"total_products"`
	LiveProducts            int       `json:"live_products"`
	UsedFallback            bool      `json:"used_fallback"`
	CategoriesFound         []string  `json:"categories_found"`
	ColorsFound             []string  `json:"colors_found"`
	AverageImagesPerProduct float64   `json:"average_images_per_product"`
	ScrapingDate            time.Time `json:"scraping_date"`
	SourceURL               string    `json:"source_url"`
}

// BuildDocument renders res as a Document.
func BuildDocument(res aggregator.Result) Document {
	methodology := methodologyLive
	if res.UsedFallback {
		methodology = methodologyFallback
	}
	products := res.Products
	if products == nil {
		products = []catalog.Product{}
	}
	return Document{
		Name:        documentName,
		Version:     documentVersion,
		Description: "Electronics products database from Othoba.com with specifications, colors, and images",
		Keywords:    append([]string(nil), documentKeywords...),
		ScrapingInfo: ScrapingInfo{
			SourceURL:      res.BaseURL,
			ScrapedAt:      res.FinishedAt,
			TotalProducts:  len(products),
			Methodology:    methodology,
			PagesFetched:   res.PagesFetched,
			FallbackReason: res.FallbackReason,
		},
		Products: products,
		Stats:    res.Stats,
	}
}

// BuildSummary renders res as a Summary.
func BuildSummary(res aggregator.Result) Summary {
	live := 0
	for _, p := range res.Products {
		if p.LiveScraped {
			live++
		}
	}
	return Summary{
		TotalProducts:           res.Stats.TotalProducts,
		LiveProducts:            live,
		UsedFallback:            res.UsedFallback,
		CategoriesFound:         res.Stats.Categories,
		ColorsFound:             res.Stats.ColorsFound,
		AverageImagesPerProduct: res.Stats.AverageImagesPerProduct,
		ScrapingDate:            res.FinishedAt,
		SourceURL:               res.BaseURL,
	}
}
