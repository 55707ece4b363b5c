package catalog

import (
	"math"
	"sort"
)

// Stats summarizes a final product list.
type Stats struct {
	TotalProducts           int            `json:"totalProducts"`
	WithImages              int            `json:"productsWithImages"`
	WithColors              int            `json:"productsWithColors"`
	WithPrices              int            `json:"productsWithPrices"`
	WithDescriptions        int            `json:"productsWithDescriptions"`
	WithSpecifications      int            `json:"productsWithSpecifications"`
	Categories              []string       `json:"categories"`
	Brands                  []string       `json:"brands"`
	CategoryBreakdown       map[string]int `json:"categoryBreakdown"`
	BrandBreakdown          map[string]int `json:"brandBreakdown"`
	ColorsFound             []string       `json:"colorsFound"`
	AverageImagesPerProduct float64        `json:"averageImagesPerProduct"`
}

// ComputeStats derives Stats from products. Categories, brands and colors are
// sorted so the output is stable.
func ComputeStats(products []Product) Stats {
	stats := Stats{
		TotalProducts:     len(products),
		Categories:        []string{},
		Brands:            []string{},
		ColorsFound:       []string{},
		CategoryBreakdown: map[string]int{},
		BrandBreakdown:    map[string]int{},
	}
	colors := map[string]struct{}{}
	images := 0
	for _, p := range products {
		images += len(p.Images)
		if len(p.Images) > 0 {
			stats.WithImages++
		}
		if hasRealColors(p.Colors) {
			stats.WithColors++
			for _, c := range p.Colors {
				colors[c] = struct{}{}
			}
		}
		if p.Price != "" && p.Price != PriceUnavailable {
			stats.WithPrices++
		}
		if p.Description != "" {
			stats.WithDescriptions++
		}
		if len(p.Specifications) > 0 {
			stats.WithSpecifications++
		}
		if p.Category != "" {
			stats.CategoryBreakdown[p.Category]++
		}
		if p.Brand != "" {
			stats.BrandBreakdown[p.Brand]++
		}
	}
	stats.Categories = sortedKeys(stats.CategoryBreakdown)
	stats.Brands = sortedKeys(stats.BrandBreakdown)
	for c := range colors {
		stats.ColorsFound = append(stats.ColorsFound, c)
	}
	sort.Strings(stats.ColorsFound)
	if len(products) > 0 {
		avg := float64(images) / float64(len(products))
		stats.AverageImagesPerProduct = math.Round(avg*100) / 100
	}
	return stats
}

func hasRealColors(colors []string) bool {
	for _, c := range colors {
		if c != "" && c != UnspecifiedColor {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
