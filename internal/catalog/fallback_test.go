package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackIsStableAndNormalized(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	first := Fallback("https://othoba.com/electronics-appliances", now)
	second := Fallback("https://othoba.com/electronics-appliances", now)

	require.Len(t, first, 20)
	assert.Equal(t, FallbackSize, len(first))
	assert.Equal(t, first, second)

	ids := map[string]struct{}{}
	set := NewSet()
	for _, p := range first {
		assert.True(t, strings.HasPrefix(p.ID, IDPrefix), p.ID)
		ids[p.ID] = struct{}{}
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Images)
		for _, img := range p.Images {
			assert.True(t, IsAbsoluteURL(img), img)
		}
		assert.True(t, strings.HasPrefix(p.Price, "৳ "), p.Price)
		assert.NotEmpty(t, p.Brand)
		assert.Equal(t, now, p.ScrapedAt)
		assert.False(t, p.LiveScraped)

		norm := Normalize(p)
		assert.Equal(t, p.Name, norm.Name)
		assert.Equal(t, p.Images, norm.Images)
		assert.Equal(t, p.Colors, norm.Colors)

		assert.True(t, set.Add(p), "duplicate fallback record %q", p.Name)
	}
	assert.Len(t, ids, 20)
}

func TestFallbackReturnsFreshCopies(t *testing.T) {
	t.Parallel()
	first := Fallback("https://othoba.com/", time.Time{})
	first[0].Colors[0] = "mutated"
	first[0].Specifications["ram"] = "1GB"

	second := Fallback("https://othoba.com/", time.Time{})
	assert.Equal(t, "Awesome Blue", second[0].Colors[0])
	assert.Equal(t, "8GB", second[0].Specifications["ram"])
}

func TestSlug(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "lg-43-inch-4k-smart-led-tv", slug("LG 43-inch 4K Smart LED TV"))
	assert.Equal(t, "miyako-rice-cooker-2-8l", slug("Miyako Rice Cooker 2.8L"))
}
