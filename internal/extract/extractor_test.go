package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
)

type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time {
	return f.now
}

const listingPage = `<html><head><script>var tpl = "<div class='product-card'>";</script><style>.x{}</style></head><body>
<div class="product-card">
  <h3 class="product-name">  Samsung   Galaxy A54  </h3>
  <p class="description">Great phone</p>
  <img src="/img/a54.png">
  <img src="data:image/png;base64,xx">
  <img src="/img/placeholder.png" data-src="//cdn.x.com/a54-2.png">
  <span class="price">৳ 42,999</span>
  <span class="color-option" title="Awesome Blue"></span>
  <a class="cat-link">Mobile Phones</a>
</div>
<div class="product-card"><h3>Apple iPhone 14 Midnight</h3><img src="https://cdn.x.com/ip14.png"></div>
<div class="product-card"><h3>No Image Phone</h3></div>
<div class="product-card"><img src="/img/x.png"></div>
</body></html>`

func newTestExtractor() *Extractor {
	return New(DefaultConfig(), fakeClock{now: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}, zap.NewNop())
}

func TestExtractPage(t *testing.T) {
	t.Parallel()
	e := newTestExtractor()

	res, err := e.ExtractPage([]byte(listingPage), "https://othoba.com/electronics-appliances")
	require.NoError(t, err)
	assert.Equal(t, ".product-card", res.Selector)
	assert.False(t, res.Heuristic)
	assert.Equal(t, 4, res.Containers)
	assert.Equal(t, 2, res.Rejected)
	require.Len(t, res.Candidates, 2)

	first := res.Candidates[0]
	assert.Equal(t, "Samsung Galaxy A54", first.Name)
	assert.Equal(t, "Great phone", first.Description)
	assert.Equal(t, []string{"https://othoba.com/img/a54.png", "https://cdn.x.com/a54-2.png"}, first.Images)
	assert.Equal(t, "৳ 42,999", first.Price)
	assert.Equal(t, []string{"Awesome Blue"}, first.Colors)
	assert.Equal(t, "Mobile Phones", first.Category)
	assert.Equal(t, "Samsung", first.Brand)
	assert.Equal(t, "https://othoba.com/electronics-appliances", first.SourceURL)
	assert.True(t, first.LiveScraped)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), first.ScrapedAt)
	assert.Empty(t, first.ID)

	second := res.Candidates[1]
	assert.Equal(t, "Apple iPhone 14 Midnight", second.Name)
	assert.Equal(t, []string{"midnight"}, second.Colors)
	assert.Equal(t, "Apple", second.Brand)
	assert.Empty(t, second.Price)
	assert.Empty(t, second.Category)
}

func TestExtractPageHeuristic(t *testing.T) {
	t.Parallel()
	e := newTestExtractor()
	page := `<body><section><img src="/a.png"><h4>Walton Fridge</h4><b>৳ 45,000</b></section></body>`

	res, err := e.ExtractPage([]byte(page), "https://othoba.com/")
	require.NoError(t, err)
	assert.True(t, res.Heuristic)
	assert.Equal(t, "heuristic", res.Selector)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "Walton Fridge", res.Candidates[0].Name)
	assert.Equal(t, []string{"https://othoba.com/a.png"}, res.Candidates[0].Images)
}

func TestExtractPageNoContainers(t *testing.T) {
	t.Parallel()
	e := newTestExtractor()
	_, err := e.ExtractPage([]byte(`<p>Nothing for sale</p>`), "https://othoba.com/")
	assert.ErrorIs(t, err, catalog.ErrNoProducts)
}

func TestExtractPageBadURL(t *testing.T) {
	t.Parallel()
	e := newTestExtractor()
	_, err := e.ExtractPage([]byte(listingPage), "://bad")
	require.Error(t, err)
}

func TestExtractPageCapsCandidates(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	b.WriteString("<body>")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, `<div class="product-item"><h3>Item %d</h3><img src="/img/%d.png"></div>`, i, i)
	}
	b.WriteString("</body>")

	res, err := newTestExtractor().ExtractPage([]byte(b.String()), "https://othoba.com/")
	require.NoError(t, err)
	assert.Equal(t, 60, res.Containers)
	assert.Len(t, res.Candidates, 50)
}

func TestExtractPageScriptsAreIgnored(t *testing.T) {
	t.Parallel()
	page := `<body><noscript><div class="product-item"><h3>Ghost</h3><img src="/g.png"></div></noscript>
<section><img src="/a.png"><h4>Real Item</h4><span>Tk 10</span></section></body>`
	res, err := newTestExtractor().ExtractPage([]byte(page), "https://othoba.com/")
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "Real Item", res.Candidates[0].Name)
}

func TestRejectReason(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "no_name", rejectReason(&catalog.ExtractionError{Err: catalog.ErrNoName}))
	assert.Equal(t, "no_images", rejectReason(&catalog.ExtractionError{Err: catalog.ErrNoImages}))
	assert.Equal(t, "error", rejectReason(errors.New("boom")))
}

func TestExtractPageContainsElementPanic(t *testing.T) {
	t.Parallel()
	e := newTestExtractor()
	e.element = func(el *goquery.Selection, base *url.URL) (catalog.Product, error) {
		if strings.Contains(el.Text(), "Samsung") {
			panic("malformed card markup")
		}
		return Element(el, base)
	}

	res, err := e.ExtractPage([]byte(listingPage), "https://othoba.com/electronics-appliances")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Containers)
	assert.Equal(t, 3, res.Rejected)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "Apple iPhone 14 Midnight", res.Candidates[0].Name)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingPage))
	require.NoError(t, err)
	base, err := url.Parse("https://othoba.com/")
	require.NoError(t, err)
	_, err = e.candidate(7, doc.Find(".product-card").First(), base)
	var extractErr *catalog.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, 7, extractErr.Index)
	assert.Contains(t, extractErr.Error(), "panic")
	assert.Equal(t, "error", rejectReason(err))
}
