package detector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
)

func TestHeuristic_ScriptRendered_EmptyBody(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(100)
	require.True(t, h.ScriptRendered(catalog.Document{StatusCode: 200, Body: []byte("  ")}))
}

func TestHeuristic_ScriptRendered_AppRoot(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(100)
	for _, body := range []string{
		`<html><body><div id="__next"></div></body></html>`,
		`<html><body><div id="root"></div></body></html>`,
		`<html><body><main data-reactroot=""></main></body></html>`,
	} {
		require.True(t, h.ScriptRendered(catalog.Document{StatusCode: 200, Body: []byte(body)}), body)
	}
}

func TestHeuristic_ScriptRendered_ScriptDensity(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(1000)
	doc := catalog.Document{
		StatusCode: 200,
		Body:       []byte(`<html><script>var a=1;</script><p>t</p></html>`),
	}
	require.True(t, h.ScriptRendered(doc))
}

func TestHeuristic_ScriptRendered_StaticListing(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(0)
	require.Equal(t, DefaultBodyLengthThreshold, h.BodyLengthThreshold)
	doc := catalog.Document{
		StatusCode: 200,
		Body: []byte(`<html><body><div class="product-item"><img src="/a.jpg">` +
			`<h3>Walton Fridge</h3><span class="price">৳ 45,000</span></div>` +
			`<script>track();</script></body></html>`),
	}
	require.False(t, h.ScriptRendered(doc))
}

func TestHeuristic_ScriptRendered_DisabledForNon2xx(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(100)
	require.False(t, h.ScriptRendered(catalog.Document{StatusCode: 404, Body: []byte("not found")}))
}
