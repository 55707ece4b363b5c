package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverSubPages(t *testing.T) {
	t.Parallel()
	body := []byte(`<body>
		<a href="/mobile">Mobile</a>
		<a href="https://othoba.com/mobile#deals">Mobile deals</a>
		<a href="laptop-bags">Laptop Bags</a>
		<a href="javascript:void(0)">Camera</a>
		<a href="//cdn.othoba.com/headphones">Headphones</a>
		<a href="/speakers">Speakers</a>
		<a href="/electronics-appliances/">TV &amp; more</a>
		<a href="/kitchen">Kitchen</a>
	</body>`)

	links, err := DiscoverSubPages(body, "https://othoba.com/electronics-appliances", DefaultSubPageKeywords, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://othoba.com/mobile",
		"https://othoba.com/laptop-bags",
		"https://cdn.othoba.com/headphones",
		"https://othoba.com/speakers",
	}, links)

	limited, err := DiscoverSubPages(body, "https://othoba.com/electronics-appliances", DefaultSubPageKeywords, 3)
	require.NoError(t, err)
	assert.Len(t, limited, 3)
}

func TestDiscoverSubPagesBadBase(t *testing.T) {
	t.Parallel()
	_, err := DiscoverSubPages([]byte("<a href='/tv'>TV</a>"), "://bad", DefaultSubPageKeywords, 3)
	require.Error(t, err)
}
