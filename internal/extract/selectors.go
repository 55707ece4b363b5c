package extract

import "github.com/JakeFAU/product-catalog-extractor/internal/selector"

// ContainerSelectors are tried in order to find product cards on a listing page.
var ContainerSelectors = []selector.Selector{
	".product-item",
	".product-card",
	".item",
	".product",
	"[data-product]",
	".grid-item",
	".list-item",
	".card",
	".product-box",
	".item-box",
	".product-wrapper",
}

var nameSelectors = []selector.Selector{
	".product-name",
	".product-title",
	".item-title",
	".card-title",
	"[data-product-name]",
	".title",
	".name",
	"h3",
	"h4",
	"h2",
	"h5",
	"[class*='name']",
	"[class*='title']",
}

var descriptionSelectors = []selector.Selector{
	".product-description",
	".product-details",
	".description",
	".details",
	".summary",
	".product-summary",
	".short-desc",
	"[class*='desc']",
	"p",
}

var imageAttributes = []string{"src", "data-src", "data-lazy", "data-original"}

var priceSelectors = []selector.Selector{
	".price",
	".product-price",
	".current-price",
	".sale-price",
	".regular-price",
	".cost",
	".amount",
	"[data-price]",
	"[class*='price']",
}

var swatchSelectors = []selector.Selector{
	".color-option",
	".variant",
	".color",
	".swatch",
	"[data-color]",
	".color-selector",
	".attribute-color",
}

var categorySelectors = []selector.Selector{
	".category",
	".product-category",
	".breadcrumb",
	"[data-category]",
	".cat-link",
	"[class*='category']",
}
