package dashboard

import (
	"net/url"
	"strconv"
	"strings"

	"wildberries-scraper/models"
)

// Price slider geometry.
const (
	SliderMin  = 0
	SliderMax  = 500000
	SliderStep = 1000

	DefaultPriceLower = 0
	DefaultPriceUpper = 200000
)

// Filters mirrors the dashboard widgets. MinRating, MinReviews and Ordering
// hold the raw widget text; empty means the widget is at its default.
type Filters struct {
	PriceLower int
	PriceUpper int
	MinRating  string
	MinReviews string
	Ordering   string
}

// DefaultFilters is the widget state on page load.
func DefaultFilters() Filters {
	return Filters{PriceLower: DefaultPriceLower, PriceUpper: DefaultPriceUpper}
}

// Query returns the listing query parameters. Widgets left at their default
// are omitted. The upper price bound is never sent; the API does not support it.
func (f Filters) Query() url.Values {
	params := url.Values{}
	if f.PriceLower > 0 {
		params.Set("min_price", strconv.Itoa(f.PriceLower))
	}
	if v := strings.TrimSpace(f.MinRating); v != "" {
		params.Set("min_rating", v)
	}
	if v := strings.TrimSpace(f.MinReviews); v != "" {
		params.Set("min_reviews_count", v)
	}
	if v := strings.TrimSpace(f.Ordering); v != "" {
		params.Set("ordering", v)
	}
	return params
}

// WithinUpperBound keeps the products whose discounted price does not exceed
// the upper slider bound. The input slice is not modified.
func (f Filters) WithinUpperBound(products []models.ProductSummary) []models.ProductSummary {
	out := make([]models.ProductSummary, 0, len(products))
	for _, p := range products {
		if p.DiscountedPrice <= f.PriceUpper {
			out = append(out, p)
		}
	}
	return out
}

// SnapPrice clamps v to the slider range and rounds it to the nearest step.
func SnapPrice(v int) int {
	if v <= SliderMin {
		return SliderMin
	}
	if v >= SliderMax {
		return SliderMax
	}
	return (v + SliderStep/2) / SliderStep * SliderStep
}

// snapRange snaps both handles and keeps them ordered.
func snapRange(lower, upper int) (int, int) {
	lower, upper = SnapPrice(lower), SnapPrice(upper)
	if lower > upper {
		lower, upper = upper, lower
	}
	return lower, upper
}
