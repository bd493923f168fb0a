package dashboard

import (
	"strconv"

	"wildberries-scraper/models"
)

// Literal table messages.
const (
	NoResultsMessage = "No products found."
	ErrorMessage     = "Failed to load data."
	MissingRating    = "N/A"
	currency         = " ₽"
)

// TableHeaders names the product table columns.
var TableHeaders = []string{"Name", "Price", "Discounted price", "Rating", "Reviews"}

type TableRow struct {
	Name            string
	Price           string
	DiscountedPrice string
	Rating          string
	Reviews         string
}

// Cells returns the row in TableHeaders order.
func (r TableRow) Cells() []string {
	return []string{r.Name, r.Price, r.DiscountedPrice, r.Rating, r.Reviews}
}

// TableBody is the content of the table body: product rows, or a single
// message row spanning all columns. The zero value is a cleared body.
type TableBody struct {
	Rows    []TableRow
	Message string
}

// Cleared reports whether the body has no content at all.
func (b TableBody) Cleared() bool {
	return len(b.Rows) == 0 && b.Message == ""
}

// ErrorBody is the body shown when a fetch fails.
func ErrorBody() TableBody {
	return TableBody{Message: ErrorMessage}
}

// RenderTable builds the table body for products.
func RenderTable(products []models.ProductSummary) TableBody {
	if len(products) == 0 {
		return TableBody{Message: NoResultsMessage}
	}

	rows := make([]TableRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, TableRow{
			Name:            p.Name,
			Price:           strconv.Itoa(p.Price) + currency,
			DiscountedPrice: strconv.Itoa(p.DiscountedPrice) + currency,
			Rating:          formatRating(p.Rating),
			Reviews:         strconv.Itoa(p.ReviewsCount),
		})
	}
	return TableBody{Rows: rows}
}

// formatRating renders a rating, or N/A when it is absent or zero.
func formatRating(r *float64) string {
	if r == nil || *r == 0 {
		return MissingRating
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}
