package models

import "time"

// RawProduct is one entry of a Wildberries catalog page, as returned under
// data.products. Prices are in kopecks.
type RawProduct struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Brand      string   `json:"brand"`
	PriceU     int64    `json:"priceU"`
	SalePriceU int64    `json:"salePriceU"`
	Rating     *float64 `json:"rating"`
	Feedbacks  int      `json:"feedbacks"`

	Page      int       `json:"-"`
	ScrapedAt time.Time `json:"-"`
}

// Product is the cleaned record stored in the database. Prices are in roubles.
type Product struct {
	ID              int64     `db:"id" json:"id"`
	WBID            int64     `db:"wb_id" json:"wb_id"`
	Name            string    `db:"name" json:"name"`
	Price           int       `db:"price" json:"price"`
	DiscountedPrice int       `db:"discounted_price" json:"discounted_price"`
	Rating          *float64  `db:"rating" json:"rating"`
	ReviewsCount    int       `db:"reviews_count" json:"reviews_count"`
	Brand           string    `db:"brand" json:"brand"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Summary returns the public listing view of the product.
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		Name:            p.Name,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Rating:          p.Rating,
		ReviewsCount:    p.ReviewsCount,
	}
}

// ProductSummary is the record served by GET /api/products/ and consumed by
// the dashboard.
type ProductSummary struct {
	Name            string   `json:"name"`
	Price           int      `json:"price"`
	DiscountedPrice int      `json:"discounted_price"`
	Rating          *float64 `json:"rating"`
	ReviewsCount    int      `json:"reviews_count"`
}

// ProductFilter narrows a product listing. Nil fields are not applied.
type ProductFilter struct {
	MinPrice        *int
	MinRating       *float64
	MinReviewsCount *int
	Ordering        string
}

// InsightReport holds the computed analytics over the stored products.
type InsightReport struct {
	TotalProducts      int            `json:"total_products"`
	RatedProducts      int            `json:"rated_products"`
	AveragePrice       float64        `json:"average_price"`
	MedianPrice        float64        `json:"median_price"`
	MinPrice           float64        `json:"min_price"`
	MaxPrice           float64        `json:"max_price"`
	AverageDiscountPct float64        `json:"average_discount_pct"`
	DiscountRatingCorr float64        `json:"discount_rating_correlation"`
	MostExpensive      *Product       `json:"most_expensive,omitempty"`
	TopRated           []*Product     `json:"top_rated"`
	ProductsByBrand    map[string]int `json:"products_by_brand"`
}
