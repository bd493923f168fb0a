package services

import (
	"strings"
	"time"
	"unicode"

	"wildberries-scraper/models"
	"wildberries-scraper/utils"
)

const (
	maxNameLen  = 255
	maxBrandLen = 100
	// catalog prices are in kopecks
	kopecksPerRouble = 100
)

// Cleaner transforms RawProducts into clean, validated Products.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean processes raw products and returns cleaned records. Products without
// an id or with negative prices are dropped; repeated ids keep the first.
func (c *Cleaner) Clean(raw []*models.RawProduct) []*models.Product {
	seen := make(map[int64]struct{})
	result := make([]*models.Product, 0, len(raw))
	now := time.Now().UTC()

	for _, r := range raw {
		if r.ID <= 0 {
			c.logger.Warn("[cleaner] Dropping product without id: %q", r.Name)
			continue
		}

		if _, dup := seen[r.ID]; dup {
			c.logger.Debug("[cleaner] Duplicate id skipped: %d", r.ID)
			continue
		}
		seen[r.ID] = struct{}{}

		if r.PriceU < 0 || r.SalePriceU < 0 || r.Feedbacks < 0 {
			c.logger.Warn("[cleaner] Dropping product %d with negative values", r.ID)
			continue
		}

		brand := truncateRunes(normaliseText(r.Brand), maxBrandLen)
		if brand == "" {
			brand = "Unknown"
		}

		product := &models.Product{
			WBID:            r.ID,
			Name:            truncateRunes(normaliseText(r.Name), maxNameLen),
			Price:           int(r.PriceU / kopecksPerRouble),
			DiscountedPrice: int(r.SalePriceU / kopecksPerRouble),
			Rating:          cleanRating(r.Rating),
			ReviewsCount:    r.Feedbacks,
			Brand:           brand,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		result = append(result, product)
	}

	c.logger.Info("[cleaner] Cleaned %d -> %d products (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// cleanRating keeps ratings within 0..5 and treats anything else as absent.
func cleanRating(r *float64) *float64 {
	if r == nil || *r < 0 || *r > 5 {
		return nil
	}
	v := *r
	return &v
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
