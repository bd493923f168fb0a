package storage

import (
	"errors"
	"fmt"
	"strings"

	"wildberries-scraper/models"
)

// ErrInvalidOrdering is returned for ordering keys outside orderingColumns.
var ErrInvalidOrdering = errors.New("invalid ordering")

// orderingColumns maps public ordering keys to columns. A leading "-" flips
// the direction.
var orderingColumns = map[string]string{
	"name":             "name",
	"price":            "price",
	"discounted_price": "discounted_price",
	"rating":           "rating",
	"reviews_count":    "reviews_count",
	"created_at":       "created_at",
}

const productColumns = `id, wb_id, name, price, discounted_price, rating, reviews_count, brand, created_at, updated_at`

// ValidOrdering reports whether key is accepted by buildListSQL.
func ValidOrdering(key string) bool {
	_, err := orderClause(key)
	return err == nil
}

func orderClause(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "created_at DESC, id DESC", nil
	}
	dir := "ASC"
	if strings.HasPrefix(key, "-") {
		dir = "DESC"
		key = key[1:]
	}
	col, ok := orderingColumns[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrdering, key)
	}
	return col + " " + dir + ", id " + dir, nil
}

// buildListSQL builds the product listing query with "?" placeholders.
// Callers rebind for the target driver.
func buildListSQL(f models.ProductFilter) (string, []any, error) {
	var where []string
	var args []any

	if f.MinPrice != nil {
		where = append(where, "discounted_price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MinRating != nil {
		where = append(where, "rating >= ?")
		args = append(args, *f.MinRating)
	}
	if f.MinReviewsCount != nil {
		where = append(where, "reviews_count >= ?")
		args = append(args, *f.MinReviewsCount)
	}

	order, err := orderClause(f.Ordering)
	if err != nil {
		return "", nil, err
	}

	sqlStr := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStr += " ORDER BY " + order

	return sqlStr, args, nil
}
