package storage

import (
	"errors"
	"testing"

	"wildberries-scraper/models"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestBuildListSQLNoFilters(t *testing.T) {
	sqlStr, args, err := buildListSQL(models.ProductFilter{})
	if err != nil {
		t.Fatalf("buildListSQL: %v", err)
	}
	want := "SELECT " + productColumns + " FROM products ORDER BY created_at DESC, id DESC"
	if sqlStr != want {
		t.Errorf("sql:\n got %q\nwant %q", sqlStr, want)
	}
	if len(args) != 0 {
		t.Errorf("args: got %v, want none", args)
	}
}

func TestBuildListSQLAllFilters(t *testing.T) {
	sqlStr, args, err := buildListSQL(models.ProductFilter{
		MinPrice:        intPtr(1000),
		MinRating:       floatPtr(4.5),
		MinReviewsCount: intPtr(10),
		Ordering:        "-price",
	})
	if err != nil {
		t.Fatalf("buildListSQL: %v", err)
	}
	want := "SELECT " + productColumns + " FROM products" +
		" WHERE discounted_price >= ? AND rating >= ? AND reviews_count >= ?" +
		" ORDER BY price DESC, id DESC"
	if sqlStr != want {
		t.Errorf("sql:\n got %q\nwant %q", sqlStr, want)
	}
	if len(args) != 3 || args[0] != 1000 || args[1] != 4.5 || args[2] != 10 {
		t.Errorf("args: got %v", args)
	}
}

func TestOrderingValidation(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", true},
		{"rating", true},
		{"-reviews_count", true},
		{"discounted_price", true},
		{"brand", false},
		{"price; DROP TABLE products", false},
		{"--price", false},
	}
	for _, tt := range tests {
		if got := ValidOrdering(tt.key); got != tt.want {
			t.Errorf("ValidOrdering(%q) = %v; want %v", tt.key, got, tt.want)
		}
	}

	_, _, err := buildListSQL(models.ProductFilter{Ordering: "brand"})
	if !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("buildListSQL(brand) error = %v; want ErrInvalidOrdering", err)
	}
}
