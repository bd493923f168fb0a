package storage

import (
	"context"

	"wildberries-scraper/models"
)

// ProductWriter is the interface any product storage backend must satisfy.
type ProductWriter interface {
	UpsertProducts(ctx context.Context, products []*models.Product) (int, error)
	Close() error
}

// ProductReader serves filtered product listings.
type ProductReader interface {
	List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	FetchAll(ctx context.Context) ([]*models.Product, error)
}

// RawProductWriter is the interface for persisting unprocessed scraped data.
type RawProductWriter interface {
	WriteRaw(products []*models.RawProduct) error
	Close() error
}
