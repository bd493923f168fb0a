package services

import (
	"context"
	"fmt"

	"wildberries-scraper/models"
	"wildberries-scraper/storage"
	"wildberries-scraper/utils"
)

// ProductScraper collects raw products for a category URL.
type ProductScraper interface {
	Scrape(ctx context.Context, categoryURL string) ([]*models.RawProduct, error)
}

// SyncService scrapes a category and stores the cleaned products.
type SyncService struct {
	scraper ProductScraper
	cleaner *Cleaner
	store   storage.ProductWriter
	raw     storage.RawProductWriter
	logger  *utils.Logger
}

// NewSyncService wires a sync pipeline. raw may be nil to skip the raw export.
func NewSyncService(scraper ProductScraper, store storage.ProductWriter, raw storage.RawProductWriter, logger *utils.Logger) *SyncService {
	return &SyncService{
		scraper: scraper,
		cleaner: NewCleaner(logger),
		store:   store,
		raw:     raw,
		logger:  logger,
	}
}

// Sync runs scrape -> raw export -> clean -> upsert and returns the number of
// products written.
func (s *SyncService) Sync(ctx context.Context, categoryURL string) (int, error) {
	rawProducts, err := s.scraper.Scrape(ctx, categoryURL)
	if err != nil {
		return 0, fmt.Errorf("sync: scrape: %w", err)
	}
	if len(rawProducts) == 0 {
		s.logger.Warn("[sync] No products scraped for %s", categoryURL)
		return 0, nil
	}

	if s.raw != nil {
		if err := s.raw.WriteRaw(rawProducts); err != nil {
			s.logger.Error("[sync] Raw export failed: %v", err)
		}
	}

	products := s.cleaner.Clean(rawProducts)
	n, err := s.store.UpsertProducts(ctx, products)
	if err != nil {
		return 0, fmt.Errorf("sync: store: %w", err)
	}

	s.logger.Info("[sync] Synced %d products from %s", n, categoryURL)
	return n, nil
}
