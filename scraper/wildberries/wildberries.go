package wildberries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"wildberries-scraper/config"
	"wildberries-scraper/models"
	"wildberries-scraper/utils"
)

// ErrCategoryNotFound is returned when the category URL is not in the
// catalog menu or lacks the shard/query needed to paginate it.
var ErrCategoryNotFound = errors.New("wildberries: category not found")

// Scraper walks one Wildberries category and collects raw products.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher Fetcher
	retry   *utils.RetryConfig
}

// New creates a Scraper that reads through fetcher.
func New(cfg *config.Config, fetcher Fetcher, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
	}
}

// NewFetcher builds the fetcher selected by cfg.FetchMode.
func NewFetcher(cfg *config.Config, logger *utils.Logger) (Fetcher, error) {
	switch cfg.FetchMode {
	case "", "http":
		return NewHTTPFetcher(cfg.RequestTimeout), nil
	case "browser":
		return NewBrowserFetcher(cfg.ChromeBin, cfg.RequestTimeout, logger)
	default:
		return nil, fmt.Errorf("wildberries: unknown fetch mode %q", cfg.FetchMode)
	}
}

// Categories downloads and flattens the catalog menu.
func (s *Scraper) Categories(ctx context.Context) ([]Category, error) {
	var body []byte
	err := s.retry.Do(ctx, "fetch-menu", func(ctx context.Context) error {
		b, err := s.fetcher.Fetch(ctx, s.cfg.WBMenuURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("wildberries: fetch menu: %w", err)
	}

	nodes, err := parseMenu(body)
	if err != nil {
		return nil, err
	}
	return flattenMenu(nodes), nil
}

// Resolve finds the paginatable category for a user-supplied category URL.
func (s *Scraper) Resolve(ctx context.Context, categoryURL string) (Category, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return Category{}, err
	}

	cat, ok := findCategory(categoryURL, categories)
	if !ok || cat.Shard == "" || cat.Query == "" {
		return Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryURL)
	}
	return cat, nil
}

type pageResult struct {
	products []*models.RawProduct
	err      error
}

// Scrape resolves categoryURL and reads its pages until the first empty page
// or MaxPages. Pages are fetched in windows of MaxConcurrency and appended in
// page order.
func (s *Scraper) Scrape(ctx context.Context, categoryURL string) ([]*models.RawProduct, error) {
	cat, err := s.Resolve(ctx, categoryURL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[wildberries] Category %q resolved: shard=%s query=%s", cat.Name, cat.Shard, cat.Query)

	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.RateLimitMs)
	seen := utils.NewSet[int64]()
	window := pool.Size()

	maxPages := s.cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	var all []*models.RawProduct
	done := false
	for start := 1; start <= maxPages && !done; start += window {
		end := min(start+window-1, maxPages)
		results := make([]pageResult, end-start+1)

		for page := start; page <= end; page++ {
			idx := page - start
			err := pool.Submit(ctx, func(ctx context.Context) {
				products, err := s.fetchPage(ctx, cat, page)
				results[idx] = pageResult{products: products, err: err}
			})
			if err != nil {
				break
			}
		}
		pool.Wait()

		if ctx.Err() != nil {
			return all, ctx.Err()
		}

		for i, r := range results {
			page := start + i
			if r.err != nil {
				s.logger.Error("[wildberries] Page %d failed: %v", page, r.err)
				done = true
				break
			}
			if len(r.products) == 0 {
				s.logger.Info("[wildberries] Page %d returned 0 products, stopping", page)
				done = true
				break
			}
			for _, p := range r.products {
				if !seen.Add(p.ID) {
					s.logger.Debug("[wildberries] Skipping duplicate: %d", p.ID)
					continue
				}
				all = append(all, p)
			}
			s.logger.Info("[wildberries] Page %d done, collected %d products so far", page, len(all))
		}
	}

	s.logger.Info("[wildberries] Scrape complete, total raw products: %d", len(all))
	return all, nil
}

func (s *Scraper) pageURL(cat Category, page int) string {
	return fmt.Sprintf("%s/%s/catalog?appType=1&curr=rub&dest=%s&locale=ru&page=%d&sort=popular&spp=0&%s",
		s.cfg.WBCatalogURL, cat.Shard, s.cfg.WBDest, page, cat.Query)
}

func (s *Scraper) fetchPage(ctx context.Context, cat Category, page int) ([]*models.RawProduct, error) {
	var products []*models.RawProduct
	err := s.retry.Do(ctx, fmt.Sprintf("page-%d", page), func(ctx context.Context) error {
		body, err := s.fetcher.Fetch(ctx, s.pageURL(cat, page))
		if err != nil {
			return err
		}
		products, err = parsePage(body, page)
		return err
	})
	return products, err
}

// parsePage extracts data.products from a catalog page. A page without that
// path yields no products.
func parsePage(body []byte, page int) ([]*models.RawProduct, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("page %d: invalid JSON", page)
	}

	now := time.Now()
	var out []*models.RawProduct
	var decodeErr error
	gjson.GetBytes(body, "data.products").ForEach(func(_, v gjson.Result) bool {
		p := &models.RawProduct{}
		if err := json.Unmarshal([]byte(v.Raw), p); err != nil {
			decodeErr = fmt.Errorf("page %d: decode product: %w", page, err)
			return false
		}
		p.Page = page
		p.ScrapedAt = now
		out = append(out, p)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}
