package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"wildberries-scraper/models"
	"wildberries-scraper/utils"
)

// ErrStaleResponse is returned by FetchData when a newer fetch started
// before this one completed. Its result is discarded.
var ErrStaleResponse = errors.New("dashboard: stale response")

// ErrClosed is returned by FetchData once the controller has been closed.
var ErrClosed = errors.New("dashboard: controller closed")

// DefaultDebounce is the quiet period for the numeric filter inputs.
const DefaultDebounce = 500 * time.Millisecond

type Option func(*Controller)

// WithDebounce sets the quiet period for rating and review count edits.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = NewDebouncer(d) }
}

// WithFilters sets the initial widget state.
func WithFilters(f Filters) Option {
	return func(c *Controller) { c.filters = f }
}

// Controller keeps the dashboard view in sync with the filter widgets.
// Only the most recently started fetch may render; older responses and
// errors are dropped.
type Controller struct {
	source   ProductSource
	view     View
	logger   *utils.Logger
	debounce *Debouncer

	wg sync.WaitGroup

	mu        sync.Mutex
	base      context.Context
	filters   Filters
	seq       uint64
	cancel    context.CancelFunc
	loading   int
	histogram *Chart
	scatter   *Chart
	closed    bool
}

func NewController(source ProductSource, view View, logger *utils.Logger, opts ...Option) *Controller {
	c := &Controller{
		source:   source,
		view:     view,
		logger:   logger,
		debounce: NewDebouncer(DefaultDebounce),
		base:     context.Background(),
		filters:  DefaultFilters(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.filters.PriceLower, c.filters.PriceUpper = snapRange(c.filters.PriceLower, c.filters.PriceUpper)
	return c
}

// Start shows the initial slider bounds and runs the page-load fetch.
// Fetches triggered later by widget events run under ctx.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.base = ctx
	c.view.SetPriceBounds(c.filters.PriceLower, c.filters.PriceUpper)
	c.mu.Unlock()
	return c.FetchData(ctx)
}

// Filters returns the current widget state.
func (c *Controller) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// DragPriceRange moves the slider handles without fetching.
func (c *Controller) DragPriceRange(lower, upper int) {
	c.mu.Lock()
	c.filters.PriceLower, c.filters.PriceUpper = snapRange(lower, upper)
	c.view.SetPriceBounds(c.filters.PriceLower, c.filters.PriceUpper)
	c.mu.Unlock()
}

// CommitPriceRange moves the slider handles and fetches immediately.
func (c *Controller) CommitPriceRange(lower, upper int) {
	c.DragPriceRange(lower, upper)
	c.fetchNow()
}

// SetMinRating records the rating input and schedules a debounced fetch.
func (c *Controller) SetMinRating(v string) {
	c.mu.Lock()
	c.filters.MinRating = v
	c.mu.Unlock()
	c.debounce.Trigger(c.fetchAsync)
}

// SetMinReviews records the review count input and schedules a debounced fetch.
func (c *Controller) SetMinReviews(v string) {
	c.mu.Lock()
	c.filters.MinReviews = v
	c.mu.Unlock()
	c.debounce.Trigger(c.fetchAsync)
}

// SetOrdering records the sort selection and fetches immediately.
func (c *Controller) SetOrdering(key string) {
	c.mu.Lock()
	c.filters.Ordering = strings.TrimSpace(key)
	c.mu.Unlock()
	c.fetchNow()
}

// Refresh fetches with the current filters.
func (c *Controller) Refresh() {
	c.fetchNow()
}

// fetchNow starts a fetch right away. A pending debounced fetch would only
// repeat it, so it is dropped.
func (c *Controller) fetchNow() {
	c.debounce.Cancel()
	c.fetchAsync()
}

func (c *Controller) fetchAsync() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ctx := c.base
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		err := c.FetchData(ctx)
		if err != nil && !errors.Is(err, ErrStaleResponse) && !errors.Is(err, ErrClosed) {
			c.logger.Debug("[dashboard] fetch finished with error: %v", err)
		}
	}()
}

// FetchData fetches products for the current filters and renders the table
// and both charts. A fetch superseded by a newer one returns ErrStaleResponse
// and renders nothing.
func (c *Controller) FetchData(ctx context.Context) error {
	reqCtx, seq, filters, release, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer release()

	c.logger.Debug("[dashboard] fetch #%d %s", seq, filters.Query().Encode())
	products, err := c.source.FetchProducts(reqCtx, filters.Query())

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		return ErrStaleResponse
	}
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		c.logger.Error("[dashboard] Failed to fetch data: %v", err)
		c.view.SetTableBody(ErrorBody())
		return fmt.Errorf("dashboard: fetch products: %w", err)
	}

	filtered := filters.WithinUpperBound(products)
	c.renderTable(filtered)
	c.renderCharts(filtered)
	c.logger.Debug("[dashboard] fetch #%d rendered %d of %d products", seq, len(filtered), len(products))
	return nil
}

// begin registers a new fetch: it supersedes the in-flight one, shows the
// loader and clears the table body. It fails with ErrClosed after Close.
func (c *Controller) begin(ctx context.Context) (context.Context, uint64, Filters, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, 0, Filters{}, nil, ErrClosed
	}

	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.loading++
	if c.loading == 1 {
		c.view.ShowLoader()
	}
	c.view.SetTableBody(TableBody{})

	release := func() {
		cancel()
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.seq == seq {
			c.cancel = nil
		}
		c.loading--
		if c.loading == 0 {
			c.view.HideLoader()
		}
	}
	return reqCtx, seq, c.filters, release, nil
}

func (c *Controller) renderTable(products []models.ProductSummary) {
	c.view.SetTableBody(RenderTable(products))
}

// renderCharts replaces both charts. The previous instances are disposed
// before the new ones are handed to the view.
func (c *Controller) renderCharts(products []models.ProductSummary) {
	hist, err := NewHistogram(products)
	if err != nil {
		c.logger.Warn("[dashboard] %v", err)
	}
	if c.histogram != nil {
		c.histogram.Dispose()
	}
	c.histogram = hist
	c.view.SetHistogram(hist)

	scatter, err := NewScatter(products)
	if err != nil {
		c.logger.Warn("[dashboard] %v", err)
	}
	if c.scatter != nil {
		c.scatter.Dispose()
	}
	c.scatter = scatter
	c.view.SetScatter(scatter)
}

// Close stops pending and in-flight fetches, waits for them and disposes
// the charts.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.debounce.Stop()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range []*Chart{c.histogram, c.scatter} {
		if ch != nil {
			ch.Dispose()
		}
	}
	c.histogram, c.scatter = nil, nil
}
