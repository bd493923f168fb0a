package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildberries-scraper/models"
	"wildberries-scraper/utils"
)

// fakeSource answers fetches with fn and records the query of every call.
type fakeSource struct {
	mu    sync.Mutex
	calls []url.Values
	fn    func(ctx context.Context, n int, params url.Values) ([]models.ProductSummary, error)
}

func (s *fakeSource) FetchProducts(ctx context.Context, params url.Values) ([]models.ProductSummary, error) {
	s.mu.Lock()
	s.calls = append(s.calls, params)
	n := len(s.calls)
	s.mu.Unlock()
	return s.fn(ctx, n, params)
}

func (s *fakeSource) Calls() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.calls...)
}

func returning(products []models.ProductSummary, err error) *fakeSource {
	return &fakeSource{fn: func(context.Context, int, url.Values) ([]models.ProductSummary, error) {
		return products, err
	}}
}

// viewState is the latest state pushed by the controller.
type viewState struct {
	shows     int
	hides     int
	loading   bool
	lower     int
	upper     int
	body      TableBody
	bodies    []TableBody
	histogram *Chart
	scatter   *Chart
}

type recordingView struct {
	mu sync.Mutex
	st viewState
}

func (v *recordingView) ShowLoader() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.shows++
	v.st.loading = true
}

func (v *recordingView) HideLoader() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.hides++
	v.st.loading = false
}

func (v *recordingView) SetPriceBounds(lower, upper int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.lower, v.st.upper = lower, upper
}

func (v *recordingView) SetTableBody(body TableBody) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.body = body
	v.st.bodies = append(v.st.bodies, body)
}

func (v *recordingView) SetHistogram(c *Chart) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.histogram = c
}

func (v *recordingView) SetScatter(c *Chart) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.st.scatter = c
}

func (v *recordingView) snapshot() viewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	st := v.st
	st.bodies = append([]TableBody(nil), v.st.bodies...)
	return st
}

func newTestController(src ProductSource, view View, opts ...Option) *Controller {
	return NewController(src, view, utils.NewDiscardLogger(), opts...)
}

func TestStartShowsBoundsAndFetches(t *testing.T) {
	src := returning([]models.ProductSummary{{Name: "a", Price: 100, DiscountedPrice: 90}}, nil)
	view := &recordingView{}
	c := newTestController(src, view)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))

	st := view.snapshot()
	assert.Equal(t, DefaultPriceLower, st.lower)
	assert.Equal(t, DefaultPriceUpper, st.upper)
	require.Len(t, src.Calls(), 1)
	assert.Empty(t, src.Calls()[0].Encode())
	assert.Len(t, st.body.Rows, 1)
	assert.Equal(t, 1, st.shows)
	assert.Equal(t, 1, st.hides)
	assert.False(t, st.loading)
}

func TestFetchClearsBodyBeforeRendering(t *testing.T) {
	view := &recordingView{}
	c := newTestController(returning(nil, nil), view)
	defer c.Close()

	require.NoError(t, c.FetchData(context.Background()))
	st := view.snapshot()
	require.Len(t, st.bodies, 2)
	assert.True(t, st.bodies[0].Cleared())
	assert.Equal(t, NoResultsMessage, st.bodies[1].Message)
}

func TestFetchAppliesUpperBound(t *testing.T) {
	src := returning([]models.ProductSummary{
		{Name: "cheap", Price: 200000, DiscountedPrice: 150000, Rating: ptr(4.8)},
		{Name: "pricey", Price: 300000, DiscountedPrice: 250000, Rating: ptr(4.9)},
	}, nil)
	view := &recordingView{}
	c := newTestController(src, view)
	defer c.Close()

	require.NoError(t, c.FetchData(context.Background()))

	st := view.snapshot()
	require.Len(t, st.body.Rows, 1)
	assert.Equal(t, "cheap", st.body.Rows[0].Name)
	require.NotNil(t, st.histogram)
	assert.Equal(t, []int{0, 0, 0, 0, 1}, st.histogram.Counts)
	require.NotNil(t, st.scatter)
	assert.Len(t, st.scatter.Points, 1)
}

func TestFetchNoResultsAfterUpperBound(t *testing.T) {
	src := returning([]models.ProductSummary{{Name: "x", Price: 400000, DiscountedPrice: 300000, Rating: ptr(5)}}, nil)
	view := &recordingView{}
	c := newTestController(src, view)
	defer c.Close()

	require.NoError(t, c.FetchData(context.Background()))

	st := view.snapshot()
	assert.Equal(t, TableBody{Message: NoResultsMessage}, st.body)
	require.NotNil(t, st.histogram)
	require.NotNil(t, st.scatter)
	assert.True(t, st.histogram.Empty())
	assert.True(t, st.scatter.Empty())
}

func TestFetchErrorShowsErrorRow(t *testing.T) {
	boom := errors.New("connection refused")
	view := &recordingView{}
	c := newTestController(returning(nil, boom), view)
	defer c.Close()

	err := c.FetchData(context.Background())
	require.ErrorIs(t, err, boom)

	st := view.snapshot()
	assert.Equal(t, ErrorBody(), st.body)
	assert.False(t, st.loading)
	assert.Nil(t, st.histogram)
	assert.Nil(t, st.scatter)
}

func TestErrorKeepsPreviousCharts(t *testing.T) {
	src := &fakeSource{fn: func(_ context.Context, n int, _ url.Values) ([]models.ProductSummary, error) {
		if n == 1 {
			return []models.ProductSummary{{Price: 100, DiscountedPrice: 50, Rating: ptr(4)}}, nil
		}
		return nil, errors.New("HTTP 502")
	}}
	view := &recordingView{}
	c := newTestController(src, view)
	defer c.Close()

	require.NoError(t, c.FetchData(context.Background()))
	first := view.snapshot()
	require.Error(t, c.FetchData(context.Background()))
	second := view.snapshot()

	assert.Same(t, first.histogram, second.histogram)
	assert.Same(t, first.scatter, second.scatter)
	assert.False(t, second.histogram.Disposed())
	assert.Equal(t, ErrorMessage, second.body.Message)
}

func TestChartsReplacedAndDisposed(t *testing.T) {
	src := returning([]models.ProductSummary{{Price: 100, DiscountedPrice: 50, Rating: ptr(4)}}, nil)
	view := &recordingView{}
	c := newTestController(src, view)

	require.NoError(t, c.FetchData(context.Background()))
	first := view.snapshot()
	require.NoError(t, c.FetchData(context.Background()))
	second := view.snapshot()

	assert.NotSame(t, first.histogram, second.histogram)
	assert.True(t, first.histogram.Disposed())
	assert.True(t, first.scatter.Disposed())
	assert.False(t, second.histogram.Disposed())
	assert.False(t, second.scatter.Disposed())

	c.Close()
	assert.True(t, second.histogram.Disposed())
	assert.True(t, second.scatter.Disposed())
}

func TestStaleResponseIgnored(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := &fakeSource{fn: func(_ context.Context, n int, _ url.Values) ([]models.ProductSummary, error) {
		if n == 1 {
			close(started)
			<-release
			return []models.ProductSummary{{Name: "old", Price: 10, DiscountedPrice: 10}}, nil
		}
		return []models.ProductSummary{{Name: "new", Price: 10, DiscountedPrice: 10}}, nil
	}}
	view := &recordingView{}
	c := newTestController(src, view)
	defer c.Close()

	firstErr := make(chan error, 1)
	go func() { firstErr <- c.FetchData(context.Background()) }()
	<-started

	require.NoError(t, c.FetchData(context.Background()))
	close(release)
	require.ErrorIs(t, <-firstErr, ErrStaleResponse)

	st := view.snapshot()
	require.Len(t, st.body.Rows, 1)
	assert.Equal(t, "new", st.body.Rows[0].Name)
	assert.Equal(t, 1, st.shows)
	assert.Equal(t, 1, st.hides)
	assert.False(t, st.loading)
}

func TestStaleErrorIgnored(t *testing.T) {
	started := make(chan struct{})
	src := &fakeSource{fn: func(ctx context.Context, n int, _ url.Values) ([]models.ProductSummary, error) {
		if n == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []models.ProductSummary{{Name: "fresh", Price: 10, DiscountedPrice: 10}}, nil
	}}
	view := &recordingView{}
	c := newTestController(src, view)
	defer c.Close()

	firstErr := make(chan error, 1)
	go func() { firstErr <- c.FetchData(context.Background()) }()
	<-started

	require.NoError(t, c.FetchData(context.Background()))
	require.ErrorIs(t, <-firstErr, ErrStaleResponse)

	st := view.snapshot()
	for _, b := range st.bodies {
		assert.NotEqual(t, ErrorMessage, b.Message)
	}
	assert.Equal(t, "fresh", st.body.Rows[0].Name)
}

func TestCommitPriceRangeSnapsAndFetches(t *testing.T) {
	src := returning(nil, nil)
	view := &recordingView{}
	c := newTestController(src, view)

	c.DragPriceRange(1234, 300400)
	assert.Empty(t, src.Calls(), "dragging must not fetch")
	assert.Equal(t, 1000, view.snapshot().lower)
	assert.Equal(t, 300000, view.snapshot().upper)

	c.CommitPriceRange(5600, 90000)
	c.Close()

	calls := src.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "min_price=6000", calls[0].Encode())
	assert.Equal(t, Filters{PriceLower: 6000, PriceUpper: 90000}, c.Filters())
}

func TestOrderingFetchesImmediatelyWithPendingInputs(t *testing.T) {
	src := returning(nil, nil)
	c := newTestController(src, &recordingView{}, WithDebounce(50*time.Millisecond))
	defer c.Close()

	c.SetMinReviews("5")
	c.SetOrdering("price")

	require.Eventually(t, func() bool { return len(src.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	calls := src.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "min_reviews_count=5&ordering=price", calls[0].Encode())
}

func TestRapidRatingEditsFetchOnce(t *testing.T) {
	var hits atomic.Int32
	var mu sync.Mutex
	var lastQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		mu.Lock()
		lastQuery = r.URL.Query()
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.ProductSummary{{Name: "p", Price: 100, DiscountedPrice: 80, Rating: ptr(4.6)}})
	}))
	defer srv.Close()

	view := &recordingView{}
	c := newTestController(NewClient(srv.URL+"/api/products/", time.Second), view, WithDebounce(50*time.Millisecond))

	for _, v := range []string{"4", "4.", "4.5"} {
		c.SetMinRating(v)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	c.Close()

	assert.Equal(t, int32(1), hits.Load())
	mu.Lock()
	assert.Equal(t, "4.5", lastQuery.Get("min_rating"))
	mu.Unlock()
	assert.Len(t, view.snapshot().body.Rows, 1)
}

func TestCloseStopsPendingFetch(t *testing.T) {
	src := returning(nil, nil)
	c := newTestController(src, &recordingView{}, WithDebounce(20*time.Millisecond))

	c.SetMinRating("3")
	c.Close()
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, src.Calls())
	c.Refresh()
	assert.Empty(t, src.Calls(), "closed controller must not fetch")
}

func TestFetchAfterCloseLeavesViewUntouched(t *testing.T) {
	src := returning([]models.ProductSummary{{Name: "a", Price: 10, DiscountedPrice: 10}}, nil)
	view := &recordingView{}
	c := newTestController(src, view)
	c.Close()

	require.ErrorIs(t, c.FetchData(context.Background()), ErrClosed)

	st := view.snapshot()
	assert.Zero(t, st.shows)
	assert.Zero(t, st.hides)
	assert.Empty(t, st.bodies)
	assert.Empty(t, src.Calls())
}
