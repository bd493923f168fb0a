package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"wildberries-scraper/models"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleProducts() []*models.Product {
	return []*models.Product{
		{WBID: 1, Name: "Kettle", Price: 5000, DiscountedPrice: 3500, Rating: floatPtr(4.8), ReviewsCount: 120, Brand: "Bork"},
		{WBID: 2, Name: "Toaster", Price: 12000, DiscountedPrice: 12000, Rating: nil, ReviewsCount: 0, Brand: "Unknown"},
		{WBID: 3, Name: "Blender", Price: 40000, DiscountedPrice: 31000, Rating: floatPtr(4.1), ReviewsCount: 15, Brand: "Bosch"},
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}

func TestUpsertAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.UpsertProducts(ctx, sampleProducts())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.List(ctx, models.ProductFilter{Ordering: "price"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Kettle", "Toaster", "Blender"}, names(all))
	assert.Nil(t, all[1].Rating)
	require.NotNil(t, all[0].Rating)
	assert.InDelta(t, 4.8, *all[0].Rating, 1e-9)
	assert.False(t, all[0].CreatedAt.IsZero())
}

func TestListFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.UpsertProducts(ctx, sampleProducts())
	require.NoError(t, err)

	byPrice, err := s.List(ctx, models.ProductFilter{MinPrice: intPtr(12000), Ordering: "discounted_price"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Toaster", "Blender"}, names(byPrice))

	// NULL ratings never satisfy a minimum rating
	byRating, err := s.List(ctx, models.ProductFilter{MinRating: floatPtr(4.0), Ordering: "-rating"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kettle", "Blender"}, names(byRating))

	byReviews, err := s.List(ctx, models.ProductFilter{MinReviewsCount: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kettle"}, names(byReviews))

	_, err = s.List(ctx, models.ProductFilter{Ordering: "brand"})
	assert.ErrorIs(t, err, ErrInvalidOrdering)
}

func TestUpsertUpdatesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.UpsertProducts(ctx, sampleProducts())
	require.NoError(t, err)

	_, err = s.UpsertProducts(ctx, []*models.Product{
		{WBID: 1, Name: "Kettle v2", Price: 5000, DiscountedPrice: 2900, Rating: floatPtr(4.9), ReviewsCount: 130, Brand: "Bork"},
	})
	require.NoError(t, err)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Kettle v2", all[0].Name)
	assert.Equal(t, 2900, all[0].DiscountedPrice)
	assert.Equal(t, 130, all[0].ReviewsCount)
}

func TestUpsertEmpty(t *testing.T) {
	s := openTestStore(t)
	n, err := s.UpsertProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "products.xlsx")
	require.NoError(t, WriteXLSX(path, sampleProducts()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(productsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "WB ID", rows[0][0])
	assert.Equal(t, "Kettle", rows[1][1])
	assert.Equal(t, "30", rows[1][5])
}

func names(ps []*models.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}
