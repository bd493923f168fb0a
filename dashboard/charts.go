package dashboard

import (
	"bytes"
	"fmt"
	"sync"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"wildberries-scraper/models"
)

// PriceBucket is one histogram bar. Upper bounds are inclusive; an Upper
// below zero means the bucket is unbounded.
type PriceBucket struct {
	Label string
	Upper int
}

var PriceBuckets = []PriceBucket{
	{Label: "0-10k", Upper: 10000},
	{Label: "10k-30k", Upper: 30000},
	{Label: "30k-60k", Upper: 60000},
	{Label: "60k-100k", Upper: 100000},
	{Label: "100k+", Upper: -1},
}

// BucketPrices counts products per PriceBuckets entry by discounted price.
func BucketPrices(products []models.ProductSummary) []int {
	counts := make([]int, len(PriceBuckets))
	for _, p := range products {
		for i, b := range PriceBuckets {
			if b.Upper < 0 || p.DiscountedPrice <= b.Upper {
				counts[i]++
				break
			}
		}
	}
	return counts
}

// ScatterPoint plots a product's rating against its discount percentage.
type ScatterPoint struct {
	Rating      float64
	DiscountPct float64
}

// DiscountPoints keeps products that have a rating, a positive price and a
// real discount, and maps them to scatter points.
func DiscountPoints(products []models.ProductSummary) []ScatterPoint {
	var points []ScatterPoint
	for _, p := range products {
		if p.Rating == nil || *p.Rating == 0 {
			continue
		}
		if p.Price <= 0 || p.DiscountedPrice >= p.Price {
			continue
		}
		pct := float64(p.Price-p.DiscountedPrice) / float64(p.Price) * 100
		points = append(points, ScatterPoint{Rating: *p.Rating, DiscountPct: pct})
	}
	return points
}

type ChartKind string

const (
	KindHistogram ChartKind = "histogram"
	KindScatter   ChartKind = "scatter"
)

const (
	chartWidth  = 640
	chartHeight = 360
)

var (
	histogramFill   = drawing.Color{R: 54, G: 162, B: 235, A: 153}
	histogramStroke = drawing.Color{R: 54, G: 162, B: 235, A: 255}
	scatterDot      = drawing.Color{R: 255, G: 99, B: 132, A: 153}
)

// Chart is a rendered chart instance. A chart is owned by one slot of the
// controller and must be disposed when it is replaced.
type Chart struct {
	Kind   ChartKind
	Title  string
	Labels []string
	Counts []int
	Points []ScatterPoint

	mu       sync.Mutex
	png      []byte
	disposed bool
}

// NewHistogram builds the price distribution chart. The returned chart is
// usable even when rendering fails; it then has no image.
func NewHistogram(products []models.ProductSummary) (*Chart, error) {
	c := &Chart{Kind: KindHistogram, Title: "Price distribution", Counts: BucketPrices(products)}
	maxCount := 1
	bars := make([]chart.Value, 0, len(PriceBuckets))
	for i, b := range PriceBuckets {
		c.Labels = append(c.Labels, b.Label)
		if c.Counts[i] > maxCount {
			maxCount = c.Counts[i]
		}
		bars = append(bars, chart.Value{
			Label: b.Label,
			Value: float64(c.Counts[i]),
			Style: chart.Style{FillColor: histogramFill, StrokeColor: histogramStroke, StrokeWidth: 1},
		})
	}

	bc := chart.BarChart{
		Title:      "Number of products",
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   60,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return c, fmt.Errorf("render histogram: %w", err)
	}
	c.png = buf.Bytes()
	return c, nil
}

// NewScatter builds the discount versus rating chart. With no qualifying
// products the chart has no points and no image.
func NewScatter(products []models.ProductSummary) (*Chart, error) {
	c := &Chart{Kind: KindScatter, Title: "Discount vs rating", Points: DiscountPoints(products)}
	if len(c.Points) == 0 {
		return c, nil
	}

	xs := make([]float64, len(c.Points))
	ys := make([]float64, len(c.Points))
	for i, p := range c.Points {
		xs[i] = p.Rating
		ys[i] = p.DiscountPct
	}

	ch := chart.Chart{
		Title:      "Discount vs rating",
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Rating", Range: &chart.ContinuousRange{Min: 0, Max: 5}},
		YAxis:      chart.YAxis{Name: "Discount (%)", Range: &chart.ContinuousRange{Min: 0, Max: 100}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Discount vs rating",
				XValues: xs,
				YValues: ys,
				Style:   pointStyle(scatterDot),
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return c, fmt.Errorf("render scatter: %w", err)
	}
	c.png = buf.Bytes()
	return c, nil
}

// pointStyle draws dots without a connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
		DotColor:    col,
	}
}

// PNG returns the rendered image, or nil once the chart is disposed or when
// there was nothing to draw.
func (c *Chart) PNG() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	return c.png
}

// Dispose releases the rendered image. It is safe to call more than once.
func (c *Chart) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.png = nil
	c.mu.Unlock()
}

func (c *Chart) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Empty reports whether the chart has no data to show.
func (c *Chart) Empty() bool {
	switch c.Kind {
	case KindScatter:
		return len(c.Points) == 0
	default:
		for _, n := range c.Counts {
			if n > 0 {
				return false
			}
		}
		return true
	}
}
