package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"wildberries-scraper/models"
	"wildberries-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(products []*models.Product) *models.InsightReport {
	report := &models.InsightReport{
		ProductsByBrand: make(map[string]int),
		TopRated:        []*models.Product{},
	}

	if len(products) == 0 {
		return report
	}

	report.TotalProducts = len(products)

	var prices []float64
	var discounts []float64
	var rated []*models.Product
	var corrRatings, corrDiscounts []float64

	for _, p := range products {
		if p.Brand != "" {
			report.ProductsByBrand[p.Brand]++
		}
		if p.DiscountedPrice > 0 {
			prices = append(prices, float64(p.DiscountedPrice))
			if report.MostExpensive == nil || p.DiscountedPrice > report.MostExpensive.DiscountedPrice {
				report.MostExpensive = p
			}
		}
		d := discountPct(p)
		if p.Price > 0 {
			discounts = append(discounts, d)
		}
		if p.Rating != nil && *p.Rating > 0 {
			rated = append(rated, p)
			if p.Price > 0 {
				corrRatings = append(corrRatings, *p.Rating)
				corrDiscounts = append(corrDiscounts, d)
			}
		}
	}
	report.RatedProducts = len(rated)

	// Price stats (only products with a price > 0)
	if len(prices) > 0 {
		mean, _ := stats.Mean(prices)
		median, _ := stats.Median(prices)
		minP, _ := stats.Min(prices)
		maxP, _ := stats.Max(prices)
		report.AveragePrice = round2(mean)
		report.MedianPrice = round2(median)
		report.MinPrice = round2(minP)
		report.MaxPrice = round2(maxP)
	}

	if len(discounts) > 0 {
		mean, _ := stats.Mean(discounts)
		report.AverageDiscountPct = round2(mean)
	}

	if len(corrRatings) >= 2 {
		if r := stat.Correlation(corrRatings, corrDiscounts, nil); !math.IsNaN(r) {
			report.DiscountRatingCorr = round2(r)
		}
	}

	// Top 5 by rating, reviews break ties
	sort.SliceStable(rated, func(i, j int) bool {
		if *rated[i].Rating != *rated[j].Rating {
			return *rated[i].Rating > *rated[j].Rating
		}
		return rated[i].ReviewsCount > rated[j].ReviewsCount
	})
	if len(rated) > 5 {
		report.TopRated = rated[:5]
	} else {
		report.TopRated = rated
	}

	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 WILDBERRIES CATEGORY INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total products : \033[1m%d\033[0m\n", r.TotalProducts)
	fmt.Fprintf(w, "  Rated products : \033[1m%d\033[0m\n", r.RatedProducts)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Price Statistics (discounted, ₽)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average price    : \033[1;32m%.2f ₽\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Median price     : \033[1;32m%.2f ₽\033[0m\n", r.MedianPrice)
		fmt.Fprintf(w, "  Minimum price    : \033[1;32m%.2f ₽\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price    : \033[1;32m%.2f ₽\033[0m\n", r.MaxPrice)
		fmt.Fprintf(w, "  Average discount : \033[1;32m%.2f%%\033[0m\n", r.AverageDiscountPct)
		fmt.Fprintf(w, "  Discount/rating correlation : %.2f\n", r.DiscountRatingCorr)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Product\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Name, 50))
		fmt.Fprintf(w, "  Brand : %s\n", r.MostExpensive.Brand)
		fmt.Fprintf(w, "  Price : \033[1;31m%d ₽\033[0m\n", r.MostExpensive.DiscountedPrice)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Top 5 Highest Rated Products\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopRated) == 0 {
		fmt.Fprintf(w, "  No rated products found\n")
	} else {
		for i, p := range r.TopRated {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%.1f ★\033[0m (%d)\n",
				i+1, truncate(p.Name, 38), *p.Rating, p.ReviewsCount)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Products by Brand\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ProductsByBrand) == 0 {
		fmt.Fprintf(w, "  No brand data\n")
	} else {
		type brandCount struct {
			brand string
			count int
		}
		var brands []brandCount
		for b, cnt := range r.ProductsByBrand {
			brands = append(brands, brandCount{b, cnt})
		}
		sort.Slice(brands, func(i, j int) bool {
			if brands[i].count != brands[j].count {
				return brands[i].count > brands[j].count
			}
			return brands[i].brand < brands[j].brand
		})
		if len(brands) > 10 {
			brands = brands[:10]
		}
		for _, bc := range brands {
			bar := strings.Repeat("█", min(bc.count, 40))
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(bc.brand, 28), bar, bc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func discountPct(p *models.Product) float64 {
	if p.Price <= 0 || p.DiscountedPrice >= p.Price {
		return 0
	}
	return float64(p.Price-p.DiscountedPrice) / float64(p.Price) * 100
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
