package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"wildberries-scraper/models"
)

const productsSheet = "Products"

var xlsxHeader = []any{"WB ID", "Name", "Brand", "Price", "Discounted price", "Discount %", "Rating", "Reviews", "Updated at"}

// WriteXLSX exports products to a single-sheet workbook at path.
func WriteXLSX(path string, products []*models.Product) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("xlsx: create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", productsSheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(productsSheet, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	for i, p := range products {
		var rating any
		if p.Rating != nil {
			rating = *p.Rating
		}
		discount := 0.0
		if p.Price > 0 && p.DiscountedPrice < p.Price {
			discount = float64(p.Price-p.DiscountedPrice) / float64(p.Price) * 100
		}
		row := []any{
			p.WBID, p.Name, p.Brand, p.Price, p.DiscountedPrice,
			round1(discount), rating, p.ReviewsCount, p.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: cell name: %w", err)
		}
		if err := f.SetSheetRow(productsSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+2, err)
		}
	}

	if err := f.AutoFilter(productsSheet, fmt.Sprintf("A1:I%d", len(products)+1), nil); err != nil {
		return fmt.Errorf("xlsx: autofilter: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", path, err)
	}
	return nil
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
