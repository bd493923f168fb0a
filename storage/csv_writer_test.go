package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wildberries-scraper/models"
)

func TestCSVWriterWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "raw.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	rating := 4.7
	err = w.WriteRaw([]*models.RawProduct{
		{ID: 10, Name: "Mixer", Brand: "Kitfort", PriceU: 499000, SalePriceU: 349900, Rating: &rating, Feedbacks: 12, Page: 1, ScrapedAt: time.Unix(0, 0).UTC()},
		{ID: 11, Name: "Spoon", PriceU: 10000, SalePriceU: 9000, Page: 2, ScrapedAt: time.Unix(0, 0).UTC()},
	})
	if err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(rows))
	}
	if rows[1][0] != "10" || rows[1][5] != "4.7" {
		t.Errorf("row 1: got %v", rows[1])
	}
	if rows[2][5] != "" {
		t.Errorf("missing rating should be empty, got %q", rows[2][5])
	}
}
