package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"

	"wildberries-scraper/utils"
)

const (
	indexFile     = "index.html"
	histogramFile = "histogram.png"
	scatterFile   = "scatter.png"
)

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="2">
<title>Products dashboard</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; }
#loader { color: #888; font-style: italic; }
.charts img { max-width: 48%; margin-right: 1%; }
</style>
</head>
<body>
<h1>Products dashboard</h1>
<p id="price-range">Price: {{.Lower}} ₽ - {{.Upper}} ₽</p>
{{if .Loading}}<p id="loader">Loading...</p>{{end}}
<table id="products-table">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- if .Body.Message}}
<tr><td colspan="{{len .Headers}}">{{.Body.Message}}</td></tr>
{{- else}}{{range .Body.Rows}}
<tr><td>{{.Name}}</td><td>{{.Price}}</td><td>{{.DiscountedPrice}}</td><td>{{.Rating}}</td><td>{{.Reviews}}</td></tr>
{{- end}}{{end}}
</tbody>
</table>
<div class="charts">
{{if .Histogram}}<img id="price-histogram" src="{{.Histogram}}" alt="Price distribution">{{end}}
{{if .Scatter}}<img id="discount-rating-chart" src="{{.Scatter}}" alt="Discount vs rating">{{end}}
</div>
</body>
</html>
`))

type pageData struct {
	Lower, Upper int
	Loading      bool
	Headers      []string
	Body         TableBody
	Histogram    string
	Scatter      string
}

// FileView writes the dashboard as a static page plus chart images into dir.
// Every state change rewrites the page.
type FileView struct {
	dir    string
	logger *utils.Logger

	mu       sync.Mutex
	page     pageData
	revision int
}

// NewFileView creates dir if needed and writes an initial page.
func NewFileView(dir string, logger *utils.Logger) (*FileView, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dashboard dir: %w", err)
	}
	v := &FileView{
		dir:    dir,
		logger: logger,
		page: pageData{
			Lower:   DefaultPriceLower,
			Upper:   DefaultPriceUpper,
			Headers: TableHeaders,
		},
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.flush(); err != nil {
		return nil, err
	}
	return v, nil
}

// Dir returns the output directory.
func (v *FileView) Dir() string { return v.dir }

func (v *FileView) ShowLoader() {
	v.update(func(p *pageData) { p.Loading = true })
}

func (v *FileView) HideLoader() {
	v.update(func(p *pageData) { p.Loading = false })
}

func (v *FileView) SetPriceBounds(lower, upper int) {
	v.update(func(p *pageData) { p.Lower, p.Upper = lower, upper })
}

func (v *FileView) SetTableBody(body TableBody) {
	v.update(func(p *pageData) { p.Body = body })
}

func (v *FileView) SetHistogram(c *Chart) {
	v.setChart(c, histogramFile, func(p *pageData, src string) { p.Histogram = src })
}

func (v *FileView) SetScatter(c *Chart) {
	v.setChart(c, scatterFile, func(p *pageData, src string) { p.Scatter = src })
}

func (v *FileView) setChart(c *Chart, name string, set func(*pageData, string)) {
	v.mu.Lock()
	defer v.mu.Unlock()

	path := filepath.Join(v.dir, name)
	var img []byte
	if c != nil {
		img = c.PNG()
	}
	if len(img) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			v.logger.Warn("[dashboard] remove %s: %v", path, err)
		}
		set(&v.page, "")
	} else {
		if err := writeFileAtomic(path, img); err != nil {
			v.logger.Warn("[dashboard] write %s: %v", path, err)
			return
		}
		v.revision++
		set(&v.page, fmt.Sprintf("%s?v=%d", name, v.revision))
	}
	if err := v.flush(); err != nil {
		v.logger.Warn("[dashboard] %v", err)
	}
}

func (v *FileView) update(fn func(*pageData)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.page)
	if err := v.flush(); err != nil {
		v.logger.Warn("[dashboard] %v", err)
	}
}

// flush renders the page. Callers hold v.mu.
func (v *FileView) flush() error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, v.page); err != nil {
		return fmt.Errorf("render dashboard page: %w", err)
	}
	return writeFileAtomic(filepath.Join(v.dir, indexFile), buf.Bytes())
}

// writeFileAtomic replaces path through a temp file in the same directory so
// readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
