package dashboard

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const histogramBarWidth = 30

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	loaderStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Padding(0, 1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
)

// TerminalView prints the dashboard state to a terminal.
type TerminalView struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminalView(w io.Writer) *TerminalView {
	return &TerminalView{w: w}
}

func (v *TerminalView) ShowLoader() {
	v.println(loaderStyle.Render("Loading..."))
}

func (v *TerminalView) HideLoader() {}

func (v *TerminalView) SetPriceBounds(lower, upper int) {
	v.println(fmt.Sprintf("Price: %d%s - %d%s", lower, currency, upper, currency))
}

func (v *TerminalView) SetTableBody(body TableBody) {
	if body.Cleared() {
		return
	}
	if body.Message != "" {
		v.println(messageStyle.Render(body.Message))
		return
	}

	rows := make([][]string, 0, len(body.Rows))
	for _, r := range body.Rows {
		rows = append(rows, r.Cells())
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(TableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	v.println(t.String())
}

func (v *TerminalView) SetHistogram(c *Chart) {
	if c == nil {
		return
	}
	maxCount := 0
	for _, n := range c.Counts {
		maxCount = max(maxCount, n)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Title))
	for i, label := range c.Labels {
		width := 0
		if maxCount > 0 {
			width = c.Counts[i] * histogramBarWidth / maxCount
		}
		fmt.Fprintf(&b, "\n%-9s %s %d", label, barStyle.Render(strings.Repeat("█", width)), c.Counts[i])
	}
	v.println(b.String())
}

func (v *TerminalView) SetScatter(c *Chart) {
	if c == nil {
		return
	}
	if len(c.Points) == 0 {
		v.println(titleStyle.Render(c.Title) + "\nno rated discounted products")
		return
	}
	var sum float64
	for _, p := range c.Points {
		sum += p.DiscountPct
	}
	v.println(fmt.Sprintf("%s\n%d points, average discount %.1f%%",
		titleStyle.Render(c.Title), len(c.Points), sum/float64(len(c.Points))))
}

func (v *TerminalView) println(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.w, s)
}
