// Package chart renders the weekly expense charts as PNG files.
package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"

	"carteira/internal/core"
	"carteira/internal/ledger"
)

const (
	defaultWidth  = 700
	defaultHeight = 400
)

// Renderer writes charts into a directory, one pair of files per owner.
// Rendering again for the same owner overwrites the previous files.
type Renderer struct {
	dir    string
	width  int
	height int
}

func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, width: defaultWidth, height: defaultHeight}
}

// Weekly draws expenses per weekday (bar) and per category (pie). It returns
// empty paths and no error when there are no expenses to draw.
func (r *Renderer) Weekly(owner string, expenses []core.Transaction) (weekdays, share string, err error) {
	if len(expenses) == 0 {
		return "", "", nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create charts directory: %w", err)
	}
	base := fileName(owner)

	weekdays = filepath.Join(r.dir, base+"_semana.png")
	if err := r.renderWeekdays(weekdays, ledger.ByWeekday(expenses)); err != nil {
		return "", "", err
	}
	share = filepath.Join(r.dir, base+"_pizza.png")
	if err := r.renderShare(share, ledger.GroupBy(expenses, ledger.ByCategory)); err != nil {
		return "", "", err
	}
	return weekdays, share, nil
}

func (r *Renderer) renderWeekdays(path string, days [7]decimal.Decimal) error {
	bars := make([]chart.Value, 0, len(days))
	for i, total := range days {
		bars = append(bars, chart.Value{Label: core.Weekdays[i], Value: total.InexactFloat64()})
	}
	graph := chart.BarChart{
		Title:      "Gastos por Dia",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      r.width,
		Height:     r.height,
		BarWidth:   60,
		Bars:       bars,
	}
	return writePNG(path, graph.Render)
}

func (r *Renderer) renderShare(path string, groups []ledger.Group) error {
	values := make([]chart.Value, 0, len(groups))
	for _, g := range groups {
		if !g.Total.IsPositive() {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%s)", g.Label, core.FormatBRL(g.Total)),
			Value: g.Total.InexactFloat64(),
		})
	}
	graph := chart.PieChart{
		Width:  r.width,
		Height: r.height,
		Values: values,
	}
	return writePNG(path, graph.Render)
}

func writePNG(path string, render func(chart.RendererProvider, io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := render(chart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	return f.Close()
}

// fileName keeps letters and digits of owner, e.g. "5511999@s.whatsapp.net"
// becomes "5511999_s_whatsapp_net".
func fileName(owner string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, owner)
	if name == "" {
		return "grafico"
	}
	return name
}
