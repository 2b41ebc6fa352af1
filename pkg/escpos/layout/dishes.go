// pkg/escpos/layout/dishes.go
package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Item is a single dish on an order
type Item struct {
	Name           string          `json:"name"`
	Count          int             `json:"count"`
	UnitPrice      decimal.Decimal `json:"price"`
	Specifications []string        `json:"specifications,omitempty"`
}

// LineKind tells the renderer how to emit a Line
type LineKind int

const (
	// LineText is a single left-hand string
	LineText LineKind = iota
	// LineColumns is a left string and a right string justified to the edges
	LineColumns
	// LineSeparator separates two dishes and is always drawn at normal size
	LineSeparator
	// LineRule closes a list
	LineRule
)

// Line is one composed line of a dish list
type Line struct {
	Kind  LineKind
	Left  string
	Right string
	Char  rune
}

// Metrics holds the reserved column templates. They are measured with the
// engine's classifier, so the same templates work in columns and in pixels.
type Metrics struct {
	CountPrefix        string `mapstructure:"count_prefix"`
	PriceColumn        string `mapstructure:"price_column"`
	BigPriceColumn     string `mapstructure:"big_price_column"`
	KitchenColumn      string `mapstructure:"kitchen_column"`
	KitchenCountFormat string `mapstructure:"kitchen_count_format"`
	NameGap            string `mapstructure:"name_gap"`
	SpecificationFmt   string `mapstructure:"specification_format"`
	UnitPriceFmt       string `mapstructure:"unit_price_format"`
}

// DefaultMetrics matches monospace printer fonts: an 11 column price field, a
// 6 column kitchen count and a 3 column gap after the name.
func DefaultMetrics() Metrics {
	return Metrics{
		CountPrefix:        "*",
		PriceColumn:        "*99 9999.99",
		BigPriceColumn:     "*99 9,999,999",
		KitchenColumn:      "【*9】",
		KitchenCountFormat: "【*%d】",
		NameGap:            "   ",
		SpecificationFmt:   "    ※ %s ※",
		UnitPriceFmt:       "  @ %s",
	}
}

// merge fills empty fields from defaults
func (m Metrics) merge(defaults Metrics) Metrics {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Metrics{
		CountPrefix:        pick(m.CountPrefix, defaults.CountPrefix),
		PriceColumn:        pick(m.PriceColumn, defaults.PriceColumn),
		BigPriceColumn:     pick(m.BigPriceColumn, defaults.BigPriceColumn),
		KitchenColumn:      pick(m.KitchenColumn, defaults.KitchenColumn),
		KitchenCountFormat: pick(m.KitchenCountFormat, defaults.KitchenCountFormat),
		NameGap:            pick(m.NameGap, defaults.NameGap),
		SpecificationFmt:   pick(m.SpecificationFmt, defaults.SpecificationFmt),
		UnitPriceFmt:       pick(m.UnitPriceFmt, defaults.UnitPriceFmt),
	}
}

// WithDefaults returns m with every empty field taken from DefaultMetrics
func (m Metrics) WithDefaults() Metrics {
	return m.merge(DefaultMetrics())
}

// FrontDeskOptions controls the priced dish list
type FrontDeskOptions struct {
	BigPrice               bool `json:"big_price"`
	ShowUnitPrice          bool `json:"show_unit_price"`
	LineBetweenDishes      bool `json:"line_between_dishes"`
	SpecificationInNewLine bool `json:"specification_in_new_line"`
	ClosingRule            bool `json:"closing_rule"`
}

// KitchenOptions controls the kitchen dish list
type KitchenOptions struct {
	CountFront             bool `json:"count_front"`
	LineBetweenDishes      bool `json:"line_between_dishes"`
	SpecificationInNewLine bool `json:"specification_in_new_line"`
}

// FrontDesk lays out dishes with their count and line total
func (e *Engine) FrontDesk(items []Item, opts FrontDeskOptions, metrics Metrics, budget int) []Line {
	metrics = metrics.WithDefaults()

	column := metrics.PriceColumn
	if opts.BigPrice {
		column = metrics.BigPriceColumn
	}
	columnWidth := e.Width(column)
	nameBudget := nameBudget(budget, columnWidth, e.Width(metrics.NameGap))

	dishes := visible(items)
	var lines []Line
	for i, dish := range dishes {
		total := dish.UnitPrice.Mul(decimal.NewFromInt(int64(dish.Count)))
		right := e.countAndPrice(metrics.CountPrefix+strconv.Itoa(dish.Count), formatPrice(total, opts.BigPrice), columnWidth)

		for j, part := range e.Split(dish.Name, nameBudget) {
			if j == 0 {
				lines = append(lines, Line{Kind: LineColumns, Left: part, Right: right})
				continue
			}
			lines = append(lines, Line{Kind: LineText, Left: part})
		}

		if opts.ShowUnitPrice && dish.Count > 1 {
			unit := fmt.Sprintf(metrics.UnitPriceFmt, formatPrice(dish.UnitPrice, opts.BigPrice))
			lines = append(lines, Line{Kind: LineText, Left: unit})
		}
		if opts.SpecificationInNewLine {
			lines = append(lines, e.specifications(dish, metrics, budget)...)
		}
		if opts.LineBetweenDishes && i < len(dishes)-1 {
			lines = append(lines, Line{Kind: LineSeparator, Char: '-'})
		}
	}

	if opts.ClosingRule {
		lines = append(lines, Line{Kind: LineRule, Char: '='})
	}

	return lines
}

// Kitchen lays out dishes with their count only
func (e *Engine) Kitchen(items []Item, opts KitchenOptions, metrics Metrics, budget int) []Line {
	metrics = metrics.WithDefaults()
	nameBudget := nameBudget(budget, e.Width(metrics.KitchenColumn), e.Width(metrics.NameGap))

	dishes := visible(items)
	var lines []Line
	for i, dish := range dishes {
		if opts.CountFront {
			name := dish.Name
			if dish.Count > 1 {
				name = fmt.Sprintf("%dx    %s", dish.Count, dish.Name)
			}
			for _, part := range e.Split(name, budget) {
				lines = append(lines, Line{Kind: LineText, Left: part})
			}
		} else {
			count := fmt.Sprintf(metrics.KitchenCountFormat, dish.Count)
			for j, part := range e.Split(dish.Name, nameBudget) {
				if j == 0 {
					lines = append(lines, Line{Kind: LineColumns, Left: part, Right: count})
					continue
				}
				lines = append(lines, Line{Kind: LineText, Left: part})
			}
		}

		if opts.SpecificationInNewLine {
			lines = append(lines, e.specifications(dish, metrics, budget)...)
		}
		if opts.LineBetweenDishes && i < len(dishes)-1 {
			lines = append(lines, Line{Kind: LineSeparator, Char: '-'})
		}
	}

	return lines
}

// Render turns composed lines into plain strings for a monospace printer
func (e *Engine) Render(lines []Line, budget int) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		switch line.Kind {
		case LineColumns:
			out = append(out, e.OneLine(line.Left, line.Right, budget)...)
		case LineSeparator, LineRule:
			out = append(out, e.Rule(line.Char, budget))
		default:
			out = append(out, line.Left)
		}
	}
	return out
}

func (e *Engine) specifications(dish Item, metrics Metrics, budget int) []Line {
	var lines []Line
	for _, spec := range dish.Specifications {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		for _, part := range e.Split(fmt.Sprintf(metrics.SpecificationFmt, spec), budget) {
			lines = append(lines, Line{Kind: LineText, Left: part})
		}
	}
	return lines
}

// countAndPrice right aligns price after count inside a fixed-width column
func (e *Engine) countAndPrice(count, price string, columnWidth int) string {
	pad := columnWidth - e.Width(count) - e.Width(price)
	sw := e.classifier.RuneWidth(' ')
	spaces := 1
	if sw > 0 && pad/sw > 1 {
		spaces = pad / sw
	}
	return count + strings.Repeat(" ", spaces) + price
}

func nameBudget(budget, column, gap int) int {
	if budget <= 0 {
		return 0
	}
	if n := budget - column - gap; n > 0 {
		return n
	}
	return 1
}

func visible(items []Item) []Item {
	dishes := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Count > 0 {
			dishes = append(dishes, item)
		}
	}
	return dishes
}

var groupPrinter = message.NewPrinter(language.English)

// FormatPrice renders a price with two decimals
func FormatPrice(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatBigPrice renders a price as a thousands-grouped integer, used for
// currencies without minor units in practice.
func FormatBigPrice(amount decimal.Decimal) string {
	return groupPrinter.Sprintf("%d", amount.Round(0).IntPart())
}

func formatPrice(amount decimal.Decimal, big bool) string {
	if big {
		return FormatBigPrice(amount)
	}
	return FormatPrice(amount)
}
