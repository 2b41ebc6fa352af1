// pkg/escpos/canvas/options.go
package canvas

import (
	"go.uber.org/zap"

	"receipt-encoder/pkg/escpos/layout"
	"receipt-encoder/pkg/escpos/raster"
)

// Options holds the pixel metrics of rendered text
type Options struct {
	FontSizeNormal   float64 `mapstructure:"font_size_normal"`
	FontSizeLarge    float64 `mapstructure:"font_size_large"`
	LineHeightNormal int     `mapstructure:"line_height_normal"`
	LineHeightLarge  int     `mapstructure:"line_height_large"`
	LineInterval     int     `mapstructure:"line_interval"`
	Foot             int     `mapstructure:"foot"`
	RTL              bool    `mapstructure:"rtl"`
}

// DefaultOptions are tuned for 203 dpi heads and a 28px body font
func DefaultOptions() Options {
	return Options{
		FontSizeNormal:   28,
		FontSizeLarge:    56,
		LineHeightNormal: 32,
		LineHeightLarge:  56,
		LineInterval:     8,
		Foot:             16,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FontSizeNormal <= 0 {
		o.FontSizeNormal = d.FontSizeNormal
	}
	if o.FontSizeLarge <= 0 {
		o.FontSizeLarge = d.FontSizeLarge
	}
	if o.LineHeightNormal <= 0 {
		o.LineHeightNormal = d.LineHeightNormal
	}
	if o.LineHeightLarge <= 0 {
		o.LineHeightLarge = d.LineHeightLarge
	}
	if o.LineInterval < 0 {
		o.LineInterval = d.LineInterval
	}
	if o.Foot < 0 {
		o.Foot = d.Foot
	}
	return o
}

// Metrics returns the dish list templates measured in pixels. The count
// prefix is '*' for right-to-left paper.
func Metrics(rtl bool) layout.Metrics {
	m := layout.Metrics{
		CountPrefix:        "x",
		PriceColumn:        "x99 999.99",
		BigPriceColumn:     "x99 9,999,999",
		KitchenColumn:      "x99",
		KitchenCountFormat: "x%d",
		NameGap:            "  ",
	}
	if rtl {
		m.CountPrefix = "*"
	}
	return m.WithDefaults()
}

// Option configures an Encoder
type Option func(*Encoder)

// WithOptions replaces the pixel metrics
func WithOptions(o Options) Option {
	return func(e *Encoder) {
		e.opts = o.withDefaults()
	}
}

// WithProfile selects the paper width
func WithProfile(p layout.Profile) Option {
	return func(e *Encoder) {
		e.profile = p
	}
}

// WithMetrics overrides the dish list templates
func WithMetrics(m layout.Metrics) Option {
	return func(e *Encoder) {
		e.metrics = &m
	}
}

// WithRasterOptions sets how the page is reduced to black and white
func WithRasterOptions(o raster.Options) Option {
	return func(e *Encoder) {
		e.rasterOpts = o
	}
}

// WithMaxStripHeight bounds the height of one raster command
func WithMaxStripHeight(h int) Option {
	return func(e *Encoder) {
		if h >= 8 {
			e.maxStripHeight = h - h%8
		}
	}
}

// WithLogger attaches a logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}
