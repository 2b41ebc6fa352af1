// pkg/escpos/options.go
package escpos

import (
	"go.uber.org/zap"

	"receipt-encoder/pkg/escpos/layout"
	"receipt-encoder/pkg/escpos/raster"
)

// DefaultMaxStripHeight bounds the rows sent in one raster command so the
// image fits the printer's receive buffer.
const DefaultMaxStripHeight = 1662

// Option configures an Encoder
type Option func(*Encoder)

// WithProfile selects the paper width used for column budgets
func WithProfile(p layout.Profile) Option {
	return func(e *Encoder) {
		e.profile = p
	}
}

// WithClassifier replaces the character width classifier
func WithClassifier(c layout.Classifier) Option {
	return func(e *Encoder) {
		e.engine = layout.NewEngine(c)
	}
}

// WithMetrics sets the reserved column templates for dish lists
func WithMetrics(m layout.Metrics) Option {
	return func(e *Encoder) {
		e.metrics = m.WithDefaults()
	}
}

// WithRasterOptions sets the dithering used by image commands
func WithRasterOptions(o raster.Options) Option {
	return func(e *Encoder) {
		e.rasterOpts = o
	}
}

// WithMaxStripHeight bounds the height of one raster command. Values are
// rounded down to a multiple of 8.
func WithMaxStripHeight(h int) Option {
	return func(e *Encoder) {
		if h >= 8 {
			e.maxStripHeight = h - h%8
		}
	}
}

// WithLogger attaches a logger; the default discards everything
func WithLogger(logger *zap.Logger) Option {
	return func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}
