// pkg/escpos/canvas/surface.go
//
// Package canvas prints text as a raster image drawn on the host, for fonts
// and scripts the printer firmware cannot render.
package canvas

import (
	"fmt"
	"image"
	"strings"
)

// Surface is a 2D drawing area that can measure and fill text and give its
// pixels back.
type Surface interface {
	// MeasureText returns the advance width of s in pixels
	MeasureText(s string) float64
	// FillText draws s in black with its left edge at x and its bottom at y
	FillText(s string, x, y float64)
	// SetFontSize selects the font size in pixels
	SetFontSize(px float64) error
	// Resize changes the surface size, keeping what was drawn so far
	Resize(width, height int)
	// Clear wipes everything drawn so far
	Clear()
	// Pixels returns the current content over a white background
	Pixels() image.Image
	// Size returns the surface size in pixels
	Size() (width, height int)
}

// Surface names accepted by NewSurface
const (
	SurfaceRaster = "raster"
	SurfaceVector = "vector"
)

// NewSurface creates a surface by name using fontData, or the bundled Go font
// when fontData is empty.
func NewSurface(name string, fontData []byte) (Surface, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SurfaceRaster, "gg":
		return NewRasterSurface(fontData)
	case SurfaceVector, "tdewolff":
		return NewVectorSurface(fontData)
	default:
		return nil, fmt.Errorf("unknown canvas surface: %s", name)
	}
}
