// pkg/escpos/canvas/raster_surface.go
package canvas

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// RasterSurface draws straight into a pixel buffer with gg
type RasterSurface struct {
	dc      *gg.Context
	font    *truetype.Font
	face    font.Face
	descent float64
}

// NewRasterSurface parses a TrueType font; empty data selects Go Regular
func NewRasterSurface(fontData []byte) (*RasterSurface, error) {
	if len(fontData) == 0 {
		fontData = goregular.TTF
	}
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	s := &RasterSurface{font: f}
	s.dc = blankContext(1, 1)
	if err := s.SetFontSize(DefaultOptions().FontSizeNormal); err != nil {
		return nil, err
	}
	return s, nil
}

func blankContext(width, height int) *gg.Context {
	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)
	return dc
}

// MeasureText returns the advance of s with the current face
func (s *RasterSurface) MeasureText(text string) float64 {
	w, _ := s.dc.MeasureString(text)
	return w
}

// FillText draws text with its bottom edge at y
func (s *RasterSurface) FillText(text string, x, y float64) {
	s.dc.SetColor(color.Black)
	s.dc.DrawString(text, x, y-s.descent)
}

// SetFontSize switches to a face of px pixels
func (s *RasterSurface) SetFontSize(px float64) error {
	if px <= 0 {
		return fmt.Errorf("invalid font size: %v", px)
	}
	s.face = truetype.NewFace(s.font, &truetype.Options{Size: px, DPI: 72, Hinting: font.HintingFull})
	s.descent = float64(s.face.Metrics().Descent) / 64
	s.dc.SetFontFace(s.face)
	return nil
}

// Resize copies the current content into a surface of the new size
func (s *RasterSurface) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width == s.dc.Width() && height == s.dc.Height() {
		return
	}

	dc := blankContext(width, height)
	dc.DrawImage(s.dc.Image(), 0, 0)
	dc.SetFontFace(s.face)
	s.dc = dc
}

// Clear paints the surface white
func (s *RasterSurface) Clear() {
	s.dc = blankContext(s.dc.Width(), s.dc.Height())
	s.dc.SetFontFace(s.face)
}

// Pixels returns the backing image
func (s *RasterSurface) Pixels() image.Image {
	return s.dc.Image()
}

// Size returns the pixel size
func (s *RasterSurface) Size() (int, int) {
	return s.dc.Width(), s.dc.Height()
}
