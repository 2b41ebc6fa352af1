// pkg/escpos/canvas/vector_surface.go
package canvas

import (
	"fmt"
	"image"

	tdcanvas "github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font/gofont/goregular"
)

// one pixel is drawn as one millimetre and rasterized at one dot per mm
const ptPerPx = 72.0 / 25.4

type textOp struct {
	text string
	x, y float64
	face *tdcanvas.FontFace
}

// VectorSurface keeps text as vector operations and rasterizes them with
// tdewolff/canvas when pixels are requested. Resizing only changes the
// page, so content is always kept.
type VectorSurface struct {
	family        *tdcanvas.FontFamily
	face          *tdcanvas.FontFace
	width, height int
	ops           []textOp
}

// NewVectorSurface loads a TrueType or OpenType font; empty data selects Go
// Regular.
func NewVectorSurface(fontData []byte) (*VectorSurface, error) {
	if len(fontData) == 0 {
		fontData = goregular.TTF
	}
	family := tdcanvas.NewFontFamily("receipt")
	if err := family.LoadFont(fontData, 0, tdcanvas.FontRegular); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	s := &VectorSurface{family: family, width: 1, height: 1}
	if err := s.SetFontSize(DefaultOptions().FontSizeNormal); err != nil {
		return nil, err
	}
	return s, nil
}

// MeasureText returns the advance of s with the current face
func (s *VectorSurface) MeasureText(text string) float64 {
	return s.face.TextWidth(text)
}

// FillText records text with its bottom edge at y
func (s *VectorSurface) FillText(text string, x, y float64) {
	s.ops = append(s.ops, textOp{text: text, x: x, y: y, face: s.face})
}

// SetFontSize switches to a face of px pixels
func (s *VectorSurface) SetFontSize(px float64) error {
	if px <= 0 {
		return fmt.Errorf("invalid font size: %v", px)
	}
	s.face = s.family.Face(px*ptPerPx, tdcanvas.Black, tdcanvas.FontRegular, tdcanvas.FontNormal)
	return nil
}

// Resize changes the page size
func (s *VectorSurface) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s.width, s.height = width, height
}

// Clear drops every recorded operation
func (s *VectorSurface) Clear() {
	s.ops = nil
}

// Pixels replays every operation on a white page and rasterizes it
func (s *VectorSurface) Pixels() image.Image {
	w, h := float64(s.width), float64(s.height)
	c := tdcanvas.New(w, h)
	ctx := tdcanvas.NewContext(c)
	ctx.SetCoordSystem(tdcanvas.CartesianIV)

	ctx.SetFillColor(tdcanvas.White)
	ctx.DrawPath(0, 0, tdcanvas.Rectangle(w, h))

	for _, op := range s.ops {
		baseline := op.y - op.face.Metrics().Descent
		ctx.DrawText(op.x, baseline, tdcanvas.NewTextLine(op.face, op.text, tdcanvas.Left))
	}

	return rasterizer.Draw(c, tdcanvas.DPMM(1.0), tdcanvas.DefaultColorSpace)
}

// Size returns the pixel size
func (s *VectorSurface) Size() (int, int) {
	return s.width, s.height
}
