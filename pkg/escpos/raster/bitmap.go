// pkg/escpos/raster/bitmap.go
package raster

// Bitmap is a 1bpp image packed eight pixels per byte, most significant bit
// first, row by row. A set bit is a black dot.
type Bitmap struct {
	Width  int
	Height int
	Stride int
	Bits   []byte
}

// NewBitmap allocates a white bitmap
func NewBitmap(width, height int) *Bitmap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := (width + 7) / 8
	return &Bitmap{
		Width:  width,
		Height: height,
		Stride: stride,
		Bits:   make([]byte, stride*height),
	}
}

// Set marks the pixel at x, y black or white
func (b *Bitmap) Set(x, y int, black bool) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	mask := byte(0x80) >> uint(x%8)
	if black {
		b.Bits[y*b.Stride+x/8] |= mask
	} else {
		b.Bits[y*b.Stride+x/8] &^= mask
	}
}

// At returns 1 for a black pixel and 0 otherwise
func (b *Bitmap) At(x, y int) int {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0
	}
	if b.Bits[y*b.Stride+x/8]&(byte(0x80)>>uint(x%8)) != 0 {
		return 1
	}
	return 0
}

// Row returns the packed bytes of row y
func (b *Bitmap) Row(y int) []byte {
	return b.Bits[y*b.Stride : (y+1)*b.Stride]
}

// Padded grows the bitmap so both dimensions are multiples of n. Width is
// rounded to the packed stride first; new rows are white.
func (b *Bitmap) Padded(n int) *Bitmap {
	if n <= 0 {
		n = 8
	}
	width := roundUp(b.Stride*8, n)
	height := roundUp(b.Height, n)
	if width == b.Width && height == b.Height {
		return b
	}

	out := NewBitmap(width, height)
	for y := 0; y < b.Height; y++ {
		copy(out.Row(y), b.Row(y))
	}
	return out
}

// Strips cuts the bitmap into horizontal bands of at most maxHeight rows.
// Bands share memory with b.
func (b *Bitmap) Strips(maxHeight int) []*Bitmap {
	if maxHeight <= 0 || b.Height <= maxHeight {
		return []*Bitmap{b}
	}

	strips := make([]*Bitmap, 0, (b.Height+maxHeight-1)/maxHeight)
	for y := 0; y < b.Height; y += maxHeight {
		h := maxHeight
		if y+h > b.Height {
			h = b.Height - y
		}
		strips = append(strips, &Bitmap{
			Width:  b.Width,
			Height: h,
			Stride: b.Stride,
			Bits:   b.Bits[y*b.Stride : (y+h)*b.Stride],
		})
	}
	return strips
}

func roundUp(v, n int) int {
	if r := v % n; r != 0 {
		return v + n - r
	}
	return v
}
