package raster

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(w, h int, fn func(x, y int) color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fn(x, y))
		}
	}
	return img
}

func TestThresholdCheckerboard(t *testing.T) {
	img := fill(8, 8, func(x, y int) color.Color {
		if (x+y)%2 == 0 {
			return color.Black
		}
		return color.White
	})

	bm, err := Rasterize(img, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, bm.Stride)
	for y := 0; y < 8; y++ {
		want := byte(0b10101010)
		if y%2 == 1 {
			want = 0b01010101
		}
		assert.Equal(t, want, bm.Row(y)[0], "row %d", y)
	}
}

func TestThresholdColumns(t *testing.T) {
	img := fill(8, 8, func(x, y int) color.Color {
		if x%2 == 0 {
			return color.Black
		}
		return color.White
	})

	bm, err := Rasterize(img, Options{Algorithm: Threshold})
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0b10101010}, 8), bm.Bits)
}

func TestFlattenCompositesOverWhite(t *testing.T) {
	transparent := fill(8, 2, func(x, y int) color.Color {
		return color.NRGBA{A: 0}
	})
	bm, err := Rasterize(transparent, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 2), bm.Bits)

	faint := fill(8, 1, func(x, y int) color.Color {
		return color.NRGBA{A: 64}
	})
	gray := Flatten(faint)
	assert.Greater(t, gray.GrayAt(0, 0).Y, uint8(180))
}

func TestRowPadding(t *testing.T) {
	img := fill(10, 1, func(x, y int) color.Color { return color.Black })

	bm, err := Rasterize(img, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, bm.Stride)
	assert.Equal(t, []byte{0xFF, 0xC0}, bm.Bits)
}

func TestErrorDiffusionOnSolidImages(t *testing.T) {
	black := fill(16, 4, func(x, y int) color.Color { return color.Black })
	white := fill(16, 4, func(x, y int) color.Color { return color.White })

	for _, algorithm := range []Algorithm{FloydSteinberg, Atkinson} {
		bm, err := Rasterize(black, Options{Algorithm: algorithm})
		require.NoError(t, err, algorithm)
		assert.Equal(t, bytes.Repeat([]byte{0xFF}, 8), bm.Bits, algorithm)

		bm, err = Rasterize(white, Options{Algorithm: algorithm})
		require.NoError(t, err, algorithm)
		assert.Equal(t, make([]byte, 8), bm.Bits, algorithm)
	}
}

func TestBayerDimensions(t *testing.T) {
	img := fill(12, 5, func(x, y int) color.Color { return color.Gray{Y: uint8(x * 20)} })

	bm, err := Rasterize(img, Options{Algorithm: Bayer})
	require.NoError(t, err)
	assert.Equal(t, 12, bm.Width)
	assert.Equal(t, 5, bm.Height)
	assert.Len(t, bm.Bits, 10)
}

func TestEveryAlgorithmRasterizes(t *testing.T) {
	gradient := fill(16, 8, func(x, y int) color.Color { return color.Gray{Y: uint8(x * 16)} })
	black := fill(16, 8, func(x, y int) color.Color { return color.Black })

	for _, algorithm := range []Algorithm{Threshold, Bayer, FloydSteinberg, Atkinson} {
		t.Run(string(algorithm), func(t *testing.T) {
			var bm *Bitmap
			require.NotPanics(t, func() {
				var err error
				bm, err = Rasterize(gradient, Options{Algorithm: algorithm})
				require.NoError(t, err)
			})
			assert.Equal(t, 16, bm.Width)
			assert.Equal(t, 8, bm.Height)
			assert.Len(t, bm.Bits, 16)
			// the darkest column is black whatever the pattern
			assert.Equal(t, 1, bm.At(0, 0))

			bm, err := Rasterize(black, Options{Algorithm: algorithm})
			require.NoError(t, err)
			assert.Equal(t, bytes.Repeat([]byte{0xFF}, 16), bm.Bits)
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, Threshold, a)

	a, err = ParseAlgorithm("FloydSteinberg")
	require.NoError(t, err)
	assert.Equal(t, FloydSteinberg, a)

	_, err = ParseAlgorithm("stucki")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = Rasterize(image.NewGray(image.Rect(0, 0, 8, 8)), Options{Algorithm: "stucki"})
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestStripsNeverSplitRows(t *testing.T) {
	bm := NewBitmap(16, 20)
	for y := 0; y < 20; y++ {
		bm.Set(y%16, y, true)
	}

	strips := bm.Strips(8)
	require.Len(t, strips, 3)
	assert.Equal(t, []int{8, 8, 4}, []int{strips[0].Height, strips[1].Height, strips[2].Height})

	var joined []byte
	for _, s := range strips {
		assert.Equal(t, s.Stride*s.Height, len(s.Bits))
		joined = append(joined, s.Bits...)
	}
	assert.Equal(t, bm.Bits, joined)

	assert.Len(t, bm.Strips(0), 1)
}

func TestPadded(t *testing.T) {
	bm := NewBitmap(10, 5)
	bm.Set(9, 4, true)

	padded := bm.Padded(8)
	assert.Equal(t, 16, padded.Width)
	assert.Equal(t, 8, padded.Height)
	assert.Equal(t, 1, padded.At(9, 4))
	assert.Equal(t, 0, padded.At(9, 7))

	aligned := NewBitmap(16, 8)
	assert.Same(t, aligned, aligned.Padded(8))
}

func TestBitmapSetAndAt(t *testing.T) {
	bm := NewBitmap(9, 2)
	bm.Set(8, 1, true)
	assert.Equal(t, 1, bm.At(8, 1))
	assert.Equal(t, byte(0x80), bm.Row(1)[1])

	bm.Set(8, 1, false)
	assert.Equal(t, 0, bm.At(8, 1))
	assert.Equal(t, 0, bm.At(100, 100))
}

func TestScaleAndFit(t *testing.T) {
	img := fill(800, 200, func(x, y int) color.Color { return color.White })

	fitted := Fit(img, 384)
	assert.Equal(t, 384, fitted.Bounds().Dx())
	assert.Equal(t, 96, fitted.Bounds().Dy())

	assert.Same(t, img, Fit(img, 1000))

	scaled := Scale(img, 64, 16)
	assert.Equal(t, image.Rect(0, 0, 64, 16), scaled.Bounds())
}
