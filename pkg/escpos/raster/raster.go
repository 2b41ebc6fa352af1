// pkg/escpos/raster/raster.go
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/makeworld-the-better-one/dither/v2"
	"golang.org/x/image/draw"
)

// Algorithm selects how grey levels are reduced to black and white
type Algorithm string

// Supported algorithms
const (
	Threshold      Algorithm = "threshold"
	Bayer          Algorithm = "bayer"
	FloydSteinberg Algorithm = "floyd-steinberg"
	Atkinson       Algorithm = "atkinson"
)

// DefaultThreshold is the mid-grey cutoff for dark pixels
const DefaultThreshold = 128

// ErrUnknownAlgorithm is returned for unsupported dithering names
var ErrUnknownAlgorithm = errors.New("unknown dithering algorithm")

var blackAndWhite = color.Palette{color.Black, color.White}

// Options configures Rasterize
type Options struct {
	Algorithm Algorithm `mapstructure:"algorithm"`
	Threshold uint8     `mapstructure:"threshold"`
}

// DefaultOptions returns threshold dithering at mid grey
func DefaultOptions() Options {
	return Options{Algorithm: Threshold, Threshold: DefaultThreshold}
}

// ParseAlgorithm resolves an algorithm name. An empty name means Threshold.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(Threshold):
		return Threshold, nil
	case string(Bayer):
		return Bayer, nil
	case string(FloydSteinberg), "floydsteinberg", "floyd_steinberg":
		return FloydSteinberg, nil
	case string(Atkinson):
		return Atkinson, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// Flatten composites img over a white background and converts it to grey.
// Translucent pixels blend towards white.
func Flatten(img image.Image) *image.Gray {
	b := img.Bounds()
	rect := image.Rect(0, 0, b.Dx(), b.Dy())

	rgba := image.NewRGBA(rect)
	draw.Draw(rgba, rect, image.White, image.Point{}, draw.Src)
	draw.Draw(rgba, rect, img, b.Min, draw.Over)

	gray := image.NewGray(rect)
	draw.Draw(gray, rect, rgba, image.Point{}, draw.Src)
	return gray
}

// Rasterize flattens, dithers and packs img
func Rasterize(img image.Image, opts Options) (*Bitmap, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	algorithm, err := ParseAlgorithm(string(opts.Algorithm))
	if err != nil {
		return nil, err
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	gray := Flatten(img)
	switch algorithm {
	case Threshold:
		return packGray(gray, threshold), nil
	case FloydSteinberg:
		dithered := image.NewPaletted(gray.Bounds(), blackAndWhite)
		draw.FloydSteinberg.Draw(dithered, dithered.Bounds(), gray, image.Point{})
		return packPaletted(dithered), nil
	case Bayer:
		d := dither.NewDitherer(blackAndWhite)
		d.Mapper = dither.Bayer(4, 4, 1.0)
		return ditherWith(d, gray), nil
	case Atkinson:
		d := dither.NewDitherer(blackAndWhite)
		d.Matrix = dither.Atkinson
		return ditherWith(d, gray), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
}

// Scale resizes img to exactly width x height
func Scale(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Fit shrinks img to maxWidth keeping the aspect ratio. Narrower images are
// returned untouched.
func Fit(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
}

// ditherWith lets the ditherer allocate the destination so it carries the
// ditherer's own copy of the palette
func ditherWith(d *dither.Ditherer, gray *image.Gray) *Bitmap {
	return packPaletted(d.DitherPaletted(gray))
}

func packGray(gray *image.Gray, threshold uint8) *Bitmap {
	b := gray.Bounds()
	bm := NewBitmap(b.Dx(), b.Dy())
	for y := 0; y < bm.Height; y++ {
		row := bm.Row(y)
		for x := 0; x < bm.Width; x++ {
			if gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y < threshold {
				row[x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return bm
}

// packPaletted marks pixels whose palette entry is dark. Palette order is
// not assumed.
func packPaletted(p *image.Paletted) *Bitmap {
	dark := make([]bool, len(p.Palette))
	for i, c := range p.Palette {
		dark[i] = color.GrayModel.Convert(c).(color.Gray).Y < DefaultThreshold
	}

	b := p.Bounds()
	bm := NewBitmap(b.Dx(), b.Dy())
	for y := 0; y < bm.Height; y++ {
		row := bm.Row(y)
		for x := 0; x < bm.Width; x++ {
			if i := p.ColorIndexAt(b.Min.X+x, b.Min.Y+y); int(i) < len(dark) && dark[i] {
				row[x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return bm
}
