// pkg/escpos/symbol/symbol.go
//
// Package symbol draws QR codes and barcodes as images for printers that
// cannot render them in firmware.
package symbol

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/skip2/go-qrcode"
)

var (
	// ErrUnsupportedSymbology is returned for symbologies without an image encoder
	ErrUnsupportedSymbology = errors.New("symbology has no image encoder")
	// ErrInvalidLevel is returned for unknown QR error correction levels
	ErrInvalidLevel = errors.New("invalid error correction level")
	// ErrTooNarrow is returned when the width cannot fit one dot per module
	ErrTooNarrow = errors.New("width is narrower than the symbol")
)

// QR renders value as a QR symbol with each module moduleSize dots wide,
// including the quiet zone.
func QR(value, level string, moduleSize int) (image.Image, error) {
	recovery, err := recoveryLevel(level)
	if err != nil {
		return nil, err
	}
	if moduleSize <= 0 {
		moduleSize = 1
	}

	qr, err := qrcode.New(value, recovery)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	modules := qr.Bitmap()
	side := len(modules) * moduleSize
	img := image.NewGray(image.Rect(0, 0, side, side))
	for y := range img.Pix {
		img.Pix[y] = 0xFF
	}
	for my, row := range modules {
		for mx, dark := range row {
			if !dark {
				continue
			}
			for dy := 0; dy < moduleSize; dy++ {
				for dx := 0; dx < moduleSize; dx++ {
					img.SetGray(mx*moduleSize+dx, my*moduleSize+dy, color.Gray{Y: 0})
				}
			}
		}
	}

	return img, nil
}

// Barcode renders value with the given symbology scaled to width x height.
// A zero width keeps one dot per module.
func Barcode(value, symbology string, width, height int) (image.Image, error) {
	var (
		code barcode.Barcode
		err  error
	)

	switch strings.ToLower(symbology) {
	case "code128":
		code, err = code128.Encode(value)
	case "code39":
		code, err = code39.Encode(value, false, true)
	case "ean13", "ean8", "upca":
		code, err = ean.Encode(normalizeEAN(value, symbology))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSymbology, symbology)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s barcode: %w", symbology, err)
	}

	modules := code.Bounds().Dx()
	if width <= 0 {
		width = modules
	}
	if width < modules {
		return nil, fmt.Errorf("%w: %d < %d", ErrTooNarrow, width, modules)
	}
	if height <= 0 {
		height = 80
	}

	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTooNarrow, err)
	}
	return scaled, nil
}

// normalizeEAN turns UPC-A into its EAN-13 form
func normalizeEAN(value, symbology string) string {
	if strings.EqualFold(symbology, "upca") && (len(value) == 11 || len(value) == 12) {
		return "0" + value
	}
	return value
}

func recoveryLevel(level string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(level) {
	case "l":
		return qrcode.Low, nil
	case "", "m":
		return qrcode.Medium, nil
	case "q":
		return qrcode.High, nil
	case "h":
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
}
