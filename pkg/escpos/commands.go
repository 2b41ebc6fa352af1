// pkg/escpos/commands.go
package escpos

import (
	"strings"

	"receipt-encoder/pkg/escpos/raster"
)

// ESC_POS_COMMANDS contains the fixed ESC/POS sequences
var ESC_POS_COMMANDS = struct {
	// Basic commands
	INITIALIZE []byte

	// Text
	NEWLINE            []byte
	WIDE_ON            []byte
	WIDE_OFF           []byte
	TEXT_BOLD_ON       []byte
	TEXT_BOLD_OFF      []byte
	TEXT_ITALIC_ON     []byte
	TEXT_ITALIC_OFF    []byte
	TEXT_UNDERLINE_OFF []byte
	TEXT_UNDERLINE_ON  []byte
	TEXT_UNDERLINE_2   []byte
	FONT_A             []byte
	SELECT_SIZE        []byte // + n
	SELECT_CODEPAGE    []byte // + n

	// Text alignment
	ALIGN_LEFT   []byte
	ALIGN_CENTER []byte
	ALIGN_RIGHT  []byte

	// Paper handling
	LINE_FEED  []byte
	FORM_FEED  []byte
	FEED_LINES []byte // + line count byte
	PAGE_MODE  []byte

	// Cutting
	CUT_FULL    []byte
	CUT_PARTIAL []byte

	// Cash drawer
	DRAWER_KICK_PIN2 []byte // Pin 2 (most common)
	DRAWER_KICK_PIN5 []byte // Pin 5

	// Barcodes
	BARCODE_HEIGHT []byte // + h
	BARCODE_WIDTH  []byte // + w
	BARCODE_PRINT  []byte // + m

	// QR code, GS ( k with cn = 49
	QR_MODEL       []byte // + n1 n2
	QR_MODULE_SIZE []byte // + n
	QR_ERROR_LEVEL []byte // + n
	QR_STORE       []byte // + pL pH cn fn m
	QR_PRINT       []byte

	// Raster
	RASTER_IMAGE []byte // + m xL xH yL yH d1...dk
}{
	INITIALIZE: []byte{0x1B, 0x40}, // ESC @

	NEWLINE:            []byte{0x0A, 0x0D},       // LF CR
	WIDE_ON:            []byte{0x1C, 0x26},       // FS &
	WIDE_OFF:           []byte{0x1C, 0x2E},       // FS .
	TEXT_BOLD_ON:       []byte{0x1B, 0x45, 0x01}, // ESC E 1
	TEXT_BOLD_OFF:      []byte{0x1B, 0x45, 0x00}, // ESC E 0
	TEXT_ITALIC_ON:     []byte{0x1B, 0x34, 0x01}, // ESC 4 1
	TEXT_ITALIC_OFF:    []byte{0x1B, 0x34, 0x00}, // ESC 4 0
	TEXT_UNDERLINE_OFF: []byte{0x1B, 0x2D, 0x00}, // ESC - 0
	TEXT_UNDERLINE_ON:  []byte{0x1B, 0x2D, 0x01}, // ESC - 1
	TEXT_UNDERLINE_2:   []byte{0x1B, 0x2D, 0x02}, // ESC - 2
	FONT_A:             []byte{0x1B, 0x4D, 0x00}, // ESC M 0
	SELECT_SIZE:        []byte{0x1D, 0x21},       // GS !
	SELECT_CODEPAGE:    []byte{0x1B, 0x74},       // ESC t

	ALIGN_LEFT:   []byte{0x1B, 0x61, 0x00}, // ESC a 0
	ALIGN_CENTER: []byte{0x1B, 0x61, 0x01}, // ESC a 1
	ALIGN_RIGHT:  []byte{0x1B, 0x61, 0x02}, // ESC a 2

	LINE_FEED:  []byte{0x0A},       // LF
	FORM_FEED:  []byte{0x0C},       // FF
	FEED_LINES: []byte{0x1B, 0x64}, // ESC d + n
	PAGE_MODE:  []byte{0x1B, 0x4C}, // ESC L

	CUT_FULL:    []byte{0x1D, 0x56, 0x41, 0x00}, // GS V A 0
	CUT_PARTIAL: []byte{0x1D, 0x56, 0x42, 0x00}, // GS V B 0

	DRAWER_KICK_PIN2: []byte{0x1B, 0x70, 0x00, 0x19, 0x19}, // ESC p 0 25 25
	DRAWER_KICK_PIN5: []byte{0x1B, 0x70, 0x01, 0x19, 0x19}, // ESC p 1 25 25

	BARCODE_HEIGHT: []byte{0x1D, 0x68}, // GS h
	BARCODE_WIDTH:  []byte{0x1D, 0x77}, // GS w
	BARCODE_PRINT:  []byte{0x1D, 0x6B}, // GS k

	QR_MODEL:       []byte{0x1D, 0x28, 0x6B, 0x04, 0x00, 0x31, 0x41},       // GS ( k fn 65
	QR_MODULE_SIZE: []byte{0x1D, 0x28, 0x6B, 0x03, 0x00, 0x31, 0x43},       // GS ( k fn 67
	QR_ERROR_LEVEL: []byte{0x1D, 0x28, 0x6B, 0x03, 0x00, 0x31, 0x45},       // GS ( k fn 69
	QR_STORE:       []byte{0x1D, 0x28, 0x6B},                               // GS ( k pL pH 49 80 48
	QR_PRINT:       []byte{0x1D, 0x28, 0x6B, 0x03, 0x00, 0x31, 0x51, 0x30}, // GS ( k fn 81

	RASTER_IMAGE: []byte{0x1D, 0x76, 0x30}, // GS v 0
}

// Alignment is the horizontal justification of printed lines
type Alignment string

// Supported alignments
const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// UnderlineMode is the underline thickness
type UnderlineMode int

// Underline modes
const (
	UnderlineNone UnderlineMode = iota
	UnderlineSingle
	UnderlineDouble
)

// FontSize is the named magnification used by layout helpers
type FontSize string

// Named font sizes
const (
	FontSizeNormal FontSize = "normal"
	FontSizeTall   FontSize = "tall"
	FontSizeLarge  FontSize = "large"
)

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// CodepageCommand selects a character table
func CodepageCommand(name string) ([]byte, Codepage, error) {
	cp, err := LookupCodepage(name)
	if err != nil {
		return nil, Codepage{}, err
	}
	return concat(ESC_POS_COMMANDS.SELECT_CODEPAGE, []byte{cp.ID}), cp, nil
}

// AlignCommand sets line justification
func AlignCommand(a Alignment) ([]byte, error) {
	switch Alignment(strings.ToLower(string(a))) {
	case AlignLeft:
		return ESC_POS_COMMANDS.ALIGN_LEFT, nil
	case AlignCenter:
		return ESC_POS_COMMANDS.ALIGN_CENTER, nil
	case AlignRight:
		return ESC_POS_COMMANDS.ALIGN_RIGHT, nil
	default:
		return nil, newValidationError("align", ErrInvalidAlignment, a)
	}
}

// BoldCommand toggles emphasis
func BoldCommand(on bool) []byte {
	if on {
		return ESC_POS_COMMANDS.TEXT_BOLD_ON
	}
	return ESC_POS_COMMANDS.TEXT_BOLD_OFF
}

// ItalicCommand toggles italics
func ItalicCommand(on bool) []byte {
	if on {
		return ESC_POS_COMMANDS.TEXT_ITALIC_ON
	}
	return ESC_POS_COMMANDS.TEXT_ITALIC_OFF
}

// UnderlineCommand selects underline thickness
func UnderlineCommand(mode UnderlineMode) ([]byte, error) {
	switch mode {
	case UnderlineNone:
		return ESC_POS_COMMANDS.TEXT_UNDERLINE_OFF, nil
	case UnderlineSingle:
		return ESC_POS_COMMANDS.TEXT_UNDERLINE_ON, nil
	case UnderlineDouble:
		return ESC_POS_COMMANDS.TEXT_UNDERLINE_2, nil
	default:
		return nil, newValidationError("underline", ErrInvalidUnderline, mode)
	}
}

// SizeCommand magnifies glyphs n+1 times in both directions, n in 0..7
func SizeCommand(n int) ([]byte, error) {
	if n < 0 || n > 7 {
		return nil, newValidationError("size", ErrInvalidSize, n)
	}
	return concat(ESC_POS_COMMANDS.FONT_A, ESC_POS_COMMANDS.SELECT_SIZE, []byte{byte(n * 0x11)}), nil
}

// FontSizeCommand maps a named size to its magnification. It also reports the
// horizontal scale used for column budgets.
func FontSizeCommand(size FontSize) ([]byte, int, error) {
	switch FontSize(strings.ToLower(string(size))) {
	case FontSizeNormal, "":
		return concat(ESC_POS_COMMANDS.FONT_A, ESC_POS_COMMANDS.SELECT_SIZE, []byte{0x00}), 1, nil
	case FontSizeTall:
		return concat(ESC_POS_COMMANDS.FONT_A, ESC_POS_COMMANDS.SELECT_SIZE, []byte{0x01}), 1, nil
	case FontSizeLarge:
		return concat(ESC_POS_COMMANDS.FONT_A, ESC_POS_COMMANDS.SELECT_SIZE, []byte{0x11}), 2, nil
	default:
		return nil, 0, newValidationError("font size", ErrInvalidSize, size)
	}
}

// FeedCommand advances the paper n lines
func FeedCommand(n int) ([]byte, error) {
	if n < 0 || n > 255 {
		return nil, newValidationError("feed", ErrInvalidFeed, n)
	}
	return concat(ESC_POS_COMMANDS.FEED_LINES, []byte{byte(n)}), nil
}

// DrawerCommand pulses the cash drawer kick-out connector pin
func DrawerCommand(pin int) ([]byte, error) {
	switch pin {
	case 0, 2:
		return ESC_POS_COMMANDS.DRAWER_KICK_PIN2, nil
	case 5:
		return ESC_POS_COMMANDS.DRAWER_KICK_PIN5, nil
	default:
		return nil, newValidationError("cash drawer", ErrInvalidDrawerPin, pin)
	}
}

// RasterCommand frames a packed bitmap with GS v 0. Both dimensions must be
// multiples of 8.
func RasterCommand(bm *raster.Bitmap) ([]byte, error) {
	if bm == nil {
		return nil, newValidationError("image", ErrInvalidImage, nil)
	}
	if bm.Width <= 0 || bm.Height <= 0 || bm.Width%8 != 0 || bm.Height%8 != 0 {
		return nil, newValidationError("image", ErrInvalidDimensions, [2]int{bm.Width, bm.Height})
	}
	return rasterFrame(bm)
}

// rasterFrame frames any bitmap whose height fits the 16-bit field
func rasterFrame(bm *raster.Bitmap) ([]byte, error) {
	if bm.Stride > 0xFFFF || bm.Height > 0xFFFF {
		return nil, newValidationError("image", ErrInvalidDimensions, [2]int{bm.Width, bm.Height})
	}
	header := []byte{
		0x00,
		byte(bm.Stride & 0xFF), byte(bm.Stride >> 8 & 0xFF),
		byte(bm.Height & 0xFF), byte(bm.Height >> 8 & 0xFF),
	}
	return concat(ESC_POS_COMMANDS.RASTER_IMAGE, header, bm.Bits), nil
}
