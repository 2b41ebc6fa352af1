// internal/receipt/document.go
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"receipt-encoder/pkg/escpos"
	"receipt-encoder/pkg/escpos/canvas"
	"receipt-encoder/pkg/escpos/layout"
)

// Renderer selects how a document is turned into printer bytes
type Renderer string

const (
	// RendererESCPOS sends text to the printer's own fonts
	RendererESCPOS Renderer = "escpos"
	// RendererCanvas draws the whole document on the host and prints one image
	RendererCanvas Renderer = "canvas"
)

// Command operations
const (
	OpText         = "text"
	OpLine         = "line"
	OpNewline      = "newline"
	OpWrap         = "wrap"
	OpCodepage     = "codepage"
	OpAlign        = "align"
	OpBold         = "bold"
	OpItalic       = "italic"
	OpUnderline    = "underline"
	OpSize         = "size"
	OpFontSize     = "font_size"
	OpLineHeight   = "line_height"
	OpOneLine      = "one_line"
	OpRule         = "rule"
	OpEmpty        = "empty"
	OpFrontDesk    = "front_desk"
	OpKitchen      = "kitchen"
	OpBarcode      = "barcode"
	OpBarcodeImage = "barcode_image"
	OpQRCode       = "qrcode"
	OpQRCodeImage  = "qrcode_image"
	OpImage        = "image"
	OpFeed         = "feed"
	OpCut          = "cut"
	OpCutPartial   = "cut_partial"
	OpDrawer       = "drawer"
	OpRaw          = "raw"
)

// Document errors
var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrUnknownRenderer = errors.New("unknown renderer")
	ErrUnknownOp       = errors.New("unknown command")
	ErrUnsupportedOp   = errors.New("command not supported by renderer")
)

// Document is a print job described as a list of commands
type Document struct {
	Renderer   Renderer  `json:"renderer"`
	Profile    string    `json:"profile"`
	Codepage   string    `json:"codepage"`
	Initialize *bool     `json:"initialize,omitempty"`
	Commands   []Command `json:"commands"`
}

// Command is one operation of a document. Only the fields used by Op are
// read.
type Command struct {
	Op string `json:"op"`

	Text   string `json:"text,omitempty"`
	Left   string `json:"left,omitempty"`
	Right  string `json:"right,omitempty"`
	Value  string `json:"value,omitempty"`
	Char   string `json:"char,omitempty"`
	Middle bool   `json:"middle,omitempty"`
	On     bool   `json:"on,omitempty"`
	Double bool   `json:"double,omitempty"`
	Fit    bool   `json:"fit,omitempty"`

	N          int    `json:"n,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Symbology  string `json:"symbology,omitempty"`
	Level      string `json:"level,omitempty"`
	Model      int    `json:"model,omitempty"`
	ModuleSize int    `json:"module_size,omitempty"`

	// Data holds image bytes for image and the payload for raw
	Data []byte `json:"data,omitempty"`

	Items     []layout.Item           `json:"items,omitempty"`
	FrontDesk layout.FrontDeskOptions `json:"front_desk,omitempty"`
	Kitchen   layout.KitchenOptions   `json:"kitchen,omitempty"`
	List      canvas.ListOptions      `json:"list,omitempty"`
}

// CommandError reports the command that stopped a document
type CommandError struct {
	Index int
	Op    string
	Err   error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("commands[%d] %s: %v", e.Index, e.Op, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err was caused by the document rather than
// by the service
func IsClientError(err error) bool {
	var validation *escpos.ValidationError
	var unsupported *escpos.UnsupportedFeatureError
	return errors.As(err, &validation) ||
		errors.As(err, &unsupported) ||
		errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, ErrUnknownRenderer) ||
		errors.Is(err, ErrUnknownOp) ||
		errors.Is(err, ErrUnsupportedOp)
}

func (d *Document) renderer() Renderer {
	r := Renderer(strings.ToLower(strings.TrimSpace(string(d.Renderer))))
	if r == "" {
		return RendererESCPOS
	}
	return r
}

func (d *Document) initialize(fallback bool) bool {
	if d.Initialize == nil {
		return fallback
	}
	return *d.Initialize
}

func pick(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func ruleChar(s string, fallback rune) rune {
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return fallback
	}
	return r
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// decodeImage reads PNG, JPEG, GIF, BMP, TIFF or WebP data and applies the
// EXIF orientation
func decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image data is empty", ErrInvalidDocument)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return img, nil
}
