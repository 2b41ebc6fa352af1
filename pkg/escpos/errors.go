// pkg/escpos/errors.go
package escpos

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ValidationError
var (
	ErrUnsupportedCodepage  = errors.New("unsupported codepage")
	ErrUnknownProfile       = errors.New("unknown printer profile")
	ErrInvalidAlignment     = errors.New("invalid alignment")
	ErrInvalidSize          = errors.New("invalid size")
	ErrInvalidUnderline     = errors.New("invalid underline mode")
	ErrUnsupportedSymbology = errors.New("unsupported barcode symbology")
	ErrInvalidBarcodeValue  = errors.New("invalid barcode value")
	ErrInvalidBarcodeHeight = errors.New("invalid barcode height")
	ErrInvalidModel         = errors.New("invalid QR model")
	ErrInvalidErrorLevel    = errors.New("invalid QR error correction level")
	ErrInvalidQRData        = errors.New("invalid QR data")
	ErrInvalidDimensions    = errors.New("invalid image dimensions")
	ErrInvalidImage         = errors.New("invalid image")
	ErrInvalidFeed          = errors.New("invalid feed length")
	ErrInvalidDrawerPin     = errors.New("invalid cash drawer pin")
)

// ValidationError reports an argument the printer command cannot carry. It is
// returned before anything is queued.
type ValidationError struct {
	Op    string
	Value interface{}
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v (got %v)", e.Op, e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(op string, err error, value interface{}) error {
	return &ValidationError{Op: op, Value: value, Err: err}
}

// UnsupportedFeatureError reports a known capability with no mapping available
type UnsupportedFeatureError struct {
	Feature string
	Name    string
	Reason  string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s %q is not supported: %s", e.Feature, e.Name, e.Reason)
}
