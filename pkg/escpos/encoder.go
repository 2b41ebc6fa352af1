// pkg/escpos/encoder.go
package escpos

import (
	"errors"
	"image"
	"strings"

	"go.uber.org/zap"

	"receipt-encoder/pkg/escpos/layout"
	"receipt-encoder/pkg/escpos/raster"
	"receipt-encoder/pkg/escpos/symbol"
)

// Encoder accumulates printer commands and flattens them with Encode.
//
// Methods return the encoder so calls can be chained. The first failing call
// records its error and queues nothing; every later call is skipped until
// ClearErr, and Encode reports the error. An Encoder is not safe for
// concurrent use; use one per print job.
type Encoder struct {
	buffer Buffer
	err    error

	engine         *layout.Engine
	metrics        layout.Metrics
	profile        layout.Profile
	rasterOpts     raster.Options
	maxStripHeight int
	logger         *zap.Logger

	codepage Codepage
	scale    int
	sizeCmd  []byte
}

// NewEncoder creates an encoder for the default 58mm profile
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		engine:         layout.NewEngine(nil),
		metrics:        layout.DefaultMetrics(),
		profile:        layout.DefaultProfile(),
		rasterOpts:     raster.DefaultOptions(),
		maxStripHeight: DefaultMaxStripHeight - DefaultMaxStripHeight%8,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reset()
	return e
}

func (e *Encoder) reset() {
	e.err = nil
	e.codepage = ASCII
	e.scale = 1
	e.sizeCmd = nil
}

// Err returns the first error recorded since the last Encode or ClearErr
func (e *Encoder) Err() error {
	return e.err
}

// ClearErr forgets the recorded error so the encoder accepts commands again
func (e *Encoder) ClearErr() {
	e.err = nil
}

// PrinterProfile returns the active paper profile
func (e *Encoder) PrinterProfile() layout.Profile {
	return e.profile
}

// Budget is the number of columns available at the current font size
func (e *Encoder) Budget() int {
	return e.profile.Columns(e.scale)
}

// Len returns the number of bytes queued so far
func (e *Encoder) Len() int {
	return e.buffer.Size()
}

func (e *Encoder) fail(err error) *Encoder {
	e.err = err
	e.logger.Debug("Command rejected", zap.Error(err))
	return e
}

func (e *Encoder) push(parts ...[]byte) *Encoder {
	for _, p := range parts {
		e.buffer.Push(p)
	}
	return e
}

// Initialize resets the printer to its power-on state
func (e *Encoder) Initialize() *Encoder {
	if e.err != nil {
		return e
	}
	return e.push(ESC_POS_COMMANDS.INITIALIZE)
}

// Codepage selects the character table used for following text
func (e *Encoder) Codepage(name string) *Encoder {
	if e.err != nil {
		return e
	}
	cmd, cp, err := CodepageCommand(name)
	if err != nil {
		return e.fail(err)
	}
	e.codepage = cp
	return e.push(cmd)
}

// Profile selects the paper width by name, e.g. "58mm" or "80mm"
func (e *Encoder) Profile(name string) *Encoder {
	if e.err != nil {
		return e
	}
	p, ok := layout.LookupProfile(name)
	if !ok {
		return e.fail(newValidationError("profile", ErrUnknownProfile, name))
	}
	e.profile = p
	return e
}

// Align sets left, center or right justification
func (e *Encoder) Align(a Alignment) *Encoder {
	if e.err != nil {
		return e
	}
	cmd, err := AlignCommand(a)
	if err != nil {
		return e.fail(err)
	}
	return e.push(cmd)
}

// Bold toggles emphasized printing
func (e *Encoder) Bold(on bool) *Encoder {
	if e.err != nil {
		return e
	}
	return e.push(BoldCommand(on))
}

// Italic toggles italic printing
func (e *Encoder) Italic(on bool) *Encoder {
	if e.err != nil {
		return e
	}
	return e.push(ItalicCommand(on))
}

// Underline toggles a single underline
func (e *Encoder) Underline(on bool) *Encoder {
	mode := UnderlineNone
	if on {
		mode = UnderlineSingle
	}
	return e.underline(mode)
}

// UnderlineDouble turns on the thick underline
func (e *Encoder) UnderlineDouble() *Encoder {
	return e.underline(UnderlineDouble)
}

func (e *Encoder) underline(mode UnderlineMode) *Encoder {
	if e.err != nil {
		return e
	}
	cmd, err := UnderlineCommand(mode)
	if err != nil {
		return e.fail(err)
	}
	return e.push(cmd)
}

// Size magnifies glyphs n+1 times, n in 0..7
func (e *Encoder) Size(n int) *Encoder {
	if e.err != nil {
		return e
	}
	cmd, err := SizeCommand(n)
	if err != nil {
		return e.fail(err)
	}
	e.scale = n + 1
	e.sizeCmd = cmd
	return e.push(cmd)
}

// FontSize selects a named size
func (e *Encoder) FontSize(size FontSize) *Encoder {
	if e.err != nil {
		return e
	}
	cmd, scale, err := FontSizeCommand(size)
	if err != nil {
		return e.fail(err)
	}
	e.scale = scale
	e.sizeCmd = cmd
	return e.push(cmd)
}

// Text prints s without a trailing newline
func (e *Encoder) Text(s string) *Encoder {
	if e.err != nil {
		return e
	}
	data := e.codepage.Encode(s)
	if e.codepage.Wide {
		return e.push(ESC_POS_COMMANDS.WIDE_ON, data, ESC_POS_COMMANDS.WIDE_OFF)
	}
	return e.push(data)
}

// TextWrap prints s word-wrapped at width columns
func (e *Encoder) TextWrap(s string, width int) *Encoder {
	if width <= 0 {
		width = e.Budget()
	}
	return e.Text(strings.Join(e.engine.Wrap(s, width), "\r\n"))
}

// Newline ends the current line
func (e *Encoder) Newline() *Encoder {
	if e.err != nil {
		return e
	}
	return e.push(ESC_POS_COMMANDS.NEWLINE)
}

// Line prints s followed by a newline
func (e *Encoder) Line(s string) *Encoder {
	return e.Text(s).Newline()
}

// OneLine prints left and right on the same line, pushed to the edges. When
// they do not fit they are printed on two lines.
func (e *Encoder) OneLine(left, right string) *Encoder {
	for _, l := range e.engine.OneLine(left, right, e.Budget()) {
		e.Line(l)
	}
	return e
}

// PrintLine prints ch repeated across the paper
func (e *Encoder) PrintLine(ch rune) *Encoder {
	return e.Line(e.engine.Rule(ch, e.Budget()))
}

// Banner prints message centred in a rule of ch
func (e *Encoder) Banner(ch rune, message string) *Encoder {
	return e.Line(e.engine.Banner(ch, message, e.Budget()))
}

// EmptyLine prints n blank lines
func (e *Encoder) EmptyLine(n int) *Encoder {
	for range n {
		e.Line("")
	}
	return e
}

// FrontDeskDishes prints a priced dish list
func (e *Encoder) FrontDeskDishes(items []layout.Item, opts layout.FrontDeskOptions) *Encoder {
	if e.err != nil {
		return e
	}
	return e.lines(e.engine.FrontDesk(items, opts, e.metrics, e.Budget()))
}

// KitchenDishes prints a dish list with counts only
func (e *Encoder) KitchenDishes(items []layout.Item, opts layout.KitchenOptions) *Encoder {
	if e.err != nil {
		return e
	}
	return e.lines(e.engine.Kitchen(items, opts, e.metrics, e.Budget()))
}

// lines emits composed lines. Separators between dishes are printed at
// normal size even inside a magnified list.
func (e *Encoder) lines(lines []layout.Line) *Encoder {
	budget := e.Budget()
	for _, line := range lines {
		switch line.Kind {
		case layout.LineColumns:
			for _, l := range e.engine.OneLine(line.Left, line.Right, budget) {
				e.Line(l)
			}
		case layout.LineSeparator:
			if e.scale == 1 {
				e.Line(e.engine.Rule(line.Char, budget))
				continue
			}
			normal, _, _ := FontSizeCommand(FontSizeNormal)
			e.push(normal)
			e.Line(e.engine.Rule(line.Char, e.profile.Columns(1)))
			e.push(e.sizeCmd)
		case layout.LineRule:
			e.Line(e.engine.Rule(line.Char, budget))
		default:
			e.Line(line.Left)
		}
	}
	return e
}

// Barcode prints a barcode with the printer's own symbol generator
func (e *Encoder) Barcode(value, symbology string, height int) *Encoder {
	if e.err != nil {
		return e
	}
	cmd, err := BarcodeCommand(value, symbology, height)
	if err != nil {
		return e.fail(err)
	}
	return e.push(cmd)
}

// QRCode prints a QR code with the printer's own symbol generator
func (e *Encoder) QRCode(value string, opts QROptions) *Encoder {
	if e.err != nil {
		return e
	}
	cmd, err := QRCodeCommand(value, opts)
	if err != nil {
		return e.fail(err)
	}
	return e.push(cmd)
}

// QRCodeImage renders the QR code on the host and prints it as a raster
// image, for printers without GS ( k support.
func (e *Encoder) QRCodeImage(value, level string, moduleSize int) *Encoder {
	if e.err != nil {
		return e
	}
	img, err := symbol.QR(value, level, moduleSize)
	if errors.Is(err, symbol.ErrInvalidLevel) {
		return e.fail(newValidationError("qrcode", ErrInvalidErrorLevel, level))
	}
	if err != nil {
		return e.fail(newValidationError("qrcode", ErrInvalidQRData, err.Error()))
	}
	return e.ImageFit(img)
}

// BarcodeImage renders a barcode on the host and prints it as a raster image
func (e *Encoder) BarcodeImage(value, symbology string, width, height int) *Encoder {
	if e.err != nil {
		return e
	}
	name := symbology
	native, nativeErr := LookupSymbology(symbology)
	if nativeErr == nil {
		name = native.Name
	}

	img, err := symbol.Barcode(value, name, width, height)
	switch {
	case err == nil:
	case errors.Is(err, symbol.ErrUnsupportedSymbology) && nativeErr == nil:
		return e.fail(&UnsupportedFeatureError{
			Feature: "barcode image",
			Name:    name,
			Reason:  "no host renderer, use the native barcode op",
		})
	case errors.Is(err, symbol.ErrUnsupportedSymbology):
		return e.fail(newValidationError("barcode", ErrUnsupportedSymbology, symbology))
	case errors.Is(err, symbol.ErrTooNarrow):
		return e.fail(newValidationError("barcode width", ErrInvalidDimensions, width))
	default:
		return e.fail(newValidationError("barcode", ErrInvalidBarcodeValue, value))
	}
	return e.ImageFit(img)
}

// Image prints img as-is. Both dimensions must be multiples of 8.
func (e *Encoder) Image(img image.Image) *Encoder {
	if e.err != nil {
		return e
	}
	if img == nil {
		return e.fail(newValidationError("image", ErrInvalidImage, nil))
	}
	b := img.Bounds()
	if b.Dx()%8 != 0 || b.Dy()%8 != 0 || b.Empty() {
		return e.fail(newValidationError("image", ErrInvalidDimensions, [2]int{b.Dx(), b.Dy()}))
	}

	bm, err := raster.Rasterize(img, e.rasterOpts)
	if err != nil {
		return e.fail(newValidationError("image", ErrInvalidImage, err.Error()))
	}
	cmd, err := RasterCommand(bm)
	if err != nil {
		return e.fail(err)
	}
	return e.push(cmd)
}

// ImageFit prints an image of any size. It is scaled down to the paper
// width, padded to whole bytes and sent in strips.
func (e *Encoder) ImageFit(img image.Image) *Encoder {
	if e.err != nil {
		return e
	}
	if img == nil || img.Bounds().Empty() {
		return e.fail(newValidationError("image", ErrInvalidImage, nil))
	}

	bm, err := raster.Rasterize(raster.Fit(img, e.profile.DotWidth), e.rasterOpts)
	if err != nil {
		return e.fail(newValidationError("image", ErrInvalidImage, err.Error()))
	}
	return e.bitmap(bm.Padded(8))
}

// bitmap frames every strip before queueing any of them
func (e *Encoder) bitmap(bm *raster.Bitmap) *Encoder {
	strips := bm.Strips(e.maxStripHeight)
	cmds := make([][]byte, 0, len(strips))
	for _, strip := range strips {
		cmd, err := rasterFrame(strip)
		if err != nil {
			return e.fail(err)
		}
		cmds = append(cmds, cmd)
	}
	return e.push(cmds...)
}

// Feed advances the paper n lines
func (e *Encoder) Feed(n int) *Encoder {
	if e.err != nil {
		return e
	}
	cmd, err := FeedCommand(n)
	if err != nil {
		return e.fail(err)
	}
	return e.push(cmd)
}

// Cut performs a full cut
func (e *Encoder) Cut() *Encoder {
	if e.err != nil {
		return e
	}
	return e.push(ESC_POS_COMMANDS.CUT_FULL)
}

// CutPartial leaves a small bridge of paper uncut
func (e *Encoder) CutPartial() *Encoder {
	if e.err != nil {
		return e
	}
	return e.push(ESC_POS_COMMANDS.CUT_PARTIAL)
}

// OpenDrawer pulses the cash drawer on pin 2 or 5
func (e *Encoder) OpenDrawer(pin int) *Encoder {
	if e.err != nil {
		return e
	}
	cmd, err := DrawerCommand(pin)
	if err != nil {
		return e.fail(err)
	}
	return e.push(cmd)
}

// Raw queues data unchanged
func (e *Encoder) Raw(data []byte) *Encoder {
	if e.err != nil {
		return e
	}
	return e.push(append([]byte(nil), data...))
}

// Encode flattens the queued commands and resets the session. The printer
// profile survives the reset. If a command failed, its error is returned
// and the queued commands are discarded.
func (e *Encoder) Encode() ([]byte, error) {
	if err := e.err; err != nil {
		e.buffer.Reset()
		e.reset()
		return nil, err
	}

	chunks := e.buffer.Len()
	out := e.buffer.Flatten()
	e.reset()

	e.logger.Debug("Commands encoded",
		zap.Int("chunks", chunks),
		zap.Int("bytes", len(out)),
		zap.String("profile", e.profile.Name),
	)
	return out, nil
}
