// pkg/escpos/canvas/encoder.go
package canvas

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"receipt-encoder/pkg/escpos"
	"receipt-encoder/pkg/escpos/layout"
	"receipt-encoder/pkg/escpos/raster"
)

// ListOptions sets the font used by a dish list
type ListOptions struct {
	Size            escpos.FontSize `json:"size"`
	LargeLineHeight bool            `json:"large_line_height"`
}

// Encoder draws text on a Surface and prints the page as one raster image
// in page mode. Like escpos.Encoder it records the first error and skips
// the remaining calls until Encode.
type Encoder struct {
	surface Surface
	buffer  escpos.Buffer
	engine  *layout.Engine
	metrics *layout.Metrics
	profile layout.Profile
	opts    Options

	rasterOpts     raster.Options
	maxStripHeight int
	logger         *zap.Logger

	err        error
	align      escpos.Alignment
	bold       bool
	size       escpos.FontSize
	interval   int
	lineHeight int
	y          int
	cut        []byte
}

// NewEncoder creates an encoder drawing on surface
func NewEncoder(surface Surface, opts ...Option) *Encoder {
	e := &Encoder{
		surface:        surface,
		profile:        layout.DefaultProfile(),
		opts:           DefaultOptions(),
		rasterOpts:     raster.DefaultOptions(),
		maxStripHeight: escpos.DefaultMaxStripHeight - escpos.DefaultMaxStripHeight%8,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.engine = layout.NewEngine(layout.ClassifierFunc(func(r rune) int {
		return int(math.Round(e.surface.MeasureText(string(r))))
	}))
	e.reset()
	return e
}

func (e *Encoder) reset() {
	e.err = nil
	e.align = escpos.AlignLeft
	e.bold = false
	e.size = escpos.FontSizeNormal
	e.interval = 0
	e.cut = nil
	e.applySize()

	e.y = e.opts.LineHeightNormal
	e.surface.Clear()
	e.surface.Resize(e.width(), e.y+e.opts.Foot)
}

// Err returns the first recorded error
func (e *Encoder) Err() error {
	return e.err
}

// ClearErr forgets the recorded error
func (e *Encoder) ClearErr() {
	e.err = nil
}

func (e *Encoder) width() int {
	return e.profile.DotWidth
}

func (e *Encoder) fail(err error) *Encoder {
	e.err = err
	e.logger.Debug("Canvas command rejected", zap.Error(err))
	return e
}

func (e *Encoder) applySize() {
	px, height := e.opts.FontSizeNormal, e.opts.LineHeightNormal
	if e.size == escpos.FontSizeLarge {
		px, height = e.opts.FontSizeLarge, e.opts.LineHeightLarge
	}
	e.lineHeight = height + e.interval
	if err := e.surface.SetFontSize(px); err != nil && e.err == nil {
		e.fail(err)
	}
}

// Initialize queues ESC @ ahead of the page
func (e *Encoder) Initialize() *Encoder {
	if e.err != nil {
		return e
	}
	e.buffer.Push(escpos.ESC_POS_COMMANDS.INITIALIZE)
	return e
}

// PrinterType switches the page width to a named profile
func (e *Encoder) PrinterType(name string) *Encoder {
	if e.err != nil {
		return e
	}
	p, ok := layout.LookupProfile(name)
	if !ok {
		return e.fail(&escpos.ValidationError{Op: "profile", Value: name, Err: escpos.ErrUnknownProfile})
	}
	e.profile = p
	e.surface.Resize(e.width(), e.y+e.opts.Foot)
	return e
}

// Align sets where following lines are drawn
func (e *Encoder) Align(a escpos.Alignment) *Encoder {
	if e.err != nil {
		return e
	}
	if _, err := escpos.AlignCommand(a); err != nil {
		return e.fail(err)
	}
	e.align = escpos.Alignment(strings.ToLower(string(a)))
	return e
}

// Bold draws following text twice, one dot apart
func (e *Encoder) Bold(on bool) *Encoder {
	if e.err != nil {
		return e
	}
	e.bold = on
	return e
}

// FontSize selects normal, tall or large text. Tall text uses the normal
// font on canvas.
func (e *Encoder) FontSize(size escpos.FontSize) *Encoder {
	if e.err != nil {
		return e
	}
	if _, _, err := escpos.FontSizeCommand(size); err != nil {
		return e.fail(err)
	}
	e.size = escpos.FontSize(strings.ToLower(string(size)))
	if e.size == "" {
		e.size = escpos.FontSizeNormal
	}
	e.applySize()
	return e
}

// EnlargeLineHeight adds space between lines, twice as much for big fonts
func (e *Encoder) EnlargeLineHeight(big bool) *Encoder {
	if e.err != nil {
		return e
	}
	e.interval = e.opts.LineInterval
	if big {
		e.interval = 2 * e.opts.LineInterval
	}
	e.applySize()
	return e
}

// DefaultLineHeight removes the extra line spacing
func (e *Encoder) DefaultLineHeight() *Encoder {
	if e.err != nil {
		return e
	}
	e.interval = 0
	e.applySize()
	return e
}

// x mirrors a left-to-right position for right-to-left paper
func (e *Encoder) x(pos, textWidth float64) float64 {
	if e.opts.RTL {
		return float64(e.width()) - pos - textWidth
	}
	return pos
}

func (e *Encoder) draw(s string, x float64) {
	e.surface.FillText(s, x, float64(e.y))
	if e.bold {
		e.surface.FillText(s, x+1, float64(e.y))
	}
}

// Text draws s on the current line at the current alignment
func (e *Encoder) Text(s string) *Encoder {
	if e.err != nil {
		return e
	}
	w := e.surface.MeasureText(s)
	page := float64(e.width())

	var pos float64
	switch e.align {
	case escpos.AlignCenter:
		pos = (page - w) / 2
	case escpos.AlignRight:
		pos = page - w
	}
	e.draw(s, e.x(pos, w))
	return e
}

// Newline moves to the next line and grows the page
func (e *Encoder) Newline() *Encoder {
	if e.err != nil {
		return e
	}
	e.y += e.lineHeight
	e.surface.Resize(e.width(), e.y+e.opts.Foot)
	return e
}

// Line starts a new line and draws s, splitting it to the page width
func (e *Encoder) Line(s string) *Encoder {
	for _, part := range e.engine.Split(s, e.width()) {
		e.Newline().Text(part)
	}
	return e
}

// OneLine draws left and right at the two edges of a new line
func (e *Encoder) OneLine(left, right string) *Encoder {
	if e.err != nil {
		return e
	}
	lw, rw := e.surface.MeasureText(left), e.surface.MeasureText(right)
	page := float64(e.width())
	if lw+rw > page {
		e.Line(left)
		e.Newline()
		e.draw(right, e.x(page-rw, rw))
		return e
	}

	e.Newline()
	e.draw(left, e.x(0, lw))
	e.draw(right, e.x(page-rw, rw))
	return e
}

// PrintLine draws a rule of ch. A message is centred inside the rule when
// middle is set, otherwise it goes on its own centred line below.
func (e *Encoder) PrintLine(ch rune, message string, middle bool) *Encoder {
	if e.err != nil {
		return e
	}
	if middle {
		return e.Line(e.engine.Banner(ch, message, e.width()))
	}

	e.Line(e.engine.Rule(ch, e.width()))
	if message != "" {
		align := e.align
		e.align = escpos.AlignCenter
		e.Line(message)
		e.align = align
	}
	return e
}

// EmptyLine skips n lines of normal height
func (e *Encoder) EmptyLine(n int) *Encoder {
	if e.err != nil {
		return e
	}
	for range n {
		e.y += e.opts.LineHeightNormal
	}
	e.surface.Resize(e.width(), e.y+e.opts.Foot)
	return e
}

func (e *Encoder) listMetrics() layout.Metrics {
	if e.metrics != nil {
		return e.metrics.WithDefaults()
	}
	return Metrics(e.opts.RTL)
}

func (e *Encoder) listSize(size escpos.FontSize, large bool) {
	e.FontSize(size)
	if large {
		e.EnlargeLineHeight(size != escpos.FontSizeNormal)
	}
}

// FrontDeskDishes draws a priced dish list closed by a '=' rule. The list
// defaults to tall text.
func (e *Encoder) FrontDeskDishes(items []layout.Item, opts layout.FrontDeskOptions, list ListOptions) *Encoder {
	if list.Size == "" {
		list.Size = escpos.FontSizeTall
	}
	opts.ClosingRule = true
	return e.dishes(list, func() []layout.Line {
		return e.engine.FrontDesk(items, opts, e.listMetrics(), e.width())
	})
}

// KitchenDishes draws a dish list without prices. The list defaults to
// large text.
func (e *Encoder) KitchenDishes(items []layout.Item, opts layout.KitchenOptions, list ListOptions) *Encoder {
	if list.Size == "" {
		list.Size = escpos.FontSizeLarge
	}
	return e.dishes(list, func() []layout.Line {
		return e.engine.Kitchen(items, opts, e.listMetrics(), e.width())
	})
}

// dishes lays the list out at its own size, so widths are measured with the
// font it is drawn in.
func (e *Encoder) dishes(list ListOptions, compose func() []layout.Line) *Encoder {
	if e.err != nil {
		return e
	}
	origin := e.size

	e.listSize(list.Size, list.LargeLineHeight)
	if e.err != nil {
		return e
	}

	for _, line := range compose() {
		switch line.Kind {
		case layout.LineColumns:
			e.OneLine(line.Left, line.Right)
		case layout.LineSeparator:
			e.DefaultLineHeight().FontSize(escpos.FontSizeNormal)
			e.PrintLine(line.Char, "", false)
			e.listSize(list.Size, list.LargeLineHeight)
		case layout.LineRule:
			e.FontSize(escpos.FontSizeNormal).DefaultLineHeight()
			e.PrintLine(line.Char, "", false)
		default:
			e.Line(line.Left)
		}
	}

	return e.DefaultLineHeight().FontSize(origin)
}

// Cut cuts the paper fully after the page is printed
func (e *Encoder) Cut() *Encoder {
	if e.err != nil {
		return e
	}
	e.cut = escpos.ESC_POS_COMMANDS.CUT_FULL
	return e
}

// CutPartial cuts the paper partially after the page is printed
func (e *Encoder) CutPartial() *Encoder {
	if e.err != nil {
		return e
	}
	e.cut = escpos.ESC_POS_COMMANDS.CUT_PARTIAL
	return e
}

// Encode prints the page in page mode followed by the deferred cut, then
// clears the page. The paper profile is kept.
func (e *Encoder) Encode() ([]byte, error) {
	if err := e.err; err != nil {
		e.buffer.Reset()
		e.reset()
		return nil, err
	}

	cmds, err := e.page()
	if err != nil {
		e.buffer.Reset()
		e.reset()
		return nil, err
	}

	e.buffer.Push(escpos.ESC_POS_COMMANDS.PAGE_MODE)
	for _, cmd := range cmds {
		e.buffer.Push(cmd)
	}
	e.buffer.Push(escpos.ESC_POS_COMMANDS.FORM_FEED)
	if e.cut != nil {
		e.buffer.Push(e.cut)
	}

	out := e.buffer.Flatten()
	w, h := e.surface.Size()
	e.logger.Debug("Canvas page encoded",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("strips", len(cmds)),
		zap.Int("bytes", len(out)),
	)

	e.reset()
	return out, nil
}

// page rasterizes the surface into raster commands
func (e *Encoder) page() ([][]byte, error) {
	bm, err := raster.Rasterize(e.surface.Pixels(), e.rasterOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize page: %w", err)
	}

	strips := bm.Padded(8).Strips(e.maxStripHeight)
	cmds := make([][]byte, 0, len(strips))
	for _, strip := range strips {
		cmd, err := escpos.RasterCommand(strip)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
