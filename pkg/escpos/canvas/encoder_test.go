package canvas

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipt-encoder/pkg/escpos"
	"receipt-encoder/pkg/escpos/layout"
)

type fill struct {
	text string
	x, y float64
}

// stubSurface measures every rune as half the font size and marks one black
// dot at the bottom-left corner of each filled text.
type stubSurface struct {
	px    float64
	w, h  int
	fills []fill
}

func (s *stubSurface) MeasureText(text string) float64 {
	return float64(utf8.RuneCountInString(text)) * s.px / 2
}

func (s *stubSurface) FillText(text string, x, y float64) {
	s.fills = append(s.fills, fill{text: text, x: x, y: y})
}

func (s *stubSurface) SetFontSize(px float64) error {
	s.px = px
	return nil
}

func (s *stubSurface) Resize(width, height int) {
	s.w, s.h = width, height
}

func (s *stubSurface) Clear() {
	s.fills = nil
}

func (s *stubSurface) Pixels() image.Image {
	img := image.NewGray(image.Rect(0, 0, s.w, s.h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	for _, f := range s.fills {
		img.SetGray(int(f.x), int(f.y)-1, color.Gray{})
	}
	return img
}

func (s *stubSurface) Size() (int, int) {
	return s.w, s.h
}

func (s *stubSurface) texts() []string {
	out := make([]string, len(s.fills))
	for i, f := range s.fills {
		out[i] = f.text
	}
	return out
}

func newStub(opts ...Option) (*Encoder, *stubSurface) {
	s := &stubSurface{}
	return NewEncoder(s, opts...), s
}

func TestNewEncoderPreparesPage(t *testing.T) {
	_, s := newStub()
	w, h := s.Size()
	assert.Equal(t, 384, w)
	assert.Equal(t, 32+16, h)
	assert.Equal(t, 28.0, s.px)
}

func TestLineStartsNewLine(t *testing.T) {
	e, s := newStub()
	e.Line("hello")

	require.Len(t, s.fills, 1)
	assert.Equal(t, fill{"hello", 0, 64}, s.fills[0])
	_, h := s.Size()
	assert.Equal(t, 80, h)
}

func TestLineSplitsToPageWidth(t *testing.T) {
	e, s := newStub()
	// 14px per rune, 27 fit on 384px
	e.Line(strings.Repeat("a", 30))

	assert.Equal(t, []string{strings.Repeat("a", 27), "aaa"}, s.texts())
	assert.Equal(t, 96.0, s.fills[1].y)
}

func TestAlignment(t *testing.T) {
	e, s := newStub()
	e.Align(escpos.AlignCenter).Line("ab").Align("RIGHT").Line("ab")

	assert.Equal(t, 178.0, s.fills[0].x)
	assert.Equal(t, 356.0, s.fills[1].x)

	e.Align("middle")
	assert.ErrorIs(t, e.Err(), escpos.ErrInvalidAlignment)
	_, err := e.Encode()
	assert.Error(t, err)
}

func TestRightToLeftMirrors(t *testing.T) {
	e, s := newStub(WithOptions(Options{RTL: true}))
	e.Line("ab").OneLine("a", "b")

	assert.Equal(t, 356.0, s.fills[0].x)
	assert.Equal(t, 370.0, s.fills[1].x)
	assert.Equal(t, 0.0, s.fills[2].x)
}

func TestBoldDoubleStrikes(t *testing.T) {
	e, s := newStub()
	e.Bold(true).Line("x").Bold(false).Line("y")

	require.Len(t, s.fills, 3)
	assert.Equal(t, 0.0, s.fills[0].x)
	assert.Equal(t, 1.0, s.fills[1].x)
	assert.Equal(t, "y", s.fills[2].text)
}

func TestOneLine(t *testing.T) {
	e, s := newStub()
	e.OneLine("a", "b")

	assert.Equal(t, []fill{{"a", 0, 64}, {"b", 370, 64}}, s.fills)

	// too wide: left on its own line, right aligned below
	s.fills = nil
	e.OneLine(strings.Repeat("a", 20), strings.Repeat("b", 10))
	require.Len(t, s.fills, 2)
	assert.Equal(t, 96.0, s.fills[0].y)
	assert.Equal(t, fill{strings.Repeat("b", 10), 244, 128}, s.fills[1])
}

func TestFontSizeAndLineHeight(t *testing.T) {
	e, s := newStub()
	e.FontSize(escpos.FontSizeLarge).Line("L")
	assert.Equal(t, 56.0, s.px)
	assert.Equal(t, 32.0+56, s.fills[0].y)

	e.FontSize(escpos.FontSizeTall).EnlargeLineHeight(false).Line("T")
	assert.Equal(t, 28.0, s.px)
	assert.Equal(t, 88.0+40, s.fills[1].y)

	e.EnlargeLineHeight(true).Line("B")
	assert.Equal(t, 128.0+48, s.fills[2].y)

	e.DefaultLineHeight().EmptyLine(2).Line("E")
	assert.Equal(t, 176.0+64+32, s.fills[3].y)

	e.FontSize("giant")
	assert.ErrorIs(t, e.Err(), escpos.ErrInvalidSize)
}

func TestPrintLine(t *testing.T) {
	e, s := newStub()
	e.PrintLine('-', "", false)
	assert.Equal(t, strings.Repeat("-", 27), s.fills[0].text)

	e.PrintLine('*', "END", true)
	// (384 - 42) / 2 / 14 = 12 on each side
	assert.Equal(t, strings.Repeat("*", 12)+"END"+strings.Repeat("*", 12), s.fills[1].text)

	e.PrintLine('=', "thanks", false)
	require.Len(t, s.fills, 4)
	assert.Equal(t, "thanks", s.fills[3].text)
	assert.Equal(t, (384.0-84)/2, s.fills[3].x)
}

func TestFrontDeskDishes(t *testing.T) {
	e, s := newStub()
	items := []layout.Item{
		{Name: "Noodles", Count: 2, UnitPrice: decimal.RequireFromString("5")},
		{Name: "Nothing", Count: 0, UnitPrice: decimal.RequireFromString("5")},
	}
	e.FrontDeskDishes(items, layout.FrontDeskOptions{}, ListOptions{})

	assert.Equal(t, []string{"Noodles", "x2   10.00", strings.Repeat("=", 27)}, s.texts())
	assert.Equal(t, 244.0, s.fills[1].x)
	assert.Equal(t, 96.0, s.fills[2].y)
	assert.Equal(t, 28.0, s.px)
}

func TestKitchenDishesSeparatorAtNormalSize(t *testing.T) {
	e, s := newStub()
	items := []layout.Item{
		{Name: "A", Count: 1},
		{Name: "B", Count: 2},
	}
	e.KitchenDishes(items, layout.KitchenOptions{LineBetweenDishes: true}, ListOptions{})

	assert.Equal(t, []string{"A", "x1", strings.Repeat("-", 27), "B", "x2"}, s.texts())
	ys := make([]float64, len(s.fills))
	for i, f := range s.fills {
		ys[i] = f.y
	}
	assert.Equal(t, []float64{88, 88, 120, 176, 176}, ys)
	// back to the size in effect before the list
	assert.Equal(t, 28.0, s.px)
}

func TestEncodePage(t *testing.T) {
	e, s := newStub()
	out, err := e.Initialize().Line("x").CutPartial().Encode()
	require.NoError(t, err)

	stride, height := 48, 80
	require.Len(t, out, 2+2+8+stride*height+1+4)
	assert.Equal(t, []byte{0x1B, 0x40, 0x1B, 0x4C}, out[:4])
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 48, 0x00, 80, 0x00}, out[4:12])

	// the stub marks the dot above the text bottom
	pixels := out[12 : 12+stride*height]
	assert.Equal(t, byte(0x80), pixels[63*stride])

	tail := out[len(out)-5:]
	assert.Equal(t, []byte{0x0C, 0x1D, 0x56, 0x42, 0x00}, tail)

	// page is cleared, width kept
	assert.Empty(t, s.fills)
	w, h := s.Size()
	assert.Equal(t, 384, w)
	assert.Equal(t, 48, h)
}

func TestEncodeStripsAndProfile(t *testing.T) {
	e, _ := newStub(WithMaxStripHeight(32))
	out, err := e.PrinterType("80").EmptyLine(1).Cut().Encode()
	require.NoError(t, err)

	// 568 wide, 80 high: strips of 32, 32 and 16 rows
	stride := 71
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 71, 0x00, 32, 0x00}, out[2:10])
	second := out[2+8+stride*32:]
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 71, 0x00, 32, 0x00}, second[:8])
	third := second[8+stride*32:]
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 71, 0x00, 16, 0x00}, third[:8])
	assert.Equal(t, []byte{0x0C, 0x1D, 0x56, 0x41, 0x00}, third[8+stride*16:])

	_, err = e.PrinterType("112mm").Encode()
	assert.ErrorIs(t, err, escpos.ErrUnknownProfile)
}
