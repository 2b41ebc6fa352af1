package escpos

import (
	"image"
	"image/color"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"receipt-encoder/pkg/escpos/layout"
	"receipt-encoder/pkg/escpos/raster"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEncodeCodepage(t *testing.T) {
	out, err := NewEncoder().Codepage("cp437").Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1B, 0x74, 0x00}, out)
}

func TestUnmappedCodepageSelectsTable(t *testing.T) {
	out, err := NewEncoder().Codepage("cp737").Text("héllo").Encode()
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0x1B, 0x74, 0x40}, "h?llo"...), out)
}

func TestUnknownCodepageLeavesBufferEmpty(t *testing.T) {
	e := NewEncoder().Codepage("nope")

	var verr *ValidationError
	require.ErrorAs(t, e.Err(), &verr)
	assert.Equal(t, "codepage", verr.Op)
	assert.Zero(t, e.Len())

	out, err := e.Encode()
	assert.ErrorIs(t, err, ErrUnsupportedCodepage)
	assert.Nil(t, out)
}

func TestCut(t *testing.T) {
	out, err := NewEncoder().Cut().Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1D, 0x56, 0x41, 0x00}, out)

	out, err = NewEncoder().CutPartial().Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1D, 0x56, 0x42, 0x00}, out)
}

func TestEncodeTwiceIsEmpty(t *testing.T) {
	e := NewEncoder().Initialize().Line("hello")

	out, err := e.Encode()
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, err = e.Encode()
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestStickyError(t *testing.T) {
	e := NewEncoder().Line("a").Align("middle").Line("b").Cut()

	assert.ErrorIs(t, e.Err(), ErrInvalidAlignment)
	assert.Equal(t, 3, e.Len())

	e.ClearErr()
	e.Line("c")
	out, err := e.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 0x0A, 0x0D, 'c', 0x0A, 0x0D}, out)
}

func TestEncodeResetsStateButKeepsProfile(t *testing.T) {
	e := NewEncoder().Profile("80mm").Codepage("cp936").FontSize(FontSizeLarge)
	assert.Equal(t, 23, e.Budget())
	_, err := e.Encode()
	require.NoError(t, err)

	assert.Equal(t, layout.Profile80mm, e.PrinterProfile().Name)
	assert.Equal(t, 47, e.Budget())

	// codepage is back to ascii, so no wide bracket
	out, err := e.Text("x").Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{'x'}, out)

	_, err = e.Profile("112mm").Encode()
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestWideCodepageText(t *testing.T) {
	out, err := NewEncoder().Codepage("gbk").Text("中").Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1B, 0x74, 0xFF, 0x1C, 0x26, 0xD6, 0xD0, 0x1C, 0x2E}, out)
}

func TestStyleCommands(t *testing.T) {
	out, err := NewEncoder().
		Bold(true).Italic(true).Underline(true).UnderlineDouble().Underline(false).
		Align(AlignRight).Size(2).
		Encode()
	require.NoError(t, err)

	want := []byte{
		0x1B, 0x45, 0x01,
		0x1B, 0x34, 0x01,
		0x1B, 0x2D, 0x01,
		0x1B, 0x2D, 0x02,
		0x1B, 0x2D, 0x00,
		0x1B, 0x61, 0x02,
		0x1B, 0x4D, 0x00, 0x1D, 0x21, 0x22,
	}
	assert.Equal(t, want, out)
}

func TestOneLineUsesProfileBudget(t *testing.T) {
	out, err := NewEncoder().OneLine("Total", "9.50").Encode()
	require.NoError(t, err)

	line := "Total" + spaces(31-5-4) + "9.50"
	assert.Equal(t, append([]byte(line), 0x0A, 0x0D), out)
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func TestPrintLineAndEmptyLine(t *testing.T) {
	out, err := NewEncoder().PrintLine('-').EmptyLine(2).Encode()
	require.NoError(t, err)

	want := []byte(repeat('-', 31))
	want = append(want, 0x0A, 0x0D, 0x0A, 0x0D, 0x0A, 0x0D)
	assert.Equal(t, want, out)
}

func repeat(ch byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ch
	}
	return string(b)
}

func TestTextWrap(t *testing.T) {
	out, err := NewEncoder().TextWrap("one two three", 7).Encode()
	require.NoError(t, err)
	assert.Equal(t, "one two\r\nthree", string(out))
}

func TestFrontDeskDishes(t *testing.T) {
	items := []layout.Item{
		{Name: "Noodles", Count: 2, UnitPrice: decimal.RequireFromString("5")},
		{Name: "Skipped", Count: 0, UnitPrice: decimal.RequireFromString("1")},
		{Name: "Tea", Count: 1, UnitPrice: decimal.RequireFromString("3.5")},
	}

	out, err := NewEncoder().FrontDeskDishes(items, layout.FrontDeskOptions{LineBetweenDishes: true}).Encode()
	require.NoError(t, err)

	want := "Noodles" + spaces(31-7-11) + "*2    10.00\n\r" +
		repeat('-', 31) + "\n\r" +
		"Tea" + spaces(31-3-11) + "*1     3.50\n\r"
	assert.Equal(t, want, string(out))
}

func TestSeparatorPrintedAtNormalSize(t *testing.T) {
	items := []layout.Item{
		{Name: "A", Count: 1},
		{Name: "B", Count: 1},
	}

	out, err := NewEncoder().FontSize(FontSizeLarge).
		KitchenDishes(items, layout.KitchenOptions{CountFront: true, LineBetweenDishes: true}).
		Encode()
	require.NoError(t, err)

	large := []byte{0x1B, 0x4D, 0x00, 0x1D, 0x21, 0x11}
	normal := []byte{0x1B, 0x4D, 0x00, 0x1D, 0x21, 0x00}

	var want []byte
	want = append(want, large...)
	want = append(want, 'A', 0x0A, 0x0D)
	want = append(want, normal...)
	want = append(want, repeat('-', 31)...)
	want = append(want, 0x0A, 0x0D)
	want = append(want, large...)
	want = append(want, 'B', 0x0A, 0x0D)
	assert.Equal(t, want, out)
}

func TestQRCodeValidationQueuesNothing(t *testing.T) {
	e := NewEncoder().QRCode("x", QROptions{Size: 12})
	assert.ErrorIs(t, e.Err(), ErrInvalidSize)
	assert.Zero(t, e.Len())

	e = NewEncoder().QRCode("x", QROptions{Level: "x"})
	assert.ErrorIs(t, e.Err(), ErrInvalidErrorLevel)
	assert.Zero(t, e.Len())
}

func TestImageRequiresByteAlignedDimensions(t *testing.T) {
	e := NewEncoder().Image(solid(10, 8, color.Black))
	assert.ErrorIs(t, e.Err(), ErrInvalidDimensions)
	assert.Zero(t, e.Len())

	out, err := NewEncoder().Image(solid(8, 8, color.Black)).Encode()
	require.NoError(t, err)
	want := []byte{0x1D, 0x76, 0x30, 0x00, 0x01, 0x00, 0x08, 0x00}
	want = append(want, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	assert.Equal(t, want, out)
}

func TestImageFitScalesAndStrips(t *testing.T) {
	out, err := NewEncoder().ImageFit(solid(800, 200, color.White)).Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 48, 0x00, 96, 0x00}, out[:8])
	assert.Len(t, out, 8+48*96)

	// 10x20 pads to 16x24 and splits into 16 + 8 rows
	out, err = NewEncoder(WithMaxStripHeight(20)).ImageFit(solid(10, 20, color.Black)).Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 0x02, 0x00, 16, 0x00}, out[:8])
	second := out[8+2*16:]
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00, 0x02, 0x00, 8, 0x00}, second[:8])
	assert.Len(t, second, 8+2*8)
	// first row: 10 black dots then padding
	assert.Equal(t, []byte{0xFF, 0xC0}, out[8:10])
}

func TestImageDithering(t *testing.T) {
	for _, algorithm := range []raster.Algorithm{raster.Threshold, raster.Bayer, raster.FloydSteinberg, raster.Atkinson} {
		t.Run(string(algorithm), func(t *testing.T) {
			e := NewEncoder(WithRasterOptions(raster.Options{Algorithm: algorithm}))
			var out []byte
			require.NotPanics(t, func() {
				var err error
				out, err = e.Image(solid(16, 8, color.Black)).Encode()
				require.NoError(t, err)
			})
			assert.Len(t, out, 8+2*8)
			assert.Equal(t, []byte{0xFF, 0xFF}, out[8:10])
		})
	}
}

func TestQRCodeImage(t *testing.T) {
	e := NewEncoder().QRCodeImage("https://example.com", "m", 4)
	require.NoError(t, e.Err())
	out, err := e.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1D, 0x76, 0x30, 0x00}, out[:4])

	e = NewEncoder().QRCodeImage("x", "bad", 4)
	assert.ErrorIs(t, e.Err(), ErrInvalidErrorLevel)
}

func TestBarcodeImage(t *testing.T) {
	e := NewEncoder().BarcodeImage("ORDER-42", "code128", 0, 64)
	require.NoError(t, e.Err())
	assert.Positive(t, e.Len())

	e = NewEncoder().BarcodeImage("x", "maxicode", 0, 64)
	assert.ErrorIs(t, e.Err(), ErrUnsupportedSymbology)

	e = NewEncoder().BarcodeImage("ORDER42", "coda39", 0, 64)
	require.NoError(t, e.Err())

	e = NewEncoder().BarcodeImage("12345678", "itf", 0, 64)
	var ferr *UnsupportedFeatureError
	require.ErrorAs(t, e.Err(), &ferr)
	assert.Equal(t, "itf", ferr.Name)
	assert.Zero(t, e.Len())
}

func TestBarcodeImageWidthErrors(t *testing.T) {
	e := NewEncoder().BarcodeImage("ORDER-42", "code128", 10, 64)
	var verr *ValidationError
	require.ErrorAs(t, e.Err(), &verr)
	assert.Equal(t, "barcode width", verr.Op)
	assert.Equal(t, 10, verr.Value)
	assert.ErrorIs(t, e.Err(), ErrInvalidDimensions)
	assert.NotErrorIs(t, e.Err(), ErrInvalidBarcodeValue)

	e = NewEncoder().BarcodeImage("ORDER-42", "code128", 300, 64)
	require.NoError(t, e.Err())

	e = NewEncoder().BarcodeImage("12345", "ean13", 0, 64)
	assert.ErrorIs(t, e.Err(), ErrInvalidBarcodeValue)
}

func TestFeedDrawerRaw(t *testing.T) {
	raw := []byte{0x10, 0x14}
	out, err := NewEncoder(WithLogger(zaptest.NewLogger(t))).
		Feed(2).OpenDrawer(2).Raw(raw).Encode()
	require.NoError(t, err)

	raw[0] = 0x00
	assert.Equal(t, []byte{0x1B, 0x64, 0x02, 0x1B, 0x70, 0x00, 0x19, 0x19, 0x10, 0x14}, out)

	e := NewEncoder().OpenDrawer(9)
	assert.ErrorIs(t, e.Err(), ErrInvalidDrawerPin)
}

func TestClassifierOption(t *testing.T) {
	// Ω is two cells by codepoint but one by display width
	out, err := NewEncoder().OneLine("Ω", "x").Encode()
	require.NoError(t, err)
	assert.Equal(t, "?"+spaces(28)+"x\n\r", string(out))

	out, err = NewEncoder(WithClassifier(layout.EastAsianClassifier)).OneLine("Ω", "x").Encode()
	require.NoError(t, err)
	assert.Equal(t, "?"+spaces(29)+"x\n\r", string(out))
}
