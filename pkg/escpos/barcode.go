// pkg/escpos/barcode.go
package escpos

import (
	"sort"
	"strings"
)

// BarcodeFamily tells how GS k frames the barcode data
type BarcodeFamily int

const (
	// FamilyA ends the data with NUL
	FamilyA BarcodeFamily = iota
	// FamilyB prefixes the data with its length
	FamilyB
)

// ByteRange is an inclusive range of allowed data bytes
type ByteRange struct {
	Min byte
	Max byte
}

// Symbology describes one barcode type the printer can draw natively
type Symbology struct {
	Name        string
	Code        byte
	Family      BarcodeFamily
	ModuleWidth byte
	LenMin      int
	LenMax      int // 0 means no upper bound besides the framing limit
	EvenLength  bool
	ValidRanges []ByteRange
}

var (
	digits   = []ByteRange{{'0', '9'}}
	asciiAll = []ByteRange{{0x00, 0x7F}}
)

var symbologies = map[string]Symbology{
	"upca":  {Name: "upca", Code: 0x00, Family: FamilyA, ModuleWidth: 3, LenMin: 11, LenMax: 12, ValidRanges: digits},
	"upce":  {Name: "upce", Code: 0x01, Family: FamilyA, ModuleWidth: 3, LenMin: 6, LenMax: 12, ValidRanges: digits},
	"ean13": {Name: "ean13", Code: 0x02, Family: FamilyA, ModuleWidth: 3, LenMin: 12, LenMax: 13, ValidRanges: digits},
	"ean8":  {Name: "ean8", Code: 0x03, Family: FamilyA, ModuleWidth: 3, LenMin: 7, LenMax: 8, ValidRanges: digits},
	"code39": {Name: "code39", Code: 0x04, Family: FamilyA, ModuleWidth: 2, LenMin: 1,
		ValidRanges: []ByteRange{{'0', '9'}, {'A', 'Z'}, {' ', ' '}, {'$', '%'}, {'*', '+'}, {'-', '/'}}},
	"itf": {Name: "itf", Code: 0x05, Family: FamilyA, ModuleWidth: 3, LenMin: 2, EvenLength: true, ValidRanges: digits},
	"codabar": {Name: "codabar", Code: 0x06, Family: FamilyA, ModuleWidth: 3, LenMin: 1,
		ValidRanges: []ByteRange{{'0', '9'}, {'A', 'D'}, {'a', 'd'}, {'$', '$'}, {'+', '+'}, {'-', '/'}, {':', ':'}}},
	"code93":  {Name: "code93", Code: 0x48, Family: FamilyB, ModuleWidth: 3, LenMin: 1, LenMax: 255, ValidRanges: asciiAll},
	"code128": {Name: "code128", Code: 0x49, Family: FamilyB, ModuleWidth: 3, LenMin: 1, LenMax: 255, ValidRanges: asciiAll},
}

var symbologyAliases = map[string]string{
	"upc":    "upca",
	"ean":    "ean13",
	"jan13":  "ean13",
	"jan8":   "ean8",
	"coda39": "code39",
	"nw7":    "codabar",
}

// aliasModuleWidth overrides the module width an alias selects. coda39 is
// the older spelling of code39 and prints at three dots per module.
var aliasModuleWidth = map[string]byte{
	"coda39": 3,
}

// LookupSymbology finds a symbology by name
func LookupSymbology(name string) (Symbology, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name))
	width, overridden := aliasModuleWidth[key]
	if alias, ok := symbologyAliases[key]; ok {
		key = alias
	}
	s, ok := symbologies[key]
	if !ok {
		return Symbology{}, newValidationError("barcode", ErrUnsupportedSymbology, name)
	}
	if overridden {
		s.ModuleWidth = width
	}
	return s, nil
}

// Symbologies lists the native symbologies ordered by command code
func Symbologies() []Symbology {
	list := make([]Symbology, 0, len(symbologies))
	for _, s := range symbologies {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

// Validate checks value against the length and character rules
func (s Symbology) Validate(value string) error {
	if len(value) < s.LenMin {
		return newValidationError("barcode", ErrInvalidBarcodeValue, value)
	}
	if s.LenMax > 0 && len(value) > s.LenMax {
		return newValidationError("barcode", ErrInvalidBarcodeValue, value)
	}
	if s.EvenLength && len(value)%2 != 0 {
		return newValidationError("barcode", ErrInvalidBarcodeValue, value)
	}

	for i := 0; i < len(value); i++ {
		if !inRanges(value[i], s.ValidRanges) {
			return newValidationError("barcode", ErrInvalidBarcodeValue, value)
		}
	}
	return nil
}

func inRanges(b byte, ranges []ByteRange) bool {
	for _, br := range ranges {
		if b >= br.Min && b <= br.Max {
			return true
		}
	}
	return false
}

// BarcodeCommand frames value for GS k after validating it
func BarcodeCommand(value, symbology string, height int) ([]byte, error) {
	sym, err := LookupSymbology(symbology)
	if err != nil {
		return nil, err
	}
	if height < 1 || height > 255 {
		return nil, newValidationError("barcode", ErrInvalidBarcodeHeight, height)
	}

	data := value
	if sym.Name == "code128" && !strings.HasPrefix(data, "{") {
		data = "{B" + data
	}
	if err := sym.Validate(data); err != nil {
		return nil, err
	}

	header := concat(
		ESC_POS_COMMANDS.BARCODE_HEIGHT, []byte{byte(height)},
		ESC_POS_COMMANDS.BARCODE_WIDTH, []byte{sym.ModuleWidth},
		ESC_POS_COMMANDS.BARCODE_PRINT, []byte{sym.Code},
	)

	if sym.Family == FamilyB {
		return concat(header, []byte{byte(len(data))}, []byte(data)), nil
	}
	return concat(header, []byte(data), []byte{0x00}), nil
}
