// pkg/escpos/codepage.go
package escpos

import (
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Codepage is a printer character table and the byte mapping used to encode
// text for it. Wide tables need the double-byte mode bracket around text.
type Codepage struct {
	Name     string `json:"name"`
	ID       byte   `json:"id"`
	Wide     bool   `json:"wide"`
	Mapped   bool   `json:"mapped"`
	encoding encoding.Encoding
}

// ASCII is the codepage in effect before any selection
var ASCII = Codepage{Name: "ascii"}

var codepages = map[string]Codepage{
	"cp437":       {Name: "cp437", ID: 0x00, encoding: charmap.CodePage437},
	"cp737":       {Name: "cp737", ID: 0x40},
	"cp850":       {Name: "cp850", ID: 0x02, encoding: charmap.CodePage850},
	"cp775":       {Name: "cp775", ID: 0x5F},
	"cp852":       {Name: "cp852", ID: 0x12, encoding: charmap.CodePage852},
	"cp855":       {Name: "cp855", ID: 0x3C, encoding: charmap.CodePage855},
	"cp857":       {Name: "cp857", ID: 0x3D},
	"cp858":       {Name: "cp858", ID: 0x13, encoding: charmap.CodePage858},
	"cp860":       {Name: "cp860", ID: 0x03, encoding: charmap.CodePage860},
	"cp861":       {Name: "cp861", ID: 0x38},
	"cp862":       {Name: "cp862", ID: 0x3E, encoding: charmap.CodePage862},
	"cp863":       {Name: "cp863", ID: 0x04, encoding: charmap.CodePage863},
	"cp864":       {Name: "cp864", ID: 0x1C},
	"cp865":       {Name: "cp865", ID: 0x05, encoding: charmap.CodePage865},
	"cp866":       {Name: "cp866", ID: 0x11, encoding: charmap.CodePage866},
	"cp869":       {Name: "cp869", ID: 0x42},
	"cp936":       {Name: "cp936", ID: 0xFF, Wide: true, encoding: simplifiedchinese.GBK},
	"cp949":       {Name: "cp949", ID: 0xFD, Wide: true, encoding: korean.EUCKR},
	"cp950":       {Name: "cp950", ID: 0xFE, Wide: true, encoding: traditionalchinese.Big5},
	"cp1252":      {Name: "cp1252", ID: 0x10, encoding: charmap.Windows1252},
	"iso88596":    {Name: "iso88596", ID: 0x16, encoding: charmap.ISO8859_6},
	"shiftjis":    {Name: "shiftjis", ID: 0xFC, Wide: true, encoding: japanese.ShiftJIS},
	"windows1250": {Name: "windows1250", ID: 0x48, encoding: charmap.Windows1250},
	"windows1251": {Name: "windows1251", ID: 0x49, encoding: charmap.Windows1251},
	"windows1252": {Name: "windows1252", ID: 0x47, encoding: charmap.Windows1252},
	"windows1253": {Name: "windows1253", ID: 0x5A, encoding: charmap.Windows1253},
	"windows1254": {Name: "windows1254", ID: 0x5B, encoding: charmap.Windows1254},
	"windows1255": {Name: "windows1255", ID: 0x20, encoding: charmap.Windows1255},
	"windows1256": {Name: "windows1256", ID: 0x5C, encoding: charmap.Windows1256},
	"windows1257": {Name: "windows1257", ID: 0x19, encoding: charmap.Windows1257},
	"windows1258": {Name: "windows1258", ID: 0x5E, encoding: charmap.Windows1258},
}

var codepageAliases = map[string]string{
	"pc437":   "cp437",
	"pc850":   "cp850",
	"pc852":   "cp852",
	"pc858":   "cp858",
	"gbk":     "cp936",
	"gb2312":  "cp936",
	"euckr":   "cp949",
	"ksc5601": "cp949",
	"big5":    "cp950",
	"sjis":    "shiftjis",
	"win1250": "windows1250",
	"win1251": "windows1251",
	"win1252": "windows1252",
	"cp1250":  "windows1250",
	"cp1251":  "windows1251",
}

func normalizeCodepage(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if alias, ok := codepageAliases[key]; ok {
		return alias
	}
	return key
}

// LookupCodepage resolves a codepage name. Unknown names are a
// ValidationError. Tables without a byte mapping still select and encode
// printable ASCII only.
func LookupCodepage(name string) (Codepage, error) {
	cp, ok := codepages[normalizeCodepage(name)]
	if !ok {
		return Codepage{}, newValidationError("codepage", ErrUnsupportedCodepage, name)
	}
	cp.Mapped = cp.encoding != nil
	return cp, nil
}

// Codepages lists every table that can be selected, sorted by name
func Codepages() []Codepage {
	list := make([]Codepage, 0, len(codepages))
	for _, cp := range codepages {
		cp.Mapped = cp.encoding != nil
		list = append(list, cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Encode converts s to the codepage bytes. Characters the table cannot
// represent become '?'. Unmapped tables pass ASCII through.
func (c Codepage) Encode(s string) []byte {
	if c.encoding == nil {
		out := make([]byte, 0, len(s))
		for _, r := range s {
			if r < 0x80 {
				out = append(out, byte(r))
			} else {
				out = append(out, '?')
			}
		}
		return out
	}

	enc := c.encoding.NewEncoder()
	if out, err := enc.Bytes([]byte(s)); err == nil {
		return out
	}

	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, err := enc.Bytes([]byte(string(r)))
		if err != nil || len(b) == 0 {
			out = append(out, '?')
			continue
		}
		out = append(out, b...)
	}
	return out
}
