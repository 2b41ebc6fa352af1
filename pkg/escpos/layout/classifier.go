// pkg/escpos/layout/classifier.go
package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Classifier reports how many columns a rune occupies on the paper
type Classifier interface {
	RuneWidth(r rune) int
}

// ClassifierFunc adapts a plain function to the Classifier interface
type ClassifierFunc func(r rune) int

// RuneWidth implements Classifier
func (f ClassifierFunc) RuneWidth(r rune) int {
	return f(r)
}

// CodepointClassifier counts everything up to U+00FF as one column and
// everything above as two. Printer firmware renders CJK glyphs at double width,
// which is what this approximates.
var CodepointClassifier Classifier = ClassifierFunc(func(r rune) int {
	if r <= 0xFF {
		return 1
	}
	return 2
})

var eastAsian = func() *runewidth.Condition {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	return cond
}()

// EastAsianClassifier uses Unicode East Asian Width tables. Combining marks
// and control characters are zero width.
var EastAsianClassifier Classifier = ClassifierFunc(eastAsian.RuneWidth)

// Classifier names accepted by ClassifierByName
const (
	ClassifierCodepoint = "codepoint"
	ClassifierEastAsian = "east-asian"
)

// ClassifierByName resolves a configured classifier name
func ClassifierByName(name string) (Classifier, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ClassifierCodepoint:
		return CodepointClassifier, true
	case ClassifierEastAsian, "eastasian", "runewidth":
		return EastAsianClassifier, true
	default:
		return nil, false
	}
}
