// pkg/escpos/layout/engine.go
package layout

import (
	"strings"
	"unicode"
)

// Engine turns text into lines that fit a column budget. Widths are measured
// with the configured Classifier, so the same engine works in printer columns
// or in pixels when the classifier measures glyphs.
type Engine struct {
	classifier Classifier
}

// NewEngine creates an engine; a nil classifier falls back to CodepointClassifier
func NewEngine(classifier Classifier) *Engine {
	if classifier == nil {
		classifier = CodepointClassifier
	}
	return &Engine{classifier: classifier}
}

// Classifier returns the classifier in use
func (e *Engine) Classifier() Classifier {
	return e.classifier
}

// Width sums the column width of every rune in s
func (e *Engine) Width(s string) int {
	width := 0
	for _, r := range s {
		width += e.classifier.RuneWidth(r)
	}
	return width
}

// Split cuts s into pieces whose width does not exceed max. A rune is moved to
// the next piece the moment it would overflow the current one. A single rune
// wider than max still gets a piece of its own.
func (e *Engine) Split(s string, max int) []string {
	if max <= 0 || s == "" {
		return []string{s}
	}

	var lines []string
	start, width := 0, 0
	for i, r := range s {
		w := e.classifier.RuneWidth(r)
		if width+w > max && i > start {
			lines = append(lines, s[start:i])
			start, width = i, 0
		}
		width += w
	}

	return append(lines, s[start:])
}

// Wrap breaks s on word boundaries so that no line exceeds max. Words longer
// than max are split with Split. Existing newlines start a new paragraph.
func (e *Engine) Wrap(s string, max int) []string {
	if max <= 0 {
		return []string{s}
	}

	var lines []string
	for _, paragraph := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		words := strings.FieldsFunc(paragraph, unicode.IsSpace)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var current strings.Builder
		width := 0
		space := e.Width(" ")
		for _, word := range words {
			w := e.Width(word)
			if w > max {
				if current.Len() > 0 {
					lines = append(lines, current.String())
					current.Reset()
					width = 0
				}
				pieces := e.Split(word, max)
				lines = append(lines, pieces[:len(pieces)-1]...)
				last := pieces[len(pieces)-1]
				current.WriteString(last)
				width = e.Width(last)
				continue
			}

			if current.Len() > 0 && width+space+w > max {
				lines = append(lines, current.String())
				current.Reset()
				width = 0
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
				width += space
			}
			current.WriteString(word)
			width += w
		}
		lines = append(lines, current.String())
	}

	return lines
}

// OneLine places left and right on the same line, padded with spaces to fill
// budget exactly. When both do not fit they are returned as two lines, the
// second one right aligned where possible.
func (e *Engine) OneLine(left, right string, budget int) []string {
	lw, rw := e.Width(left), e.Width(right)
	if budget <= 0 {
		return []string{left + " " + right}
	}

	pad := budget - lw - rw
	if pad < 0 {
		lines := []string{left}
		if rest := budget - rw; rest > 0 {
			return append(lines, e.spaces(rest)+right)
		}
		return append(lines, right)
	}

	return []string{left + e.spaces(pad) + right}
}

// Rule repeats ch across the budget
func (e *Engine) Rule(ch rune, budget int) string {
	w := e.classifier.RuneWidth(ch)
	if w <= 0 || budget <= 0 {
		return ""
	}
	return strings.Repeat(string(ch), budget/w)
}

// Banner centres message inside a rule made of ch
func (e *Engine) Banner(ch rune, message string, budget int) string {
	w := e.classifier.RuneWidth(ch)
	rest := budget - e.Width(message)
	if w <= 0 || rest <= 0 {
		return message
	}
	side := strings.Repeat(string(ch), rest/2/w)
	return side + message + side
}

// Offset returns how far s starts from the left edge when aligned inside
// budget. Alignment is "left", "center" or "right"; anything else is left.
func (e *Engine) Offset(s string, budget int, alignment string) int {
	rest := budget - e.Width(s)
	if rest <= 0 {
		return 0
	}
	switch strings.ToLower(alignment) {
	case "center":
		return rest / 2
	case "right":
		return rest
	default:
		return 0
	}
}

// Align left-pads s with spaces so it sits at its aligned offset
func (e *Engine) Align(s string, budget int, alignment string) string {
	return e.spaces(e.Offset(s, budget, alignment)) + s
}

// spaces returns enough spaces to cover width columns
func (e *Engine) spaces(width int) string {
	sw := e.classifier.RuneWidth(' ')
	if sw <= 0 || width <= 0 {
		return ""
	}
	return strings.Repeat(" ", width/sw)
}
