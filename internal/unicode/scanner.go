// Package unicode detects character-level smuggling in debate text:
// invisible characters, bidirectional overrides, and cross-script homoglyphs
// that make the text an agent reads differ from the text a reviewer sees.
// The scan runs before pattern rules so a smuggled conclusion is escalated
// rather than silently matched against the wrong bytes.
package unicode

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Finding is one suspicious character occurrence.
type Finding struct {
	Kind      string // "invisible", "bidi", "control", "tag", "homoglyph", "invalid-utf8"
	Codepoint string
	Offset    int
	Blocking  bool // true when the finding alone justifies rejection
	Detail    string
}

// invisible covers zero-width and joiner characters that hide content.
var invisible = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x180E, Hi: 0x180E, Stride: 1},
		{Lo: 0x200B, Hi: 0x200F, Stride: 1},
		{Lo: 0x2060, Hi: 0x2060, Stride: 1},
		{Lo: 0xFEFF, Hi: 0xFEFF, Stride: 1},
	},
}

// bidi covers directional embedding, override, and isolate controls.
var bidi = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x202A, Hi: 0x202E, Stride: 1},
		{Lo: 0x2066, Hi: 0x2069, Stride: 1},
	},
}

// homoglyphs maps Cyrillic and Greek letters to the Latin letters they are
// visually confusable with.
var homoglyphs = map[rune]rune{
	// Cyrillic
	'а': 'a', 'А': 'A', 'В': 'B', 'с': 'c', 'С': 'C', 'е': 'e', 'Е': 'E',
	'Н': 'H', 'і': 'i', 'І': 'I', 'К': 'K', 'М': 'M', 'о': 'o', 'О': 'O',
	'р': 'p', 'Р': 'P', 'Т': 'T', 'х': 'x', 'Х': 'X', 'у': 'y', 'У': 'Y',
	// Greek
	'Α': 'A', 'Β': 'B', 'Ε': 'E', 'Η': 'H', 'Ι': 'I', 'Κ': 'K', 'Μ': 'M',
	'Ν': 'N', 'Ο': 'O', 'ο': 'o', 'Ρ': 'P', 'Τ': 'T', 'Χ': 'X', 'Υ': 'Y',
	'Ζ': 'Z',
}

// Scan walks the text and reports every smuggling indicator, together with a
// sanitized copy with the blocking characters removed.
func Scan(text string) (findings []Finding, sanitized string) {
	var clean strings.Builder

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			findings = append(findings, Finding{
				Kind:      "invalid-utf8",
				Codepoint: fmt.Sprintf("0x%02X", text[i]),
				Offset:    i,
				Blocking:  true,
				Detail:    "invalid UTF-8 byte sequence",
			})
			i++
			continue
		}

		if f, bad := classify(r, i); bad {
			findings = append(findings, f)
			if f.Blocking {
				i += size
				continue // drop from sanitized text
			}
		}
		clean.WriteRune(r)
		i += size
	}
	return findings, clean.String()
}

// Blocking reports whether any finding alone justifies rejection.
func Blocking(findings []Finding) bool {
	for _, f := range findings {
		if f.Blocking {
			return true
		}
	}
	return false
}

func classify(r rune, offset int) (Finding, bool) {
	cp := fmt.Sprintf("U+%04X", r)
	switch {
	case unicode.Is(invisible, r):
		return Finding{Kind: "invisible", Codepoint: cp, Offset: offset, Blocking: true,
			Detail: "zero-width character can hide content from review"}, true
	case unicode.Is(bidi, r):
		return Finding{Kind: "bidi", Codepoint: cp, Offset: offset, Blocking: true,
			Detail: "directional override makes displayed text differ from logical text"}, true
	case r >= 0xE0001 && r <= 0xE007F:
		return Finding{Kind: "tag", Codepoint: cp, Offset: offset, Blocking: true,
			Detail: "tag character can smuggle hidden instructions"}, true
	case isUnsafeControl(r):
		return Finding{Kind: "control", Codepoint: cp, Offset: offset, Blocking: true,
			Detail: "control character has no place in reviewed text"}, true
	default:
		if latin, ok := homoglyphs[r]; ok {
			return Finding{Kind: "homoglyph", Codepoint: cp, Offset: offset,
				Detail: fmt.Sprintf("%s is visually confusable with Latin %q", cp, latin)}, true
		}
	}
	return Finding{}, false
}

func isUnsafeControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r <= 0x1F || r == 0x7F || (r >= 0x80 && r <= 0x9F)
}
