package postprocess

import "strings"

// AppCategory is the focused application's category, used to select
// sanitization rules.
type AppCategory string

const (
	AppTerminal AppCategory = "terminal"
	AppBrowser  AppCategory = "browser"
	AppEditor   AppCategory = "editor"
	AppChat     AppCategory = "chat"
	AppGeneral  AppCategory = "general"
)

// sanitizationRules controls which sanitization steps run for a category.
type sanitizationRules struct {
	escapeShellChars bool
	stripControlChars bool
	stripANSIEscapes  bool
}

func rulesForCategory(category AppCategory) sanitizationRules {
	switch category {
	case AppTerminal:
		return sanitizationRules{escapeShellChars: true, stripControlChars: true, stripANSIEscapes: true}
	default:
		return sanitizationRules{escapeShellChars: false, stripControlChars: true, stripANSIEscapes: true}
	}
}

// sanitize runs ANSI stripping, control/format-character stripping, and
// (Terminal only) shell metacharacter escaping, always in that order.
func sanitize(text string, category AppCategory) string {
	rules := rulesForCategory(category)

	result := text
	if rules.stripANSIEscapes {
		result = stripANSIEscapes(result)
	}
	if rules.stripControlChars {
		result = stripControlChars(result)
	}
	if rules.escapeShellChars {
		result = escapeShellChars(result)
	}
	return result
}

// stripANSIEscapes removes CSI sequences (ESC '[' ... letter) and OSC
// sequences (ESC ']' ... BEL or ESC '\').
func stripANSIEscapes(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	runes := []rune(text)
	i := 0
	for i < len(runes) {
		ch := runes[i]
		if ch != '\x1b' {
			b.WriteRune(ch)
			i++
			continue
		}

		if i+1 < len(runes) && runes[i+1] == '[' {
			i += 2
			for i < len(runes) {
				c := runes[i]
				i++
				if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
					break
				}
			}
			continue
		}

		if i+1 < len(runes) && runes[i+1] == ']' {
			i += 2
			for i < len(runes) {
				c := runes[i]
				i++
				if c == '\x07' {
					break
				}
				if c == '\x1b' && i < len(runes) && runes[i] == '\\' {
					i++
					break
				}
			}
			continue
		}

		// Lone ESC: skip it.
		i++
	}
	return b.String()
}

// stripControlChars removes control characters (except \n \t \r space),
// zero-width characters, bidirectional formatting marks, variation
// selectors, and other problematic format characters.
func stripControlChars(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, ch := range text {
		if ch == '\n' || ch == '\t' || ch == '\r' || ch == ' ' {
			b.WriteRune(ch)
			continue
		}
		if isControl(ch) {
			continue
		}
		if isZeroWidth(ch) || isBidiMark(ch) || isVariationSelector(ch) || isOtherFormatChar(ch) {
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func isControl(ch rune) bool {
	return (ch >= 0x00 && ch <= 0x1F) || ch == 0x7F
}

// isZeroWidth matches characters that break text-node rendering: zero-width
// space/non-joiner/joiner (U+200B..U+200D), BOM (U+FEFF), soft hyphen (U+00AD).
func isZeroWidth(ch rune) bool {
	return (ch >= 0x200B && ch <= 0x200D) || ch == 0xFEFF || ch == 0x00AD
}

// isBidiMark matches bidirectional formatting controls (U+202A..U+202E,
// U+2066..U+2069, U+061C).
func isBidiMark(ch rune) bool {
	return (ch >= 0x202A && ch <= 0x202E) || (ch >= 0x2066 && ch <= 0x2069) || ch == 0x061C
}

// isVariationSelector matches U+FE00..U+FE0F.
func isVariationSelector(ch rune) bool {
	return ch >= 0xFE00 && ch <= 0xFE0F
}

// isOtherFormatChar matches the Mongolian vowel separator (U+180E) and the
// left/right-to-left marks (U+200E, U+200F).
func isOtherFormatChar(ch rune) bool {
	return ch == 0x180E || ch == 0x200E || ch == 0x200F
}

// escapeShellChars backslash-escapes $, `, \, and ! for safe terminal
// injection. Must run after ANSI/control stripping.
func escapeShellChars(text string) string {
	var b strings.Builder
	b.Grow(len(text) * 2)

	for _, ch := range text {
		switch ch {
		case '$':
			b.WriteString("\\$")
		case '`':
			b.WriteString("\\`")
		case '\\':
			b.WriteString("\\\\")
		case '!':
			b.WriteString("\\!")
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
