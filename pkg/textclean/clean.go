package textclean

import (
	"strings"
	"unicode"
)

// forbidden is the set of characters removed by RemovePunctuation. Periods
// and commas are kept: they are the sentence signals the models learn from.
var forbidden = map[rune]struct{}{}

func init() {
	for _, r := range "!\"#$%&'()*+-/:;<=>?@[]^_…`{|}~—«»–" {
		forbidden[r] = struct{}{}
	}
}

// IsForbidden reports whether r is removed by RemovePunctuation.
func IsForbidden(r rune) bool {
	_, ok := forbidden[r]
	return ok
}

// Clean runs the full pipeline. The result contains no forbidden
// characters, no non-breaking spaces, no line break followed by whitespace
// and no leading or trailing whitespace. Clean is idempotent.
func Clean(text string) string {
	text = ReplaceNonBreakingSpaces(text)
	text = CollapseNewlines(text)
	text = RemovePunctuation(text)
	// Removing punctuation can leave a line break in front of whitespace
	// again, as in "a\n- b".
	text = CollapseNewlines(text)
	return strings.TrimSpace(text)
}

// ReplaceNonBreakingSpaces replaces every U+00A0 with an ordinary space.
func ReplaceNonBreakingSpaces(text string) string {
	return strings.ReplaceAll(text, "\u00a0", " ")
}

// CollapseNewlines replaces each line break followed by whitespace
// (including further line breaks) with a single line break. Line breaks
// followed directly by text, and whitespace inside a line, are left alone.
func CollapseNewlines(text string) string {
	if !strings.Contains(text, "\n") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	afterNewline := false
	for _, r := range text {
		if afterNewline && unicode.IsSpace(r) {
			continue
		}
		afterNewline = r == '\n'
		b.WriteRune(r)
	}
	return b.String()
}

// RemovePunctuation deletes every forbidden character.
func RemovePunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if IsForbidden(r) {
			return -1
		}
		return r
	}, text)
}
