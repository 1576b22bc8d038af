package text

import (
	"unicode/utf8"

	"github.com/muesli/reflow/truncate"
)

// PreviewLength is how many characters of clipboard text appear in logs.
const PreviewLength = 100

// Preview returns the first PreviewLength characters of s on one line,
// followed by "..." when s is longer.
func Preview(s string) string {
	s = Collapse(s)
	if utf8.RuneCountInString(s) <= PreviewLength {
		return s
	}
	return truncate.StringWithTail(s, PreviewLength+3, "...")
}
