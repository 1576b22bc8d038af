package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Options controls Prepare.
type Options struct {
	// StripMarkdown renders markdown to plain text before speaking.
	StripMarkdown bool

	// MaxChars caps the prepared text in runes. Zero means no limit.
	MaxChars int
}

// DefaultOptions leaves markdown alone and does not cap length.
func DefaultOptions() Options {
	return Options{}
}

// Prepare normalizes s to NFC, drops control characters, optionally strips
// markdown, and collapses runs of whitespace to single spaces. The result
// is empty when s holds nothing speakable.
func Prepare(s string, opts Options) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == utf8.RuneError || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			return -1
		}
		return r
	}, s)
	if opts.StripMarkdown {
		s = StripMarkdown(s)
	}
	s = Collapse(s)
	if opts.MaxChars > 0 {
		s = Limit(s, opts.MaxChars)
	}
	return s
}

// Collapse trims s and replaces every run of whitespace with one space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Limit cuts s to at most n runes, backing up to the last space when one
// falls in the second half of the cut.
func Limit(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if n == 0 {
			cut = i
			break
		}
		n--
	}
	out := s[:cut]
	if i := strings.LastIndexByte(out, ' '); i > len(out)/2 {
		out = out[:i]
	}
	return strings.TrimSpace(out)
}
