package speech

import (
	"time"
	"unicode"
	"unicode/utf8"
)

// Words splits text on whitespace and returns one event per word.
func Words(text string) []WordEvent {
	var (
		words []WordEvent
		start = -1
	)
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, WordEvent{Index: len(words), Offset: start, Length: i - start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, WordEvent{Index: len(words), Offset: start, Length: len(text) - start})
	}
	return words
}

// WordInterval is the time one word takes at rate words per minute.
func WordInterval(rate int) time.Duration {
	if rate <= 0 {
		rate = DefaultRate
	}
	return time.Minute / time.Duration(rate)
}

// Timeline spreads words over total in proportion to their position in
// text, returning the start time of each word. Engines that only know the
// length of the rendered audio use it to report word boundaries.
func Timeline(text string, words []WordEvent, total time.Duration) []time.Duration {
	starts := make([]time.Duration, len(words))
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return starts
	}
	for i, w := range words {
		before := utf8.RuneCountInString(text[:w.Offset])
		starts[i] = time.Duration(float64(total) * float64(before) / float64(n))
	}
	return starts
}
