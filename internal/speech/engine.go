// Package speech drives a text-to-speech engine one utterance at a time.
//
// A Session owns an Engine, applies rate and voice settings, and runs each
// utterance on its own worker goroutine. Stopping is cooperative: the engine
// reports word boundaries through a WordFunc, and the session answers false
// once a stop has been requested.
package speech

import (
	"context"

	"github.com/dgnsrekt/clipspeak/internal/voice"
)

// Engine is a text-to-speech backend.
type Engine interface {
	// Name returns the engine identifier (e.g. "sapi", "espeak").
	Name() string

	// Voices enumerates the voices the engine can speak with.
	Voices(ctx context.Context) ([]voice.Descriptor, error)

	// Speak blocks until u has been spoken, onWord returns false, or ctx is
	// done. It must call onWord at each word boundary it can observe. A
	// speak cut short by onWord returns nil.
	Speak(ctx context.Context, u Utterance, onWord WordFunc) error

	// Close releases engine resources.
	Close() error
}

// Utterance is one unit of text submitted for playback.
type Utterance struct {
	ID    string
	Text  string
	Rate  int              // words per minute
	Voice voice.Descriptor // zero value selects the engine default
}

// WordEvent marks the start of a word within an utterance's text.
type WordEvent struct {
	Index  int // word number, from 0
	Offset int // byte offset into Utterance.Text
	Length int // byte length of the word
}

// WordFunc is called at word boundaries. Returning false asks the engine to
// stop speaking.
type WordFunc func(WordEvent) bool
