package engines

import (
	"context"

	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/voice"
)

// Null stands in for an engine that failed to start. It has no voices and
// every Speak returns the startup error, so the app stays usable and the
// failure shows up in the status line.
type Null struct {
	Err error
}

func (n Null) Name() string { return "none" }

func (n Null) Voices(context.Context) ([]voice.Descriptor, error) {
	return nil, nil
}

func (n Null) Speak(context.Context, speech.Utterance, speech.WordFunc) error {
	if n.Err != nil {
		return n.Err
	}
	return speech.ErrEngineUnavailable
}

func (n Null) Close() error { return nil }
