package playback

import (
	"fmt"
	"time"
)

// Kind classifies a Status.
type Kind int

const (
	KindReady Kind = iota
	KindReading
	KindEmpty
	KindStopped
	KindError
	KindInfo
)

func (k Kind) String() string {
	switch k {
	case KindReady:
		return "ready"
	case KindReading:
		return "reading"
	case KindEmpty:
		return "empty"
	case KindStopped:
		return "stopped"
	case KindError:
		return "error"
	case KindInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Final reports whether the status ends an utterance or attempt.
func (k Kind) Final() bool {
	switch k {
	case KindReady, KindEmpty, KindStopped, KindError:
		return true
	}
	return false
}

// Status is one line for the status display.
type Status struct {
	Kind        Kind
	Text        string
	State       State
	UtteranceID string
	Time        time.Time
}

const (
	readingText = "Reading text..."
	emptyText   = "No text in clipboard!"
	stoppedText = "Speech stopped - Ready"
)

// TestSentence is spoken by OnTestClicked.
const TestSentence = "This is a test of the text to speech system. Das ist ein Test!"

// ReadyText is the idle status for a trigger key such as "F8".
func ReadyText(trigger string) string {
	return fmt.Sprintf("Ready - Press %s to read text", trigger)
}

func errorText(err error) string {
	type short interface{ Short() string }
	if s, ok := err.(short); ok {
		return "Error: " + s.Short()
	}
	return "Error: " + err.Error()
}
