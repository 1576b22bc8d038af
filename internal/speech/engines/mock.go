package engines

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/voice"
)

// DefaultMockVoices mirrors a stock Windows install with a German voice
// pack added.
func DefaultMockVoices() []voice.Descriptor {
	return []voice.Descriptor{
		{ID: "mock-david", Name: "Microsoft David Desktop", RawName: "Microsoft David Desktop", Languages: []string{"en-US"}, Gender: "male"},
		{ID: "mock-zira", Name: "Microsoft Zira Desktop", RawName: "Microsoft Zira Desktop", Languages: []string{"en-US"}, Gender: "female"},
		{ID: "mock-hedda", Name: "Microsoft Hedda Desktop", RawName: "Microsoft Hedda Desktop", Languages: []string{"de-DE"}, Gender: "female"},
	}
}

// Mock speaks nothing. It walks the words of each utterance on a timer,
// calling onWord for each, and records what it was asked to say.
type Mock struct {
	mu        sync.Mutex
	voices    []voice.Descriptor
	voicesErr error
	speakErr  error
	wordDelay time.Duration
	spoken    []speech.Utterance
	closed    bool
}

// NewMock creates a mock engine offering voices.
func NewMock(voices ...voice.Descriptor) *Mock {
	return &Mock{voices: voices}
}

func (m *Mock) Name() string { return "mock" }

// Voices returns the configured voices.
func (m *Mock) Voices(ctx context.Context) ([]voice.Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.voicesErr != nil {
		return nil, m.voicesErr
	}
	return append([]voice.Descriptor(nil), m.voices...), nil
}

// Speak reports each word of u, waiting one word interval between them.
// The interval follows u.Rate unless SetWordDelay overrides it.
func (m *Mock) Speak(ctx context.Context, u speech.Utterance, onWord speech.WordFunc) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, u)
	err, delay, closed := m.speakErr, m.wordDelay, m.closed
	m.mu.Unlock()

	if closed {
		return speech.ErrClosed
	}
	if err != nil {
		return err
	}
	if delay <= 0 {
		delay = speech.WordInterval(u.Rate)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	for _, w := range speech.Words(u.Text) {
		if !onWord(w) {
			return nil
		}
		timer.Reset(delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetWordDelay fixes the time spent on each word.
func (m *Mock) SetWordDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wordDelay = d
}

// FailSpeak makes Speak return err; nil restores normal operation.
func (m *Mock) FailSpeak(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speakErr = err
}

// FailVoices makes Voices return err.
func (m *Mock) FailVoices(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voicesErr = err
}

// Spoken returns the utterances Speak has been called with.
func (m *Mock) Spoken() []speech.Utterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]speech.Utterance(nil), m.spoken...)
}
