package speech

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/clipspeak/internal/voice"
)

// fakeEngine reports one word per delay. With ignoreStop it keeps going
// after onWord declines, like an engine stuck in a blocking call.
type fakeEngine struct {
	delay      time.Duration
	ignoreStop bool
	err        error
	panicMsg   string

	mu     sync.Mutex
	spoken []Utterance
	closed bool
	active int
	peak   int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Voices(context.Context) ([]voice.Descriptor, error) { return nil, nil }

func (f *fakeEngine) Speak(ctx context.Context, u Utterance, onWord WordFunc) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, u)
	f.active++
	f.peak = max(f.peak, f.active)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return f.err
	}
	for _, w := range Words(u.Text) {
		if !onWord(w) && !f.ignoreStop {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return nil
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeEngine) utterances() []Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Utterance(nil), f.spoken...)
}

func (f *fakeEngine) peakConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}
