package engines

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/voice"
)

// Fallback speaks with primary until it fails maxFailures times in a row,
// or reports itself unavailable, then switches to fallback for good.
type Fallback struct {
	primary     speech.Engine
	fallback    speech.Engine
	maxFailures int

	mu            sync.Mutex
	failures      int
	usingFallback bool
}

// NewFallback wraps primary with fallback.
func NewFallback(primary, fallback speech.Engine, maxFailures int) *Fallback {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Fallback{primary: primary, fallback: fallback, maxFailures: maxFailures}
}

// Name returns the name of the engine currently in use.
func (f *Fallback) Name() string {
	return f.active().Name()
}

// Voices lists voices of the active engine. A primary that cannot list
// voices is abandoned.
func (f *Fallback) Voices(ctx context.Context) ([]voice.Descriptor, error) {
	if f.UsingFallback() {
		return f.fallback.Voices(ctx)
	}
	voices, err := f.primary.Voices(ctx)
	if err == nil {
		return voices, nil
	}
	log.Warn("primary engine cannot list voices, switching", "primary", f.primary.Name(), "fallback", f.fallback.Name(), "err", err)
	f.switchOver()
	return f.fallback.Voices(ctx)
}

// Speak speaks with the active engine. When the primary fails for the last
// allowed time the utterance is retried on the fallback without a voice,
// since voice handles do not carry across engines.
func (f *Fallback) Speak(ctx context.Context, u speech.Utterance, onWord speech.WordFunc) error {
	if f.UsingFallback() {
		return f.fallback.Speak(ctx, u, onWord)
	}

	err := f.primary.Speak(ctx, u, onWord)
	if err == nil || ctx.Err() != nil {
		f.mu.Lock()
		if err == nil && f.failures > 0 {
			log.Info("primary engine recovered", "engine", f.primary.Name(), "failures", f.failures)
			f.failures = 0
		}
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.failures++
	switchNow := f.failures >= f.maxFailures || errors.Is(err, speech.ErrEngineUnavailable)
	f.mu.Unlock()
	log.Warn("primary engine failed", "engine", f.primary.Name(), "err", err)

	if !switchNow {
		return err
	}
	f.switchOver()
	u.Voice = voice.Descriptor{}
	return f.fallback.Speak(ctx, u, onWord)
}

// UsingFallback reports whether the fallback engine is active.
func (f *Fallback) UsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}

// Close closes both engines.
func (f *Fallback) Close() error {
	return errors.Join(f.primary.Close(), f.fallback.Close())
}

func (f *Fallback) active() speech.Engine {
	if f.UsingFallback() {
		return f.fallback
	}
	return f.primary
}

func (f *Fallback) switchOver() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.usingFallback {
		log.Warn("switching to fallback engine", "from", f.primary.Name(), "to", f.fallback.Name())
		f.usingFallback = true
	}
}
