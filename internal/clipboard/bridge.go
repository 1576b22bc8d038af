package clipboard

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/text"
)

// Timing paces CaptureSelection.
type Timing struct {
	Settle   time.Duration // before pressing, so the hotkey's own keys are up
	KeyGap   time.Duration // between press and release
	PostCopy time.Duration // before reading, so the target app can copy
}

// DefaultTiming returns 300ms, 50ms and 200ms.
func DefaultTiming() Timing {
	return Timing{
		Settle:   300 * time.Millisecond,
		KeyGap:   50 * time.Millisecond,
		PostCopy: 200 * time.Millisecond,
	}
}

// Bridge is the app's view of the clipboard.
type Bridge struct {
	backend Backend
	keys    KeySender
	focus   Focuser
	timing  Timing
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithKeySender enables CaptureSelection's copy chord.
func WithKeySender(k KeySender) Option {
	return func(b *Bridge) { b.keys = k }
}

// WithFocuser sets how focus is read and restored.
func WithFocuser(f Focuser) Option {
	return func(b *Bridge) { b.focus = f }
}

// WithTiming overrides DefaultTiming.
func WithTiming(t Timing) Option {
	return func(b *Bridge) { b.timing = t }
}

// New creates a bridge over backend.
func New(backend Backend, opts ...Option) *Bridge {
	b := &Bridge{
		backend: backend,
		focus:   NoFocus{},
		timing:  DefaultTiming(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CanCapture reports whether a key sender is configured.
func (b *Bridge) CanCapture() bool {
	return b.keys != nil
}

// Read returns the clipboard text, or "" if it cannot be read.
func (b *Bridge) Read() string {
	s, err := b.backend.ReadAll()
	if err != nil {
		log.Debug("clipboard read failed", "err", err)
		return ""
	}
	log.Debug("clipboard read", "chars", len([]rune(s)), "preview", text.Preview(s))
	return s
}

// Write replaces the clipboard text and reports success.
func (b *Bridge) Write(s string) bool {
	if err := b.backend.WriteAll(s); err != nil {
		log.Debug("clipboard write failed", "err", err)
		return false
	}
	return true
}

// Foreground returns the focused window, or 0 when unknown.
func (b *Bridge) Foreground() Window {
	return b.focus.Foreground()
}

// Restore gives focus back to w. Failures are logged only.
func (b *Bridge) Restore(w Window) {
	if w == 0 {
		return
	}
	if err := b.focus.Activate(w); err != nil {
		log.Debug("focus restore failed", "window", w, "err", err)
	}
}

// CaptureSelection copies the selection in the focused app by sending the
// copy chord, then reads the clipboard and returns focus to previous. Key
// injection failures are logged and the clipboard is read anyway. It
// returns "" if ctx ends first.
func (b *Bridge) CaptureSelection(ctx context.Context, previous Window) string {
	defer b.Restore(previous)

	if b.keys == nil {
		return b.Read()
	}
	if !sleep(ctx, b.timing.Settle) {
		return ""
	}
	if err := b.keys.Press(); err != nil {
		log.Warn("copy shortcut failed", "err", err)
	} else {
		sleep(ctx, b.timing.KeyGap)
		if err := b.keys.Release(); err != nil {
			log.Warn("copy shortcut release failed", "err", err)
		}
	}
	if !sleep(ctx, b.timing.PostCopy) {
		return ""
	}
	return b.Read()
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
