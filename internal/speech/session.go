package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/voice"
	"github.com/rs/xid"
)

// DefaultJoinTimeout bounds how long Stop waits for a worker to exit.
const DefaultJoinTimeout = time.Second

// Result describes how an utterance ended.
type Result struct {
	UtteranceID string
	Text        string
	Words       int // word boundaries reached
	Elapsed     time.Duration
	Stopped     bool
	Err         error // ErrStopped when Stopped
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Bounds      RateBounds
	Rate        int
	JoinTimeout time.Duration
}

// Session owns one engine and plays at most one utterance at a time.
type Session struct {
	engine      Engine
	bounds      RateBounds
	joinTimeout time.Duration

	mu     sync.Mutex
	rate   int
	voice  *voice.Descriptor
	worker *worker
	closed bool
}

// worker is one utterance in flight.
type worker struct {
	id     string
	stop   atomic.Bool
	done   chan struct{}
	cancel context.CancelFunc
}

// NewSession creates a session around engine.
func NewSession(engine Engine, cfg SessionConfig) (*Session, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg.Bounds == (RateBounds{}) {
		cfg.Bounds = DefaultRateBounds()
	}
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, err
	}
	if cfg.Rate == 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = DefaultJoinTimeout
	}
	return &Session{
		engine:      engine,
		bounds:      cfg.Bounds,
		joinTimeout: cfg.JoinTimeout,
		rate:        cfg.Bounds.Clamp(cfg.Rate),
	}, nil
}

// Engine returns the engine the session drives.
func (s *Session) Engine() Engine { return s.engine }

// Bounds returns the accepted rate range.
func (s *Session) Bounds() RateBounds { return s.bounds }

// Configure sets rate and voice for the next utterance and returns the
// clamped rate. A nil voice keeps the engine default. An utterance already
// in flight keeps the settings it started with.
func (s *Session) Configure(rate int, v *voice.Descriptor) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = s.bounds.Clamp(rate)
	s.voice = cloneVoice(v)
	return s.rate
}

// SetRate changes only the rate and returns the clamped value.
func (s *Session) SetRate(rate int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = s.bounds.Clamp(rate)
	return s.rate
}

// SetVoice changes only the voice.
func (s *Session) SetVoice(v *voice.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice = cloneVoice(v)
}

// Rate returns the configured rate.
func (s *Session) Rate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// Voice returns the configured voice, if one is set.
func (s *Session) Voice() (voice.Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voice == nil {
		return voice.Descriptor{}, false
	}
	return *s.voice, true
}

// Active reports whether an utterance is in flight.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worker != nil
}

// StopRequested reports whether the utterance in flight has been asked to
// stop.
func (s *Session) StopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worker != nil && s.worker.stop.Load()
}

// Start stops any utterance in flight, then speaks text on a new worker
// goroutine. A worker that ignores the stop request has its context
// cancelled before the new one starts. done, if not nil, is called from the worker after it exits.
// Start returns the new utterance ID.
func (s *Session) Start(ctx context.Context, text string, done func(Result)) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	if !s.Stop() {
		s.abandon()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	u := Utterance{ID: xid.New().String(), Text: text, Rate: s.rate}
	if s.voice != nil {
		u.Voice = *s.voice
	}
	runCtx, cancel := context.WithCancel(ctx)
	w := &worker{id: u.ID, done: make(chan struct{}), cancel: cancel}
	s.worker = w
	s.mu.Unlock()

	log.Debug("speech started", "engine", s.engine.Name(), "utterance", u.ID, "rate", u.Rate, "voice", u.Voice.ID)

	go func() {
		res := s.run(runCtx, u, w)
		cancel()

		s.mu.Lock()
		if s.worker == w {
			s.worker = nil
		}
		s.mu.Unlock()
		close(w.done)

		log.Debug("speech finished", "utterance", u.ID, "words", res.Words, "elapsed", res.Elapsed, "stopped", res.Stopped, "err", res.Err)
		if done != nil {
			done(res)
		}
	}()

	return u.ID, nil
}

// Speak plays text and blocks until it finishes or is stopped. It returns
// ErrStopped if Stop was called.
func (s *Session) Speak(ctx context.Context, text string) error {
	results := make(chan Result, 1)
	if _, err := s.Start(ctx, text, func(r Result) { results <- r }); err != nil {
		return err
	}
	return (<-results).Err
}

// Stop asks the utterance in flight to stop at its next word boundary and
// waits up to the join timeout for the worker to exit. It never kills the
// worker. Stop reports whether the session is idle on return; calling it
// with nothing in flight is a no-op that returns true.
func (s *Session) Stop() bool {
	s.mu.Lock()
	w := s.worker
	s.mu.Unlock()
	return s.stopWorker(w)
}

// StopUtterance is Stop for the utterance with id only. Any other
// utterance keeps playing.
func (s *Session) StopUtterance(id string) bool {
	s.mu.Lock()
	w := s.worker
	s.mu.Unlock()
	if w != nil && w.id != id {
		return true
	}
	return s.stopWorker(w)
}

func (s *Session) stopWorker(w *worker) bool {
	if w == nil {
		return true
	}

	w.stop.Store(true)
	timer := time.NewTimer(s.joinTimeout)
	defer timer.Stop()
	select {
	case <-w.done:
		return true
	case <-timer.C:
		log.Warn("speech worker did not stop in time", "utterance", w.id, "timeout", s.joinTimeout)
		return false
	}
}

// abandon cancels the context of a worker that did not stop in time and
// waits up to the join timeout again for it to return.
func (s *Session) abandon() {
	s.mu.Lock()
	w := s.worker
	s.mu.Unlock()
	if w == nil {
		return
	}

	w.cancel()
	timer := time.NewTimer(s.joinTimeout)
	defer timer.Stop()
	select {
	case <-w.done:
	case <-timer.C:
		log.Warn("speech worker ignored cancellation", "utterance", w.id)
	}
}

// Close stops playback, cancels any worker still running, and closes the
// engine.
func (s *Session) Close() error {
	s.Stop()

	s.mu.Lock()
	s.closed = true
	w := s.worker
	s.mu.Unlock()
	if w != nil {
		w.cancel()
	}
	return s.engine.Close()
}

func (s *Session) run(ctx context.Context, u Utterance, w *worker) (res Result) {
	start := time.Now()
	res = Result{UtteranceID: u.ID, Text: u.Text}

	defer func() {
		if r := recover(); r != nil {
			res.Err = NewEngineError(s.engine.Name(), ErrorCodePlayback, "engine panicked", fmt.Errorf("%v", r))
		}
		res.Elapsed = time.Since(start)
	}()

	onWord := func(WordEvent) bool {
		if w.stop.Load() {
			return false
		}
		res.Words++
		return true
	}

	err := s.engine.Speak(ctx, u, onWord)
	switch {
	case w.stop.Load():
		res.Stopped = true
		res.Err = ErrStopped
	case err != nil:
		res.Err = err
	case ctx.Err() != nil:
		res.Err = ctx.Err()
	}
	return res
}

func cloneVoice(v *voice.Descriptor) *voice.Descriptor {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
