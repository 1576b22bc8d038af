package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/clipspeak/internal/voice"
)

func newTestSession(t *testing.T, e Engine) *Session {
	t.Helper()
	s, err := NewSession(e, SessionConfig{JoinTimeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s
}

func TestNewSession_Defaults(t *testing.T) {
	if _, err := NewSession(nil, SessionConfig{}); err == nil {
		t.Error("Expected error for nil engine")
	}
	if _, err := NewSession(&fakeEngine{}, SessionConfig{Bounds: RateBounds{Min: 300, Max: 100}}); err == nil {
		t.Error("Expected error for inverted bounds")
	}

	s, err := NewSession(&fakeEngine{}, SessionConfig{})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if s.Rate() != DefaultRate {
		t.Errorf("Expected rate %d, got %d", DefaultRate, s.Rate())
	}
	if s.Bounds() != DefaultRateBounds() {
		t.Errorf("Expected default bounds, got %+v", s.Bounds())
	}
	if _, ok := s.Voice(); ok {
		t.Error("Expected no voice by default")
	}
}

func TestSession_Configure(t *testing.T) {
	s := newTestSession(t, &fakeEngine{})

	if got := s.Configure(1000, &voice.Descriptor{ID: "de"}); got != DefaultMaxRate {
		t.Errorf("Expected rate clamped to %d, got %d", DefaultMaxRate, got)
	}
	v, ok := s.Voice()
	if !ok || v.ID != "de" {
		t.Errorf("Expected voice de, got %+v", v)
	}
	if got := s.SetRate(10); got != DefaultMinRate {
		t.Errorf("Expected rate clamped to %d, got %d", DefaultMinRate, got)
	}
	s.SetVoice(nil)
	if _, ok := s.Voice(); ok {
		t.Error("Expected voice cleared")
	}
}

func TestSession_SpeakCompletes(t *testing.T) {
	e := &fakeEngine{delay: time.Millisecond}
	s := newTestSession(t, e)
	s.Configure(250, &voice.Descriptor{ID: "zira"})

	if err := s.Speak(context.Background(), "hello there world"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if s.Active() {
		t.Error("Session should be idle after Speak returns")
	}
	spoken := e.utterances()
	if len(spoken) != 1 {
		t.Fatalf("Expected 1 utterance, got %d", len(spoken))
	}
	if spoken[0].Rate != 250 || spoken[0].Voice.ID != "zira" || spoken[0].ID == "" {
		t.Errorf("Unexpected utterance: %+v", spoken[0])
	}
}

func TestSession_EmptyText(t *testing.T) {
	e := &fakeEngine{}
	s := newTestSession(t, e)

	if _, err := s.Start(context.Background(), " \n\t", nil); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
	if len(e.utterances()) != 0 {
		t.Error("Engine should not be called for empty text")
	}
}

func TestSession_StopAtWordBoundary(t *testing.T) {
	e := &fakeEngine{delay: 20 * time.Millisecond}
	s := newTestSession(t, e)

	results := make(chan Result, 1)
	id, err := s.Start(context.Background(), "one two three four five six seven eight", func(r Result) { results <- r })
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if !s.Stop() {
		t.Fatal("Expected Stop to join the worker")
	}
	if s.Active() {
		t.Error("Session should be idle after Stop")
	}

	r := <-results
	if r.UtteranceID != id {
		t.Errorf("Expected result for %s, got %s", id, r.UtteranceID)
	}
	if !r.Stopped || !errors.Is(r.Err, ErrStopped) {
		t.Errorf("Expected stopped result, got %+v", r)
	}
	if r.Words >= 8 {
		t.Errorf("Expected fewer than 8 words, got %d", r.Words)
	}
}

func TestSession_StopWhenIdle(t *testing.T) {
	s := newTestSession(t, &fakeEngine{})
	if !s.Stop() {
		t.Error("Stop on an idle session should report idle")
	}
	if s.StopRequested() {
		t.Error("No stop should be pending on an idle session")
	}
}

func TestSession_StopTimesOut(t *testing.T) {
	e := &fakeEngine{delay: 100 * time.Millisecond, ignoreStop: true}
	s, err := NewSession(e, SessionConfig{JoinTimeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	done := make(chan Result, 1)
	if _, err := s.Start(context.Background(), "a b c", func(r Result) { done <- r }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if s.Stop() {
		t.Error("Expected Stop to time out on a stuck engine")
	}
	if !s.StopRequested() {
		t.Error("Expected stop to stay requested while the worker runs")
	}

	// The worker is not killed; it finishes on its own.
	select {
	case r := <-done:
		if !r.Stopped {
			t.Errorf("Expected stopped result, got %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker never finished")
	}
}

func TestSession_StartReplacesActive(t *testing.T) {
	e := &fakeEngine{delay: 20 * time.Millisecond}
	s := newTestSession(t, e)

	first := make(chan Result, 1)
	if _, err := s.Start(context.Background(), "first utterance is long enough", func(r Result) { first <- r }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := s.Speak(context.Background(), "second"); err != nil {
		t.Fatalf("second Speak failed: %v", err)
	}
	r := <-first
	if !r.Stopped {
		t.Errorf("Expected first utterance stopped, got %+v", r)
	}
	if n := len(e.utterances()); n != 2 {
		t.Errorf("Expected 2 utterances, got %d", n)
	}
}

func TestSession_StartCancelsStuckWorker(t *testing.T) {
	e := &fakeEngine{delay: 10 * time.Second, ignoreStop: true}
	s, err := NewSession(e, SessionConfig{JoinTimeout: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	first := make(chan Result, 1)
	if _, err := s.Start(context.Background(), "a b c", func(r Result) { first <- r }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	second := make(chan Result, 1)
	if _, err := s.Start(context.Background(), "d e f", func(r Result) { second <- r }); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	select {
	case r := <-first:
		if !r.Stopped {
			t.Errorf("Expected first utterance stopped, got %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first worker was not cancelled")
	}
	if n := e.peakConcurrent(); n != 1 {
		t.Errorf("Expected one engine call at a time, got %d", n)
	}
	_ = s.Close()
	<-second
}

func TestSession_EngineError(t *testing.T) {
	boom := errors.New("device lost")
	s := newTestSession(t, &fakeEngine{err: boom})

	if err := s.Speak(context.Background(), "hello"); !errors.Is(err, boom) {
		t.Errorf("Expected engine error, got %v", err)
	}
}

func TestSession_EnginePanic(t *testing.T) {
	s := newTestSession(t, &fakeEngine{panicMsg: "com object released"})

	err := s.Speak(context.Background(), "hello")
	var engErr *EngineError
	if !errors.As(err, &engErr) {
		t.Fatalf("Expected EngineError, got %v", err)
	}
	if engErr.Engine != "fake" {
		t.Errorf("Expected engine name fake, got %s", engErr.Engine)
	}
}

func TestSession_Close(t *testing.T) {
	e := &fakeEngine{delay: 10 * time.Millisecond}
	s := newTestSession(t, e)

	if _, err := s.Start(context.Background(), "a b c d e", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !e.closed {
		t.Error("Expected engine closed")
	}
	if _, err := s.Start(context.Background(), "again", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}
