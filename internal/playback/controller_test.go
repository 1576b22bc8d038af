package playback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/clipspeak/internal/clipboard"
	"github.com/dgnsrekt/clipspeak/internal/hotkey"
	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/speech/engines"
	"github.com/dgnsrekt/clipspeak/internal/voice"
)

type harness struct {
	c      *Controller
	engine *engines.Mock
	mem    *clipboard.Memory
}

func newHarness(t *testing.T, clip string, delay time.Duration, modify func(*Config)) *harness {
	t.Helper()
	engine := engines.NewMock(engines.DefaultMockVoices()...)
	engine.SetWordDelay(delay)

	session, err := speech.NewSession(engine, speech.SessionConfig{})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	voices, _ := engine.Voices(context.Background())

	mem := clipboard.NewMemory(clip)
	config := DefaultConfig()
	config.TriggerInterval = 0
	if modify != nil {
		modify(&config)
	}
	c, err := New(session, clipboard.New(mem), voice.Load(voices), config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	h := &harness{c: c, engine: engine, mem: mem}
	h.expect(t, KindReady)
	return h
}

// expect reads statuses until one of kind arrives.
func (h *harness) expect(t *testing.T, kind Kind) Status {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-h.c.Statuses():
			if !ok {
				t.Fatalf("status channel closed waiting for %s", kind)
			}
			if s.Kind == kind {
				return s
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s status", kind)
			return Status{}
		}
	}
}

func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.c.State() != Idle {
		if time.Now().After(deadline) {
			t.Fatalf("controller stuck in %s", h.c.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNew_Validation(t *testing.T) {
	session, _ := speech.NewSession(engines.NewMock(), speech.SessionConfig{})
	clip := clipboard.New(clipboard.NewMemory(""))

	if _, err := New(nil, clip, nil, DefaultConfig()); err == nil {
		t.Error("Expected error for nil session")
	}
	if _, err := New(session, nil, nil, DefaultConfig()); err == nil {
		t.Error("Expected error for nil clipboard")
	}
	same := DefaultConfig()
	same.Stop = same.Trigger
	if _, err := New(session, clip, nil, same); !errors.Is(err, hotkey.ErrInvalidBinding) {
		t.Errorf("Expected ErrInvalidBinding for identical keys, got %v", err)
	}
}

func TestController_InitialStatus(t *testing.T) {
	engine := engines.NewMock()
	session, _ := speech.NewSession(engine, speech.SessionConfig{})
	c, err := New(session, clipboard.New(clipboard.NewMemory("")), nil, DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	s := <-c.Statuses()
	if s.Kind != KindReady || s.Text != "Ready - Press F8 to read text" {
		t.Errorf("Unexpected initial status %+v", s)
	}
	if c.State() != Idle {
		t.Errorf("Expected idle, got %s", c.State())
	}
	if !c.Catalog().IsFallback() {
		t.Error("Expected fallback catalog when none is given")
	}
}

func TestController_TriggerSpeaksClipboard(t *testing.T) {
	h := newHarness(t, "  Hello\n\nclipboard world  ", time.Millisecond, nil)

	if !h.c.OnTriggerPressed(context.Background()) {
		t.Fatal("Expected trigger to be accepted")
	}
	reading := h.expect(t, KindReading)
	if reading.Text != "Reading text..." || reading.UtteranceID == "" {
		t.Errorf("Unexpected reading status %+v", reading)
	}
	ready := h.expect(t, KindReady)
	if ready.UtteranceID != reading.UtteranceID {
		t.Errorf("Expected ready for %s, got %s", reading.UtteranceID, ready.UtteranceID)
	}
	h.waitIdle(t)

	spoken := h.engine.Spoken()
	if len(spoken) != 1 || spoken[0].Text != "Hello clipboard world" {
		t.Errorf("Expected prepared clipboard text spoken once, got %+v", spoken)
	}
	if spoken[0].Rate != speech.DefaultRate {
		t.Errorf("Expected default rate, got %d", spoken[0].Rate)
	}
}

func TestController_EmptyClipboard(t *testing.T) {
	h := newHarness(t, " \n\t ", time.Millisecond, nil)

	h.c.OnTriggerPressed(context.Background())
	s := h.expect(t, KindEmpty)
	if s.Text != "No text in clipboard!" {
		t.Errorf("Unexpected text %q", s.Text)
	}
	if h.c.State() != Idle {
		t.Errorf("Expected idle, got %s", h.c.State())
	}
	if len(h.engine.Spoken()) != 0 {
		t.Error("Engine should not be called")
	}
}

func TestController_ClipboardFailureIsEmpty(t *testing.T) {
	h := newHarness(t, "text", time.Millisecond, nil)
	h.mem.Fail(errors.New("clipboard locked"))

	h.c.OnTriggerPressed(context.Background())
	h.expect(t, KindEmpty)
}

func TestController_IgnoresTriggerWhileSpeaking(t *testing.T) {
	h := newHarness(t, "one two three four five six", 30*time.Millisecond, nil)

	if !h.c.OnTriggerPressed(context.Background()) {
		t.Fatal("Expected first trigger accepted")
	}
	h.expect(t, KindReading)
	if h.c.State() != Speaking {
		t.Fatalf("Expected speaking, got %s", h.c.State())
	}
	if h.c.OnTriggerPressed(context.Background()) {
		t.Error("Expected second trigger ignored")
	}
	if err := h.c.Speak(context.Background(), "other"); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy, got %v", err)
	}

	h.c.OnStopRequested()
	if n := len(h.engine.Spoken()); n != 1 {
		t.Errorf("Expected one utterance, got %d", n)
	}
}

func TestController_TriggerThrottled(t *testing.T) {
	h := newHarness(t, "hi", time.Millisecond, func(c *Config) {
		c.TriggerInterval = time.Hour
	})

	if !h.c.OnTriggerPressed(context.Background()) {
		t.Fatal("Expected first trigger accepted")
	}
	h.expect(t, KindReady)
	h.waitIdle(t)
	if h.c.OnTriggerPressed(context.Background()) {
		t.Error("Expected repeat trigger throttled")
	}
}

func TestController_Stop(t *testing.T) {
	h := newHarness(t, strings.Repeat("word ", 50), 20*time.Millisecond, nil)

	h.c.OnTriggerPressed(context.Background())
	h.expect(t, KindReading)
	time.Sleep(30 * time.Millisecond)

	if !h.c.OnStopRequested() {
		t.Fatal("Expected stop to act")
	}
	s := h.expect(t, KindStopped)
	if s.Text != "Speech stopped - Ready" {
		t.Errorf("Unexpected stop text %q", s.Text)
	}
	if h.c.State() != Idle {
		t.Errorf("Expected idle, got %s", h.c.State())
	}
	if h.c.Session().Active() {
		t.Error("Expected session idle after stop")
	}

	// The stopped utterance must not post a late ready status.
	select {
	case s := <-h.c.Statuses():
		t.Errorf("Unexpected status after stop: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestController_StopWhenIdle(t *testing.T) {
	h := newHarness(t, "", time.Millisecond, nil)
	if h.c.OnStopRequested() {
		t.Error("Stop with nothing playing should be a no-op")
	}
	select {
	case s := <-h.c.Statuses():
		t.Errorf("Unexpected status %+v", s)
	default:
	}
}

func TestController_HandleHotkey(t *testing.T) {
	h := newHarness(t, strings.Repeat("word ", 50), 20*time.Millisecond, nil)
	config := DefaultConfig()

	h.c.HandleHotkey(hotkey.Event{Binding: config.Trigger, Type: hotkey.Up})
	if h.c.State() != Idle {
		t.Fatal("Key-up should be ignored")
	}

	h.c.HandleHotkey(hotkey.Event{Binding: config.Trigger, Type: hotkey.Down})
	h.expect(t, KindReading)

	h.c.HandleHotkey(hotkey.Event{Binding: hotkey.MustParse("f9"), Type: hotkey.Down})
	if h.c.State() != Speaking {
		t.Errorf("Unknown binding should be ignored, state %s", h.c.State())
	}

	h.c.HandleHotkey(hotkey.Event{Binding: config.Stop, Type: hotkey.Down})
	h.expect(t, KindStopped)
}

func TestController_Run(t *testing.T) {
	h := newHarness(t, "run loop", time.Millisecond, nil)
	events := make(chan hotkey.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.c.Run(ctx, events)
		close(done)
	}()

	events <- hotkey.Event{Binding: DefaultConfig().Trigger, Type: hotkey.Down}
	h.expect(t, KindReady)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestController_LanguageAndSpeed(t *testing.T) {
	h := newHarness(t, "Guten Tag", time.Millisecond, nil)

	if !h.c.OnLanguageChanged("German (Female)") {
		t.Fatal("Expected German voice to be selectable")
	}
	if h.c.Selected() != "German (Female)" {
		t.Errorf("Unexpected selection %q", h.c.Selected())
	}
	if h.c.OnLanguageChanged("Klingon (Male)") {
		t.Error("Expected unknown label rejected")
	}
	if got := h.c.OnSpeedChanged(1000); got != speech.DefaultMaxRate {
		t.Errorf("Expected rate clamped to %d, got %d", speech.DefaultMaxRate, got)
	}

	h.c.OnTriggerPressed(context.Background())
	h.expect(t, KindReady)

	spoken := h.engine.Spoken()
	if len(spoken) != 1 {
		t.Fatalf("Expected one utterance, got %d", len(spoken))
	}
	if spoken[0].Voice.ID != "mock-hedda" {
		t.Errorf("Expected mock-hedda, got %q", spoken[0].Voice.ID)
	}
	if spoken[0].Rate != speech.DefaultMaxRate {
		t.Errorf("Expected rate %d, got %d", speech.DefaultMaxRate, spoken[0].Rate)
	}
}

func TestController_FallbackVoiceIsNoop(t *testing.T) {
	engine := engines.NewMock()
	session, _ := speech.NewSession(engine, speech.SessionConfig{})
	c, err := New(session, clipboard.New(clipboard.NewMemory("")), voice.Load(nil), DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if !c.OnLanguageChanged(voice.FallbackLabel) {
		t.Error("Expected fallback label accepted")
	}
	if _, ok := session.Voice(); ok {
		t.Error("Selecting the fallback should not set a voice")
	}
}

func TestController_SetCatalogKeepsVoice(t *testing.T) {
	h := newHarness(t, "", time.Millisecond, nil)
	h.c.OnLanguageChanged("English (Female)")

	rules := voice.DefaultRules()
	rules.Overrides = map[string]string{"mock-zira": "Zira"}
	h.c.SetCatalog(rules.Load(engines.DefaultMockVoices()))

	if h.c.Selected() != "Zira" {
		t.Errorf("Expected selection to follow the voice to its new label, got %q", h.c.Selected())
	}
}

func TestController_TestButton(t *testing.T) {
	h := newHarness(t, strings.Repeat("word ", 50), 20*time.Millisecond, nil)

	h.c.OnTriggerPressed(context.Background())
	h.expect(t, KindReading)

	if err := h.c.OnTestClicked(context.Background()); err != nil {
		t.Fatalf("OnTestClicked failed: %v", err)
	}
	h.expect(t, KindStopped)
	h.expect(t, KindReading)

	spoken := h.engine.Spoken()
	if len(spoken) != 2 || spoken[1].Text != TestSentence {
		t.Errorf("Expected the test sentence second, got %+v", spoken)
	}
}

func TestController_SpeakEmpty(t *testing.T) {
	h := newHarness(t, "", time.Millisecond, nil)
	if err := h.c.Speak(context.Background(), "   "); !errors.Is(err, speech.ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
	if h.c.State() != Idle {
		t.Errorf("Expected idle, got %s", h.c.State())
	}
}

func TestController_EngineError(t *testing.T) {
	h := newHarness(t, "hello", time.Millisecond, nil)
	h.engine.FailSpeak(errors.New("audio device lost"))

	h.c.OnTriggerPressed(context.Background())
	s := h.expect(t, KindError)
	if s.Text != "Error: audio device lost" {
		t.Errorf("Unexpected error status %q", s.Text)
	}
	h.waitIdle(t)
}

func TestController_CaptureSelection(t *testing.T) {
	mem := clipboard.NewMemory("stale clipboard")
	keys := &clipboard.RecordingKeys{OnPress: func() { _ = mem.WriteAll("the selected words") }}
	bridge := clipboard.New(mem,
		clipboard.WithKeySender(keys),
		clipboard.WithTiming(clipboard.Timing{Settle: time.Millisecond, KeyGap: time.Millisecond, PostCopy: time.Millisecond}),
	)

	engine := engines.NewMock()
	engine.SetWordDelay(time.Millisecond)
	session, _ := speech.NewSession(engine, speech.SessionConfig{})
	config := DefaultConfig()
	config.Capture = true
	c, err := New(session, bridge, nil, config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()
	h := &harness{c: c, engine: engine, mem: mem}
	h.expect(t, KindReady)

	c.OnTriggerPressed(context.Background())
	h.expect(t, KindReading)
	h.expect(t, KindReady)

	if spoken := engine.Spoken(); len(spoken) != 1 || spoken[0].Text != "the selected words" {
		t.Errorf("Expected captured selection spoken, got %+v", spoken)
	}
	if len(keys.Events()) != 2 {
		t.Errorf("Expected copy chord press and release, got %d events", len(keys.Events()))
	}
}

// countingFocus records how often the focused window is queried.
type countingFocus struct {
	mu      sync.Mutex
	queries int
}

func (f *countingFocus) Foreground() clipboard.Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	return 7
}

func (f *countingFocus) Activate(clipboard.Window) error { return nil }

func (f *countingFocus) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

func TestController_FocusOnlyQueriedWhenCapturing(t *testing.T) {
	for _, capture := range []bool{false, true} {
		focus := &countingFocus{}
		mem := clipboard.NewMemory("some text")
		bridge := clipboard.New(mem,
			clipboard.WithFocuser(focus),
			clipboard.WithKeySender(&clipboard.RecordingKeys{}),
			clipboard.WithTiming(clipboard.Timing{Settle: time.Millisecond, KeyGap: time.Millisecond, PostCopy: time.Millisecond}),
		)
		engine := engines.NewMock()
		session, _ := speech.NewSession(engine, speech.SessionConfig{})
		config := DefaultConfig()
		config.TriggerInterval = 0
		config.Capture = capture
		c, err := New(session, bridge, nil, config)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		h := &harness{c: c, engine: engine, mem: mem}
		h.expect(t, KindReady)

		c.OnTriggerPressed(context.Background())
		h.expect(t, KindReading)
		h.expect(t, KindReady)
		c.Close()

		want := 0
		if capture {
			want = 1
		}
		if got := focus.count(); got != want {
			t.Errorf("capture=%v: expected %d foreground queries, got %d", capture, want, got)
		}
	}
}

// stuckEngine ignores stop requests and only returns when its context ends.
type stuckEngine struct{}

func (stuckEngine) Name() string { return "stuck" }

func (stuckEngine) Voices(context.Context) ([]voice.Descriptor, error) { return nil, nil }

func (stuckEngine) Speak(ctx context.Context, u speech.Utterance, onWord speech.WordFunc) error {
	for _, w := range speech.Words(u.Text) {
		onWord(w)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (stuckEngine) Close() error { return nil }

func TestController_StateResponsiveWhileStarting(t *testing.T) {
	session, err := speech.NewSession(stuckEngine{}, speech.SessionConfig{JoinTimeout: 300 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	config := DefaultConfig()
	config.TriggerInterval = 0
	c, err := New(session, clipboard.New(clipboard.NewMemory("")), nil, config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()
	h := &harness{c: c}
	h.expect(t, KindReady)

	if err := c.Speak(context.Background(), "first words"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	h.expect(t, KindReading)
	// The worker outlives the join timeout, so the next start has to wait
	// for it.
	c.OnStopRequested()
	h.expect(t, KindStopped)

	go func() { _ = c.Speak(context.Background(), "second words") }()
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	state := c.State()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Expected State to answer while speech starts, took %v", elapsed)
	}
	if state != Processing {
		t.Errorf("Expected %s, got %s", Processing, state)
	}
	h.expect(t, KindReading)
}

func TestController_StatusesDropOldest(t *testing.T) {
	engine := engines.NewMock()
	session, _ := speech.NewSession(engine, speech.SessionConfig{})
	config := DefaultConfig()
	config.StatusBuffer = 2
	config.TriggerInterval = 0
	c, err := New(session, clipboard.New(clipboard.NewMemory("")), nil, config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.OnTriggerPressed(context.Background())
	}
	if got := len(c.Statuses()); got != 2 {
		t.Fatalf("Expected a full buffer of 2, got %d", got)
	}
	for i := 0; i < 2; i++ {
		if s := <-c.Statuses(); s.Kind != KindEmpty {
			t.Errorf("Expected the newest statuses to survive, got %s", s.Kind)
		}
	}
}

func TestController_Close(t *testing.T) {
	h := newHarness(t, "hello", time.Millisecond, nil)
	if err := h.c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, ok := <-h.c.Statuses(); ok {
		t.Error("Expected closed status channel")
	}
	if h.c.OnTriggerPressed(context.Background()) {
		t.Error("Expected trigger ignored after Close")
	}
	if err := h.c.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

func TestStatusHelpers(t *testing.T) {
	if ReadyText("Ctrl+F9") != "Ready - Press Ctrl+F9 to read text" {
		t.Error("Unexpected ready text")
	}
	err := speech.NewEngineError("piper", speech.ErrorCodeSynth, "synthesis failed", errors.New("exit 1"))
	if got := errorText(err); got != "Error: piper synthesis failed" {
		t.Errorf("Unexpected error text %q", got)
	}
	if !KindStopped.Final() || KindReading.Final() {
		t.Error("Unexpected Final classification")
	}
	if Speaking.String() != "speaking" || !Stopping.Busy() || Idle.Busy() {
		t.Error("Unexpected state helpers")
	}
}

func TestStateMachine(t *testing.T) {
	sm := newStateMachine()
	if sm.transition(Speaking) {
		t.Error("Idle should not go straight to speaking")
	}
	for _, to := range []State{Processing, Speaking, Stopping, Idle} {
		if !sm.transition(to) {
			t.Errorf("Expected transition to %s", to)
		}
	}
	if sm.transition(Stopping) {
		t.Error("Idle should not go to stopping")
	}
}
