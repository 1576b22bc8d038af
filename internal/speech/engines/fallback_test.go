package engines

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/voice"
)

func TestFallback_SwitchesAfterFailures(t *testing.T) {
	primary := NewMock(DefaultMockVoices()...)
	primary.FailSpeak(errors.New("crashed"))
	secondary := NewMock()
	secondary.SetWordDelay(time.Millisecond)

	f := NewFallback(primary, secondary, 2)
	u := speech.Utterance{Text: "hi", Voice: voice.Descriptor{ID: "mock-zira"}}
	all := func(speech.WordEvent) bool { return true }

	if err := f.Speak(context.Background(), u, all); err == nil {
		t.Fatal("Expected first failure to be returned")
	}
	if f.UsingFallback() {
		t.Fatal("Should not switch after one failure")
	}
	if err := f.Speak(context.Background(), u, all); err != nil {
		t.Fatalf("Expected fallback to speak, got %v", err)
	}
	if !f.UsingFallback() {
		t.Error("Expected fallback to be active")
	}

	spoken := secondary.Spoken()
	if len(spoken) != 1 || spoken[0].Voice.ID != "" {
		t.Errorf("Expected fallback to speak once without a voice, got %+v", spoken)
	}
}

func TestFallback_SwitchesOnUnavailable(t *testing.T) {
	primary := NewMock()
	primary.FailSpeak(speech.ErrEngineUnavailable)
	secondary := NewMock()
	secondary.SetWordDelay(time.Millisecond)

	f := NewFallback(primary, secondary, 5)
	if err := f.Speak(context.Background(), speech.Utterance{Text: "hi"}, func(speech.WordEvent) bool { return true }); err != nil {
		t.Fatalf("Expected immediate switch, got %v", err)
	}
	if !f.UsingFallback() {
		t.Error("Expected fallback to be active")
	}
}

func TestFallback_VoicesFailureSwitches(t *testing.T) {
	primary := NewMock()
	primary.FailVoices(errors.New("no voices"))
	secondary := NewMock(DefaultMockVoices()...)

	f := NewFallback(primary, secondary, 3)
	voices, err := f.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices failed: %v", err)
	}
	if len(voices) != 3 {
		t.Errorf("Expected fallback voices, got %d", len(voices))
	}
	if f.Name() != "mock" || !f.UsingFallback() {
		t.Error("Expected fallback to be active")
	}
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(Deps{})
	for _, name := range []string{"auto", "espeak", "mock", "piper", "sapi", "say"} {
		if !r.Has(name) {
			t.Errorf("Expected %q to be registered", name)
		}
	}

	e, err := r.Create("mock", nil)
	if err != nil {
		t.Fatalf("Create(mock) failed: %v", err)
	}
	if e.Name() != "mock" {
		t.Errorf("Expected mock engine, got %s", e.Name())
	}

	if _, err := r.Create("festival", nil); !errors.Is(err, speech.ErrUnknownEngine) {
		t.Errorf("Expected ErrUnknownEngine, got %v", err)
	}
}

func TestPlatformEngines(t *testing.T) {
	if got := platformEngines("windows")[0]; got != "sapi" {
		t.Errorf("Expected sapi first on windows, got %s", got)
	}
	if got := platformEngines("darwin")[0]; got != "say" {
		t.Errorf("Expected say first on darwin, got %s", got)
	}
	if got := platformEngines("linux"); len(got) == 0 {
		t.Error("Expected engines for linux")
	}
}
