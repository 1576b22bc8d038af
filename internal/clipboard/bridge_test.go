package clipboard

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeFocus struct {
	current   Window
	activated []Window
}

func (f *fakeFocus) Foreground() Window { return f.current }

func (f *fakeFocus) Activate(w Window) error {
	f.activated = append(f.activated, w)
	f.current = w
	return nil
}

func fastTiming() Timing {
	return Timing{Settle: 5 * time.Millisecond, KeyGap: 5 * time.Millisecond, PostCopy: 5 * time.Millisecond}
}

func TestBridge_ReadWrite(t *testing.T) {
	mem := NewMemory("")
	b := New(mem)

	text := "Grüße aus München \U0001F600"
	if !b.Write(text) {
		t.Fatal("Write failed")
	}
	if got := b.Read(); got != text {
		t.Errorf("Expected %q, got %q", text, got)
	}
}

func TestBridge_ReadFailureIsEmpty(t *testing.T) {
	mem := NewMemory("something")
	mem.Fail(errors.New("locked by another process"))
	b := New(mem)

	if got := b.Read(); got != "" {
		t.Errorf("Expected empty string on failure, got %q", got)
	}
	if b.Write("x") {
		t.Error("Expected Write to report failure")
	}
}

func TestBridge_CaptureSelection(t *testing.T) {
	mem := NewMemory("old clipboard")
	keys := &RecordingKeys{}
	keys.OnPress = func() { _ = mem.WriteAll("selected text") }
	focus := &fakeFocus{current: 42}

	b := New(mem, WithKeySender(keys), WithFocuser(focus), WithTiming(fastTiming()))
	if !b.CanCapture() {
		t.Fatal("Expected capture to be available")
	}

	prev := b.Foreground()
	got := b.CaptureSelection(context.Background(), prev)
	if got != "selected text" {
		t.Errorf("Expected selected text, got %q", got)
	}

	events := keys.Events()
	if len(events) != 2 || !events[0].Pressed || events[1].Pressed {
		t.Fatalf("Expected press then release, got %+v", events)
	}
	if gap := events[1].At.Sub(events[0].At); gap < 5*time.Millisecond {
		t.Errorf("Expected at least the key gap between press and release, got %v", gap)
	}
	if len(focus.activated) != 1 || focus.activated[0] != 42 {
		t.Errorf("Expected focus restored to 42, got %v", focus.activated)
	}
}

func TestBridge_CaptureSelectionKeyFailure(t *testing.T) {
	mem := NewMemory("clipboard as is")
	keys := &RecordingKeys{Err: errors.New("no uinput")}

	b := New(mem, WithKeySender(keys), WithTiming(fastTiming()))
	if got := b.CaptureSelection(context.Background(), 0); got != "clipboard as is" {
		t.Errorf("Expected clipboard read after injection failure, got %q", got)
	}
	if n := len(keys.Events()); n != 1 {
		t.Errorf("Expected only the failed press, got %d events", n)
	}
}

func TestBridge_CaptureWithoutKeys(t *testing.T) {
	mem := NewMemory("plain read")
	b := New(mem)

	if b.CanCapture() {
		t.Error("Expected capture unavailable without a key sender")
	}
	if got := b.CaptureSelection(context.Background(), 0); got != "plain read" {
		t.Errorf("Expected %q, got %q", "plain read", got)
	}
}

func TestBridge_CaptureCancelled(t *testing.T) {
	mem := NewMemory("text")
	keys := &RecordingKeys{}
	b := New(mem, WithKeySender(keys), WithTiming(Timing{Settle: time.Hour}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := b.CaptureSelection(ctx, 0); got != "" {
		t.Errorf("Expected empty result when cancelled, got %q", got)
	}
	if len(keys.Events()) != 0 {
		t.Error("Expected no keys sent after cancel")
	}
}

func TestDefaultTiming(t *testing.T) {
	d := DefaultTiming()
	if d.Settle != 300*time.Millisecond || d.KeyGap != 50*time.Millisecond || d.PostCopy != 200*time.Millisecond {
		t.Errorf("Unexpected default timing %+v", d)
	}
}
