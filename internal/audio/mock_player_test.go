package audio

import (
	"errors"
	"testing"
	"time"
)

func TestMockPlayer_BasicPlayback(t *testing.T) {
	player := DefaultMockPlayer()
	defer player.Close()

	if player.State() != StateStopped {
		t.Errorf("Initial state should be stopped, got %v", player.State())
	}

	f := Mono(22050)
	if err := player.Play(make([]byte, f.Bytes(time.Second)), f); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !player.IsPlaying() {
		t.Error("Player should be playing after Play()")
	}
	if got := player.Duration(); got != time.Second {
		t.Errorf("Expected duration 1s, got %v", got)
	}

	if err := player.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if player.IsPlaying() {
		t.Error("Player should not be playing after Stop()")
	}
	if m := player.Metrics(); m.PlayCount != 1 || m.StopCount != 1 {
		t.Errorf("Expected 1 play and 1 stop, got %+v", m)
	}
}

func TestMockPlayer_NaturalCompletion(t *testing.T) {
	player := DefaultMockPlayer()
	player.SetSpeed(10)

	f := Mono(22050)
	if err := player.Play(make([]byte, f.Bytes(200*time.Millisecond)), f); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for player.IsPlaying() {
		if time.Now().After(deadline) {
			t.Fatal("Playback did not complete")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if player.Position() != 0 {
		t.Errorf("Expected position 0 after completion, got %v", player.Position())
	}
}

func TestMockPlayer_PositionCapped(t *testing.T) {
	player := DefaultMockPlayer()
	f := Mono(8000)
	if err := player.Play(make([]byte, f.Bytes(time.Hour)), f); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	pos := player.Position()
	if pos <= 0 || pos > player.Duration() {
		t.Errorf("Expected position in (0, %v], got %v", player.Duration(), pos)
	}
}

func TestMockPlayer_Callbacks(t *testing.T) {
	var played []byte
	stopped := 0
	player := NewMockPlayer(MockCallbacks{
		OnPlay: func(pcm []byte, f Format) { played = pcm },
		OnStop: func() { stopped++ },
	})

	pcm := []byte{1, 0, 2, 0}
	if err := player.Play(pcm, Mono(8000)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if len(played) != len(pcm) {
		t.Errorf("OnPlay got %d bytes, want %d", len(played), len(pcm))
	}
	player.Stop()
	player.Stop()
	if stopped != 1 {
		t.Errorf("OnStop called %d times, want 1", stopped)
	}
}

func TestMockPlayer_FailNext(t *testing.T) {
	player := DefaultMockPlayer()
	want := errors.New("device busy")
	player.FailNext(want)

	if err := player.Play([]byte{0, 0}, Mono(8000)); !errors.Is(err, want) {
		t.Errorf("Expected %v, got %v", want, err)
	}
	if err := player.Play([]byte{0, 0}, Mono(8000)); err != nil {
		t.Errorf("Second Play should succeed, got %v", err)
	}
}

func TestMockPlayer_Closed(t *testing.T) {
	player := DefaultMockPlayer()
	player.Close()
	if err := player.Play([]byte{0, 0}, Mono(8000)); err == nil {
		t.Error("Play after Close expected error but got none")
	}
	if player.State() != StateClosed {
		t.Errorf("Expected closed state, got %v", player.State())
	}
}
