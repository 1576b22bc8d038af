package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

// generateTestAudio generates a sawtooth of the given length.
func generateTestAudio(f Format, duration time.Duration) []byte {
	data := make([]byte, f.Bytes(duration))
	for i := 0; i+1 < len(data); i += 2 {
		binary.LittleEndian.PutUint16(data[i:], uint16(int16((i/2)%1000)))
	}
	return data
}

func getTestPlayer(t *testing.T) *Player {
	t.Helper()
	player, err := NewPlayer(DefaultPlayerConfig())
	if err != nil {
		t.Skipf("Skipping test: cannot create audio player (no audio device?): %v", err)
	}
	t.Cleanup(func() { player.Stop() })
	return player
}

func TestNewPlayerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		config PlayerConfig
	}{
		{"zero rate", PlayerConfig{SampleRate: 0, Channels: 1}},
		{"negative rate", PlayerConfig{SampleRate: -1, Channels: 1}},
		{"no channels", PlayerConfig{SampleRate: 22050, Channels: 0}},
		{"surround", PlayerConfig{SampleRate: 22050, Channels: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPlayer(tt.config); err == nil {
				t.Errorf("NewPlayer(%+v) expected error but got none", tt.config)
			}
		})
	}
}

func TestDefaultPlayerConfig(t *testing.T) {
	config := DefaultPlayerConfig()
	if config.SampleRate != 22050 {
		t.Errorf("Expected sample rate 22050, got %d", config.SampleRate)
	}
	if config.Channels != 1 {
		t.Errorf("Expected mono, got %d channels", config.Channels)
	}
}

func TestPlayerPlayEmpty(t *testing.T) {
	player := getTestPlayer(t)
	if err := player.Play(nil, Mono(22050)); err == nil {
		t.Error("Play(nil) expected error but got none")
	}
}

func TestPlayerPlaybackAndStop(t *testing.T) {
	player := getTestPlayer(t)
	f := Mono(16000)
	audio := generateTestAudio(f, 500*time.Millisecond)

	if err := player.Play(audio, f); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if got := player.Duration(); got < 450*time.Millisecond || got > 550*time.Millisecond {
		t.Errorf("Expected duration near 500ms after resampling, got %v", got)
	}
	if err := player.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if player.IsPlaying() {
		t.Error("Player should not be playing after Stop()")
	}
	if player.Position() != 0 {
		t.Errorf("Expected position 0 after Stop(), got %v", player.Position())
	}
}

func TestPlayerVolume(t *testing.T) {
	player := getTestPlayer(t)
	for _, v := range []float64{0, 0.5, 1} {
		if err := player.SetVolume(v); err != nil {
			t.Errorf("SetVolume(%v) unexpected error: %v", v, err)
		}
		if got := player.Volume(); got != v {
			t.Errorf("SetVolume(%v) then Volume() = %v", v, got)
		}
	}
	for _, v := range []float64{-0.1, 1.1} {
		if err := player.SetVolume(v); err == nil {
			t.Errorf("SetVolume(%v) expected error but got none", v)
		}
	}
}
