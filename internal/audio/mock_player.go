package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// MockPlayer implements Device without producing sound. Playback time is
// simulated from the buffer length and a speed factor.
type MockPlayer struct {
	mu        sync.Mutex
	state     PlayerState
	audioData []byte
	format    Format
	duration  time.Duration
	started   time.Time
	speed     float64 // 2.0 plays twice as fast

	callbacks MockCallbacks
	failNext  error

	playCount atomic.Int64
	stopCount atomic.Int64
}

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	OnPlay func(pcm []byte, f Format)
	OnStop func()
}

// MockPlayerMetrics contains playback metrics for testing.
type MockPlayerMetrics struct {
	PlayCount int64
	StopCount int64
}

// DefaultMockPlayer creates a mock player that plays in real time.
func DefaultMockPlayer() *MockPlayer {
	return &MockPlayer{speed: 1}
}

// NewMockPlayer creates a mock player with callbacks.
func NewMockPlayer(callbacks MockCallbacks) *MockPlayer {
	mp := DefaultMockPlayer()
	mp.callbacks = callbacks
	return mp
}

// Play records pcm and starts the simulated clock.
func (mp *MockPlayer) Play(pcm []byte, f Format) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}
	if err := f.Validate(); err != nil {
		return err
	}

	mp.mu.Lock()
	if mp.state == StateClosed {
		mp.mu.Unlock()
		return errors.New("player is closed")
	}
	if err := mp.failNext; err != nil {
		mp.failNext = nil
		mp.mu.Unlock()
		return err
	}
	mp.audioData = append([]byte(nil), pcm...)
	mp.format = f
	mp.duration = time.Duration(float64(f.Duration(len(pcm))) / mp.speed)
	mp.started = time.Now()
	mp.state = StatePlaying
	onPlay := mp.callbacks.OnPlay
	mp.mu.Unlock()

	mp.playCount.Add(1)
	if onPlay != nil {
		onPlay(pcm, f)
	}
	return nil
}

// Stop ends simulated playback.
func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	wasPlaying := mp.state == StatePlaying
	if mp.state != StateClosed {
		mp.state = StateStopped
	}
	mp.audioData = nil
	onStop := mp.callbacks.OnStop
	mp.mu.Unlock()

	if wasPlaying {
		mp.stopCount.Add(1)
		if onStop != nil {
			onStop()
		}
	}
	return nil
}

// IsPlaying reports whether the simulated buffer is still running.
func (mp *MockPlayer) IsPlaying() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.state != StatePlaying {
		return false
	}
	if time.Since(mp.started) >= mp.duration {
		mp.state = StateStopped
		return false
	}
	return true
}

// Position returns simulated elapsed time, capped at Duration.
func (mp *MockPlayer) Position() time.Duration {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.state != StatePlaying {
		return 0
	}
	return min(time.Since(mp.started), mp.duration)
}

// Duration returns the simulated length of the current buffer.
func (mp *MockPlayer) Duration() time.Duration {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.duration
}

// Close stops playback and rejects further Play calls.
func (mp *MockPlayer) Close() error {
	mp.Stop()
	mp.mu.Lock()
	mp.state = StateClosed
	mp.mu.Unlock()
	return nil
}

// State returns the player state.
func (mp *MockPlayer) State() PlayerState {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.state
}

// SetSpeed scales simulated playback time. 1.0 is real time.
func (mp *MockPlayer) SetSpeed(factor float64) {
	if factor <= 0 {
		factor = 1
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.speed = factor
}

// FailNext makes the next Play return err.
func (mp *MockPlayer) FailNext(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.failNext = err
}

// AudioData returns a copy of the buffer being played.
func (mp *MockPlayer) AudioData() []byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.audioData == nil {
		return nil
	}
	return append([]byte(nil), mp.audioData...)
}

// LastFormat returns the format of the last buffer played.
func (mp *MockPlayer) LastFormat() Format {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.format
}

// Metrics returns playback counters.
func (mp *MockPlayer) Metrics() MockPlayerMetrics {
	return MockPlayerMetrics{
		PlayCount: mp.playCount.Load(),
		StopCount: mp.stopCount.Load(),
	}
}

var (
	_ Device = (*MockPlayer)(nil)
	_ Device = (*Player)(nil)
)
