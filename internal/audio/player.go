package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Device plays PCM buffers one at a time.
type Device interface {
	// Play starts pcm, replacing anything already playing, and returns
	// without waiting for it to finish.
	Play(pcm []byte, f Format) error
	Stop() error
	IsPlaying() bool
	// Position is how far into the current buffer playback is.
	Position() time.Duration
	// Duration is the length of the current buffer.
	Duration() time.Duration
	Close() error
}

// PlayerState is the state of a Device.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// oto allows one context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
	otoFmt  Format
)

func sharedContext(f Format, buffer time.Duration) (*oto.Context, Format, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   buffer,
		})
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoCtx, otoFmt = ctx, f
		log.Debug("audio context ready", "format", f)
	})
	return otoCtx, otoFmt, otoErr
}

// Player plays PCM through the system audio device using oto.
type Player struct {
	context *oto.Context
	format  Format

	mu       sync.Mutex
	player   *oto.Player
	data     []byte // kept alive while oto reads from it
	duration time.Duration
	started  time.Time

	state  atomic.Int32
	volume atomic.Uint64 // volume * 1e6
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int           // device rate; buffers are resampled to it
	Channels   int           // 1 = mono, 2 = stereo
	BufferSize time.Duration // oto buffer, 0 for the driver default
}

// DefaultPlayerConfig returns 22050Hz mono, the native rate of most
// espeak-ng and piper voices.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 22050,
		Channels:   1,
		BufferSize: 100 * time.Millisecond,
	}
}

// NewPlayer opens the audio device. Later calls share the device opened by
// the first one, whatever format they ask for.
func NewPlayer(config PlayerConfig) (*Player, error) {
	f := Format{SampleRate: config.SampleRate, Channels: config.Channels}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ctx, actual, err := sharedContext(f, config.BufferSize)
	if err != nil {
		return nil, err
	}
	p := &Player{context: ctx, format: actual}
	p.state.Store(int32(StateStopped))
	p.volume.Store(1e6)
	return p, nil
}

// Format returns the device format.
func (p *Player) Format() Format { return p.format }

// Play starts playback of pcm, converting it to the device format first.
func (p *Player) Play(pcm []byte, f Format) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if p.State() == StateClosed {
		return errors.New("player is closed")
	}

	var data []byte
	if f == p.format {
		data = append([]byte(nil), pcm...)
	} else {
		data = Convert(pcm, f, p.format)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	player := p.context.NewPlayer(bytes.NewReader(data))
	player.SetVolume(p.Volume())
	p.player = player
	p.data = data
	p.duration = p.format.Duration(len(data))
	p.started = time.Now()
	player.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// Stop halts playback and releases the current buffer.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.player != nil {
		p.player.Pause()
		if err := p.player.Close(); err != nil {
			log.Debug("closing oto player", "err", err)
		}
		p.player = nil
	}
	p.data = nil
	p.duration = 0
	if p.State() != StateClosed {
		p.state.Store(int32(StateStopped))
	}
}

// IsPlaying reports whether the current buffer is still sounding.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return false
	}
	if !p.player.IsPlaying() {
		p.stopLocked()
		return false
	}
	return true
}

// Position returns the elapsed playback time, capped at Duration.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return 0
	}
	return min(time.Since(p.started), p.duration)
}

// Duration returns the length of the current buffer.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}
	p.volume.Store(uint64(volume * 1e6))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.SetVolume(volume)
	}
	return nil
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	return float64(p.volume.Load()) / 1e6
}

// State returns the player state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// Close stops playback. The shared oto context stays open for the life of
// the process; oto/v3 has no way to close it.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.state.Store(int32(StateClosed))
	return nil
}
