package engines

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/audio"
	"github.com/dgnsrekt/clipspeak/internal/cache"
	"github.com/dgnsrekt/clipspeak/internal/speech"
)

// how often playback position is sampled for word boundaries
const pollInterval = 20 * time.Millisecond

// Renderer synthesizes an utterance to PCM.
type Renderer interface {
	Render(ctx context.Context, u speech.Utterance) ([]byte, audio.Format, error)
}

// pcmSpeaker plays rendered audio on a device and reports words as the
// playback position passes their estimated start times.
type pcmSpeaker struct {
	name     string
	renderer Renderer
	device   audio.Device
	cache    *cache.Manager
}

func (p *pcmSpeaker) speak(ctx context.Context, u speech.Utterance, onWord speech.WordFunc) error {
	pcm, f, err := p.render(ctx, u)
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		return speech.NewEngineError(p.name, speech.ErrorCodeSynth, "engine produced no audio", nil)
	}
	if err := p.device.Play(pcm, f); err != nil {
		return speech.NewEngineError(p.name, speech.ErrorCodePlayback, "playback failed", err)
	}
	defer p.device.Stop()

	words := speech.Words(u.Text)
	starts := speech.Timeline(u.Text, words, p.device.Duration())
	next := 0

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		playing := p.device.IsPlaying()
		pos := p.device.Position()
		for next < len(words) && (!playing || starts[next] <= pos) {
			if !onWord(words[next]) {
				return nil
			}
			next++
		}
		if !playing {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// render returns cached audio when the same text was rendered before with
// the same voice and rate.
func (p *pcmSpeaker) render(ctx context.Context, u speech.Utterance) ([]byte, audio.Format, error) {
	var key string
	if p.cache != nil {
		key = cache.Key(p.name, u.Voice.ID, u.Rate, u.Text)
		if data, ok := p.cache.Get(key); ok {
			pcm, f, err := audio.ParseWAV(data)
			if err == nil {
				log.Debug("audio cache hit", "engine", p.name, "key", key)
				return pcm, f, nil
			}
			log.Debug("discarding bad cache entry", "key", key, "err", err)
			_ = p.cache.Delete(key)
		}
	}

	pcm, f, err := p.renderer.Render(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return nil, audio.Format{}, ctx.Err()
		}
		return nil, audio.Format{}, speech.NewEngineError(p.name, speech.ErrorCodeSynth, "synthesis failed", err)
	}
	if err := f.Validate(); err != nil {
		return nil, audio.Format{}, speech.NewEngineError(p.name, speech.ErrorCodeSynth, "bad audio format", err)
	}

	if p.cache != nil && len(pcm) > 0 {
		if err := p.cache.Put(key, audio.EncodeWAV(pcm, f)); err != nil {
			log.Debug("audio cache put failed", "err", err)
		}
	}
	return pcm, f, nil
}
