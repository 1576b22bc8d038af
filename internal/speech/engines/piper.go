package engines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/audio"
	"github.com/dgnsrekt/clipspeak/internal/cache"
	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/voice"
	"github.com/mitchellh/go-homedir"
)

// piper speaks at about this rate with length_scale 1.
const piperNaturalRate = 175

const piperDefaultSampleRate = 22050

// PiperConfig configures the piper engine.
type PiperConfig struct {
	Binary    string // default piper
	ModelsDir string // directory of .onnx voices
	Model     string // model used when no voice is selected
}

// Piper renders speech with piper to raw PCM and plays it on a device.
// Each .onnx model in ModelsDir is one voice.
type Piper struct {
	binary    string
	modelsDir string
	model     string
	pcm       pcmSpeaker
}

// piperModelConfig is the part of a model's .onnx.json we read.
type piperModelConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
	Dataset string `json:"dataset"`
}

// NewPiper finds the piper binary and prepares the engine.
func NewPiper(config PiperConfig, device audio.Device, c *cache.Manager) (*Piper, error) {
	if config.Binary == "" {
		config.Binary = "piper"
	}
	bin, err := findBinary("piper", config.Binary)
	if err != nil {
		return nil, err
	}
	p := &Piper{
		binary:    bin,
		modelsDir: expand(config.ModelsDir),
		model:     expand(config.Model),
	}
	if p.model == "" && p.modelsDir == "" {
		return nil, speech.NewEngineError("piper", speech.ErrorCodeInit, "no model configured",
			fmt.Errorf("%w: set piper.model or piper.models_dir", speech.ErrEngineUnavailable))
	}
	p.pcm = pcmSpeaker{name: "piper", renderer: p, device: device, cache: c}
	return p, nil
}

func (p *Piper) Name() string { return "piper" }

// Voices lists the models in the models directory, plus the configured
// default model.
func (p *Piper) Voices(ctx context.Context) ([]voice.Descriptor, error) {
	// default model first
	var paths []string
	if p.model != "" {
		paths = append(paths, p.model)
	}
	if p.modelsDir != "" {
		matches, err := filepath.Glob(filepath.Join(p.modelsDir, "*.onnx"))
		if err != nil {
			return nil, speech.NewEngineError("piper", speech.ErrorCodeVoices, "listing models failed", err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !slices.Contains(paths, m) {
				paths = append(paths, m)
			}
		}
	}

	voices := make([]voice.Descriptor, 0, len(paths))
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".onnx")
		d := voice.Descriptor{ID: path, Name: name, RawName: name}
		if cfg, err := readPiperConfig(path); err == nil {
			if cfg.Language.Code != "" {
				d.Languages = []string{cfg.Language.Code}
			}
		} else {
			log.Debug("piper model config unreadable", "model", path, "err", err)
		}
		voices = append(voices, d)
	}
	return voices, nil
}

// Speak renders u and plays it.
func (p *Piper) Speak(ctx context.Context, u speech.Utterance, onWord speech.WordFunc) error {
	return p.pcm.speak(ctx, u, onWord)
}

// Render runs piper with --output_raw.
func (p *Piper) Render(ctx context.Context, u speech.Utterance) ([]byte, audio.Format, error) {
	model := u.Voice.ID
	if model == "" {
		model = p.model
	}
	if model == "" {
		return nil, audio.Format{}, errors.New("no piper model selected")
	}

	rate := piperDefaultSampleRate
	if cfg, err := readPiperConfig(model); err == nil && cfg.Audio.SampleRate > 0 {
		rate = cfg.Audio.SampleRate
	}

	out, err := output(ctx, u.Text, p.binary, piperArgs(model, u.Rate)...)
	if err != nil {
		return nil, audio.Format{}, err
	}
	f := audio.Mono(rate)
	return out[:len(out)-len(out)%f.FrameSize()], f, nil
}

func (p *Piper) Close() error { return nil }

func piperArgs(model string, rate int) []string {
	if rate <= 0 {
		rate = piperNaturalRate
	}
	return []string{
		"--model", model,
		"--output_raw",
		"--length_scale", fmt.Sprintf("%.2f", float64(piperNaturalRate)/float64(rate)),
	}
}

// readPiperConfig loads model.onnx.json, or model.json next to it.
func readPiperConfig(model string) (piperModelConfig, error) {
	var cfg piperModelConfig
	data, err := os.ReadFile(model + ".json")
	if err != nil {
		data, err = os.ReadFile(strings.TrimSuffix(model, ".onnx") + ".json")
		if err != nil {
			return cfg, err
		}
	}
	err = json.Unmarshal(data, &cfg)
	return cfg, err
}

func expand(path string) string {
	if path == "" {
		return ""
	}
	if p, err := homedir.Expand(path); err == nil {
		return p
	}
	return path
}
