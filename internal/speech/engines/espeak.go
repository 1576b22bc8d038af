package engines

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/audio"
	"github.com/dgnsrekt/clipspeak/internal/cache"
	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/voice"
)

// espeak-ng accepts 80 to 450 words per minute.
const (
	espeakMinRate = 80
	espeakMaxRate = 450
)

// EspeakConfig configures the espeak engine.
type EspeakConfig struct {
	Binary string // espeak-ng or espeak, default espeak-ng
}

// Espeak renders speech with espeak-ng to WAV and plays it on a device.
type Espeak struct {
	binary string
	pcm    pcmSpeaker
}

// NewEspeak finds the espeak binary and prepares the engine.
func NewEspeak(config EspeakConfig, device audio.Device, c *cache.Manager) (*Espeak, error) {
	if config.Binary == "" {
		config.Binary = "espeak-ng"
	}
	bin, err := findBinary("espeak", config.Binary)
	if err != nil {
		return nil, err
	}
	e := &Espeak{binary: bin}
	e.pcm = pcmSpeaker{name: "espeak", renderer: e, device: device, cache: c}
	return e, nil
}

func (e *Espeak) Name() string { return "espeak" }

// Voices lists the voices espeak reports with --voices.
func (e *Espeak) Voices(ctx context.Context) ([]voice.Descriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	out, err := output(ctx, "", e.binary, "--voices")
	if err != nil {
		return nil, speech.NewEngineError("espeak", speech.ErrorCodeVoices, "listing voices failed", err)
	}
	voices := parseEspeakVoices(out)
	log.Debug("espeak voices", "count", len(voices))
	return voices, nil
}

// Speak renders u and plays it.
func (e *Espeak) Speak(ctx context.Context, u speech.Utterance, onWord speech.WordFunc) error {
	return e.pcm.speak(ctx, u, onWord)
}

// Render runs espeak with --stdout and decodes the WAV it writes.
func (e *Espeak) Render(ctx context.Context, u speech.Utterance) ([]byte, audio.Format, error) {
	out, err := output(ctx, u.Text, e.binary, espeakArgs(u)...)
	if err != nil {
		return nil, audio.Format{}, err
	}
	return audio.ParseWAV(out)
}

func (e *Espeak) Close() error { return nil }

func espeakArgs(u speech.Utterance) []string {
	rate := min(max(u.Rate, espeakMinRate), espeakMaxRate)
	args := []string{"--stdout", "--stdin", "-b", "1", "-s", strconv.Itoa(rate)}
	if u.Voice.ID != "" {
		args = append(args, "-v", u.Voice.ID)
	}
	return args
}

// parseEspeakVoices reads the table printed by --voices:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  de              --/M      German             gmw/de
func parseEspeakVoices(out []byte) []voice.Descriptor {
	var voices []voice.Descriptor
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		lang, ageGender, name := fields[1], fields[2], fields[3]

		gender := ""
		if _, g, ok := strings.Cut(ageGender, "/"); ok {
			switch g {
			case "F":
				gender = "female"
			case "M":
				gender = "male"
			}
		}
		voices = append(voices, voice.Descriptor{
			ID:        lang,
			Name:      strings.ReplaceAll(name, "_", " "),
			RawName:   name,
			Languages: []string{lang},
			Gender:    gender,
		})
	}
	return voices
}
