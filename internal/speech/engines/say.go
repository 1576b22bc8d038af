package engines

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/voice"
)

// Say speaks through the macOS say command. say reports no word events,
// so words are paced from the rate.
type Say struct {
	binary string
}

// NewSay finds the say binary.
func NewSay(binary string) (*Say, error) {
	if binary == "" {
		binary = "say"
	}
	bin, err := findBinary("say", binary)
	if err != nil {
		return nil, err
	}
	return &Say{binary: bin}, nil
}

func (s *Say) Name() string { return "say" }

// Voices lists the voices reported by say -v '?'.
func (s *Say) Voices(ctx context.Context) ([]voice.Descriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	out, err := output(ctx, "", s.binary, "-v", "?")
	if err != nil {
		return nil, speech.NewEngineError("say", speech.ErrorCodeVoices, "listing voices failed", err)
	}
	return parseSayVoices(out), nil
}

// Speak runs say until it exits or onWord returns false.
func (s *Say) Speak(ctx context.Context, u speech.Utterance, onWord speech.WordFunc) error {
	cmd := exec.CommandContext(ctx, s.binary, sayArgs(u)...)
	cmd.Stdin = strings.NewReader(u.Text)
	if err := timedProcess(ctx, cmd, u, onWord); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return speech.NewEngineError("say", speech.ErrorCodePlayback, "say failed", err)
	}
	return nil
}

func (s *Say) Close() error { return nil }

func sayArgs(u speech.Utterance) []string {
	var args []string
	if u.Voice.ID != "" {
		args = append(args, "-v", u.Voice.ID)
	}
	if u.Rate > 0 {
		args = append(args, "-r", strconv.Itoa(u.Rate))
	}
	return args
}

// Anna                de_DE    # Hallo, ich heiße Anna.
var sayVoiceLine = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9]+)\s+#`)

func parseSayVoices(out []byte) []voice.Descriptor {
	var voices []voice.Descriptor
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		m := sayVoiceLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		voices = append(voices, voice.Descriptor{
			ID:        name,
			Name:      name,
			RawName:   name,
			Languages: []string{m[2]},
		})
	}
	return voices
}
