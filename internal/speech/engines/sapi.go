package engines

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf16"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/voice"
)

// SAPI speaks through Windows System.Speech, driven by a PowerShell script.
// The script forwards SpeakProgress events on stdout, so word boundaries
// are real rather than estimated.
type SAPI struct {
	powershell string
}

// NewSAPI finds PowerShell. It fails on anything but Windows.
func NewSAPI() (*SAPI, error) {
	if runtime.GOOS != "windows" {
		return nil, speech.NewEngineError("sapi", speech.ErrorCodeInit, "System.Speech requires Windows",
			speech.ErrEngineUnavailable)
	}
	bin, err := findBinary("sapi", "powershell")
	if err != nil {
		return nil, err
	}
	return &SAPI{powershell: bin}, nil
}

func (s *SAPI) Name() string { return "sapi" }

const sapiVoicesScript = `Add-Type -AssemblyName System.Speech
$s = New-Object System.Speech.Synthesis.SpeechSynthesizer
$t = [char]9
foreach ($v in $s.GetInstalledVoices()) {
  if (-not $v.Enabled) { continue }
  $i = $v.VoiceInfo
  [Console]::Out.WriteLine($i.Id + $t + $i.Name + $t + $i.Culture.Name + $t + $i.Gender)
}
$s.Dispose()
`

// Voices lists installed, enabled voices.
func (s *SAPI) Voices(ctx context.Context) ([]voice.Descriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	out, err := s.run(ctx, sapiVoicesScript)
	if err != nil {
		return nil, speech.NewEngineError("sapi", speech.ErrorCodeVoices, "listing voices failed", err)
	}
	return parseSAPIVoices(out), nil
}

// Speak runs the speak script and forwards its word events. Returning
// false from onWord ends the PowerShell process, which stops the audio.
func (s *SAPI) Speak(ctx context.Context, u speech.Utterance, onWord speech.WordFunc) error {
	script, err := sapiSpeakScript(u)
	if err != nil {
		return speech.NewEngineError("sapi", speech.ErrorCodeSynth, "building script", err)
	}
	path, cleanup, err := writeScript(script)
	if err != nil {
		return speech.NewEngineError("sapi", speech.ErrorCodeSynth, "writing script", err)
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, s.powershell, psArgs("-File", path)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return speech.NewEngineError("sapi", speech.ErrorCodePlayback, "opening stdout", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return speech.NewEngineError("sapi", speech.ErrorCodePlayback, "starting powershell", err)
	}

	offsets := utf16ByteOffsets(u.Text)
	index := 0
	stopped := false
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		pos, n, ok := parseSAPIProgress(scanner.Text())
		if !ok {
			continue
		}
		ev := wordAt(offsets, index, pos, n)
		index++
		if !onWord(ev) {
			stopped = true
			_ = cmd.Process.Kill()
			break
		}
	}
	// drain so Wait can return
	_, _ = io.Copy(io.Discard, stdout)

	err = cmd.Wait()
	switch {
	case stopped:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		return speech.NewEngineError("sapi", speech.ErrorCodePlayback, "speech failed",
			fmt.Errorf("%w: %s", err, lastLine(stderr.String())))
	}
	return nil
}

func (s *SAPI) Close() error { return nil }

func (s *SAPI) run(ctx context.Context, script string) ([]byte, error) {
	path, cleanup, err := writeScript(script)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return output(ctx, "", s.powershell, psArgs("-File", path)...)
}

func psArgs(extra ...string) []string {
	return append([]string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass"}, extra...)
}

func writeScript(script string) (string, func(), error) {
	f, err := os.CreateTemp("", "clipspeak-*.ps1")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil {
			log.Debug("removing script", "path", f.Name(), "err", err)
		}
	}
	// UTF-8 BOM so Windows PowerShell reads the script as UTF-8.
	if _, err := f.WriteString("\ufeff" + script); err != nil {
		f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

var sapiSpeakTemplate = template.Must(template.New("speak").Parse(`Add-Type -AssemblyName System.Speech
$s = New-Object System.Speech.Synthesis.SpeechSynthesizer
$s.SetOutputToDefaultAudioDevice()
$s.Rate = {{.Rate}}
{{- if .Voice}}
$s.SelectVoice([Text.Encoding]::UTF8.GetString([Convert]::FromBase64String('{{.Voice}}')))
{{- end}}
$text = [Text.Encoding]::UTF8.GetString([Convert]::FromBase64String('{{.Text}}'))
Register-ObjectEvent -InputObject $s -EventName SpeakProgress -SourceIdentifier word | Out-Null
Register-ObjectEvent -InputObject $s -EventName SpeakCompleted -SourceIdentifier done | Out-Null
$null = $s.SpeakAsync($text)
while ($true) {
  $e = Wait-Event
  Remove-Event -EventIdentifier $e.EventIdentifier
  if ($e.SourceIdentifier -eq 'done') { break }
  $a = $e.SourceEventArgs
  [Console]::Out.WriteLine('WORD ' + $a.CharacterPosition + ' ' + $a.CharacterCount)
  [Console]::Out.Flush()
}
$s.Dispose()
`))

// sapiSpeakScript builds the speak script. Text and voice name travel as
// base64 so no quoting is needed.
func sapiSpeakScript(u speech.Utterance) (string, error) {
	data := struct {
		Rate  int
		Voice string
		Text  string
	}{
		Rate: sapiRate(u.Rate),
		Text: base64.StdEncoding.EncodeToString([]byte(u.Text)),
	}
	if name := u.Voice.RawName; name != "" {
		data.Voice = base64.StdEncoding.EncodeToString([]byte(name))
	}
	var b strings.Builder
	err := sapiSpeakTemplate.Execute(&b, data)
	return b.String(), err
}

// sapiRate maps words per minute onto the -10..10 SAPI scale, where 0 is
// about 200 wpm and each step is about 20 wpm.
func sapiRate(wpm int) int {
	r := (wpm - 200) / 20
	return min(max(r, -10), 10)
}

// parseSAPIProgress reads "WORD <position> <count>".
func parseSAPIProgress(line string) (pos, count int, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != "WORD" {
		return 0, 0, false
	}
	pos, err1 := strconv.Atoi(fields[1])
	count, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || pos < 0 || count < 0 {
		return 0, 0, false
	}
	return pos, count, true
}

// parseSAPIVoices reads the tab-separated id, name, culture, gender lines.
func parseSAPIVoices(out []byte) []voice.Descriptor {
	var voices []voice.Descriptor
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		parts := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
		if len(parts) != 4 || parts[1] == "" {
			continue
		}
		d := voice.Descriptor{
			ID:      parts[0],
			Name:    parts[1],
			RawName: parts[1],
			Gender:  strings.ToLower(parts[3]),
		}
		if parts[2] != "" {
			d.Languages = []string{parts[2]}
		}
		voices = append(voices, d)
	}
	return voices
}

// utf16ByteOffsets maps each UTF-16 code unit index of s to its byte
// offset. The extra final entry is len(s).
func utf16ByteOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		for n := max(utf16.RuneLen(r), 1); n > 0; n-- {
			offsets = append(offsets, i)
		}
	}
	return append(offsets, len(s))
}

// wordAt converts a UTF-16 position and length to a byte-based event.
func wordAt(offsets []int, index, pos, count int) speech.WordEvent {
	last := len(offsets) - 1
	start := min(pos, last)
	end := min(pos+count, last)
	return speech.WordEvent{Index: index, Offset: offsets[start], Length: offsets[end] - offsets[start]}
}
