package engines

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/mitchellh/go-homedir"
)

// how long a voice listing may take
const listTimeout = 10 * time.Second

// findBinary resolves bin, expanding a leading ~ and searching PATH.
func findBinary(engine, bin string) (string, error) {
	expanded, err := homedir.Expand(bin)
	if err != nil {
		expanded = bin
	}
	path, err := exec.LookPath(expanded)
	if err != nil {
		return "", speech.NewEngineError(engine, speech.ErrorCodeInit, bin+" not found",
			fmt.Errorf("%w: %w", speech.ErrEngineUnavailable, err))
	}
	return path, nil
}

// output runs bin with stdin as input and returns stdout. The error
// includes the last line of stderr.
func output(ctx context.Context, stdin string, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// timedProcess runs cmd and reports words on a timer while it runs, for
// engines that give no word events of their own. Returning false from
// onWord kills the process.
func timedProcess(ctx context.Context, cmd *exec.Cmd, u speech.Utterance, onWord speech.WordFunc) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	kill := func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-exited
	}

	words := speech.Words(u.Text)
	ticker := time.NewTicker(speech.WordInterval(u.Rate))
	defer ticker.Stop()

	next := 0
	emit := func() bool {
		if next >= len(words) {
			return true
		}
		ok := onWord(words[next])
		next++
		return ok
	}

	if !emit() {
		kill()
		return nil
	}
	for {
		select {
		case err := <-exited:
			if err != nil {
				if msg := lastLine(stderr.String()); msg != "" {
					return fmt.Errorf("%w: %s", err, msg)
				}
				return err
			}
			for next < len(words) {
				if !emit() {
					return nil
				}
			}
			return nil
		case <-ticker.C:
			if !emit() {
				kill()
				return nil
			}
		case <-ctx.Done():
			kill()
			return ctx.Err()
		}
	}
}
