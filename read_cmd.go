package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/playback"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read [TEXT]",
	Short: "Read text or the clipboard aloud once",
	Long: paragraph(fmt.Sprintf("\n%s the given text, standard input when TEXT is -, or the clipboard, then exit. Ctrl+C stops speech.",
		keyword("Read"))),
	Example: paragraph("clipspeak read\nclipspeak read \"Guten Morgen\"\necho hello | clipspeak read -"),
	Args:    cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args, os.Stdin)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.close() }()

		return readOnce(ctx, a.ctrl, text, os.Stdout)
	},
}

// readInput joins the arguments, reading from r for "-". An empty result
// means the clipboard.
func readInput(args []string, r io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("unable to read from reader: %w", err)
		}
		return string(b), nil
	}
	return strings.Join(args, " "), nil
}

// speaker is the part of the playback controller readOnce needs.
type speaker interface {
	Statuses() <-chan playback.Status
	Speak(ctx context.Context, text string) error
	OnTriggerPressed(ctx context.Context) bool
	OnStopRequested() bool
}

// readOnce speaks text, or the clipboard when text is empty, and waits for
// the utterance to finish, printing each status to w.
func readOnce(ctx context.Context, s speaker, text string, w io.Writer) error {
	if text == "" {
		if !s.OnTriggerPressed(ctx) {
			return errors.New("controller is busy")
		}
	} else if err := s.Speak(ctx, text); err != nil {
		return err //nolint:wrapcheck
	}

	started := false
	for {
		select {
		case <-ctx.Done():
			s.OnStopRequested()
			return nil
		case st, ok := <-s.Statuses():
			if !ok {
				return nil
			}
			log.Debug("status", "kind", st.Kind, "utterance", st.UtteranceID)
			switch st.Kind {
			case playback.KindReading:
				started = true
				_, _ = fmt.Fprintln(w, st.Text)
			case playback.KindReady:
				// The ready status posted at startup comes first.
				if started {
					return nil
				}
			case playback.KindEmpty, playback.KindStopped:
				_, _ = fmt.Fprintln(w, st.Text)
				return nil
			case playback.KindError:
				return errors.New(strings.TrimPrefix(st.Text, "Error: "))
			}
		}
	}
}
