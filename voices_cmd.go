package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/clipspeak/internal/voice"
	te "github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices of the speech engine",
	Long: paragraph(fmt.Sprintf("\n%s the voices the engine offers and the label each one is listed under. Voices whose label is already taken are marked as hidden.",
		keyword("List"))),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.close() }()

		md := voicesMarkdown(a.engine.Name(), a.voices, a.rules, a.catalog)
		out, err := renderMarkdown(md)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

// voicesMarkdown lists voices as a markdown table.
func voicesMarkdown(engine string, voices []voice.Descriptor, rules voice.Rules, catalog *voice.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Voices: %s\n\n", engine)
	if len(voices) == 0 {
		fmt.Fprintf(&b, "The engine reported no voices. Speech uses its default voice, listed as *%s*.\n", voice.FallbackLabel)
		return b.String()
	}

	b.WriteString("| Label | Name | ID | Languages | |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, v := range voices {
		label := rules.Classify(v)
		note := ""
		if l, ok := catalog.LabelOf(v.ID); !ok || l != label {
			note = "hidden"
		}
		fmt.Fprintf(&b, "| %s | %s | `%s` | %s | %s |\n",
			escapeCell(label),
			escapeCell(v.Name),
			v.ID,
			escapeCell(strings.Join(v.Languages, ", ")),
			note,
		)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func renderMarkdown(md string) (string, error) {
	width := 80
	style := glamour.WithStandardStyle(styles.LightStyle)
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil {
			width = min(w, 120)
		}
		if te.HasDarkBackground() {
			style = glamour.WithStandardStyle(styles.DarkStyle)
		}
	} else {
		style = glamour.WithStandardStyle(styles.NoTTYStyle)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		style,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}
