package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# speech engine: auto, sapi, say, espeak, piper or mock
engine: "auto"
# voice label, voice ID or a loose match such as "german female";
# empty picks the first voice
voice: ""

# speech rate in words per minute
rate:
  default: 300
  min: 50
  max: 400

# global hotkeys
hotkeys:
  trigger: "f8"
  stop: "ctrl+alt+f8"

# copy the current selection before reading the clipboard
capture:
  enabled: false
  settle: "300ms"
  key_gap: "50ms"
  post_copy: "200ms"

text:
  # read markdown as prose
  strip_markdown: false
  # 0 reads everything
  max_chars: 0

# how long a stop waits for speech to end
join_timeout: "1s"

# synthesized audio cache for espeak and piper
cache:
  enabled: true
  # dir: "~/.cache/clipspeak"
  memory_mb: 64
  disk_mb: 512
  compression: 3

espeak:
  binary: "espeak-ng"

piper:
  binary: "piper"
  # models_dir: "~/.local/share/piper"
  # model: "~/.local/share/piper/de_DE-thorsten-medium.onnx"

say:
  binary: "say"

voices:
  # YAML file mapping voice IDs or names to labels, reloaded on change:
  #   labels:
  #     TTS_MS_DE-DE_HEDDA_11.0: German (Female)
  # overrides_file: "~/.config/clipspeak/voices.yml"
  german_tokens: ["german", "deutsch", "de-de", "de_"]
  female_tokens: ["zira", "hazel", "hedda", "female"]

log:
  level: "info"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the clipspeak config file",
	Long:    paragraph(fmt.Sprintf("\n%s the clipspeak config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("clipspeak config\nclipspeak config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("clipspeak", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
