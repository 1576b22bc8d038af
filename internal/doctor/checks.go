package doctor

import (
	"os"
	"path/filepath"

	"github.com/dgnsrekt/clipspeak/internal/config"
)

var (
	espeakInstall = map[string]string{
		"windows": "Download the installer from https://github.com/espeak-ng/espeak-ng/releases",
		"darwin":  "Install with: brew install espeak-ng",
		"debian":  "Install with: sudo apt-get install espeak-ng",
		"fedora":  "Install with: sudo dnf install espeak-ng",
		"arch":    "Install with: sudo pacman -S espeak-ng",
		"linux":   "Install espeak-ng with your package manager",
	}
	piperInstall = map[string]string{
		"windows": "Download piper from https://github.com/rhasspy/piper/releases and add it to PATH",
		"darwin":  "Install with: pipx install piper-tts",
		"linux":   "Install with: pipx install piper-tts\nor download a release from https://github.com/rhasspy/piper/releases",
	}
	xdotoolInstall = map[string]string{
		"debian": "Install with: sudo apt-get install xdotool",
		"fedora": "Install with: sudo dnf install xdotool",
		"arch":   "Install with: sudo pacman -S xdotool",
		"linux":  "Install xdotool with your package manager",
	}
)

// Checkers returns the checks that matter for cfg on goos. platform picks
// the install instructions, see Platform.
func Checkers(cfg config.Config, goos, platform string) []Checker {
	wants := func(engine string) bool {
		return cfg.Engine == engine || cfg.Engine == "auto"
	}

	checkers := []Checker{Clipboard{Distro: platform}}

	switch goos {
	case "windows":
		checkers = append(checkers, Binary{
			Name:     "powershell",
			Purpose:  "Windows speech voices",
			Required: cfg.Engine == "sapi",
			Distro:   platform,
		})
	case "darwin":
		checkers = append(checkers, Binary{
			Name:     cfg.Say.Binary,
			Purpose:  "macOS speech voices",
			Required: cfg.Engine == "say",
			Distro:   platform,
		})
	}

	if wants("espeak") {
		checkers = append(checkers, Binary{
			Name:     cfg.Espeak.Binary,
			Purpose:  "espeak speech engine",
			Required: cfg.Engine == "espeak",
			Install:  espeakInstall,
			Distro:   platform,
		})
	}
	if wants("piper") {
		checkers = append(checkers,
			Binary{
				Name:     cfg.Piper.Binary,
				Purpose:  "piper speech engine",
				Required: cfg.Engine == "piper",
				Install:  piperInstall,
				Distro:   platform,
			},
			PiperModels{
				Model:    cfg.Piper.Model,
				Dirs:     piperDirs(cfg.Piper.ModelsDir),
				Required: cfg.Engine == "piper",
			},
		)
	}

	if goos == "linux" && cfg.Capture.Enabled {
		checkers = append(checkers, Binary{
			Name:    "xdotool",
			Purpose: "returning focus after copying the selection",
			Install: xdotoolInstall,
			Distro:  platform,
		})
	}
	return checkers
}

func piperDirs(configured string) []string {
	home, _ := os.UserHomeDir()
	dirs := []string{configured}
	if home != "" {
		dirs = append(dirs,
			filepath.Join(home, ".local", "share", "piper"),
			filepath.Join(home, ".local", "share", "piper-voices"),
		)
	}
	return append(dirs, "/usr/share/piper-voices", "/usr/local/share/piper-voices")
}
