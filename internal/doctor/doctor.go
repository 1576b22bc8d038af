// Package doctor checks the programs and files clipspeak relies on and
// explains how to install what is missing.
package doctor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	atotto "github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Status is the outcome of one check.
type Status struct {
	Name         string
	Purpose      string
	Required     bool
	Installed    bool
	Path         string
	Detail       string
	Instructions string
}

// Checker checks one dependency.
type Checker interface {
	Check() Status
}

// Report holds check results in the order they ran.
type Report struct {
	Results []Status
}

// ErrMissing is returned by Report.Err when a required dependency is absent.
var ErrMissing = errors.New("missing required dependencies")

// Run runs every checker.
func Run(checkers ...Checker) Report {
	var r Report
	for _, c := range checkers {
		status := c.Check()
		if status.Installed {
			log.Debug("Dependency found", "name", status.Name, "path", status.Path, "detail", status.Detail)
		} else {
			log.Debug("Dependency missing", "name", status.Name, "required", status.Required)
		}
		r.Results = append(r.Results, status)
	}
	return r
}

// Missing returns the required dependencies that were not found.
func (r Report) Missing() []Status {
	var out []Status
	for _, s := range r.Results {
		if s.Required && !s.Installed {
			out = append(out, s)
		}
	}
	return out
}

// Err returns ErrMissing naming every missing required dependency.
func (r Report) Err() error {
	missing := r.Missing()
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, s := range missing {
		names[i] = s.Name
	}
	return fmt.Errorf("%w: %s", ErrMissing, strings.Join(names, ", "))
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	installedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	missingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	optionalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	noteStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Render formats the report for a terminal.
func (r Report) Render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("clipspeak dependency check"))
	b.WriteString("\n\n")

	for _, s := range r.Results {
		switch {
		case s.Installed:
			b.WriteString(installedStyle.Render(fmt.Sprintf("  ✓ %s: ", s.Name)))
			b.WriteString(s.Path)
			if s.Detail != "" {
				b.WriteString(" ")
				b.WriteString(noteStyle.Render(s.Detail))
			}
		case s.Required:
			b.WriteString(missingStyle.Render(fmt.Sprintf("  ✗ %s: ", s.Name)))
			b.WriteString("not found")
		default:
			b.WriteString(optionalStyle.Render(fmt.Sprintf("  ○ %s: ", s.Name)))
			b.WriteString("not found (optional)")
		}
		if s.Purpose != "" {
			b.WriteString(noteStyle.Render(" - " + s.Purpose))
		}
		b.WriteString("\n")
		if !s.Installed && s.Instructions != "" {
			for _, line := range strings.Split(s.Instructions, "\n") {
				b.WriteString("    ")
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// Binary checks for a program on PATH.
type Binary struct {
	Name     string
	Purpose  string
	Required bool
	// Install maps a platform ("windows", "darwin", "debian", "fedora",
	// "arch", "linux") to install instructions.
	Install map[string]string
	Distro  string

	lookPath func(string) (string, error)
}

func (c Binary) Check() Status {
	status := Status{Name: c.Name, Purpose: c.Purpose, Required: c.Required}
	look := c.lookPath
	if look == nil {
		look = exec.LookPath
	}
	path, err := look(c.Name)
	if err != nil {
		status.Instructions = c.instructions()
		return status
	}
	status.Installed = true
	status.Path = path
	return status
}

func (c Binary) instructions() string {
	if s, ok := c.Install[c.Distro]; ok {
		return s
	}
	if s, ok := c.Install["linux"]; ok && isLinuxDistro(c.Distro) {
		return s
	}
	return fmt.Sprintf("Install %s and make sure it is on your PATH", c.Name)
}

// PiperModels looks for .onnx voice models.
type PiperModels struct {
	Model    string // explicit model file, checked first
	Dirs     []string
	Required bool
}

func (c PiperModels) Check() Status {
	status := Status{Name: "piper models", Purpose: "voices for piper", Required: c.Required}
	if c.Model != "" {
		if _, err := os.Stat(c.Model); err == nil {
			status.Installed = true
			status.Path = c.Model
			return status
		}
	}
	for _, dir := range c.Dirs {
		if dir == "" {
			continue
		}
		models, _ := filepath.Glob(filepath.Join(dir, "*.onnx"))
		nested, _ := filepath.Glob(filepath.Join(dir, "*", "*.onnx"))
		models = append(models, nested...)
		if len(models) > 0 {
			status.Installed = true
			status.Path = dir
			status.Detail = fmt.Sprintf("%d models found", len(models))
			return status
		}
	}
	status.Instructions = "Download voices from https://github.com/rhasspy/piper/blob/master/VOICES.md\n" +
		"and place the .onnx and .onnx.json files in ~/.local/share/piper/"
	return status
}

// Clipboard reports whether the system clipboard can be used.
type Clipboard struct {
	Distro string

	unsupported *bool
}

func (c Clipboard) Check() Status {
	status := Status{Name: "clipboard", Purpose: "reading copied text", Required: true}
	unsupported := atotto.Unsupported
	if c.unsupported != nil {
		unsupported = *c.unsupported
	}
	if !unsupported {
		status.Installed = true
		status.Path = "system clipboard"
		return status
	}
	status.Instructions = clipboardInstall.instructions(c.Distro)
	return status
}

type installText map[string]string

func (t installText) instructions(distro string) string {
	if s, ok := t[distro]; ok {
		return s
	}
	return t["linux"]
}

var clipboardInstall = installText{
	"debian": "Install with: sudo apt-get install xclip (X11) or wl-clipboard (Wayland)",
	"fedora": "Install with: sudo dnf install xclip (X11) or wl-clipboard (Wayland)",
	"arch":   "Install with: sudo pacman -S xclip (X11) or wl-clipboard (Wayland)",
	"linux":  "Install xclip, xsel or wl-clipboard with your package manager",
}

func isLinuxDistro(d string) bool {
	switch d {
	case "debian", "fedora", "arch", "linux", "unknown":
		return true
	}
	return false
}

// DetectDistro maps /etc/os-release content to "debian", "fedora",
// "arch" or "unknown".
func DetectDistro(osRelease string) string {
	content := strings.ToLower(osRelease)
	switch {
	case strings.Contains(content, "ubuntu"), strings.Contains(content, "debian"):
		return "debian"
	case strings.Contains(content, "fedora"), strings.Contains(content, "rhel"), strings.Contains(content, "centos"):
		return "fedora"
	case strings.Contains(content, "arch"):
		return "arch"
	}
	return "unknown"
}

// Platform returns the key used to pick install instructions on goos.
func Platform(goos string) string {
	if goos != "linux" {
		return goos
	}
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "unknown"
	}
	return DetectDistro(string(data))
}
