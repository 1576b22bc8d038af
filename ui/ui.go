// Package ui provides the clipspeak settings screen.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/playback"
	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/voice"
)

const (
	defaultWidth = 60
	maxWidth     = 80
	listHeight   = 8
	rateBarWidth = 30
)

// Controller is the part of the playback controller the settings screen
// drives.
type Controller interface {
	Statuses() <-chan playback.Status
	State() playback.State
	Catalog() *voice.Catalog
	Selected() string
	Session() *speech.Session
	OnLanguageChanged(label string) bool
	OnSpeedChanged(wpm int) int
	OnTestClicked(ctx context.Context) error
	OnStopRequested() bool
}

// focus is the control that receives arrow keys.
type focus int

const (
	focusVoices focus = iota
	focusRate
	focusTest
	focusCount
)

func (f focus) String() string {
	return map[focus]string{
		focusVoices: "voices",
		focusRate:   "rate",
		focusTest:   "test",
	}[f]
}

type model struct {
	cfg   Config
	ctx   context.Context
	ctrl  Controller
	stats CacheStats

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	rateBar progress.Model

	focus  focus
	voices voicePicker
	bounds speech.RateBounds
	rate   int
	status statusLine
	cache  string
	width  int
}

// NewProgram returns a new Tea program for the settings screen. stats may
// be nil when the synthesis cache is off.
func NewProgram(ctx context.Context, cfg Config, ctrl Controller, stats CacheStats) *tea.Program {
	log.Debug(
		"Starting settings UI",
		"engine",
		cfg.Engine,
		"alt_screen",
		cfg.AltScreen,
	)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	opts = append(opts, tea.WithContext(ctx))
	return tea.NewProgram(newModel(ctx, cfg, ctrl, stats), opts...)
}

func newModel(ctx context.Context, cfg Config, ctrl Controller, stats CacheStats) model {
	if cfg.RateStep <= 0 {
		cfg.RateStep = 10
	}
	if cfg.Trigger == "" {
		cfg.Trigger = "F8"
	}

	h := help.New()
	h.ShowAll = cfg.ShowFullHelp

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(mintGreen)

	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(rateBarWidth),
		progress.WithoutPercentage(),
	)

	session := ctrl.Session()
	m := model{
		cfg:     cfg,
		ctx:     ctx,
		ctrl:    ctrl,
		stats:   stats,
		keys:    newKeyMap(),
		help:    h,
		spinner: sp,
		rateBar: bar,
		voices:  newVoicePicker(ctrl.Catalog().Labels(), ctrl.Selected()),
		bounds:  session.Bounds(),
		rate:    session.Rate(),
		width:   defaultWidth,
	}
	if stats != nil && cfg.ShowCacheInfo {
		m.cache = cacheInfo(stats())
	}
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForStatus(m.ctrl.Statuses())}
	if m.stats != nil && m.cfg.ShowCacheInfo {
		cmds = append(cmds, cacheTick())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = min(msg.Width, maxWidth)
		m.help.Width = m.width
		return m, nil

	case statusMsg:
		wasSpeaking := m.status.status.State == playback.Speaking
		m.status.status = playback.Status(msg)
		cmds := []tea.Cmd{waitForStatus(m.ctrl.Statuses())}
		if !wasSpeaking && msg.State == playback.Speaking {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case statusClosedMsg:
		m.status.closed = true
		return m, tea.Quit

	case spinner.TickMsg:
		if m.status.status.State != playback.Speaking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case cacheTickMsg:
		if m.stats != nil {
			m.cache = cacheInfo(m.stats())
		}
		return m, cacheTick()

	case CatalogChangedMsg:
		m.voices.setLabels(m.ctrl.Catalog().Labels(), m.ctrl.Selected())
		return m, nil

	case testDoneMsg, stopDoneMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits.
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.voices.filtering {
		switch msg.String() {
		case "esc":
			m.voices.stopFilter(true)
			return m, nil
		case "enter":
			m.voices.stopFilter(false)
			return m.chooseVoice()
		case "up", "down":
		default:
			var cmd tea.Cmd
			m.voices, cmd = m.voices.update(msg)
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Next):
		m.focus = (m.focus + 1) % focusCount
	case key.Matches(msg, m.keys.Prev):
		m.focus = (m.focus + focusCount - 1) % focusCount
	case key.Matches(msg, m.keys.Test):
		return m, testCmd(m.ctx, m.ctrl)
	case key.Matches(msg, m.keys.Stop):
		if m.voices.filter.Value() != "" && msg.String() == "esc" {
			m.voices.stopFilter(true)
			return m, nil
		}
		return m, stopCmd(m.ctrl)
	case key.Matches(msg, m.keys.Filter):
		m.focus = focusVoices
		return m, m.voices.startFilter()
	case key.Matches(msg, m.keys.Up):
		if m.focus == focusVoices {
			m.voices.up()
		}
	case key.Matches(msg, m.keys.Down):
		if m.focus == focusVoices {
			m.voices.down()
		}
	case key.Matches(msg, m.keys.Left):
		if m.focus == focusRate {
			m.rate = m.ctrl.OnSpeedChanged(m.rate - m.cfg.RateStep)
		}
	case key.Matches(msg, m.keys.Right):
		if m.focus == focusRate {
			m.rate = m.ctrl.OnSpeedChanged(m.rate + m.cfg.RateStep)
		}
	case key.Matches(msg, m.keys.Select):
		switch m.focus {
		case focusVoices:
			return m.chooseVoice()
		case focusTest:
			return m, testCmd(m.ctx, m.ctrl)
		}
	}
	return m, nil
}

func (m model) chooseVoice() (tea.Model, tea.Cmd) {
	label, ok := m.voices.current()
	if !ok {
		return m, nil
	}
	if m.ctrl.OnLanguageChanged(label) {
		m.voices.selected = label
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	m.headerView(&b)
	b.WriteString("\n\n")

	b.WriteString(m.sectionTitle("Voice", focusVoices))
	b.WriteString("\n")
	b.WriteString(m.voices.view(m.focus == focusVoices, listHeight))
	b.WriteString("\n\n")

	b.WriteString(m.sectionTitle("Speed", focusRate))
	b.WriteString("\n")
	b.WriteString(itemStyle(fmt.Sprintf("%s %d wpm", m.rateBar.ViewAs(m.bounds.Fraction(m.rate)), m.rate)))
	b.WriteString("\n")
	b.WriteString(itemStyle(dimStyle(fmt.Sprintf("%d-%d wpm", m.bounds.Min, m.bounds.Max))))
	b.WriteString("\n\n")

	button := buttonStyle
	if m.focus == focusTest {
		button = focusedButtonStyle
	}
	b.WriteString(button.Render("Test"))
	b.WriteString("\n\n")

	b.WriteString(m.status.view(m.width, m.spinner.View()))
	b.WriteString("\n")
	if m.cache != "" {
		b.WriteString(footerStyle(m.cache))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m model) headerView(b *strings.Builder) {
	title := titleStyle.Render("clipspeak")
	var notes []string
	if m.cfg.Engine != "" {
		notes = append(notes, m.cfg.Engine)
	}
	notes = append(notes, fmt.Sprintf("%s reads", m.cfg.Trigger))
	if m.cfg.Stop != "" {
		notes = append(notes, fmt.Sprintf("%s stops", m.cfg.Stop))
	}
	b.WriteString(title)
	b.WriteString(" ")
	b.WriteString(headerNoteStyle(strings.Join(notes, " · ")))
}

func (m model) sectionTitle(title string, f focus) string {
	if m.focus == f {
		return focusedSectionStyle(title)
	}
	return sectionStyle(title)
}
