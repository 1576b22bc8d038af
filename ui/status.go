package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/clipspeak/internal/cache"
	"github.com/dgnsrekt/clipspeak/internal/playback"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
)

// statusLine renders the latest controller status.
type statusLine struct {
	status playback.Status
	closed bool
}

func (s statusLine) icon() string {
	switch s.status.Kind {
	case playback.KindReading:
		return "▶"
	case playback.KindEmpty:
		return "○"
	case playback.KindStopped:
		return "■"
	case playback.KindError:
		return "✗"
	case playback.KindInfo:
		return "i"
	default:
		return "●"
	}
}

func (s statusLine) color() lipgloss.TerminalColor {
	switch s.status.Kind {
	case playback.KindReading:
		return mintGreen
	case playback.KindEmpty, playback.KindStopped:
		return yellow
	case playback.KindError:
		return red
	default:
		return noteFg
	}
}

// view returns the status, truncated to width. spin replaces the icon
// while speech is playing.
func (s statusLine) view(width int, spin string) string {
	if s.closed {
		return dimStyle("Shutting down...")
	}
	text := s.status.Text
	if text == "" {
		return ""
	}

	icon := s.icon()
	if spin != "" && s.status.State == playback.Speaking {
		icon = spin
	}
	line := fmt.Sprintf("%s %s", icon, text)
	if width > 4 {
		line = truncate.StringWithTail(line, uint(width), "...")
	}
	return lipgloss.NewStyle().Foreground(s.color()).Render(line)
}

// cacheInfo summarises the synthesis cache for the footer.
func cacheInfo(st cache.ManagerStats) string {
	size := st.Memory.Size + st.Disk.Size
	hits := st.MemoryHits + st.DiskHits
	if size == 0 && hits == 0 && st.Misses == 0 {
		return "cache empty"
	}
	return fmt.Sprintf("cache %s, %s hits (%.0f%%)",
		humanize.IBytes(uint64(size)),
		humanize.Comma(hits),
		st.HitRate*100,
	)
}
