package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/cache"
	"github.com/dgnsrekt/clipspeak/internal/playback"
)

const cacheRefreshInterval = 2 * time.Second

// statusMsg carries one controller status into the event loop.
type statusMsg playback.Status

// statusClosedMsg is sent once the status channel is closed.
type statusClosedMsg struct{}

// testDoneMsg is sent when the test sentence has been handed to the
// controller.
type testDoneMsg struct {
	err error
}

// stopDoneMsg is sent after a stop request returns.
type stopDoneMsg struct {
	stopped bool
}

type cacheTickMsg time.Time

// CatalogChangedMsg tells the UI to reload the voice list from the
// controller, for example after the voice overrides file changed.
type CatalogChangedMsg struct{}

// waitForStatus blocks on the next status. The model re-issues it after
// every statusMsg so the channel is drained continuously.
func waitForStatus(ch <-chan playback.Status) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return statusClosedMsg{}
		}
		return statusMsg(s)
	}
}

func testCmd(ctx context.Context, c Controller) tea.Cmd {
	return func() tea.Msg {
		err := c.OnTestClicked(ctx)
		if err != nil {
			log.Debug("test sentence not spoken", "err", err)
		}
		return testDoneMsg{err: err}
	}
}

// stopCmd runs off the event loop since a stop can wait for the join
// timeout.
func stopCmd(c Controller) tea.Cmd {
	return func() tea.Msg {
		return stopDoneMsg{stopped: c.OnStopRequested()}
	}
}

func cacheTick() tea.Cmd {
	return tea.Tick(cacheRefreshInterval, func(t time.Time) tea.Msg {
		return cacheTickMsg(t)
	})
}

// CacheStats reports synthesis cache statistics for the footer.
type CacheStats func() cache.ManagerStats
