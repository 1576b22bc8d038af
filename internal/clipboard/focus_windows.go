//go:build windows

package clipboard

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

type user32Focus struct{}

// SystemFocus uses the Win32 foreground window.
func SystemFocus() Focuser { return user32Focus{} }

func (user32Focus) Foreground() Window {
	return Window(windows.GetForegroundWindow())
}

func (user32Focus) Activate(w Window) error {
	if w == 0 {
		return nil
	}
	if r, _, err := procSetForegroundWindow.Call(uintptr(w)); r == 0 {
		return fmt.Errorf("SetForegroundWindow: %w", err)
	}
	return nil
}
