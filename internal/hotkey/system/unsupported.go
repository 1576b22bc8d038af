//go:build !linux && !darwin && !windows

package system

import "github.com/dgnsrekt/clipspeak/internal/hotkey"

// Register always fails here.
func Register(b hotkey.Binding) (hotkey.Registration, error) {
	return nil, ErrUnsupported
}
