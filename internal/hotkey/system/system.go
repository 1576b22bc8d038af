package system

import (
	"errors"

	"github.com/dgnsrekt/clipspeak/internal/hotkey"
)

// ErrUnsupported is returned on platforms without a global hotkey API.
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

var _ hotkey.Registrar = Register

// notify delivers one event without blocking; a pending event absorbs the
// next one.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
