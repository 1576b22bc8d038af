package system

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/clipspeak/internal/hotkey"
)

var keysyms = map[string]string{
	"space":  "space",
	"enter":  "Return",
	"escape": "Escape",
	"tab":    "Tab",
	"delete": "Delete",
	"left":   "Left",
	"right":  "Right",
	"up":     "Up",
	"down":   "Down",
}

// keyString renders b in the keybind grammar, e.g. "control-mod1-F8".
// Mod1 is alt and Mod4 is super on common keymaps.
func keyString(b hotkey.Binding) (string, error) {
	var parts []string
	if b.Mods&hotkey.ModCtrl != 0 {
		parts = append(parts, "control")
	}
	if b.Mods&hotkey.ModAlt != 0 {
		parts = append(parts, "mod1")
	}
	if b.Mods&hotkey.ModShift != 0 {
		parts = append(parts, "shift")
	}
	if b.Mods&hotkey.ModSuper != 0 {
		parts = append(parts, "mod4")
	}

	key, ok := keysyms[b.Key]
	switch {
	case ok:
	case len(b.Key) == 1:
		key = b.Key
	case len(b.Key) >= 2 && b.Key[0] == 'f':
		key = strings.ToUpper(b.Key)
	default:
		return "", fmt.Errorf("%w %q: no keysym", hotkey.ErrInvalidBinding, b)
	}
	return strings.Join(append(parts, key), "-"), nil
}
