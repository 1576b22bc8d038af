//go:build darwin || windows

package system

import xhotkey "golang.design/x/hotkey"

var namedKeys = map[string]xhotkey.Key{
	"space":  xhotkey.KeySpace,
	"enter":  xhotkey.KeyReturn,
	"escape": xhotkey.KeyEscape,
	"tab":    xhotkey.KeyTab,
	"delete": xhotkey.KeyDelete,
	"left":   xhotkey.KeyLeft,
	"right":  xhotkey.KeyRight,
	"up":     xhotkey.KeyUp,
	"down":   xhotkey.KeyDown,
}

var letterKeys = [...]xhotkey.Key{
	xhotkey.KeyA, xhotkey.KeyB, xhotkey.KeyC, xhotkey.KeyD, xhotkey.KeyE, xhotkey.KeyF,
	xhotkey.KeyG, xhotkey.KeyH, xhotkey.KeyI, xhotkey.KeyJ, xhotkey.KeyK, xhotkey.KeyL,
	xhotkey.KeyM, xhotkey.KeyN, xhotkey.KeyO, xhotkey.KeyP, xhotkey.KeyQ, xhotkey.KeyR,
	xhotkey.KeyS, xhotkey.KeyT, xhotkey.KeyU, xhotkey.KeyV, xhotkey.KeyW, xhotkey.KeyX,
	xhotkey.KeyY, xhotkey.KeyZ,
}

var digitKeys = [...]xhotkey.Key{
	xhotkey.Key0, xhotkey.Key1, xhotkey.Key2, xhotkey.Key3, xhotkey.Key4,
	xhotkey.Key5, xhotkey.Key6, xhotkey.Key7, xhotkey.Key8, xhotkey.Key9,
}

var functionKeys = [...]xhotkey.Key{
	xhotkey.KeyF1, xhotkey.KeyF2, xhotkey.KeyF3, xhotkey.KeyF4, xhotkey.KeyF5, xhotkey.KeyF6,
	xhotkey.KeyF7, xhotkey.KeyF8, xhotkey.KeyF9, xhotkey.KeyF10, xhotkey.KeyF11, xhotkey.KeyF12,
}

// keyCode maps a canonical key name to the platform key.
func keyCode(name string) (xhotkey.Key, bool) {
	if k, ok := namedKeys[name]; ok {
		return k, true
	}
	if len(name) == 1 {
		switch c := name[0]; {
		case c >= 'a' && c <= 'z':
			return letterKeys[c-'a'], true
		case c >= '0' && c <= '9':
			return digitKeys[c-'0'], true
		}
	}
	if len(name) >= 2 && name[0] == 'f' {
		n := 0
		for _, c := range name[1:] {
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= len(functionKeys) {
			return functionKeys[n-1], true
		}
	}
	return 0, false
}
