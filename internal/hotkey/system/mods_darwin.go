package system

import (
	"github.com/dgnsrekt/clipspeak/internal/hotkey"
	xhotkey "golang.design/x/hotkey"
)

func platformMods(m hotkey.Modifier) []xhotkey.Modifier {
	var mods []xhotkey.Modifier
	if m&hotkey.ModCtrl != 0 {
		mods = append(mods, xhotkey.ModCtrl)
	}
	if m&hotkey.ModAlt != 0 {
		mods = append(mods, xhotkey.ModOption)
	}
	if m&hotkey.ModShift != 0 {
		mods = append(mods, xhotkey.ModShift)
	}
	if m&hotkey.ModSuper != 0 {
		mods = append(mods, xhotkey.ModCmd)
	}
	return mods
}
