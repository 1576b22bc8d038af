package hotkey

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidBinding is returned by Parse for bindings it cannot register.
var ErrInvalidBinding = errors.New("invalid hotkey binding")

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModSuper
)

var modifierNames = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "ctrl"},
	{ModAlt, "alt"},
	{ModShift, "shift"},
	{ModSuper, "super"},
}

// Binding is a key plus modifiers.
type Binding struct {
	Mods Modifier
	Key  string // lowercase key name, e.g. "f8", "a", "space"
}

// String returns the canonical form, modifiers in ctrl, alt, shift, super
// order.
func (b Binding) String() string {
	var parts []string
	for _, m := range modifierNames {
		if b.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, b.Key), "+")
}

// Display is String with each part capitalized, for help text.
func (b Binding) Display() string {
	parts := strings.Split(b.String(), "+")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "+")
}

// IsZero reports whether b is unset.
func (b Binding) IsZero() bool {
	return b.Key == ""
}

// Parse reads a binding such as "F8", "ctrl+alt+f8" or "cmd+shift+s".
// Case and spaces are ignored; the key comes last.
func Parse(s string) (Binding, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	key := parts[len(parts)-1]
	if key == "" {
		return Binding{}, fmt.Errorf("%w %q: missing key", ErrInvalidBinding, s)
	}

	var b Binding
	for _, p := range parts[:len(parts)-1] {
		var m Modifier
		switch p {
		case "ctrl", "control":
			m = ModCtrl
		case "alt", "option", "opt":
			m = ModAlt
		case "shift":
			m = ModShift
		case "super", "win", "cmd", "command", "meta":
			m = ModSuper
		default:
			return Binding{}, fmt.Errorf("%w %q: unknown modifier %q", ErrInvalidBinding, s, p)
		}
		if b.Mods&m != 0 {
			return Binding{}, fmt.Errorf("%w %q: repeated modifier %q", ErrInvalidBinding, s, p)
		}
		b.Mods |= m
	}

	name, ok := canonicalKey(key)
	if !ok {
		return Binding{}, fmt.Errorf("%w %q: unknown key %q", ErrInvalidBinding, s, key)
	}
	b.Key = name
	return b, nil
}

// MustParse is Parse for bindings known to be valid.
func MustParse(s string) Binding {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// NamedKeys lists the key names Parse accepts besides letters, digits and
// f1 to f12.
var NamedKeys = []string{"space", "enter", "escape", "tab", "delete", "left", "right", "up", "down"}

func canonicalKey(k string) (string, bool) {
	switch k {
	case "esc":
		return "escape", true
	case "return":
		return "enter", true
	case "del":
		return "delete", true
	}
	if len(k) == 1 && (k[0] >= 'a' && k[0] <= 'z' || k[0] >= '0' && k[0] <= '9') {
		return k, true
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(k, "f")); err == nil && k[0] == 'f' && n >= 1 && n <= 12 {
		return "f" + strconv.Itoa(n), true
	}
	return k, slices.Contains(NamedKeys, k)
}
