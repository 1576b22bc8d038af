package clipboard

// Window identifies a top-level window. Zero means none.
type Window uintptr

// Focuser reads and restores keyboard focus.
type Focuser interface {
	Foreground() Window
	Activate(w Window) error
}

// NoFocus never reports a window.
type NoFocus struct{}

func (NoFocus) Foreground() Window      { return 0 }
func (NoFocus) Activate(w Window) error { return nil }
