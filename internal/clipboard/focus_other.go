//go:build !windows && !linux

package clipboard

// SystemFocus returns NoFocus; the copy chord goes to whatever is focused.
func SystemFocus() Focuser { return NoFocus{} }
