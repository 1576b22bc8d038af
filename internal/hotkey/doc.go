// Package hotkey parses key bindings such as "ctrl+alt+f8" and forwards
// their press and release events. The platform grab is supplied by a
// Registrar; see internal/hotkey/system.
package hotkey
