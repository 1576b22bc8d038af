// Package system grabs hotkey bindings from the desktop. Linux uses an
// X11 connection opened on first use; macOS and Windows use
// golang.design/x/hotkey. Importing it never touches the display.
package system
