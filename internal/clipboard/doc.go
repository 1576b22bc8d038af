// Package clipboard reads and writes the system clipboard and captures the
// current selection by simulating the copy shortcut.
package clipboard
