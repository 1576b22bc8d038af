// Package playback ties the hotkeys, the clipboard and the speech session
// together. A Controller owns the playback state and reports progress on
// a status channel.
package playback
