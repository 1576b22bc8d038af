// Package voice turns the voices reported by a speech engine into the short
// "Language (Gender)" labels shown in the voice picker.
package voice

import "strings"

// FallbackLabel is the only label of a catalog built from an empty voice list.
const FallbackLabel = "English (Default)"

// Descriptor describes one synthetic voice as reported by an engine.
type Descriptor struct {
	// ID is the opaque engine handle used to select the voice.
	ID string

	// Name is the human-readable voice name.
	Name string

	// RawName is the name exactly as the engine reported it.
	RawName string

	// Languages holds the engine's language tags for the voice, if any
	// (e.g. "de-DE", "en_US").
	Languages []string

	// Gender is the engine's gender hint, if any.
	Gender string
}

// String returns the display name, falling back to the ID.
func (d Descriptor) String() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

func (d Descriptor) haystack() string {
	return strings.ToLower(d.ID + " " + d.Name + " " + d.RawName)
}
