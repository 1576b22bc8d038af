package voice

import (
	"github.com/sahilm/fuzzy"
)

// Entry maps a label to the voice backing it. Voice is nil for the fallback
// entry.
type Entry struct {
	Label string
	Voice *Descriptor
}

// Catalog is an ordered, label-unique snapshot of the available voices.
// It is immutable once built.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// Load builds a catalog with DefaultRules.
func Load(voices []Descriptor) *Catalog {
	return DefaultRules().Load(voices)
}

// Load builds a catalog using r to classify each voice.
func (r Rules) Load(voices []Descriptor) *Catalog {
	return LoadWith(r, voices)
}

// LoadWith builds a catalog using an arbitrary classifier. The first voice
// producing a label wins; later voices with the same label are dropped. An
// empty result gets a single FallbackLabel entry with no voice.
func LoadWith(c Classifier, voices []Descriptor) *Catalog {
	cat := &Catalog{index: make(map[string]int, len(voices))}
	for i := range voices {
		d := voices[i]
		label := c.Classify(d)
		if label == "" {
			continue
		}
		if _, ok := cat.index[label]; ok {
			continue
		}
		cat.index[label] = len(cat.entries)
		cat.entries = append(cat.entries, Entry{Label: label, Voice: &d})
	}
	if len(cat.entries) == 0 {
		cat.index[FallbackLabel] = 0
		cat.entries = append(cat.entries, Entry{Label: FallbackLabel})
	}
	return cat
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the entries in insertion order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Labels returns the labels in insertion order.
func (c *Catalog) Labels() []string {
	labels := make([]string, len(c.entries))
	for i, e := range c.entries {
		labels[i] = e.Label
	}
	return labels
}

// Lookup returns the voice for label. ok is false for unknown labels and for
// the fallback entry.
func (c *Catalog) Lookup(label string) (Descriptor, bool) {
	i, found := c.index[label]
	if !found || c.entries[i].Voice == nil {
		return Descriptor{}, false
	}
	return *c.entries[i].Voice, true
}

// Has reports whether label is in the catalog.
func (c *Catalog) Has(label string) bool {
	_, ok := c.index[label]
	return ok
}

// IsFallback reports whether the catalog only holds the fallback entry.
func (c *Catalog) IsFallback() bool {
	return len(c.entries) == 1 && c.entries[0].Voice == nil
}

// LabelOf returns the label a voice ID was filed under.
func (c *Catalog) LabelOf(id string) (string, bool) {
	for _, e := range c.entries {
		if e.Voice != nil && e.Voice.ID == id {
			return e.Label, true
		}
	}
	return "", false
}

// Find resolves a loose query ("german fem") to a label. Exact labels win,
// otherwise the best fuzzy match is returned.
func (c *Catalog) Find(query string) (string, bool) {
	if query == "" {
		return "", false
	}
	if c.Has(query) {
		return query, true
	}
	if label, ok := c.LabelOf(query); ok {
		return label, true
	}
	matches := fuzzy.Find(query, c.Labels())
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
