package voice

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageRule labels a voice with Name when any of Tokens occurs in its
// lowercased id or name.
type LanguageRule struct {
	Name   string
	Tokens []string
}

// Rules configures voice classification.
type Rules struct {
	// Languages are checked in order; the first matching rule wins.
	Languages []LanguageRule

	// DefaultLanguage is used when no rule or engine language tag matches.
	DefaultLanguage string

	// FemaleTokens mark a voice as female when found in its lowercased name.
	FemaleTokens []string

	// Overrides maps exact voice IDs (or raw names) to labels.
	Overrides map[string]string

	// UseEngineLanguages names the language from the engine's tags when no
	// rule matched.
	UseEngineLanguages bool
}

// DefaultRules returns the classification used for SAPI-style voice lists.
func DefaultRules() Rules {
	return Rules{
		Languages: []LanguageRule{
			{Name: "German", Tokens: []string{"german", "deutsch", "de-de", "de_"}},
		},
		DefaultLanguage:    "English",
		FemaleTokens:       []string{"zira", "hazel", "hedda", "female"},
		UseEngineLanguages: true,
	}
}

// Classifier derives a label for a voice.
type Classifier interface {
	Classify(d Descriptor) string
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(d Descriptor) string

// Classify calls f(d).
func (f ClassifierFunc) Classify(d Descriptor) string { return f(d) }

// Classify returns the label for d.
func (r Rules) Classify(d Descriptor) string {
	if label, ok := r.override(d); ok {
		return label
	}
	return fmt.Sprintf("%s (%s)", r.language(d), r.gender(d))
}

func (r Rules) override(d Descriptor) (string, bool) {
	if len(r.Overrides) == 0 {
		return "", false
	}
	for _, key := range []string{d.ID, d.RawName, d.Name} {
		if key == "" {
			continue
		}
		if label, ok := r.Overrides[key]; ok && label != "" {
			return label, true
		}
	}
	return "", false
}

func (r Rules) language(d Descriptor) string {
	hay := d.haystack()
	for _, rule := range r.Languages {
		for _, tok := range rule.Tokens {
			if tok != "" && strings.Contains(hay, strings.ToLower(tok)) {
				return rule.Name
			}
		}
	}
	if r.UseEngineLanguages {
		for _, tag := range d.Languages {
			if name := languageName(tag); name != "" {
				return name
			}
		}
	}
	if r.DefaultLanguage == "" {
		return "English"
	}
	return r.DefaultLanguage
}

func (r Rules) gender(d Descriptor) string {
	name := strings.ToLower(d.Name + " " + d.RawName)
	for _, tok := range r.FemaleTokens {
		if tok != "" && strings.Contains(name, strings.ToLower(tok)) {
			return "Female"
		}
	}
	if strings.EqualFold(d.Gender, "female") {
		return "Female"
	}
	return "Male"
}

// languageName returns the English name of the base language of tag, or ""
// when the tag does not parse.
func languageName(tag string) string {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return ""
	}
	base, conf := t.Base()
	if conf == language.No {
		return ""
	}
	return display.English.Languages().Name(base)
}
