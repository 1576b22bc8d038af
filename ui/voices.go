package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

const maxLabelWidth = 48

// voicePicker is a filterable list of voice labels.
type voicePicker struct {
	labels   []string
	visible  []int // indexes into labels, in display order
	cursor   int   // index into visible
	selected string

	filter    textinput.Model
	filtering bool
}

func newVoicePicker(labels []string, selected string) voicePicker {
	ti := textinput.New()
	ti.Prompt = "Find: "
	ti.Placeholder = "german, female..."
	ti.CharLimit = 40

	p := voicePicker{filter: ti}
	p.setLabels(labels, selected)
	return p
}

// setLabels replaces the list, keeping the filter and pointing the cursor
// at selected when it is visible.
func (p *voicePicker) setLabels(labels []string, selected string) {
	p.labels = append([]string(nil), labels...)
	p.selected = selected
	p.applyFilter()
	p.moveTo(selected)
}

func (p *voicePicker) applyFilter() {
	p.visible = make([]int, 0, len(p.labels))
	query := strings.TrimSpace(p.filter.Value())
	if query == "" {
		for i := range p.labels {
			p.visible = append(p.visible, i)
		}
	} else {
		for _, m := range fuzzy.Find(query, p.labels) {
			p.visible = append(p.visible, m.Index)
		}
	}
	if p.cursor >= len(p.visible) {
		p.cursor = max(len(p.visible)-1, 0)
	}
}

func (p *voicePicker) moveTo(label string) {
	for i, idx := range p.visible {
		if p.labels[idx] == label {
			p.cursor = i
			return
		}
	}
}

func (p *voicePicker) up() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *voicePicker) down() {
	if p.cursor < len(p.visible)-1 {
		p.cursor++
	}
}

// current returns the label under the cursor.
func (p voicePicker) current() (string, bool) {
	if len(p.visible) == 0 {
		return "", false
	}
	return p.labels[p.visible[p.cursor]], true
}

func (p *voicePicker) startFilter() tea.Cmd {
	p.filtering = true
	return p.filter.Focus()
}

// stopFilter leaves filter mode. Clearing drops the query as well.
func (p *voicePicker) stopFilter(clear bool) {
	p.filtering = false
	p.filter.Blur()
	if clear {
		p.filter.SetValue("")
		p.applyFilter()
		p.moveTo(p.selected)
	}
}

func (p voicePicker) update(msg tea.Msg) (voicePicker, tea.Cmd) {
	var cmd tea.Cmd
	p.filter, cmd = p.filter.Update(msg)
	p.applyFilter()
	return p, cmd
}

func (p voicePicker) view(focused bool, height int) string {
	var b strings.Builder
	if p.filtering || p.filter.Value() != "" {
		b.WriteString(itemStyle(p.filter.View()))
		b.WriteString("\n")
	}
	if len(p.visible) == 0 {
		b.WriteString(itemStyle(dimStyle("no matching voices")))
		return b.String()
	}

	// Scroll so the cursor stays in view.
	start := 0
	if height > 0 && p.cursor >= height {
		start = p.cursor - height + 1
	}
	end := len(p.visible)
	if height > 0 {
		end = min(end, start+height)
	}

	for i := start; i < end; i++ {
		label := p.labels[p.visible[i]]
		mark := "  "
		if label == p.selected {
			mark = selectedMarkStyle("✓ ")
		}
		shown := runewidth.Truncate(label, maxLabelWidth, "…")
		line := mark + shown
		if focused && i == p.cursor {
			line = cursorItemStyle("> ") + mark + cursorItemStyle(shown)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
