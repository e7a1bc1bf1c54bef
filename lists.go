package main

import (
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

// ListItem is the unified interface for side panel entries (streams, users).
type ListItem interface {
	ItemID() int
	DisplayName() string // human-readable name
	Prefix() string      // "#", "@"
}

// StreamItem wraps a Stream for the side panel.
type StreamItem struct {
	Stream Stream
}

func (s StreamItem) ItemID() int         { return s.Stream.ID }
func (s StreamItem) DisplayName() string { return s.Stream.Name }
func (s StreamItem) Prefix() string      { return "#" }

// UserItem wraps a User for the side panel.
type UserItem struct {
	User User
}

func (u UserItem) ItemID() int         { return u.User.ID }
func (u UserItem) DisplayName() string { return u.User.FullName }
func (u UserItem) Prefix() string      { return "@" }

// ListPanel is a filterable list of streams or users.
type ListPanel struct {
	title   string
	items   []ListItem
	filter  string
	visible []int // indexes into items that match filter
	cursor  int
}

func newListPanel(title string) *ListPanel {
	return &ListPanel{title: title}
}

// SetItems replaces the panel contents and re-applies the filter.
func (p *ListPanel) SetItems(items []ListItem) {
	p.items = items
	p.SetFilter(p.filter)
}

// SetFilter narrows the visible items to fuzzy matches of q, keeping the
// item order.
func (p *ListPanel) SetFilter(q string) {
	p.filter = q
	p.visible = p.visible[:0]
	if q == "" {
		for i := range p.items {
			p.visible = append(p.visible, i)
		}
	} else {
		names := make([]string, len(p.items))
		for i, it := range p.items {
			names[i] = it.DisplayName()
		}
		for _, match := range fuzzy.Find(q, names) {
			p.visible = append(p.visible, match.Index)
		}
		sort.Ints(p.visible)
	}
	if p.cursor >= len(p.visible) {
		p.cursor = len(p.visible) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// Escape leaves sub-navigation: the filter is cleared and the cursor
// returns to the first item.
func (p *ListPanel) Escape() {
	p.SetFilter("")
	p.cursor = 0
}

// SelectFirst moves the cursor to the first visible item.
func (p *ListPanel) SelectFirst() {
	p.cursor = 0
}

func (p *ListPanel) Up() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *ListPanel) Down() {
	if p.cursor < len(p.visible)-1 {
		p.cursor++
	}
}

// Selected returns the item under the cursor.
func (p *ListPanel) Selected() (ListItem, bool) {
	if len(p.visible) == 0 {
		return nil, false
	}
	return p.items[p.visible[p.cursor]], true
}

// Visible returns the items matching the current filter.
func (p *ListPanel) Visible() []ListItem {
	out := make([]ListItem, len(p.visible))
	for i, idx := range p.visible {
		out[i] = p.items[idx]
	}
	return out
}

// itemAt maps a row inside the panel (0 = title) to a visible item index.
func (p *ListPanel) itemAt(row int) (int, bool) {
	i := row - 1
	if i < 0 || i >= len(p.visible) {
		return 0, false
	}
	return i, true
}

// preferredWidth is the width needed for the longest name.
func (p *ListPanel) preferredWidth() int {
	longest := runewidth.StringWidth(p.title)
	for _, it := range p.items {
		if n := runewidth.StringWidth(it.Prefix() + it.DisplayName()); n > longest {
			longest = n
		}
	}
	w := longest + panelPadding
	if w < minPanelWidth {
		w = minPanelWidth
	}
	return w
}

// View renders the panel body. focused highlights the cursor row.
func (p *ListPanel) View(width int, focused bool) string {
	lines := []string{panelSectionStyle.Render(strings.ToUpper(p.title))}
	for i, idx := range p.visible {
		it := p.items[idx]
		name := runewidth.Truncate(it.Prefix()+it.DisplayName(), width-2, "…")
		if focused && i == p.cursor {
			lines = append(lines, panelSelectedStyle.Render(name))
		} else {
			lines = append(lines, panelItemStyle.Render(name))
		}
	}
	return strings.Join(lines, "\n")
}
