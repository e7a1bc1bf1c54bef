package main

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// panelWidths returns the stream and user panel widths, border included.
// Narrow terminals hide both panels.
func (m *model) panelWidths() (int, int) {
	if m.width < 3*minPanelWidth+20 {
		return 0, 0
	}
	limit := m.width / 4
	left := m.streamList.preferredWidth() + panelBorder
	right := m.userList.preferredWidth() + panelBorder
	if left > limit {
		left = limit
	}
	if right > limit {
		right = limit
	}
	return left, right
}

// contentWidth is the width of the middle column.
func (m *model) contentWidth() int {
	left, right := m.panelWidths()
	w := m.width - left - right
	if w < 10 {
		w = 10
	}
	return w
}

func (m *model) renderTitleBar() string {
	if m.msgSearch.Active() || m.msgSearch.Query() != "" {
		return m.msgSearch.View()
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1).Render(m.narrow.title())
}

func (m *model) updateLayout() {
	contentWidth := m.contentWidth()
	left, right := m.panelWidths()

	// Set widths first so measured heights are accurate.
	m.viewport.Width = contentWidth
	m.composer.SetWidth(contentWidth)
	m.msgSearch.SetWidth(contentWidth)
	if left > 0 {
		m.streamSearch.SetWidth(left - panelBorder)
		m.userSearch.SetWidth(right - panelBorder)
	}

	titleHeight := lipgloss.Height(m.renderTitleBar())
	statusHeight := lipgloss.Height(m.viewStatusBar())
	composerHeight := 0
	if m.composer.Open() {
		composerHeight = lipgloss.Height(m.composer.View(contentWidth))
	}

	contentHeight := m.height - titleHeight - statusHeight - composerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}
	m.viewport.Height = contentHeight

	if m.mdStyle != "" {
		w := m.width - 8
		if w > 100 {
			w = 100
		}
		m.mdRender = newMarkdownRenderer(m.mdStyle, w)
	}
	m.updateViewport()
}

func (m *model) updateViewport() {
	source := m.msgs
	if m.narrow.kind == narrowSearch {
		source = m.searchResults
	}
	m.visible = m.narrow.filter(source, m.searchHits)
	if m.autoScroll || m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}

	blocks := m.presenter.presentAll(m.visible)
	m.lineStarts = m.lineStarts[:0]
	var lines []string
	for i, b := range blocks {
		m.lineStarts = append(m.lineStarts, len(lines))
		rendered := renderBlock(b, m.viewport.Width, i == m.selected && m.focus == focusMessages)
		lines = append(lines, strings.Split(rendered, "\n")...)
	}
	if len(blocks) == 0 {
		if m.loaded {
			lines = []string{"  No messages here."}
		} else {
			lines = []string{"  Loading messages..."}
		}
	}

	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.scrollToSelected(len(lines))
}

// scrollToSelected keeps the whole focused message in view when possible.
func (m *model) scrollToSelected(total int) {
	if len(m.lineStarts) == 0 {
		m.viewport.GotoTop()
		return
	}
	start := m.lineStarts[m.selected]
	end := total
	if m.selected+1 < len(m.lineStarts) {
		end = m.lineStarts[m.selected+1]
	}
	switch {
	case m.autoScroll:
		m.viewport.GotoBottom()
	case start < m.viewport.YOffset:
		m.viewport.SetYOffset(start)
	case end > m.viewport.YOffset+m.viewport.Height:
		off := end - m.viewport.Height
		if off > start {
			off = start
		}
		m.viewport.SetYOffset(off)
	}
}

// messageAt maps a screen row to the visible message drawn there.
func (m *model) messageAt(y int) (int, bool) {
	top := lipgloss.Height(m.renderTitleBar())
	if y < top || y >= top+m.viewport.Height {
		return 0, false
	}
	line := y - top + m.viewport.YOffset
	idx := -1
	for i, start := range m.lineStarts {
		if start > line {
			break
		}
		idx = i
	}
	return idx, idx >= 0
}

// helpRenderer returns the markdown renderer for overlays, nil when
// markdown rendering is unavailable.
func (m *model) helpRenderer() *glamour.TermRenderer {
	return m.mdRender
}

func (m *model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.qrOverlay != "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.qrOverlay)
	}
	if m.helpOverlay != "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.helpOverlay)
	}

	statusBar := m.viewStatusBar()
	left, right := m.panelWidths()

	parts := []string{}
	if left > 0 {
		parts = append(parts, m.viewPanel(m.streamSearch, m.streamList, focusStreams, left, panelStyle.BorderRight(true)))
	}
	parts = append(parts, m.viewContent())
	if right > 0 {
		parts = append(parts, m.viewPanel(m.userSearch, m.userList, focusUsers, right, panelStyle.BorderLeft(true)))
	}
	mainArea := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	return lipgloss.JoinVertical(lipgloss.Left, mainArea, statusBar)
}

func (m *model) viewPanel(box *SearchBox, list *ListPanel, pane focusPane, width int, style lipgloss.Style) string {
	height := m.height - lipgloss.Height(m.viewStatusBar())
	inner := width - panelBorder
	content := lipgloss.JoinVertical(lipgloss.Left, box.View(), list.View(inner, m.focus == pane))
	return style.Width(inner).Height(height).MaxHeight(height).Render(content)
}

func (m *model) viewContent() string {
	totalHeight := m.height - lipgloss.Height(m.viewStatusBar())
	width := m.contentWidth()

	sections := []string{m.renderTitleBar(), m.viewport.View()}
	if m.composer.Open() {
		sections = append(sections, m.composer.View(width))
	}
	inner := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return lipgloss.NewStyle().Width(width).Height(totalHeight).MaxHeight(totalHeight).Render(inner)
}

func (m *model) viewStatusBar() string {
	var indicator string
	if m.offline {
		indicator = statusErrorStyle.Render("○ offline")
	} else {
		indicator = statusConnectedStyle.Render("● " + m.cfg.Site)
	}
	text := m.statusMsg
	if m.statusErr {
		text = statusErrorStyle.Render(text)
	}
	return statusBarStyle.Width(m.width).MaxHeight(1).Render(indicator + "  " + text)
}
