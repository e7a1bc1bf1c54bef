package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

var quoteBarStyle = lipgloss.NewStyle().Foreground(colorSecondary)

// wrapLines word-wraps s at word boundaries, then hard-wraps any remaining
// overflows (long unbroken words like URLs).
func wrapLines(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	var out []string
	for _, l := range strings.Split(wordwrap.String(s, width), "\n") {
		if lipgloss.Width(l) > width {
			out = append(out, strings.Split(wrap.String(l, width), "\n")...)
		} else {
			out = append(out, l)
		}
	}
	return out
}

// trimBlankLines drops leading and trailing whitespace-only lines.
// strings.TrimSpace can't see through ANSI codes, so strip them first.
func trimBlankLines(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(ansi.Strip(lines[0])) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(ansi.Strip(lines[len(lines)-1])) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// renderSpans lays out spans as terminal lines no wider than width.
// Blockquotes get a bar per nesting level.
func renderSpans(spans []Span, width int) []string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		lines = append(lines, trimBlankLines(wrapLines(cur.String(), width))...)
		cur.Reset()
	}
	for _, s := range spans {
		if s.Style == StyleBlockquote {
			flush()
			for _, l := range renderSpans(s.Children, width-2) {
				lines = append(lines, quoteBarStyle.Render("│")+" "+l)
			}
			continue
		}
		st := styleFor(s.Style)
		for i, seg := range strings.Split(s.Text, "\n") {
			if i > 0 {
				cur.WriteString("\n")
			}
			if seg != "" {
				cur.WriteString(st.Render(seg))
			}
		}
	}
	flush()
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// renderInline renders spans on a single line, ignoring nesting.
func renderInline(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Children != nil {
			b.WriteString(renderInline(s.Children))
			continue
		}
		b.WriteString(styleFor(s.Style).Render(s.Text))
	}
	return b.String()
}

// renderMeta lays out author, star and time columns.
func renderMeta(meta MetaRow, width int) string {
	authorWidth := width - 1 - metaTimeWidth - 2
	if authorWidth < 1 {
		authorWidth = 1
	}
	author := runewidth.Truncate(meta.Author, authorWidth, "…")
	cols := []string{
		styleFor(StyleName).Width(authorWidth).Render(author),
		" ",
		styleFor(StyleStarred).Width(1).Align(lipgloss.Right).Render(meta.Star),
		" ",
		styleFor(StyleTime).Width(metaTimeWidth).Align(lipgloss.Right).Render(meta.Time),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// renderBlock draws a display block at the given width. The focused
// message is marked with a bar on the left.
func renderBlock(b DisplayBlock, width int, focused bool) string {
	inner := width - 1
	if inner < 10 {
		inner = 10
	}
	var lines []string
	if b.Header != nil {
		header := styleFor(StyleHeader).Width(inner).MaxWidth(inner).Render(renderInline(b.Header))
		lines = append(lines, header)
	}
	if b.Meta != nil {
		lines = append(lines, renderMeta(*b.Meta, inner))
	}
	pad := strings.Repeat(" ", bodyIndent)
	for _, l := range renderSpans(b.Body, inner-bodyIndent) {
		lines = append(lines, pad+l)
	}
	if b.Reactions != nil {
		for _, l := range wrapLines(styleFor(b.Reactions.Style).Render(b.Reactions.Text), inner-bodyIndent) {
			lines = append(lines, pad+l)
		}
	}
	content := strings.Join(lines, "\n")
	if focused {
		return focusedMessageStyle.Render(content)
	}
	return unfocusedMessageStyle.Render(content)
}
