package main

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#7B68EE")
	colorSecondary = lipgloss.Color("#5B5682")
	colorMuted     = lipgloss.Color("#636363")
	colorHighlight = lipgloss.Color("#E0DAFF")
	colorStatusBg  = lipgloss.Color("#24283B")
	colorBarBg     = lipgloss.Color("#3B3F58")
	colorWhite     = lipgloss.Color("#C0CAF5")
	colorGreen     = lipgloss.Color("#9ECE6A")
	colorYellow    = lipgloss.Color("#E0AF68")
	colorCyan      = lipgloss.Color("#7DCFFF")
	colorRed       = lipgloss.Color("#F7768E")
)

// Layout constants
const (
	minPanelWidth  = 16
	panelPadding   = 4
	panelBorder    = 1
	bodyIndent     = 2
	metaTimeWidth  = 16
	inputMinHeight = 1
	inputMaxHeight = 8
)

// Styles
var (
	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorSecondary)

	panelSectionStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Bold(true).
				Padding(0, 1)

	panelItemStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Padding(0, 1)

	panelSelectedStyle = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Background(colorSecondary).
				Bold(true).
				Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorStatusBg).
			Padding(0, 1)

	statusConnectedStyle = lipgloss.NewStyle().
				Foreground(colorGreen)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorRed)

	focusedMessageStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.ThickBorder()).
				BorderLeft(true).
				BorderForeground(colorPrimary)

	unfocusedMessageStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.HiddenBorder()).
				BorderLeft(true)

	composerBoxStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderTop(true).
				BorderForeground(colorSecondary)

	qrTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)
)

// spanStyles maps span style tags to terminal styles. Stream colour keys
// ("s#rgb") are resolved by styleFor.
var spanStyles = map[string]lipgloss.Style{
	StylePlain:      lipgloss.NewStyle(),
	StyleMention:    lipgloss.NewStyle().Foreground(colorYellow).Bold(true),
	StyleLink:       lipgloss.NewStyle().Foreground(colorCyan).Underline(true),
	StyleBlockquote: lipgloss.NewStyle().Foreground(colorMuted),
	StyleCode:       lipgloss.NewStyle().Foreground(colorGreen),
	StyleBold:       lipgloss.NewStyle().Bold(true),
	StyleEmoji:      lipgloss.NewStyle().Foreground(colorWhite),
	StyleBar:        lipgloss.NewStyle().Foreground(colorWhite).Background(colorBarBg).Bold(true),
	StyleTitle:      lipgloss.NewStyle().Foreground(colorWhite).Background(colorBarBg),
	StyleHeader:     lipgloss.NewStyle().Background(colorBarBg),
	StyleCustom:     lipgloss.NewStyle().Foreground(colorWhite).Background(colorBarBg).Bold(true),
	StyleSelected:   lipgloss.NewStyle().Foreground(colorHighlight).Background(colorBarBg),
	StyleName:       lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
	StyleStarred:    lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	StyleTime:       lipgloss.NewStyle().Foreground(colorMuted),
}

// styleFor returns the terminal style for a span tag. "s#rgb" expands to
// a bold foreground on the header bar.
func styleFor(tag string) lipgloss.Style {
	if st, ok := spanStyles[tag]; ok {
		return st
	}
	if len(tag) == 5 && tag[0] == 's' && tag[1] == '#' {
		hex := "#" + string([]byte{tag[2], tag[2], tag[3], tag[3], tag[4], tag[4]})
		return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Background(colorBarBg).Bold(true)
	}
	return spanStyles[StylePlain]
}

// detectGlamourStyle queries the terminal background and returns "dark" or "light".
// Must be called before the TUI starts.
func detectGlamourStyle() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// newMarkdownRenderer creates a glamour terminal renderer at the given width.
func newMarkdownRenderer(style string, width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown renders markdown content to terminal-styled text.
// Falls back to plain text if the renderer is nil or rendering fails.
func renderMarkdown(r *glamour.TermRenderer, content string) string {
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}
