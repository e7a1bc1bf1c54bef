package main

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type searchVariant int

const (
	searchMessages searchVariant = iota
	searchStreams
	searchUsers
)

func (v searchVariant) String() string {
	switch v {
	case searchStreams:
		return "streams"
	case searchUsers:
		return "users"
	default:
		return "messages"
	}
}

// placeholder is shown while the box is empty.
func (v searchVariant) placeholder() string {
	switch v {
	case searchStreams:
		return "Search streams"
	case searchUsers:
		return "Search people"
	default:
		return ""
	}
}

// searchOutcome tells the model how a keypress ended the search.
type searchOutcome int

const (
	searchNone searchOutcome = iota
	searchSubmitted
	searchCancelled
)

// SearchBox is a one-line query editor for messages, streams or users.
type SearchBox struct {
	variant   searchVariant
	input     textinput.Model
	active    bool
	session   *EditorSession
	isCommand CommandMatcher
}

func newSearchBox(variant searchVariant, session *EditorSession, isCommand CommandMatcher) *SearchBox {
	ti := textinput.New()
	ti.Placeholder = variant.placeholder()
	ti.CharLimit = 200
	if variant == searchMessages {
		ti.Prompt = "Search: "
	} else {
		ti.Prompt = ""
	}
	return &SearchBox{
		variant:   variant,
		input:     ti,
		session:   session,
		isCommand: isCommand,
	}
}

func (s *SearchBox) editorName() string { return "search " + s.variant.String() }

// Active reports whether the box holds input.
func (s *SearchBox) Active() bool { return s.active }

// Query returns the current search text.
func (s *SearchBox) Query() string { return s.input.Value() }

// Activate gives the box keyboard input. It fails while another editor
// holds input.
func (s *SearchBox) Activate() (tea.Cmd, bool) {
	if !s.session.Enter(s) {
		return nil, false
	}
	s.active = true
	return s.input.Focus(), true
}

func (s *SearchBox) deactivate() {
	s.active = false
	s.input.Blur()
	s.session.Exit()
}

// HandleKey processes a key while the box is active. ENTER submits and
// keeps the query, GO_BACK clears it.
func (s *SearchBox) HandleKey(msg tea.KeyMsg) (searchOutcome, tea.Cmd) {
	if !s.active {
		return searchNone, nil
	}
	switch {
	case s.isCommand(CmdEnter, msg):
		s.deactivate()
		return searchSubmitted, nil
	case s.isCommand(CmdGoBack, msg):
		s.input.Reset()
		s.deactivate()
		return searchCancelled, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return searchNone, cmd
}

func (s *SearchBox) SetWidth(w int) {
	s.input.Width = w - lipgloss.Width(s.input.Prompt) - 1
}

func (s *SearchBox) View() string {
	return s.input.View()
}
