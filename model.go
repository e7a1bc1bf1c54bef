package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	qrterminal "github.com/mdp/qrterminal/v3"
)

// focusPane is the pane receiving keys when no editor is active.
type focusPane int

const (
	focusMessages focusPane = iota
	focusStreams
	focusUsers
)

// streamTable maps stream ids to subscriptions. It resolves header colours
// for the presenter.
type streamTable map[int]Stream

func (t streamTable) StreamColor(id int) (string, bool) {
	s, ok := t[id]
	if !ok || s.Color == "" {
		return "", false
	}
	return s.Color, true
}

// Messages returned by transport commands.
type (
	messagesLoadedMsg struct {
		msgs   []Message
		search string // non-empty for search results
	}
	subscriptionsMsg struct{ streams []Stream }
	usersMsg         struct{ users []User }
	zulipErrMsg      struct {
		op  string
		err error
	}
)

func (e zulipErrMsg) Error() string { return e.op + ": " + e.err.Error() }

type model struct {
	cfg       Config
	keys      KeyMap
	transport Transport
	presenter *Presenter

	// TUI dimensions
	width  int
	height int

	// All loaded messages in timestamp order, and the subset shown under
	// the current narrow.
	msgs       []Message
	visible    []Message
	narrow     narrow
	searchHits map[int]bool
	selected   int   // index into visible
	lineStarts []int // first viewport line of each visible message
	autoScroll bool  // keep the newest message selected on reload

	// searchResults holds the last server search, outside the MaxMessages cap.
	searchResults []Message

	// lastLoggedID is the newest message already written to transcripts.
	lastLoggedID int
	loaded       bool
	offline      bool

	streams streamTable
	users   []User

	focus        focusPane
	session      *EditorSession
	composer     *Composer
	msgSearch    *SearchBox
	streamSearch *SearchBox
	userSearch   *SearchBox
	streamList   *ListPanel
	userList     *ListPanel

	viewport viewport.Model

	// Markdown rendering (help overlay)
	mdRender *glamour.TermRenderer
	mdStyle  string

	qrOverlay   string
	helpOverlay string

	statusMsg string
	statusErr bool
}

func newModel(cfg Config, keys KeyMap, t Transport, mdRender *glamour.TermRenderer, mdStyle string) model {
	session := &EditorSession{}
	streams := streamTable{}

	m := model{
		cfg:       cfg,
		keys:      keys,
		transport: t,
		presenter: &Presenter{
			Streams:   streams,
			SelfEmail: cfg.Email,
			BaseURL:   cfg.Site,
			Location:  time.Local,
		},
		width:        80,
		height:       24,
		searchHits:   make(map[int]bool),
		autoScroll:   true,
		streams:      streams,
		session:      session,
		composer:     newComposer(session, keys.Is, t),
		msgSearch:    newSearchBox(searchMessages, session, keys.Is),
		streamSearch: newSearchBox(searchStreams, session, keys.Is),
		userSearch:   newSearchBox(searchUsers, session, keys.Is),
		streamList:   newListPanel("Streams"),
		userList:     newListPanel("Users"),
		viewport:     viewport.New(80, 20),
		mdRender:     mdRender,
		mdStyle:      mdStyle,
		statusMsg:    "connecting to " + cfg.Site,
	}

	if cfg.LoggingEnabled() {
		if history, err := loadOfflineHistory(cfg.LogDir, cfg.MaxMessages); err != nil {
			log.Printf("newModel: reading transcripts: %v", err)
		} else {
			for _, msg := range history {
				if msg.ID > m.lastLoggedID {
					m.lastLoggedID = msg.ID
				}
			}
		}
	}
	return m
}

func (m *model) Init() tea.Cmd {
	log.Println("Init() called")
	return tea.Batch(
		fetchSubscriptionsCmd(m.transport),
		fetchUsersCmd(m.transport),
		fetchMessagesCmd(m.transport, nil, m.cfg.MaxMessages, ""),
	)
}

func fetchMessagesCmd(t Transport, terms []NarrowTerm, n int, search string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		msgs, err := t.FetchMessages(ctx, terms, n)
		if err != nil {
			return zulipErrMsg{op: "fetch messages", err: err}
		}
		return messagesLoadedMsg{msgs: msgs, search: search}
	}
}

func fetchSubscriptionsCmd(t Transport) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		streams, err := t.Subscriptions(ctx)
		if err != nil {
			return zulipErrMsg{op: "subscriptions", err: err}
		}
		return subscriptionsMsg{streams: streams}
	}
}

func fetchUsersCmd(t Transport) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		users, err := t.Users(ctx)
		if err != nil {
			return zulipErrMsg{op: "users", err: err}
		}
		return usersMsg{users: users}
	}
}

// setStatus replaces the status line text.
func (m *model) setStatus(text string, isErr bool) {
	m.statusMsg = text
	m.statusErr = isErr
}

// focusedMessage returns the selected visible message.
func (m *model) focusedMessage() (Message, bool) {
	if m.selected < 0 || m.selected >= len(m.visible) {
		return Message{}, false
	}
	return m.visible[m.selected], true
}

// setNarrow switches the message list to n and selects the newest message.
func (m *model) setNarrow(n narrow) {
	log.Printf("narrow: %s", n.title())
	m.narrow = n
	m.autoScroll = true
	m.updateViewport()
}

// logNewMessages appends messages newer than the last logged one to their
// transcripts.
func (m *model) logNewMessages(msgs []Message) {
	if !m.cfg.LoggingEnabled() {
		return
	}
	sorted := append([]Message(nil), msgs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, msg := range sorted {
		if msg.ID <= m.lastLoggedID {
			continue
		}
		appendLogEntry(m.cfg.LogDir, msg)
		m.lastLoggedID = msg.ID
	}
}

// permalink is the web address of a message.
func (m *model) permalink(msg Message) string {
	return fmt.Sprintf("%s/#narrow/near/%d", m.cfg.Site, msg.ID)
}

// renderQR renders a QR code with a title line above it.
func renderQR(title, content string) string {
	var buf strings.Builder
	buf.WriteString(qrTitleStyle.Render(title))
	buf.WriteString("\n\n")
	qrterminal.GenerateWithConfig(content, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         &buf,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		QuietZone:      1,
	})
	buf.WriteString("\n")
	buf.WriteString(content)
	return buf.String()
}
