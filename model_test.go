package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, ft *fakeTransport) *model {
	t.Helper()
	off := false
	cfg := Config{
		Site:        testSite,
		Email:       "me@example.com",
		APIKey:      "k",
		MaxMessages: 500,
		Logging:     &off,
	}
	m := newModel(cfg, testKeyMap(t), ft, nil, "")
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return &m
}

// loadedModel returns a model showing two stream messages and one private
// message, the private one selected.
func loadedModel(t *testing.T) (*model, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	m := newTestModel(t, ft)
	m.Update(messagesLoadedMsg{msgs: []Message{
		stream(1, base, "Alice", "general", "lunch"),
		stream(2, base+60, "Bob", "random", "games"),
		private(3, base+120, "Bob", 1, 2),
	}})
	return m, ft
}

// collectMsgs runs cmd and any batched commands it expands to.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collectMsgs(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func press(m *model, msgs ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func selectMessage(t *testing.T, m *model, id int) {
	t.Helper()
	for i, msg := range m.visible {
		if msg.ID == id {
			m.selected = i
			m.autoScroll = false
			return
		}
	}
	t.Fatalf("message %d not visible", id)
}

func TestMessagesLoaded(t *testing.T) {
	m, _ := loadedModel(t)
	if len(m.visible) != 3 {
		t.Fatalf("visible = %d, want 3", len(m.visible))
	}
	if m.selected != 2 {
		t.Errorf("selected = %d, want newest", m.selected)
	}
	if m.statusMsg != "connected to "+testSite {
		t.Errorf("status = %q", m.statusMsg)
	}
	if !strings.Contains(m.viewport.View(), "Alice") {
		t.Error("viewport should show loaded messages")
	}
}

func TestEnterReplies(t *testing.T) {
	t.Run("stream message", func(t *testing.T) {
		m, _ := loadedModel(t)
		selectMessage(t, m, 1)
		press(m, keyEnter)
		if m.composer.Kind() != composerStream {
			t.Fatalf("kind = %v", m.composer.Kind())
		}
		if m.composer.strm.Value() != "general" || m.composer.topic.Value() != "lunch" {
			t.Errorf("header = %q / %q", m.composer.strm.Value(), m.composer.topic.Value())
		}
		if m.session.Active() != m.composer {
			t.Error("composer should hold editor mode")
		}
	})

	t.Run("private message", func(t *testing.T) {
		m, _ := loadedModel(t)
		press(m, keyEnter)
		if m.composer.Kind() != composerPrivate || m.composer.to.Value() != "Bob@example.com" {
			t.Errorf("kind=%v to=%q", m.composer.Kind(), m.composer.to.Value())
		}
	})

	t.Run("command letters are text in editor mode", func(t *testing.T) {
		m, _ := loadedModel(t)
		selectMessage(t, m, 1)
		press(m, keyEnter, keyRunes("q"), keyRunes("/"))
		if m.streamSearch.Active() || m.msgSearch.Active() {
			t.Error("search should not activate while composing")
		}
		if m.composer.strm.Value() != "generalq/" {
			t.Errorf("stream = %q", m.composer.strm.Value())
		}
	})

	t.Run("go back closes composer", func(t *testing.T) {
		m, _ := loadedModel(t)
		press(m, keyEnter, keyEsc)
		if m.composer.Open() || m.session.InEditorMode() {
			t.Error("composer should be closed")
		}
		if m.focus != focusMessages {
			t.Errorf("focus = %v", m.focus)
		}
	})
}

func TestReplyVariants(t *testing.T) {
	t.Run("mention", func(t *testing.T) {
		m, _ := loadedModel(t)
		selectMessage(t, m, 1)
		press(m, keyRunes("@"))
		if got := m.composer.Body(); got != "@**Alice** " {
			t.Errorf("body = %q", got)
		}
		if m.composer.Focused() != fieldBody {
			t.Error("cursor should be in the body")
		}
	})

	t.Run("quote", func(t *testing.T) {
		m, _ := loadedModel(t)
		selectMessage(t, m, 1)
		press(m, keyRunes(">"))
		if got := m.composer.Body(); got != "```quote\nbody\n```\n" {
			t.Errorf("body = %q", got)
		}
		if m.composer.topic.Value() != "lunch" {
			t.Errorf("topic = %q", m.composer.topic.Value())
		}
	})

	t.Run("reply to author", func(t *testing.T) {
		m, _ := loadedModel(t)
		selectMessage(t, m, 2)
		press(m, keyRunes("R"))
		if m.composer.Kind() != composerPrivate || m.composer.to.Value() != "Bob@example.com" {
			t.Errorf("kind=%v to=%q", m.composer.Kind(), m.composer.to.Value())
		}
	})

	t.Run("new stream message keeps stream only", func(t *testing.T) {
		m, _ := loadedModel(t)
		selectMessage(t, m, 1)
		press(m, keyRunes("c"))
		if m.composer.strm.Value() != "general" || m.composer.topic.Value() != "" {
			t.Errorf("header = %q / %q", m.composer.strm.Value(), m.composer.topic.Value())
		}
	})

	t.Run("new private message focuses recipients", func(t *testing.T) {
		m, _ := loadedModel(t)
		press(m, keyRunes("x"))
		if m.composer.Kind() != composerPrivate || m.composer.Focused() != fieldTo {
			t.Errorf("kind=%v focus=%v", m.composer.Kind(), m.composer.Focused())
		}
	})
}

func TestNarrowing(t *testing.T) {
	m, _ := loadedModel(t)
	selectMessage(t, m, 1)

	press(m, keyRunes("s"))
	if m.narrow.title() != "#general" || len(m.visible) != 1 {
		t.Errorf("stream narrow: title=%q visible=%d", m.narrow.title(), len(m.visible))
	}

	press(m, keyRunes("S"))
	if m.narrow.title() != "#general > lunch" {
		t.Errorf("topic narrow: title=%q", m.narrow.title())
	}

	press(m, keyEsc)
	if m.narrow.kind != narrowAll || len(m.visible) != 3 {
		t.Errorf("go back: kind=%v visible=%d", m.narrow.kind, len(m.visible))
	}

	press(m, keyRunes("P"))
	if len(m.visible) != 1 || m.visible[0].ID != 3 {
		t.Errorf("all private: %+v", m.visible)
	}

	press(m, keyRunes("a"))
	press(m, keyRunes("s"))
	if m.narrow.kind != narrowPrivate || m.narrow.title() != "@Bob" {
		t.Errorf("private narrow: kind=%v title=%q", m.narrow.kind, m.narrow.title())
	}
}

func TestMoveSelection(t *testing.T) {
	m, _ := loadedModel(t)
	press(m, keyRunes("k"), keyRunes("k"), keyRunes("k"))
	if m.selected != 0 {
		t.Errorf("selected = %d, want 0", m.selected)
	}
	if m.autoScroll {
		t.Error("moving away from the newest message should stop auto-scroll")
	}
	press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}
}

func TestMessageSearch(t *testing.T) {
	t.Run("submit queries the server", func(t *testing.T) {
		m, ft := loadedModel(t)
		ft.msgs = []Message{stream(2, base+60, "Bob", "random", "games")}
		press(m, keyRunes("/"), keyRunes("g"), keyRunes("a"), keyRunes("m"), keyRunes("e"))
		if !m.msgSearch.Active() {
			t.Fatal("search should be active")
		}
		cmd := press(m, keyEnter)
		var loaded *messagesLoadedMsg
		for _, msg := range collectMsgs(cmd) {
			if l, ok := msg.(messagesLoadedMsg); ok {
				loaded = &l
			}
		}
		if loaded == nil {
			t.Fatal("expected a search fetch")
		}
		if len(ft.narrows) != 1 || ft.narrows[0][0] != (NarrowTerm{Operator: "search", Operand: "game"}) {
			t.Errorf("narrows = %+v", ft.narrows)
		}
		m.Update(*loaded)
		if m.narrow.kind != narrowSearch || len(m.visible) != 1 || m.visible[0].ID != 2 {
			t.Errorf("search narrow: kind=%v visible=%+v", m.narrow.kind, m.visible)
		}
		if m.statusMsg != `1 results for "game"` {
			t.Errorf("status = %q", m.statusMsg)
		}
	})

	t.Run("hits older than the window stay visible", func(t *testing.T) {
		ft := newFakeTransport()
		m := newTestModel(t, ft)
		m.cfg.MaxMessages = 2
		m.Update(messagesLoadedMsg{msgs: []Message{
			stream(2, base+1000, "Bob", "random", "games"),
			stream(3, base+2000, "Carol", "random", "games"),
		}})
		m.Update(messagesLoadedMsg{
			msgs:   []Message{stream(1, base, "Alice", "general", "old plans")},
			search: "old",
		})
		if len(m.visible) != 1 || m.visible[0].ID != 1 {
			t.Errorf("visible = %+v", m.visible)
		}
		if m.statusMsg != `1 results for "old"` {
			t.Errorf("status = %q", m.statusMsg)
		}
		if len(m.msgs) != 2 || m.msgs[0].ID != 2 {
			t.Errorf("window changed by search: %+v", m.msgs)
		}
	})

	t.Run("empty submit shows everything", func(t *testing.T) {
		m, ft := loadedModel(t)
		m.setNarrow(streamNarrow("general"))
		cmd := press(m, keyRunes("/"), keyEnter)
		if cmd != nil {
			collectMsgs(cmd)
		}
		if len(ft.narrows) != 0 {
			t.Error("empty search should not query the server")
		}
		if m.narrow.kind != narrowAll || len(m.visible) != 3 {
			t.Errorf("kind=%v visible=%d", m.narrow.kind, len(m.visible))
		}
	})

	t.Run("cancel clears query", func(t *testing.T) {
		m, ft := loadedModel(t)
		press(m, keyRunes("/"), keyRunes("z"), keyEsc)
		if m.msgSearch.Query() != "" || m.msgSearch.Active() {
			t.Errorf("query=%q active=%v", m.msgSearch.Query(), m.msgSearch.Active())
		}
		if len(ft.narrows) != 0 || m.narrow.kind != narrowAll {
			t.Error("cancel should not search")
		}
	})
}

func TestListSearchAndSelect(t *testing.T) {
	t.Run("stream search narrows", func(t *testing.T) {
		m, _ := loadedModel(t)
		m.Update(subscriptionsMsg{streams: []Stream{
			{ID: 7, Name: "general", Color: "#a1b2c3"},
			{ID: 8, Name: "random"},
		}})
		press(m, keyRunes("q"), keyRunes("r"), keyRunes("a"), keyRunes("n"))
		if got := visibleNames(m.streamList); len(got) != 1 || got[0] != "random" {
			t.Errorf("live filter = %v", got)
		}
		press(m, keyEnter)
		if m.focus != focusStreams {
			t.Fatalf("focus = %v, want streams", m.focus)
		}
		press(m, keyEnter)
		if m.narrow.title() != "#random" || m.focus != focusMessages {
			t.Errorf("title=%q focus=%v", m.narrow.title(), m.focus)
		}
	})

	t.Run("cancel restores list", func(t *testing.T) {
		m, _ := loadedModel(t)
		m.Update(subscriptionsMsg{streams: []Stream{{ID: 7, Name: "general"}, {ID: 8, Name: "random"}}})
		press(m, keyRunes("q"), keyRunes("r"), keyEsc)
		if len(m.streamList.Visible()) != 2 {
			t.Errorf("visible = %v", visibleNames(m.streamList))
		}
	})

	t.Run("user opens private draft", func(t *testing.T) {
		m, _ := loadedModel(t)
		m.Update(usersMsg{users: []User{{ID: 2, Email: "alice@example.com", FullName: "Alice"}}})
		press(m, keyTab, keyTab)
		if m.focus != focusUsers {
			t.Fatalf("focus = %v, want users", m.focus)
		}
		press(m, keyEnter)
		if m.composer.Kind() != composerPrivate || m.composer.to.Value() != "alice@example.com" {
			t.Errorf("kind=%v to=%q", m.composer.Kind(), m.composer.to.Value())
		}
	})
}

func TestSendFlow(t *testing.T) {
	t.Run("success refetches", func(t *testing.T) {
		m, ft := loadedModel(t)
		ft.msgs = append(ft.msgs, stream(9, base+500, "Me", "general", "lunch"))
		selectMessage(t, m, 1)
		press(m, keyEnter)
		m.composer.SetBody("see you there")
		var result sendResultMsg
		for _, msg := range collectMsgs(press(m, keySend)) {
			if r, ok := msg.(sendResultMsg); ok {
				result = r
			}
		}
		if len(ft.sent) != 1 || ft.sent[0].Content != "see you there" {
			t.Fatalf("sent = %+v", ft.sent)
		}
		_, cmd := m.Update(result)
		if m.statusMsg != "message sent" {
			t.Errorf("status = %q", m.statusMsg)
		}
		if m.composer.Body() != "" {
			t.Errorf("body = %q", m.composer.Body())
		}
		for _, msg := range collectMsgs(cmd) {
			m.Update(msg)
		}
		if m.visible[len(m.visible)-1].ID != 9 {
			t.Error("refetch should bring in the sent message")
		}
	})

	t.Run("refusal keeps draft", func(t *testing.T) {
		m, ft := loadedModel(t)
		ft.sendResp = SendResponse{Result: "error", Msg: "Not subscribed"}
		selectMessage(t, m, 1)
		press(m, keyEnter)
		m.composer.SetBody("hello")
		for _, msg := range collectMsgs(press(m, keySend)) {
			if r, ok := msg.(sendResultMsg); ok {
				m.Update(r)
			}
		}
		if m.statusMsg != "send failed: Not subscribed" || !m.statusErr {
			t.Errorf("status = %q err=%v", m.statusMsg, m.statusErr)
		}
		if m.composer.Body() != "hello" {
			t.Errorf("body = %q", m.composer.Body())
		}
	})
}

func TestOverlays(t *testing.T) {
	t.Run("help", func(t *testing.T) {
		m, _ := loadedModel(t)
		press(m, keyRunes("?"))
		if !strings.Contains(m.helpOverlay, "SEND_MESSAGE") {
			t.Errorf("help overlay = %q", m.helpOverlay)
		}
		press(m, keyRunes("s"))
		if m.helpOverlay != "" {
			t.Error("any key should dismiss the overlay")
		}
		if m.narrow.kind != narrowAll {
			t.Error("dismissing key should not run a command")
		}
	})

	t.Run("link", func(t *testing.T) {
		m, _ := loadedModel(t)
		selectMessage(t, m, 2)
		press(m, keyRunes("L"))
		if !strings.Contains(m.qrOverlay, testSite+"/#narrow/near/2") {
			t.Error("QR overlay should carry the permalink")
		}
		if !strings.Contains(m.View(), "Message 2") {
			t.Error("view should show the overlay")
		}
	})
}

func TestQuitAndTab(t *testing.T) {
	m, _ := loadedModel(t)
	cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}

	press(m, keyTab)
	if m.focus != focusStreams {
		t.Errorf("focus = %v", m.focus)
	}
	press(m, keyTab, keyTab)
	if m.focus != focusMessages {
		t.Errorf("focus = %v", m.focus)
	}
}

func TestMouseClickReplies(t *testing.T) {
	m, _ := loadedModel(t)
	// Row 0 is the title bar; row 1 is the first line of the oldest message.
	m.Update(tea.MouseMsg{X: 60, Y: 1, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if m.selected != 0 {
		t.Errorf("selected = %d, want 0", m.selected)
	}
	if m.composer.Kind() != composerStream || m.composer.topic.Value() != "lunch" {
		t.Errorf("kind=%v topic=%q", m.composer.Kind(), m.composer.topic.Value())
	}
}

func TestOfflineHistory(t *testing.T) {
	dir := t.TempDir()
	appendLogEntry(dir, stream(41, base, "Alice", "general", "lunch"))
	appendLogEntry(dir, private(42, base+10, "Bob", 1, 2))

	on := true
	cfg := Config{Site: testSite, Email: "me@example.com", MaxMessages: 500, Logging: &on, LogDir: dir}
	ft := newFakeTransport()
	ft.fetchErr = errors.New("connection refused")
	m := newModel(cfg, testKeyMap(t), ft, nil, "")
	if m.lastLoggedID != 42 {
		t.Errorf("lastLoggedID = %d, want 42", m.lastLoggedID)
	}
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	for _, msg := range collectMsgs(m.Init()) {
		m.Update(msg)
	}
	if !m.offline || len(m.visible) != 2 {
		t.Fatalf("offline=%v visible=%d", m.offline, len(m.visible))
	}
	if !strings.HasPrefix(m.statusMsg, "offline: showing 2") {
		t.Errorf("status = %q", m.statusMsg)
	}
	if !strings.Contains(m.View(), "offline") {
		t.Error("status bar should show offline")
	}
}

func TestTranscriptLogging(t *testing.T) {
	dir := t.TempDir()
	on := true
	cfg := Config{Site: testSite, Email: "me@example.com", MaxMessages: 500, Logging: &on, LogDir: dir}
	m := newModel(cfg, testKeyMap(t), newFakeTransport(), nil, "")

	batch := []Message{stream(2, base+1, "Bob", "general", "lunch"), stream(1, base, "Alice", "general", "lunch")}
	m.Update(messagesLoadedMsg{msgs: batch})
	// A refetch returns the same messages; nothing new is written.
	m.Update(messagesLoadedMsg{msgs: batch})

	data, err := os.ReadFile(filepath.Join(dir, "stream_general.log"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("transcript has %d lines, want 2", len(lines))
	}
	if m.lastLoggedID != 2 {
		t.Errorf("lastLoggedID = %d", m.lastLoggedID)
	}
}
