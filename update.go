package main

import (
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case messagesLoadedMsg:
		return m.handleMessagesLoaded(msg)
	case subscriptionsMsg:
		return m.handleSubscriptions(msg)
	case usersMsg:
		return m.handleUsers(msg)
	case sendResultMsg:
		return m.handleSendResult(msg)
	case uploadMsg:
		return m.handleUpload(msg)
	case uploadErrMsg:
		return m.handleUploadErr(msg)
	case zulipErrMsg:
		return m.handleZulipErr(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	log.Printf("WindowSizeMsg: %dx%d", msg.Width, msg.Height)
	m.width = msg.Width
	m.height = msg.Height
	m.updateLayout()
	return m, tea.ClearScreen
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.ScrollUp(3)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.viewport.ScrollDown(3)
		return m, nil
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress || m.session.InEditorMode() {
			return m, nil
		}
		left, right := m.panelWidths()
		switch {
		case msg.X < left:
			if i, ok := m.streamList.itemAt(msg.Y - 1); ok {
				m.focus = focusStreams
				m.streamList.cursor = i
				return m.selectListItem()
			}
		case msg.X >= m.width-right:
			if i, ok := m.userList.itemAt(msg.Y - 1); ok {
				m.focus = focusUsers
				m.userList.cursor = i
				return m.selectListItem()
			}
		default:
			if idx, ok := m.messageAt(msg.Y); ok {
				m.focus = focusMessages
				m.selected = idx
				m.autoScroll = false
				m.updateViewport()
				return m.replyToFocused()
			}
		}
	}
	return m, nil
}

func (m *model) handleMessagesLoaded(msg messagesLoadedMsg) (tea.Model, tea.Cmd) {
	log.Printf("messagesLoadedMsg: %d messages (search=%q)", len(msg.msgs), msg.search)
	m.loaded = true
	m.offline = false
	m.logNewMessages(msg.msgs)
	if msg.search != "" {
		// Hits live outside the capped window so old results stay visible.
		m.searchResults = mergeMessages(nil, msg.msgs, 0)
		m.searchHits = make(map[int]bool, len(msg.msgs))
		for _, hit := range msg.msgs {
			m.searchHits[hit.ID] = true
		}
		m.narrow = searchNarrow(msg.search)
		m.autoScroll = true
		m.setStatus(fmt.Sprintf("%d results for %q", len(msg.msgs), msg.search), false)
	} else {
		m.msgs = mergeMessages(m.msgs, msg.msgs, m.cfg.MaxMessages)
		m.setStatus(fmt.Sprintf("connected to %s", m.cfg.Site), false)
	}
	m.updateViewport()
	return m, nil
}

func (m *model) handleSubscriptions(msg subscriptionsMsg) (tea.Model, tea.Cmd) {
	log.Printf("subscriptionsMsg: %d streams", len(msg.streams))
	for id := range m.streams {
		delete(m.streams, id)
	}
	items := make([]ListItem, 0, len(msg.streams))
	for _, s := range msg.streams {
		m.streams[s.ID] = s
		items = append(items, StreamItem{Stream: s})
	}
	m.streamList.SetItems(items)
	m.updateLayout()
	return m, nil
}

func (m *model) handleUsers(msg usersMsg) (tea.Model, tea.Cmd) {
	log.Printf("usersMsg: %d users", len(msg.users))
	m.users = msg.users
	items := make([]ListItem, 0, len(msg.users))
	for _, u := range msg.users {
		items = append(items, UserItem{User: u})
	}
	m.userList.SetItems(items)
	m.updateLayout()
	return m, nil
}

func (m *model) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	m.composer.HandleSendResult(msg)
	if msg.err != nil {
		log.Printf("sendResultMsg: %v", msg.err)
		m.setStatus("send failed: "+msg.err.Error(), true)
		return m, nil
	}
	if !msg.ok() {
		log.Printf("sendResultMsg: server refused: %s", msg.resp.Msg)
		m.setStatus("send failed: "+msg.resp.Msg, true)
		return m, nil
	}
	log.Printf("sendResultMsg: sent id=%d to %s", msg.resp.ID, msg.req.To)
	m.setStatus("message sent", false)
	m.autoScroll = true
	return m, fetchMessagesCmd(m.transport, nil, m.cfg.MaxMessages, "")
}

func (m *model) handleUpload(msg uploadMsg) (tea.Model, tea.Cmd) {
	log.Printf("uploadMsg: %s -> %s", msg.Name, msg.URI)
	m.composer.InsertUpload(msg)
	m.setStatus(fmt.Sprintf("uploaded %s (%s, %d bytes)", msg.Name, msg.MimeType, msg.Size), false)
	return m, nil
}

func (m *model) handleUploadErr(msg uploadErrMsg) (tea.Model, tea.Cmd) {
	log.Printf("uploadErrMsg: %v", msg)
	m.setStatus("upload failed: "+msg.Error(), true)
	return m, nil
}

func (m *model) handleZulipErr(msg zulipErrMsg) (tea.Model, tea.Cmd) {
	log.Printf("zulipErrMsg: %v", msg)
	m.setStatus(msg.Error(), true)
	if msg.op == "fetch messages" && !m.loaded {
		m.loadOffline()
	}
	return m, nil
}

// loadOffline shows transcript history when the server is unreachable at
// startup.
func (m *model) loadOffline() {
	if !m.cfg.LoggingEnabled() {
		return
	}
	history, err := loadOfflineHistory(m.cfg.LogDir, m.cfg.MaxMessages)
	if err != nil {
		log.Printf("loadOffline: %v", err)
		return
	}
	m.offline = true
	m.loaded = true
	m.msgs = history
	m.setStatus(fmt.Sprintf("offline: showing %d logged messages", len(history)), true)
	m.updateViewport()
}

func (m *model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.keys.Is(CmdQuit, msg) {
		return m, tea.Quit
	}

	// Dismiss overlays on any key.
	if m.qrOverlay != "" || m.helpOverlay != "" {
		m.qrOverlay = ""
		m.helpOverlay = ""
		return m, nil
	}

	switch m.session.Active() {
	case m.composer:
		cmd := m.composer.HandleKey(msg)
		if !m.composer.Open() {
			m.focus = focusMessages
		}
		m.updateLayout()
		return m, cmd
	case m.msgSearch:
		return m.handleSearchKey(m.msgSearch, msg)
	case m.streamSearch:
		return m.handleSearchKey(m.streamSearch, msg)
	case m.userSearch:
		return m.handleSearchKey(m.userSearch, msg)
	}

	switch {
	case m.keys.Is(CmdHelp, msg):
		m.helpOverlay = renderMarkdown(m.helpRenderer(), m.keys.helpMarkdown())
		return m, nil
	case m.keys.Is(CmdSearchMessages, msg):
		return m.activateSearch(m.msgSearch, focusMessages)
	case m.keys.Is(CmdSearchStreams, msg):
		return m.activateSearch(m.streamSearch, focusStreams)
	case m.keys.Is(CmdSearchPeople, msg):
		return m.activateSearch(m.userSearch, focusUsers)
	case m.keys.Is(CmdRefresh, msg):
		m.setStatus("refreshing...", false)
		return m, tea.Batch(
			fetchSubscriptionsCmd(m.transport),
			fetchUsersCmd(m.transport),
			fetchMessagesCmd(m.transport, nil, m.cfg.MaxMessages, ""),
		)
	case m.keys.Is(CmdTab, msg):
		m.focus = (m.focus + 1) % 3
		return m, nil
	}

	switch m.focus {
	case focusStreams, focusUsers:
		return m.handleListKey(msg)
	}
	return m.handleMessageKey(msg)
}

func (m *model) activateSearch(box *SearchBox, pane focusPane) (tea.Model, tea.Cmd) {
	cmd, ok := box.Activate()
	if !ok {
		return m, nil
	}
	m.focus = pane
	return m, cmd
}

// handleSearchKey feeds a key to an active search box and applies the
// outcome: live filtering for list searches, a server search for messages.
func (m *model) handleSearchKey(box *SearchBox, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	outcome, cmd := box.HandleKey(msg)

	var list *ListPanel
	switch box.variant {
	case searchStreams:
		list = m.streamList
	case searchUsers:
		list = m.userList
	}
	if list != nil {
		list.SetFilter(box.Query())
	}

	switch outcome {
	case searchSubmitted:
		log.Printf("search %s submitted: %q", box.variant, box.Query())
		if list != nil {
			if box.variant == searchStreams {
				list.SelectFirst()
			}
			return m, cmd
		}
		m.focus = focusMessages
		q := box.Query()
		m.searchHits = make(map[int]bool)
		m.searchResults = nil
		if q == "" {
			m.setNarrow(narrow{})
			return m, cmd
		}
		m.setStatus(fmt.Sprintf("searching for %q...", q), false)
		return m, tea.Batch(cmd, fetchMessagesCmd(m.transport, searchNarrow(q).terms(), m.cfg.MaxMessages, q))

	case searchCancelled:
		log.Printf("search %s cancelled", box.variant)
		if list != nil {
			list.Escape()
		} else {
			m.focus = focusMessages
		}
	}
	return m, cmd
}

func (m *model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.streamList
	if m.focus == focusUsers {
		list = m.userList
	}
	switch {
	case m.keys.Is(CmdUp, msg):
		list.Up()
	case m.keys.Is(CmdDown, msg):
		list.Down()
	case m.keys.Is(CmdEnter, msg):
		return m.selectListItem()
	case m.keys.Is(CmdGoBack, msg):
		list.Escape()
		m.focus = focusMessages
	}
	return m, nil
}

// selectListItem acts on the item under the list cursor: a stream narrows
// the message list, a user opens a private draft to them.
func (m *model) selectListItem() (tea.Model, tea.Cmd) {
	list := m.streamList
	if m.focus == focusUsers {
		list = m.userList
	}
	item, ok := list.Selected()
	if !ok {
		return m, nil
	}
	m.focus = focusMessages
	switch it := item.(type) {
	case StreamItem:
		m.setNarrow(streamNarrow(it.Stream.Name))
		return m, nil
	case UserItem:
		cmd := m.composer.OpenPrivate(it.User.Email)
		m.updateLayout()
		return m, cmd
	}
	return m, nil
}
