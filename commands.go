package main

import (
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// handleMessageKey runs message list commands on the focused message.
func (m *model) handleMessageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.keys.Is(CmdUp, msg):
		m.moveSelection(-1)
		return m, nil
	case m.keys.Is(CmdDown, msg):
		m.moveSelection(1)
		return m, nil
	case m.keys.Is(CmdGoBack, msg), m.keys.Is(CmdAllMessages, msg):
		m.setNarrow(narrow{})
		return m, nil
	case m.keys.Is(CmdAllPM, msg):
		m.setNarrow(narrow{kind: narrowAllPM})
		return m, nil
	case m.keys.Is(CmdPrivateMessage, msg):
		cmd := m.composer.OpenPrivate("")
		cmd = tea.Batch(cmd, m.composer.setFocus(fieldTo))
		m.updateLayout()
		return m, cmd
	}

	focused, ok := m.focusedMessage()
	if !ok {
		if m.keys.Is(CmdStreamMessage, msg) {
			cmd := m.composer.OpenStream("", "")
			m.updateLayout()
			return m, cmd
		}
		return m, nil
	}

	switch {
	case m.keys.Is(CmdEnter, msg):
		return m.replyToFocused()

	case m.keys.Is(CmdStreamMessage, msg):
		var cmd tea.Cmd
		if focused.Type == msgTypeStream {
			cmd = m.composer.OpenStream(focused.StreamName, "")
		} else {
			cmd = m.composer.OpenPrivate(m.replyRecipients(focused))
		}
		m.updateLayout()
		return m, cmd

	case m.keys.Is(CmdStreamNarrow, msg):
		if focused.Type == msgTypeStream {
			m.setNarrow(streamNarrow(focused.StreamName))
		} else {
			m.setNarrow(privateNarrow(focused, m.cfg.Email))
		}
		return m, nil

	case m.keys.Is(CmdTopicNarrow, msg):
		if focused.Type == msgTypeStream {
			m.setNarrow(topicNarrow(focused.StreamName, focused.Subject))
		} else {
			m.setNarrow(privateNarrow(focused, m.cfg.Email))
		}
		return m, nil

	case m.keys.Is(CmdReplyAuthor, msg):
		cmd := m.composer.OpenPrivate(focused.SenderEmail)
		m.updateLayout()
		return m, cmd

	case m.keys.Is(CmdMentionReply, msg):
		_, cmd := m.replyToFocused()
		return m, tea.Batch(cmd, m.composer.SetBody("@**"+focused.SenderFullName+"** "))

	case m.keys.Is(CmdQuoteReply, msg):
		_, cmd := m.replyToFocused()
		text := spansText(contentToSpans(focused.Content, m.cfg.Site))
		quote := "```quote\n" + strings.TrimSpace(text) + "\n```\n"
		return m, tea.Batch(cmd, m.composer.SetBody(quote))

	case m.keys.Is(CmdShowLink, msg):
		link := m.permalink(focused)
		log.Printf("show link: %s", link)
		m.qrOverlay = renderQR(fmt.Sprintf("Message %d", focused.ID), link)
		return m, nil
	}
	return m, nil
}

// replyRecipients lists the people a private reply goes to. A note to
// self replies to self.
func (m *model) replyRecipients(msg Message) string {
	if to := msg.recipientEmails(m.cfg.Email); to != "" {
		return to
	}
	return msg.SenderEmail
}

// replyToFocused opens a draft answering the focused message in place.
func (m *model) replyToFocused() (tea.Model, tea.Cmd) {
	focused, ok := m.focusedMessage()
	if !ok {
		return m, nil
	}
	var cmd tea.Cmd
	if focused.Type == msgTypeStream {
		cmd = m.composer.OpenStream(focused.StreamName, focused.Subject)
	} else {
		cmd = m.composer.OpenPrivate(m.replyRecipients(focused))
	}
	m.updateLayout()
	return m, cmd
}

// moveSelection moves the focused message by delta and keeps it on screen.
func (m *model) moveSelection(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	m.autoScroll = m.selected == len(m.visible)-1
	m.updateViewport()
}
