package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type composerKind int

const (
	composerClosed composerKind = iota
	composerPrivate
	composerStream
)

// composerField is the widget holding the cursor. Private composers use
// fieldTo and fieldBody, stream composers fieldStream, fieldTopic and
// fieldBody.
type composerField int

const (
	fieldTo composerField = iota
	fieldStream
	fieldTopic
	fieldBody
)

// sendResultMsg is returned once the server answered a send.
type sendResultMsg struct {
	seq  int
	req  SendRequest
	resp SendResponse
	err  error
}

// ok reports whether the server accepted the message.
func (m sendResultMsg) ok() bool {
	return m.err == nil && m.resp.Result == "success"
}

// Composer edits an outgoing private or stream message.
type Composer struct {
	kind  composerKind
	to    textinput.Model
	strm  textinput.Model
	topic textinput.Model
	body  textarea.Model
	focus composerField

	// sending is set while a send is outstanding; seq tags each send so a
	// late reply can't clear a newer draft.
	sending bool
	seq     int

	session   *EditorSession
	isCommand CommandMatcher
	transport Transport
}

func newHeaderInput(prompt string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.CharLimit = 200
	return ti
}

func newComposer(session *EditorSession, isCommand CommandMatcher, t Transport) *Composer {
	ta := textarea.New()
	ta.Placeholder = "Write a message..."
	ta.Prompt = ""
	ta.CharLimit = 10000
	ta.ShowLineNumbers = false
	ta.SetHeight(inputMaxHeight / 2)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	return &Composer{
		to:        newHeaderInput("To: "),
		strm:      newHeaderInput("Stream: "),
		topic:     newHeaderInput("Title: "),
		body:      ta,
		session:   session,
		isCommand: isCommand,
		transport: t,
	}
}

func (c *Composer) editorName() string { return "composer" }

// Open reports whether a draft is being edited.
func (c *Composer) Open() bool { return c.kind != composerClosed }

// Kind returns the composer state.
func (c *Composer) Kind() composerKind { return c.kind }

// Focused returns the field holding the cursor.
func (c *Composer) Focused() composerField { return c.focus }

// OpenPrivate starts a private draft to a comma-separated email list with
// the cursor in the body.
func (c *Composer) OpenPrivate(to string) tea.Cmd {
	c.session.Enter(c)
	c.reset()
	c.kind = composerPrivate
	c.to.SetValue(to)
	return c.setFocus(fieldBody)
}

// OpenStream starts a stream draft with the cursor on the stream field.
func (c *Composer) OpenStream(stream, topic string) tea.Cmd {
	c.session.Enter(c)
	c.reset()
	c.kind = composerStream
	c.strm.SetValue(stream)
	c.topic.SetValue(topic)
	return c.setFocus(fieldStream)
}

// SetBody replaces the draft body and moves the cursor to its end.
func (c *Composer) SetBody(text string) tea.Cmd {
	c.body.SetValue(text)
	c.body.CursorEnd()
	return c.setFocus(fieldBody)
}

// Body returns the draft text.
func (c *Composer) Body() string { return c.body.Value() }

// Close discards the draft and leaves editor mode.
func (c *Composer) Close() {
	c.reset()
	c.kind = composerClosed
	// Orphan any in-flight send so its reply cannot touch the next draft.
	c.seq++
	c.sending = false
	c.session.Exit()
}

func (c *Composer) reset() {
	c.to.Reset()
	c.strm.Reset()
	c.topic.Reset()
	c.body.Reset()
}

func (c *Composer) setFocus(f composerField) tea.Cmd {
	c.focus = f
	c.to.Blur()
	c.strm.Blur()
	c.topic.Blur()
	c.body.Blur()
	switch f {
	case fieldTo:
		return c.to.Focus()
	case fieldStream:
		return c.strm.Focus()
	case fieldTopic:
		return c.topic.Focus()
	default:
		return c.body.Focus()
	}
}

// nextField is the TAB cycle: stream, topic, body for stream drafts and
// to, body for private drafts.
func (c *Composer) nextField() composerField {
	if c.kind == composerPrivate {
		if c.focus == fieldBody {
			return fieldTo
		}
		return fieldBody
	}
	switch c.focus {
	case fieldStream:
		return fieldTopic
	case fieldTopic:
		return fieldBody
	default:
		return fieldStream
	}
}

// request builds the outgoing message from the current draft.
func (c *Composer) request() SendRequest {
	if c.kind == composerPrivate {
		return SendRequest{
			Type:    msgTypePrivate,
			To:      c.to.Value(),
			Content: c.body.Value(),
		}
	}
	return SendRequest{
		Type:    msgTypeStream,
		To:      c.strm.Value(),
		Topic:   c.topic.Value(),
		Content: c.body.Value(),
	}
}

// HandleKey processes a key while the composer holds input.
func (c *Composer) HandleKey(msg tea.KeyMsg) tea.Cmd {
	if c.kind == composerClosed {
		return nil
	}
	switch {
	case c.isCommand(CmdSendMessage, msg):
		if c.sending {
			log.Printf("composer: send already in flight, ignoring")
			return nil
		}
		c.sending = true
		c.seq++
		return sendCmd(c.transport, c.seq, c.request())

	case c.isCommand(CmdGoBack, msg):
		c.Close()
		return nil

	case c.isCommand(CmdTab, msg):
		return c.setFocus(c.nextField())
	}

	if msg.Paste && c.transport != nil {
		text := strings.TrimSpace(string(msg.Runes))
		if isFilePath(text) {
			log.Printf("composer: uploading pasted file %s", text)
			return uploadCmd(c.transport, text)
		}
	}

	var cmd tea.Cmd
	switch c.focus {
	case fieldTo:
		c.to, cmd = c.to.Update(msg)
	case fieldStream:
		c.strm, cmd = c.strm.Update(msg)
	case fieldTopic:
		c.topic, cmd = c.topic.Update(msg)
	default:
		c.body, cmd = c.body.Update(msg)
	}
	return cmd
}

// HandleSendResult clears the body when the server accepted the send.
// Failed sends leave the draft untouched.
func (c *Composer) HandleSendResult(msg sendResultMsg) {
	if msg.seq != c.seq {
		return
	}
	c.sending = false
	if msg.ok() && c.kind != composerClosed {
		c.body.Reset()
	}
}

// InsertUpload appends a link to an uploaded file at the cursor.
func (c *Composer) InsertUpload(u uploadMsg) {
	if c.kind == composerClosed {
		return
	}
	c.body.InsertString(u.link())
}

// SetWidth resizes the composer widgets.
func (c *Composer) SetWidth(w int) {
	c.body.SetWidth(w)
	c.to.Width = w - lipgloss.Width(c.to.Prompt) - 1
	half := w / 2
	c.strm.Width = half - lipgloss.Width(c.strm.Prompt) - 2
	c.topic.Width = w - half - lipgloss.Width(c.topic.Prompt) - 1
}

func (c *Composer) View(width int) string {
	if c.kind == composerClosed {
		return ""
	}
	var header string
	if c.kind == composerPrivate {
		header = c.to.View()
	} else {
		half := width / 2
		header = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(half-1).MaxWidth(half-1).Render(c.strm.View()),
			"│",
			lipgloss.NewStyle().Width(width-half).MaxWidth(width-half).Render(c.topic.View()),
		)
	}
	return composerBoxStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, header, c.body.View()))
}

func sendCmd(t Transport, seq int, req SendRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resp, err := t.SendMessage(ctx, req)
		return sendResultMsg{seq: seq, req: req, resp: resp, err: err}
	}
}
