package main

import (
	"strings"
	"time"
)

// Presenter style tags.
const (
	StyleBar      = "bar"
	StyleTitle    = "title"
	StyleHeader   = "header"
	StyleCustom   = "custom"
	StyleSelected = "selected"
	StyleName     = "name"
	StyleStarred  = "starred"
	StyleTime     = "time"
)

// messageTimeLayout is minute-granular; two messages show distinct times
// only when this string differs.
const messageTimeLayout = "Mon Jan _2 15:04"

// StreamRegistry resolves per-stream display colours.
type StreamRegistry interface {
	StreamColor(streamID int) (string, bool)
}

// MetaRow is the author / star / time line. Empty fields are rendered blank.
type MetaRow struct {
	Author string
	Star   string
	Time   string
}

// DisplayBlock is a fully assembled message. Nil parts are omitted.
type DisplayBlock struct {
	Header    []Span
	Meta      *MetaRow
	Body      []Span
	Reactions *Span
}

// Presenter builds display blocks for messages.
type Presenter struct {
	Streams   StreamRegistry
	SelfEmail string
	BaseURL   string
	Location  *time.Location
}

func (p *Presenter) formatTime(m Message) string {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	return m.Time().In(loc).Format(messageTimeLayout)
}

// streamColorKey reduces "#rrggbb" to the compact style key "s#rgb".
func streamColorKey(color string) (string, bool) {
	if len(color) != 7 || color[0] != '#' {
		return "", false
	}
	for _, c := range color[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return "", false
		}
	}
	return "s" + color[:2] + string(color[3]) + string(color[5]), true
}

// streamHeader returns nil when prev continues the same stream and topic.
func (p *Presenter) streamHeader(msg Message, prev *Message) []Span {
	if prev != nil && prev.Type == msgTypeStream &&
		prev.Subject == msg.Subject && prev.StreamName == msg.StreamName {
		return nil
	}
	style := StyleBar
	if p.Streams != nil {
		if color, ok := p.Streams.StreamColor(msg.StreamID); ok {
			if key, ok := streamColorKey(color); ok {
				style = key
			}
		}
	}
	return []Span{
		{Style: style, Text: msg.StreamName + " >"},
		{Style: StyleTitle, Text: " " + msg.Subject + " "},
	}
}

// privateHeader returns nil when prev is a private message to the same
// recipient id set.
func (p *Presenter) privateHeader(msg Message, prev *Message) []Span {
	if prev != nil && prev.Type == msgTypePrivate && sameIDs(prev.recipientIDs(), msg.recipientIDs()) {
		return nil
	}
	var names []string
	for _, r := range msg.Recipients {
		if r.Email == p.SelfEmail {
			continue
		}
		names = append(names, r.FullName)
	}
	return []Span{
		{Style: StyleCustom, Text: "Private Messages with"},
		{Style: StyleSelected, Text: ": "},
		{Style: StyleCustom, Text: strings.Join(names, ", ")},
	}
}

// Present assembles the display block for msg given the message shown
// directly above it (nil for the first message).
func (p *Presenter) Present(msg Message, prev *Message) DisplayBlock {
	var block DisplayBlock
	if msg.Type == msgTypeStream {
		block.Header = p.streamHeader(msg, prev)
	} else {
		block.Header = p.privateHeader(msg, prev)
	}

	block.Body = contentToSpans(msg.Content, p.BaseURL)

	// A malformed emoji code drops the reactions row, not the message.
	if span, ok, err := renderReactions(msg.Reactions); err == nil && ok {
		block.Reactions = &span
	}

	starred := msg.IsStarred()
	msgTime := p.formatTime(msg)

	differentTopic := block.Header != nil
	differentAuthor := prev == nil || prev.SenderFullName != msg.SenderFullName
	var apart24h, differentTime, differentStar bool
	if prev != nil {
		// An out-of-order predecessor counts as apart.
		elapsed := msg.Time().Sub(prev.Time())
		apart24h = elapsed < 0 || elapsed >= 24*time.Hour
		differentTime = msgTime != p.formatTime(*prev)
		differentStar = starred != prev.IsStarred()
	} else {
		differentStar = starred
	}

	if !differentTopic && !differentAuthor && !apart24h && !differentTime && !differentStar {
		return block
	}

	meta := &MetaRow{}
	if differentTopic || differentAuthor || apart24h {
		meta.Author = msg.SenderFullName
	}
	if starred {
		meta.Star = "*"
	}
	if differentTopic || differentAuthor || differentTime {
		meta.Time = msgTime
	}
	block.Meta = meta
	return block
}

// presentAll renders a message list with each message compared to the
// one before it.
func (p *Presenter) presentAll(msgs []Message) []DisplayBlock {
	blocks := make([]DisplayBlock, len(msgs))
	for i := range msgs {
		var prev *Message
		if i > 0 {
			prev = &msgs[i-1]
		}
		blocks[i] = p.Present(msgs[i], prev)
	}
	return blocks
}
