package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Message types as sent by the server.
const (
	msgTypeStream  = "stream"
	msgTypePrivate = "private"
)

// Recipient is one participant of a private conversation.
type Recipient struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Reaction is a single emoji reaction by one user.
type Reaction struct {
	ReactionType string `json:"reaction_type"`
	EmojiCode    string `json:"emoji_code"`
	EmojiName    string `json:"emoji_name"`
	UserID       int    `json:"user_id"`
}

// Message is an immutable message record as delivered by the server.
// Stream messages carry StreamID/StreamName/Subject, private messages
// carry Recipients.
type Message struct {
	ID             int
	Type           string
	SenderID       int
	SenderEmail    string
	SenderFullName string
	Timestamp      int64
	Content        string
	Flags          []string
	Reactions      []Reaction

	StreamID   int
	StreamName string
	Subject    string

	Recipients []Recipient
}

// wireMessage mirrors the JSON shape. display_recipient is a string for
// stream messages and a list of users for private messages.
type wireMessage struct {
	ID               int             `json:"id"`
	Type             string          `json:"type"`
	SenderID         int             `json:"sender_id"`
	SenderEmail      string          `json:"sender_email"`
	SenderFullName   string          `json:"sender_full_name"`
	Timestamp        int64           `json:"timestamp"`
	Content          string          `json:"content"`
	Flags            []string        `json:"flags"`
	Reactions        []Reaction      `json:"reactions"`
	StreamID         int             `json:"stream_id,omitempty"`
	Subject          string          `json:"subject"`
	DisplayRecipient json.RawMessage `json:"display_recipient"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Message{
		ID:             w.ID,
		Type:           w.Type,
		SenderID:       w.SenderID,
		SenderEmail:    w.SenderEmail,
		SenderFullName: w.SenderFullName,
		Timestamp:      w.Timestamp,
		Content:        w.Content,
		Flags:          w.Flags,
		Reactions:      w.Reactions,
		StreamID:       w.StreamID,
		Subject:        w.Subject,
	}
	if len(w.DisplayRecipient) == 0 {
		return nil
	}
	switch w.Type {
	case msgTypeStream:
		if err := json.Unmarshal(w.DisplayRecipient, &m.StreamName); err != nil {
			return fmt.Errorf("message %d: stream display_recipient: %w", w.ID, err)
		}
	case msgTypePrivate:
		if err := json.Unmarshal(w.DisplayRecipient, &m.Recipients); err != nil {
			return fmt.Errorf("message %d: private display_recipient: %w", w.ID, err)
		}
	}
	return nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		ID:             m.ID,
		Type:           m.Type,
		SenderID:       m.SenderID,
		SenderEmail:    m.SenderEmail,
		SenderFullName: m.SenderFullName,
		Timestamp:      m.Timestamp,
		Content:        m.Content,
		Flags:          m.Flags,
		Reactions:      m.Reactions,
		StreamID:       m.StreamID,
		Subject:        m.Subject,
	}
	var err error
	if m.Type == msgTypeStream {
		w.DisplayRecipient, err = json.Marshal(m.StreamName)
	} else {
		w.DisplayRecipient, err = json.Marshal(m.Recipients)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// IsStarred reports whether the message carries the starred flag.
func (m Message) IsStarred() bool {
	return containsStr(m.Flags, "starred")
}

// Time returns the message timestamp as a time.Time.
func (m Message) Time() time.Time {
	return time.Unix(m.Timestamp, 0)
}

// recipientIDs returns the sorted recipient id set of a private message.
func (m Message) recipientIDs() []int {
	ids := make([]int, 0, len(m.Recipients))
	seen := make(map[int]bool, len(m.Recipients))
	for _, r := range m.Recipients {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		ids = append(ids, r.ID)
	}
	sort.Ints(ids)
	return ids
}

// recipientEmails returns the recipient emails except selfEmail, comma-joined.
func (m Message) recipientEmails(selfEmail string) string {
	var emails []string
	for _, r := range m.Recipients {
		if r.Email == selfEmail {
			continue
		}
		emails = append(emails, r.Email)
	}
	return strings.Join(emails, ", ")
}

// conversationKey identifies the conversation a message belongs to: the
// stream name for stream messages, the recipient id set for private ones.
func (m Message) conversationKey() (kind, key string) {
	if m.Type == msgTypeStream {
		return msgTypeStream, m.StreamName
	}
	ids := m.recipientIDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return msgTypePrivate, strings.Join(parts, ",")
}

func sameIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// appendMessage inserts msg in timestamp order and caps the list at maxMessages.
func appendMessage(msgs []Message, msg Message, maxMessages int) []Message {
	i := len(msgs)
	for i > 0 && msgs[i-1].Timestamp > msg.Timestamp {
		i--
	}
	msgs = append(msgs, Message{})
	copy(msgs[i+1:], msgs[i:])
	msgs[i] = msg
	if maxMessages > 0 && len(msgs) > maxMessages {
		msgs = msgs[len(msgs)-maxMessages:]
	}
	return msgs
}

func containsStr(sl []string, s string) bool {
	for _, v := range sl {
		if v == s {
			return true
		}
	}
	return false
}

// mergeMessages adds incoming to msgs, replacing messages with the same id
// so edits and new reactions show up.
func mergeMessages(msgs, incoming []Message, maxMessages int) []Message {
	index := make(map[int]int, len(msgs))
	for i, m := range msgs {
		index[m.ID] = i
	}
	for _, m := range incoming {
		if i, ok := index[m.ID]; ok {
			msgs[i] = m
			continue
		}
		index[m.ID] = len(msgs)
		msgs = append(msgs, m)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Timestamp != msgs[j].Timestamp {
			return msgs[i].Timestamp < msgs[j].Timestamp
		}
		return msgs[i].ID < msgs[j].ID
	})
	if maxMessages > 0 && len(msgs) > maxMessages {
		msgs = msgs[len(msgs)-maxMessages:]
	}
	return msgs
}
