package main

import "strings"

type narrowKind int

const (
	narrowAll narrowKind = iota
	narrowStream
	narrowTopic
	narrowPrivate // one private conversation
	narrowAllPM
	narrowSearch
)

// narrow selects which loaded messages are shown.
type narrow struct {
	kind       narrowKind
	stream     string
	topic      string
	recipients []int // sorted id set for narrowPrivate
	names      string
	query      string
}

func streamNarrow(stream string) narrow { return narrow{kind: narrowStream, stream: stream} }

func topicNarrow(stream, topic string) narrow {
	return narrow{kind: narrowTopic, stream: stream, topic: topic}
}

func searchNarrow(query string) narrow { return narrow{kind: narrowSearch, query: query} }

// privateNarrow narrows to the conversation msg belongs to.
func privateNarrow(msg Message, selfEmail string) narrow {
	var names []string
	for _, r := range msg.Recipients {
		if r.Email != selfEmail {
			names = append(names, r.FullName)
		}
	}
	return narrow{kind: narrowPrivate, recipients: msg.recipientIDs(), names: strings.Join(names, ", ")}
}

// matches reports whether msg is visible under n. hits holds the ids
// returned by the last server-side search.
func (n narrow) matches(msg Message, hits map[int]bool) bool {
	switch n.kind {
	case narrowStream:
		return msg.Type == msgTypeStream && msg.StreamName == n.stream
	case narrowTopic:
		return msg.Type == msgTypeStream && msg.StreamName == n.stream && msg.Subject == n.topic
	case narrowPrivate:
		return msg.Type == msgTypePrivate && sameIDs(msg.recipientIDs(), n.recipients)
	case narrowAllPM:
		return msg.Type == msgTypePrivate
	case narrowSearch:
		return hits[msg.ID]
	default:
		return true
	}
}

// filter returns the messages of msgs visible under n.
func (n narrow) filter(msgs []Message, hits map[int]bool) []Message {
	if n.kind == narrowAll {
		return msgs
	}
	var out []Message
	for _, msg := range msgs {
		if n.matches(msg, hits) {
			out = append(out, msg)
		}
	}
	return out
}

// terms is the server-side query for n.
func (n narrow) terms() []NarrowTerm {
	switch n.kind {
	case narrowStream:
		return []NarrowTerm{{Operator: "stream", Operand: n.stream}}
	case narrowTopic:
		return []NarrowTerm{{Operator: "stream", Operand: n.stream}, {Operator: "topic", Operand: n.topic}}
	case narrowAllPM:
		return []NarrowTerm{{Operator: "is", Operand: "private"}}
	case narrowSearch:
		return []NarrowTerm{{Operator: "search", Operand: n.query}}
	}
	return nil
}

// title is shown above the message list.
func (n narrow) title() string {
	switch n.kind {
	case narrowStream:
		return "#" + n.stream
	case narrowTopic:
		return "#" + n.stream + " > " + n.topic
	case narrowPrivate:
		return "@" + n.names
	case narrowAllPM:
		return "All private messages"
	case narrowSearch:
		return "Search: " + n.query
	default:
		return "All messages"
	}
}
