package main

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Style tags for message bodies.
const (
	StylePlain      = "plain"
	StyleMention    = "mention"
	StyleLink       = "link"
	StyleBlockquote = "blockquote"
	StyleCode       = "code"
	StyleBold       = "bold"
	StyleEmoji      = "emoji"
)

// uploadPrefix marks server-relative upload links.
const uploadPrefix = "/user_uploads/"

// Span is a run of styled text. Blockquote spans carry Children instead
// of Text.
type Span struct {
	Style    string
	Text     string
	Children []Span
}

// htmlNode is either a textNode or an *elementNode.
type htmlNode interface {
	isHTMLNode()
}

type textNode string

type elementNode struct {
	Name     string
	Attrs    map[string]string
	Children []htmlNode
}

func (textNode) isHTMLNode()     {}
func (*elementNode) isHTMLNode() {}

// hasClass reports whether the element's class attribute lists class.
func (e *elementNode) hasClass(class string) bool {
	for _, c := range strings.Fields(e.Attrs["class"]) {
		if c == class {
			return true
		}
	}
	return false
}

// text returns the concatenated text of all descendants.
func (e *elementNode) text() string {
	var b strings.Builder
	var walk func([]htmlNode)
	walk = func(nodes []htmlNode) {
		for _, n := range nodes {
			switch n := n.(type) {
			case textNode:
				b.WriteString(string(n))
			case *elementNode:
				walk(n.Children)
			}
		}
	}
	walk(e.Children)
	return b.String()
}

// parseContent parses an HTML message body into a node list. Content that
// cannot be parsed is returned as a single text node.
func parseContent(content string) []htmlNode {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return []htmlNode{textNode(content)}
	}
	nodes := make([]htmlNode, 0, len(parsed))
	for _, n := range parsed {
		if c := fromHTML(n); c != nil {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

// fromHTML converts a parser node. Comments and doctypes are dropped.
func fromHTML(n *html.Node) htmlNode {
	switch n.Type {
	case html.TextNode:
		return textNode(n.Data)
	case html.ElementNode:
		el := &elementNode{Name: n.Data, Attrs: make(map[string]string, len(n.Attr))}
		for _, a := range n.Attr {
			el.Attrs[a.Key] = a.Val
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				el.Children = append(el.Children, child)
			}
		}
		return el
	}
	return nil
}

// convertNodes turns a parsed body into spans. The result is never empty.
func convertNodes(nodes []htmlNode, baseURL string) []Span {
	spans := appendSpans(nil, nodes, baseURL)
	if len(spans) == 0 {
		return []Span{{Style: StylePlain}}
	}
	return spans
}

func appendSpans(spans []Span, nodes []htmlNode, baseURL string) []Span {
	for _, n := range nodes {
		switch n := n.(type) {
		case textNode:
			spans = append(spans, Span{Style: StylePlain, Text: string(n)})
		case *elementNode:
			spans = appendElement(spans, n, baseURL)
		}
	}
	return spans
}

func appendElement(spans []Span, el *elementNode, baseURL string) []Span {
	switch {
	case el.Name == "div" && el.hasClass("message_embed"):
		// Embedded previews are not rendered.
		return spans
	case el.Name == "span" && (el.hasClass("user-mention") || el.hasClass("user-group-mention")):
		return append(spans, Span{Style: StyleMention, Text: el.text()})
	case el.Name == "a":
		href, ok := el.Attrs["href"]
		if !ok {
			return appendSpans(spans, el.Children, baseURL)
		}
		text := el.text()
		link := href
		if strings.HasPrefix(link, uploadPrefix) {
			link = strings.TrimRight(baseURL, "/") + link
		}
		if text == href {
			return append(spans, Span{Style: StylePlain, Text: link})
		}
		return append(spans, Span{Style: StyleLink, Text: "[" + text + "](" + link + ")"})
	case el.Name == "blockquote":
		return append(spans, Span{Style: StyleBlockquote, Children: convertNodes(el.Children, baseURL)})
	case el.Name == "code", el.Name == "div" && el.hasClass("codehilite"):
		return append(spans, Span{Style: StyleCode, Text: el.text()})
	case el.Name == "strong":
		return append(spans, Span{Style: StyleBold, Text: el.text()})
	case el.Name == "ul":
		// TODO: preserve nested list structure instead of flattening.
		return append(spans, Span{Style: StylePlain, Text: el.text()})
	}
	return appendSpans(spans, el.Children, baseURL)
}

// contentToSpans parses and converts an HTML message body.
func contentToSpans(content, baseURL string) []Span {
	return convertNodes(parseContent(content), baseURL)
}

// spansText flattens spans to their plain text.
func spansText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Children != nil {
			b.WriteString(spansText(s.Children))
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
