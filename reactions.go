package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Reaction types.
const (
	reactionUnicode = "unicode_emoji"
	reactionRealm   = "realm_emoji"
	reactionExtra   = "zulip_extra_emoji"
)

type emojiCount struct {
	Key   string // glyph for unicode emoji, name for custom emoji
	Count int
}

// ReactionSummary holds reaction counts in first-seen order.
type ReactionSummary struct {
	Unicode []emojiCount
	Custom  []emojiCount
}

// Empty reports whether the summary has no entries.
func (s ReactionSummary) Empty() bool {
	return len(s.Unicode) == 0 && len(s.Custom) == 0
}

// String renders "glyph n" entries followed by "name n" entries.
func (s ReactionSummary) String() string {
	parts := make([]string, 0, len(s.Unicode)+len(s.Custom))
	for _, e := range s.Unicode {
		parts = append(parts, fmt.Sprintf("%s %d", e.Key, e.Count))
	}
	for _, e := range s.Custom {
		parts = append(parts, fmt.Sprintf("%s %d", e.Key, e.Count))
	}
	return strings.Join(parts, " ")
}

// decodeEmojiCode turns a hex code point, or a '-'-joined sequence of
// them, into the printable glyph.
func decodeEmojiCode(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("empty emoji code")
	}
	var b strings.Builder
	for _, part := range strings.Split(code, "-") {
		v, err := strconv.ParseUint(part, 16, 32)
		if err != nil {
			return "", fmt.Errorf("emoji code %q: %w", code, err)
		}
		r := rune(v)
		if !utf8.ValidRune(r) {
			return "", fmt.Errorf("emoji code %q: invalid code point %U", code, r)
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// summarizeReactions counts reactions per emoji. Any malformed unicode
// emoji code fails the whole summary.
func summarizeReactions(reactions []Reaction) (ReactionSummary, error) {
	var s ReactionSummary
	unicodeIdx := make(map[string]int)
	customIdx := make(map[string]int)
	for _, r := range reactions {
		switch r.ReactionType {
		case reactionUnicode:
			if i, ok := unicodeIdx[r.EmojiCode]; ok {
				s.Unicode[i].Count++
				continue
			}
			glyph, err := decodeEmojiCode(r.EmojiCode)
			if err != nil {
				return ReactionSummary{}, err
			}
			unicodeIdx[r.EmojiCode] = len(s.Unicode)
			s.Unicode = append(s.Unicode, emojiCount{Key: glyph, Count: 1})
		case reactionRealm, reactionExtra:
			if i, ok := customIdx[r.EmojiName]; ok {
				s.Custom[i].Count++
				continue
			}
			customIdx[r.EmojiName] = len(s.Custom)
			s.Custom = append(s.Custom, emojiCount{Key: r.EmojiName, Count: 1})
		}
	}
	return s, nil
}

// renderReactions returns the emoji span for a reaction list. ok is false
// when there is nothing to show.
func renderReactions(reactions []Reaction) (span Span, ok bool, err error) {
	if len(reactions) == 0 {
		return Span{}, false, nil
	}
	s, err := summarizeReactions(reactions)
	if err != nil {
		return Span{}, false, err
	}
	if s.Empty() {
		return Span{}, false, nil
	}
	return Span{Style: StyleEmoji, Text: s.String()}, true, nil
}
