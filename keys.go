package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Logical commands. The key strings bound to them come from the config.
const (
	CmdSendMessage    = "SEND_MESSAGE"
	CmdGoBack         = "GO_BACK"
	CmdTab            = "TAB"
	CmdEnter          = "ENTER"
	CmdStreamMessage  = "STREAM_MESSAGE"
	CmdStreamNarrow   = "STREAM_NARROW"
	CmdTopicNarrow    = "TOPIC_NARROW"
	CmdReplyAuthor    = "REPLY_AUTHOR"
	CmdAllPM          = "ALL_PM"
	CmdMentionReply   = "MENTION_REPLY"
	CmdQuoteReply     = "QUOTE_REPLY"
	CmdPrivateMessage = "PRIVATE_MESSAGE"
	CmdAllMessages    = "ALL_MESSAGES"
	CmdSearchMessages = "SEARCH_MESSAGES"
	CmdSearchPeople   = "SEARCH_PEOPLE"
	CmdSearchStreams  = "SEARCH_STREAMS"
	CmdShowLink       = "SHOW_LINK"
	CmdHelp           = "HELP"
	CmdRefresh        = "REFRESH"
	CmdUp             = "UP"
	CmdDown           = "DOWN"
	CmdQuit           = "QUIT"
)

type defaultBinding struct {
	keys []string
	help string
}

var defaultBindings = map[string]defaultBinding{
	CmdSendMessage:    {[]string{"alt+enter", "ctrl+d"}, "send the message"},
	CmdGoBack:         {[]string{"esc"}, "go back / cancel"},
	CmdTab:            {[]string{"tab"}, "switch field"},
	CmdEnter:          {[]string{"enter"}, "reply to the focused message"},
	CmdStreamMessage:  {[]string{"c"}, "new message to the stream"},
	CmdStreamNarrow:   {[]string{"s"}, "narrow to the stream"},
	CmdTopicNarrow:    {[]string{"S"}, "narrow to the topic"},
	CmdReplyAuthor:    {[]string{"R"}, "reply privately to the author"},
	CmdAllPM:          {[]string{"P"}, "show all private messages"},
	CmdMentionReply:   {[]string{"@"}, "reply mentioning the author"},
	CmdQuoteReply:     {[]string{">"}, "reply quoting the message"},
	CmdPrivateMessage: {[]string{"x"}, "new private message"},
	CmdAllMessages:    {[]string{"a"}, "show all messages"},
	CmdSearchMessages: {[]string{"/"}, "search messages"},
	CmdSearchPeople:   {[]string{"w"}, "search people"},
	CmdSearchStreams:  {[]string{"q"}, "search streams"},
	CmdShowLink:       {[]string{"L"}, "show a QR code of the message link"},
	CmdHelp:           {[]string{"?"}, "show this help"},
	CmdRefresh:        {[]string{"ctrl+r"}, "reload messages"},
	CmdUp:             {[]string{"up", "k"}, "previous message"},
	CmdDown:           {[]string{"down", "j"}, "next message"},
	CmdQuit:           {[]string{"ctrl+c"}, "quit"},
}

// CommandMatcher reports whether a keypress satisfies a logical command.
type CommandMatcher func(cmd string, msg tea.KeyMsg) bool

// KeyMap binds logical commands to keys.
type KeyMap map[string]key.Binding

// newKeyMap builds the default key map with overrides applied. Unknown
// command names in overrides are an error.
func newKeyMap(overrides map[string][]string) (KeyMap, error) {
	km := make(KeyMap, len(defaultBindings))
	for cmd, d := range defaultBindings {
		km[cmd] = key.NewBinding(key.WithKeys(d.keys...), key.WithHelp(d.keys[0], d.help))
	}
	for cmd, keys := range overrides {
		d, ok := defaultBindings[cmd]
		if !ok {
			return nil, fmt.Errorf("keys: unknown command %q", cmd)
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("keys: %s has no keys", cmd)
		}
		km[cmd] = key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], d.help))
	}
	return km, nil
}

// Is reports whether msg is bound to cmd.
func (k KeyMap) Is(cmd string, msg tea.KeyMsg) bool {
	b, ok := k[cmd]
	return ok && key.Matches(msg, b)
}

// helpMarkdown renders the key map as a markdown table.
func (k KeyMap) helpMarkdown() string {
	cmds := make([]string, 0, len(k))
	for cmd := range k {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	s := "# Keys\n\n| Key | Command | Action |\n|---|---|---|\n"
	for _, cmd := range cmds {
		h := k[cmd].Help()
		s += fmt.Sprintf("| `%s` | %s | %s |\n", h.Key, cmd, h.Desc)
	}
	return s
}
