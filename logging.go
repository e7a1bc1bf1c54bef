package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const logTimeLayout = "2006-01-02 15:04:05"

// logTarget records where a logged message was sent.
type logTarget struct {
	StreamID   int         `json:"stream_id,omitempty"`
	Stream     string      `json:"stream,omitempty"`
	Topic      string      `json:"topic,omitempty"`
	Recipients []Recipient `json:"recipients,omitempty"`
}

// escapeContent escapes newlines, tabs and backslashes for single-line log
// storage. Backslash is escaped first to avoid double-escaping.
func escapeContent(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

// unescapeContent reverses escapeContent.
func unescapeContent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		if i+1 < len(s) && s[i] == '\\' {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i += 2
				continue
			case 't':
				b.WriteByte('\t')
				i += 2
				continue
			case '\\':
				b.WriteByte('\\')
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// logFilePath returns the transcript path for a conversation.
// kind is "stream" or "private"; key is the stream name or the recipient
// id list.
func logFilePath(logDir, kind, key string) string {
	safe := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"\t", "_",
		":", "_",
		" ", "_",
		",", "-",
	).Replace(key)
	return filepath.Join(logDir, kind+"_"+safe+".log")
}

// ensureLogDir creates the log directory if it doesn't exist.
func ensureLogDir(logDir string) error {
	return os.MkdirAll(logDir, 0755)
}

// formatLogLine renders msg as one tab-separated line without the newline.
func formatLogLine(msg Message) (string, error) {
	target := logTarget{Recipients: msg.Recipients}
	if msg.Type == msgTypeStream {
		target = logTarget{StreamID: msg.StreamID, Stream: msg.StreamName, Topic: msg.Subject}
	}
	tj, err := json.Marshal(target)
	if err != nil {
		return "", err
	}
	ts := time.Unix(msg.Timestamp, 0).UTC().Format(logTimeLayout)
	return strings.Join([]string{
		ts,
		strconv.Itoa(msg.ID),
		strconv.Itoa(msg.SenderID),
		msg.SenderEmail,
		escapeContent(msg.SenderFullName),
		string(tj),
		escapeContent(msg.Content),
	}, "\t"), nil
}

// appendLogEntry appends a single message to its conversation's log file.
func appendLogEntry(logDir string, msg Message) {
	if logDir == "" {
		return
	}
	if err := ensureLogDir(logDir); err != nil {
		log.Printf("logging: failed to create log dir: %v", err)
		return
	}

	line, err := formatLogLine(msg)
	if err != nil {
		log.Printf("logging: failed to format message %d: %v", msg.ID, err)
		return
	}

	kind, key := msg.conversationKey()
	path := logFilePath(logDir, kind, key)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("logging: failed to open %s: %v", path, err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		log.Printf("logging: failed to write to %s: %v", path, err)
	}
}

// loadLogHistory loads the last maxMessages entries from a conversation's
// log file.
func loadLogHistory(logDir, kind, key string, maxMessages int) ([]Message, error) {
	if logDir == "" {
		return nil, nil
	}
	return loadLogFile(logFilePath(logDir, kind, key), kind, maxMessages)
}

// loadLogFile reads the last maxMessages entries of one transcript using
// backward seeking for efficiency on large files.
func loadLogFile(path, kind string, maxMessages int) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := readLastNLines(f, maxMessages)
	if err != nil {
		return nil, fmt.Errorf("logging: read %s: %w", path, err)
	}

	msgs := make([]Message, 0, len(lines))
	for _, line := range lines {
		msg, err := parseLogLine(line, kind)
		if err != nil {
			log.Printf("logging: skipping malformed line in %s: %v", path, err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// loadOfflineHistory merges every transcript in logDir into one
// timestamp-ordered list of at most maxMessages messages.
func loadOfflineHistory(logDir string, maxMessages int) ([]Message, error) {
	if logDir == "" {
		return nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(logDir, "*.log"))
	if err != nil {
		return nil, err
	}
	var all []Message
	for _, path := range paths {
		base := filepath.Base(path)
		var kind string
		switch {
		case strings.HasPrefix(base, msgTypeStream+"_"):
			kind = msgTypeStream
		case strings.HasPrefix(base, msgTypePrivate+"_"):
			kind = msgTypePrivate
		default:
			continue
		}
		msgs, err := loadLogFile(path, kind, maxMessages)
		if err != nil {
			log.Printf("logging: %v", err)
			continue
		}
		for _, msg := range msgs {
			all = appendMessage(all, msg, maxMessages)
		}
	}
	return all, nil
}

// readLastNLines reads the last n lines from a file by seeking backward.
func readLastNLines(f *os.File, n int) ([]string, error) {
	const chunkSize = 8192

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := stat.Size()
	if size == 0 {
		return nil, nil
	}

	var buf []byte
	offset := size
	linesFound := 0

	for offset > 0 && linesFound <= n {
		readSize := int64(chunkSize)
		if readSize > offset {
			readSize = offset
		}
		offset -= readSize

		chunk := make([]byte, readSize)
		if _, err := f.ReadAt(chunk, offset); err != nil && err != io.EOF {
			return nil, err
		}

		buf = append(chunk, buf...)

		for _, b := range chunk {
			if b == '\n' {
				linesFound++
			}
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(string(buf)))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var allLines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			allLines = append(allLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(allLines) > n {
		allLines = allLines[len(allLines)-n:]
	}
	return allLines, nil
}

// parseLogLine parses a single tab-separated log line into a Message.
func parseLogLine(line, kind string) (Message, error) {
	parts := strings.SplitN(line, "\t", 7)
	if len(parts) < 7 {
		return Message{}, fmt.Errorf("expected 7 tab-separated fields, got %d", len(parts))
	}

	ts, err := time.Parse(logTimeLayout, parts[0])
	if err != nil {
		return Message{}, fmt.Errorf("invalid timestamp %q: %w", parts[0], err)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return Message{}, fmt.Errorf("invalid id %q: %w", parts[1], err)
	}
	senderID, err := strconv.Atoi(parts[2])
	if err != nil {
		return Message{}, fmt.Errorf("invalid sender id %q: %w", parts[2], err)
	}
	var target logTarget
	if err := json.Unmarshal([]byte(parts[5]), &target); err != nil {
		return Message{}, fmt.Errorf("invalid target: %w", err)
	}

	return Message{
		ID:             id,
		Type:           kind,
		SenderID:       senderID,
		SenderEmail:    parts[3],
		SenderFullName: unescapeContent(parts[4]),
		Timestamp:      ts.Unix(),
		Content:        unescapeContent(parts[6]),
		StreamID:       target.StreamID,
		StreamName:     target.Stream,
		Subject:        target.Topic,
		Recipients:     target.Recipients,
	}, nil
}
