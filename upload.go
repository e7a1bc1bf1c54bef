package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// uploadMsg is returned on successful upload.
type uploadMsg struct {
	Name     string
	URI      string
	Size     int64
	MimeType string
}

// uploadErrMsg is returned when the upload fails.
type uploadErrMsg struct{ err error }

func (e uploadErrMsg) Error() string { return e.err.Error() }

// link is the markdown inserted into the composer body.
func (u uploadMsg) link() string {
	return fmt.Sprintf("[%s](%s)", u.Name, u.URI)
}

// uploadCmd uploads a local file through the transport.
func uploadCmd(t Transport, filePath string) tea.Cmd {
	return func() tea.Msg {
		path := expandHome(filePath)

		f, err := os.Open(path)
		if err != nil {
			return uploadErrMsg{fmt.Errorf("read file: %w", err)}
		}
		head := make([]byte, 512)
		n, _ := f.Read(head)
		info, statErr := f.Stat()
		_ = f.Close()
		if statErr != nil {
			return uploadErrMsg{fmt.Errorf("stat file: %w", statErr)}
		}
		mimeType := http.DetectContentType(head[:n])

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		uri, err := t.Upload(ctx, path)
		if err != nil {
			log.Printf("upload: %s failed: %v", path, err)
			return uploadErrMsg{err}
		}
		log.Printf("upload: %s -> %s (%s)", path, uri, mimeType)

		return uploadMsg{
			Name:     filepath.Base(path),
			URI:      uri,
			Size:     info.Size(),
			MimeType: mimeType,
		}
	}
}

// isFilePath checks if a string looks like a file path that exists on disk.
func isFilePath(s string) bool {
	if !strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "~/") {
		return false
	}
	if strings.ContainsRune(s, '\n') {
		return false
	}

	info, err := os.Stat(expandHome(s))
	if err != nil {
		return false
	}
	return !info.IsDir()
}
