package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configFlag := flag.String("config", "", "path to config file")
	debugFlag := flag.Bool("debug", false, "enable debug logging to debug.log")
	flag.Parse()

	if *debugFlag {
		f, err := tea.LogToFile("debug.log", "zterm")
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.Println("debug logging enabled")
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v (see %s)\n", err, configPath(*configFlag))
		os.Exit(1)
	}
	log.Printf("config loaded: site=%s email=%s", cfg.Site, cfg.Email)

	keys, err := newKeyMap(cfg.Keys)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Detect the glamour style before the TUI starts so the terminal
	// background-color query (OSC 11) completes while stdio is still normal.
	mdStyle := detectGlamourStyle()
	mdRender := newMarkdownRenderer(mdStyle, 80)

	client := newZulipClient(cfg.Site, cfg.Email, cfg.APIKey)

	m := newModel(cfg, keys, client, mdRender, mdStyle)

	log.Println("starting TUI")
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
