package main

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/driftlabs/driftline/internal/config"
	ierr "github.com/driftlabs/driftline/internal/errors"
	"github.com/driftlabs/driftline/internal/logger"
	"github.com/driftlabs/driftline/internal/nats"
	"github.com/driftlabs/driftline/internal/session"
	"github.com/driftlabs/driftline/internal/tui"
)

var chatFlags struct {
	session      string
	author       string
	dataDir      string
	legacyScroll bool
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat TUI",
	Long: `Open the full-screen chat TUI.

Starts an embedded NATS server backed by the data directory, replays the
session's event log to rebuild the conversation, and subscribes for live
events. Multiple sessions open as tabs; the tab set is restored on the next
start.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatFlags.session, "session", "s", "", "Session name (default: last open tabs, or chat-1)")
	chatCmd.Flags().StringVarP(&chatFlags.author, "author", "a", "", "Author name shown on sent messages (default: $USER)")
	chatCmd.Flags().StringVar(&chatFlags.dataDir, "data-dir", "", "Data directory for NATS storage (default: .driftline)")
	chatCmd.Flags().BoolVar(&chatFlags.legacyScroll, "legacy-scroll", false, "Disable the scroll coordinator and use plain stick-to-bottom")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags win over config and environment.
	if chatFlags.session != "" {
		cfg.Session = chatFlags.session
	}
	if chatFlags.author != "" {
		cfg.Author = chatFlags.author
	}
	if chatFlags.dataDir != "" {
		cfg.DataDir = chatFlags.dataDir
	}
	if chatFlags.legacyScroll {
		cfg.Scroll.Intelligent = false
	}

	applyLogConfig(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ns, err := nats.StartEmbeddedNATS(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("starting embedded NATS: %w", err)
	}
	nc, err := nats.ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return fmt.Errorf("connecting to embedded NATS: %w", err)
	}

	js, err := nats.CreateJetStream(nc)
	if err != nil {
		_ = nats.Shutdown(nc, ns)
		return fmt.Errorf("creating JetStream context: %w", err)
	}
	stream, err := nats.SetupStream(ctx, js)
	if err != nil {
		_ = nats.Shutdown(nc, ns)
		return fmt.Errorf("setting up event stream: %w", err)
	}

	store := session.NewStore(js, stream)

	app := tui.NewApp(ctx, store, cfg, nc)
	p := tea.NewProgram(app)
	_, runErr := p.Run()

	// Cancel before shutdown so the event subscription unwinds cleanly.
	cancel()

	result := &ierr.MultiError{}
	if runErr != nil {
		result.Append(fmt.Errorf("running TUI: %w", runErr))
	}
	result.Append(nats.Shutdown(nc, ns))
	return result.ErrorOrNil()
}

// applyLogConfig pushes config-file log settings into the logger, which
// otherwise only reads environment variables.
func applyLogConfig(cfg *config.Config) {
	if cfg.LogLevel != "" {
		if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
			logger.Default.SetLevel(level)
		}
	}
	if cfg.LogFile != "" && os.Getenv("DRIFTLINE_LOG_FILE") == "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			logger.Default.SetOutput(f)
		}
	}
}
