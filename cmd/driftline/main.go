package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/driftlabs/driftline/internal/logger"
	"github.com/driftlabs/driftline/internal/tui/theme"
)

const (
	logoText1 = "█▀▄ █▀█ █ █▀▀ ▀█▀ █   █ █▄ █ █▀▀"
	logoText2 = "█▄▀ █▀▄ █ █▀    █  █▄▄ █ █ ▀█ ██▄"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "driftline",
	Short: "Terminal chat client with intelligent scrolling and a send queue",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	// Set Long description with logo
	rootCmd.Long = renderLogo() + `

driftline is a terminal chat client for AI agent sessions. Conversation
history lives in embedded NATS JetStream as an append-only event log, the
transcript follows streaming output through a scroll coordinator that stays
out of the way while you read, and messages typed while the agent is busy
wait in an editable send queue.`

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(doctorCmd)
}
