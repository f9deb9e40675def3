package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftlabs/driftline/internal/config"
	"github.com/driftlabs/driftline/internal/nats"
)

var doctorFlags struct {
	dataDir string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that driftline can run in this environment",
	Long: `Check that driftline can run in this environment.

Verifies the configuration, the data directory, and that the embedded NATS
server with JetStream starts and accepts an in-process connection.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFlags.dataDir, "data-dir", "", "Data directory to check (default: from config)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	failed := 0
	check := func(name string, err error) {
		if err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", name, err)
			return
		}
		fmt.Printf("✓ %s\n", name)
	}

	cfg, err := config.Load()
	check("config loads", err)
	if err != nil {
		cfg = &config.Config{DataDir: ".driftline"}
	}
	if config.Exists() {
		fmt.Printf("  using config: global=%s project=%s\n", config.GlobalPath(), config.ProjectPath())
	} else {
		fmt.Println("  no config file found, using defaults (run 'driftline setup')")
	}

	dataDir := cfg.DataDir
	if doctorFlags.dataDir != "" {
		dataDir = doctorFlags.dataDir
	}
	check("data directory writable", checkWritable(dataDir))

	check("embedded NATS with JetStream", checkNATS(dataDir))

	if editor := os.Getenv("EDITOR"); editor == "" {
		fmt.Println("  note: $EDITOR not set, ctrl+e draft editing will use the fallback editor")
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

// checkWritable creates the directory if needed and writes a probe file.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("writing to %s: %w", dir, err)
	}
	return os.Remove(probe)
}

// checkNATS starts the embedded server, connects in-process, and sets up the
// event stream, then tears everything down.
func checkNATS(dataDir string) error {
	ns, err := nats.StartEmbeddedNATS(dataDir)
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	nc, err := nats.ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return fmt.Errorf("connecting: %w", err)
	}
	defer func() { _ = nats.Shutdown(nc, ns) }()

	js, err := nats.CreateJetStream(nc)
	if err != nil {
		return fmt.Errorf("JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := nats.SetupStream(ctx, js); err != nil {
		return fmt.Errorf("event stream: %w", err)
	}
	return nil
}
