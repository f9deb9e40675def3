package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftlabs/driftline/internal/config"
)

var setupFlags struct {
	project bool
	force   bool
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create a driftline configuration file",
	Long: `Create a driftline configuration file with sensible defaults.

By default, creates a global config at ~/.config/driftline/driftline.yml.
Use --project to create a project-local config in the current directory.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
}

func runSetup(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := &config.Config{
		Session:  "",
		Author:   "",
		DataDir:  ".driftline",
		LogLevel: "info",
		LogFile:  "",
		Scroll: config.ScrollConfig{
			Intelligent:           true,
			IdleTimeoutMs:         4000,
			ActivityDebounceMs:    100,
			AutoScrollDelayMs:     200,
			GracefulReturnDelayMs: 1500,
			NearBottomLines:       2,
			VelocityThreshold:     6.0,
			GracefulReturn:        "auto",
		},
	}

	var err error
	if setupFlags.project {
		err = config.WriteProject(cfg)
	} else {
		err = config.WriteGlobal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Config written to: %s\n\n", targetPath)
	fmt.Println("Run 'driftline chat' to get started.")

	return nil
}

// fileExists checks if a file exists (helper for setup command).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
