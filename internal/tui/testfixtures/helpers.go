// Package testfixtures holds shared helpers for rendering components onto
// fixed-size screen buffers in tests.
package testfixtures

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
	uv "github.com/charmbracelet/ultraviolet"
)

func init() {
	// Ascii profile disables color output so rendered text is stable
	// across CI/platforms and plain substring assertions work.
	lipgloss.Writer.Profile = colorprofile.Ascii
}

// Canonical terminal size for render tests.
const (
	TestTermWidth  = 120
	TestTermHeight = 40
)

// UpdateGolden regenerates golden files when tests run with -update.
var UpdateGolden = flag.Bool("update", false, "update golden files")

// RenderComponent draws a component onto a canonical-size canvas and
// returns the rendered text. The draw function receives the full canvas
// area, matching the component Draw(scr, area) signature.
func RenderComponent(t *testing.T, draw func(scr uv.Screen, area uv.Rectangle)) string {
	t.Helper()
	canvas := uv.NewScreenBuffer(TestTermWidth, TestTermHeight)
	draw(canvas, canvas.Bounds())
	return canvas.Render()
}

// RenderSized is RenderComponent with an explicit canvas size, for
// narrow-terminal and single-row surfaces like the status bar.
func RenderSized(t *testing.T, width, height int, draw func(scr uv.Screen, area uv.Rectangle)) string {
	t.Helper()
	canvas := uv.NewScreenBuffer(width, height)
	draw(canvas, canvas.Bounds())
	return canvas.Render()
}

// GoldenPath builds a path to a golden file in the testdata directory.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", filename)
}

// CompareGolden compares rendered output with a golden file. Run with
// -update to (re)generate the file.
func CompareGolden(t *testing.T, goldenPath, actual string) {
	t.Helper()

	if *UpdateGolden {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
			t.Fatalf("failed to create testdata directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, []byte(actual), 0644); err != nil {
			t.Fatalf("failed to update golden file %s: %v", goldenPath, err)
		}
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("golden file %s does not exist. Run with -update to create it.", goldenPath)
		}
		t.Fatalf("failed to read golden file %s: %v", goldenPath, err)
	}

	if actual != string(expected) {
		t.Errorf("output does not match golden file %s\n\nExpected:\n%s\n\nActual:\n%s",
			goldenPath, string(expected), actual)
	}
}
