package cli

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/heimdex/markers-extractor/internal/extractor"
)

func newExtractCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "extract"}
	addExtractFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return cmd
}

func TestSettingsFromFlags_Defaults(t *testing.T) {
	got := settingsFromFlags(newExtractCmd(t), "in.fcpxml", "out")

	want := extractor.DefaultSettings()
	want.SourcePath = "in.fcpxml"
	want.OutputDir = "out"
	if got.Format != want.Format || got.IDMode != want.IDMode || got.ImageQuality != want.ImageQuality ||
		got.GIFFPS != want.GIFFPS || got.LabelFontColor != want.LabelFontColor || !got.Subfolder {
		t.Errorf("settingsFromFlags() = %+v, want defaults %+v", got, want)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestSettingsFromFlags_Overrides(t *testing.T) {
	cmd := newExtractCmd(t,
		"--export-format", "edl",
		"--id-naming-mode", "name",
		"--image-format", "gif",
		"--gif-fps", "15",
		"--label", "name", "--label", "notes",
		"--label-copyright", "(c) Studio",
		"--no-subfolder",
		"--no-media",
		"--create-done-file",
		"--done-filename", "finished.json",
		"--media-search-path", "/renders", "--media-search-path", "/exports",
	)
	s := settingsFromFlags(cmd, "in.fcpxml", "out")

	if s.Format != "edl" || s.IDMode != "name" || s.ImageFormat != "gif" || s.GIFFPS != 15 {
		t.Errorf("settings = %+v", s)
	}
	if len(s.Labels) != 2 || s.Labels[1] != "notes" || s.LabelCopyright != "(c) Studio" {
		t.Errorf("labels = %v, copyright = %q", s.Labels, s.LabelCopyright)
	}
	if s.Subfolder || !s.NoMedia || !s.CreateDoneFile || s.DoneFilename != "finished.json" {
		t.Errorf("switches = %+v", s)
	}
	if len(s.MediaSearchPaths) != 2 {
		t.Errorf("MediaSearchPaths = %v", s.MediaSearchPaths)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	want := []string{"extract", "serve", "history", "labels", "doctor"}
	for _, name := range want {
		cmd, _, err := RootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("RootCmd.Find(%q) = %v, %v", name, cmd, err)
		}
	}
}
