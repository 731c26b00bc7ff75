package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heimdex/markers-extractor/internal/config"
	"github.com/heimdex/markers-extractor/internal/env"
	"github.com/heimdex/markers-extractor/internal/export"
	"github.com/heimdex/markers-extractor/internal/extractor"
	"github.com/heimdex/markers-extractor/internal/markers"
	"github.com/heimdex/markers-extractor/internal/media"
)

func init() {
	cmd := &cobra.Command{
		Use:   "extract <fcpxml> <output-dir>",
		Short: "Extract markers and export them",
		Long:  "Extracts every marker of the projects in an .fcpxml file or .fcpxmld bundle and writes a manifest, icons and thumbnails to a new folder under output-dir.",
		Args:  cobra.ExactArgs(2),
		Run:   runExtract,
	}
	addExtractFlags(cmd)
	RootCmd.AddCommand(cmd)
}

func addExtractFlags(cmd *cobra.Command) {
	d := extractor.DefaultSettings()
	f := cmd.Flags()

	f.String("export-format", d.Format, "Export profile: "+joinNames(export.Formats))
	f.Bool("no-subfolder", false, "Write directly into output-dir instead of a new dated folder")
	f.String("id-naming-mode", d.IDMode, "Marker id source: "+joinNames(markers.IDModes))
	f.Bool("enable-subframes", false, "Include subframes in timecodes")

	f.String("image-format", d.ImageFormat, "Thumbnail format: "+joinNames(media.ImageFormats))
	f.Int("image-quality", d.ImageQuality, "JPG quality, 0-100")
	f.Int("image-width", 0, "Thumbnail width in pixels (0 keeps aspect)")
	f.Int("image-height", 0, "Thumbnail height in pixels (0 keeps aspect)")
	f.Int("image-size-percent", d.ImageSizePercent, "Thumbnail size relative to the source, 1-100")
	f.Float64("gif-fps", d.GIFFPS, "GIF frame rate, 0.1-60")
	f.Float64("gif-span", d.GIFSpan, "GIF capture span around the marker in seconds")

	f.StringArray("label", nil, "Field drawn on thumbnails, repeatable (see the labels command)")
	f.String("label-copyright", "", "Copyright line drawn on thumbnails")
	f.String("label-font", d.LabelFont, "Label font name or path")
	f.Int("label-font-size", d.LabelFontSize, "Maximum label font size")
	f.Int("label-opacity", d.LabelOpacity, "Label opacity, 0-100")
	f.String("label-font-color", d.LabelFontColor, "Label color as #RRGGBB")
	f.String("label-stroke-color", d.LabelStrokeColor, "Label stroke color as #RRGGBB")
	f.Int("label-stroke-width", d.LabelStrokeWidth, "Label stroke width, 0 disables, -1 is automatic")
	f.String("label-align-horizontal", d.LabelAlignHorizontal, "left, center or right")
	f.String("label-align-vertical", d.LabelAlignVertical, "top, center or bottom")
	f.Bool("label-hide-names", false, "Draw label values without field names")

	f.Bool("create-done-file", false, "Write a done file after a successful export")
	f.String("done-filename", d.DoneFilename, "Done file name")

	f.String("media", "", "Rendered project video (default: <project>.mov next to the document)")
	f.StringArray("media-search-path", nil, "Directory searched for the project video, repeatable")
	f.Bool("no-media", false, "Skip icons and thumbnails")
	f.String("result-file-path", "", "Write a JSON summary of the run to this path")
}

func joinNames[T ~string](names []T) string {
	s := make([]string, len(names))
	for i, n := range names {
		s[i] = string(n)
	}
	return strings.Join(s, ", ")
}

// settingsFromFlags maps the extract flags onto run settings.
func settingsFromFlags(cmd *cobra.Command, source, output string) extractor.Settings {
	f := cmd.Flags()
	s := extractor.DefaultSettings()
	s.SourcePath = source
	s.OutputDir = output

	noSubfolder, _ := f.GetBool("no-subfolder")
	s.Subfolder = !noSubfolder
	s.Format, _ = f.GetString("export-format")
	s.IDMode, _ = f.GetString("id-naming-mode")
	s.Subframes, _ = f.GetBool("enable-subframes")

	s.ImageFormat, _ = f.GetString("image-format")
	s.ImageQuality, _ = f.GetInt("image-quality")
	s.ImageWidth, _ = f.GetInt("image-width")
	s.ImageHeight, _ = f.GetInt("image-height")
	s.ImageSizePercent, _ = f.GetInt("image-size-percent")
	s.GIFFPS, _ = f.GetFloat64("gif-fps")
	s.GIFSpan, _ = f.GetFloat64("gif-span")

	s.Labels, _ = f.GetStringArray("label")
	s.LabelCopyright, _ = f.GetString("label-copyright")
	s.LabelFont, _ = f.GetString("label-font")
	s.LabelFontSize, _ = f.GetInt("label-font-size")
	s.LabelOpacity, _ = f.GetInt("label-opacity")
	s.LabelFontColor, _ = f.GetString("label-font-color")
	s.LabelStrokeColor, _ = f.GetString("label-stroke-color")
	s.LabelStrokeWidth, _ = f.GetInt("label-stroke-width")
	s.LabelAlignHorizontal, _ = f.GetString("label-align-horizontal")
	s.LabelAlignVertical, _ = f.GetString("label-align-vertical")
	s.LabelHideNames, _ = f.GetBool("label-hide-names")

	s.CreateDoneFile, _ = f.GetBool("create-done-file")
	s.DoneFilename, _ = f.GetString("done-filename")

	s.MediaPath, _ = f.GetString("media")
	s.MediaSearchPaths, _ = f.GetStringArray("media-search-path")
	s.NoMedia, _ = f.GetBool("no-media")
	s.ResultFilePath, _ = f.GetString("result-file-path")
	return s
}

func runExtract(cmd *cobra.Command, args []string) {
	settings := settingsFromFlags(cmd, args[0], args[1])
	if err := settings.Validate(); err != nil {
		exitErr("extract", err)
	}

	database, repo, err := openHistory()
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
	}
	if database != nil {
		defer database.Close()
	}

	e := env.New(logger)
	if !quiet {
		e.Progress.Observe(func(f float64) {
			fmt.Fprintf(os.Stderr, "\rprogress: %3.0f%%", f*100)
		})
	}

	ffmpeg := newFFmpeg()
	runner := extractor.NewRunner(ffmpeg, ffmpeg, repo, config.Version)
	report, err := runner.Run(cmd.Context(), e, settings)
	if !quiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, markers.ErrEmptyID):
			msg = "marker ids"
		case extractor.IsUserError(err):
			msg = "invalid input"
		default:
			msg = "export"
		}
		exitErr(msg, err)
	}

	fmt.Println(report.Result.ManifestPath())
}
