// Package extractor runs one complete extraction: load the document,
// extract and unique the markers, then hand them to an export profile.
package extractor

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/heimdex/markers-extractor/internal/export"
	"github.com/heimdex/markers-extractor/internal/markers"
	"github.com/heimdex/markers-extractor/internal/media"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the complete input of one run. String-valued options are
// parsed by Validate so that the same struct can be filled from flags and
// from JSON request bodies.
type Settings struct {
	SourcePath string `json:"source_path"`
	OutputDir  string `json:"output_dir"`
	// Subfolder creates a dated folder per run under OutputDir.
	Subfolder bool `json:"subfolder"`

	Format    string `json:"export_format"`
	IDMode    string `json:"id_naming_mode"`
	Subframes bool   `json:"enable_subframes"`

	ImageFormat      string  `json:"image_format"`
	ImageQuality     int     `json:"image_quality"`
	ImageWidth       int     `json:"image_width"`
	ImageHeight      int     `json:"image_height"`
	ImageSizePercent int     `json:"image_size_percent"`
	GIFFPS           float64 `json:"gif_fps"`
	GIFSpan          float64 `json:"gif_span"`

	Labels               []string `json:"label"`
	LabelCopyright       string   `json:"label_copyright"`
	LabelFont            string   `json:"label_font"`
	LabelFontSize        int      `json:"label_font_size"`
	LabelOpacity         int      `json:"label_opacity"`
	LabelFontColor       string   `json:"label_font_color"`
	LabelStrokeColor     string   `json:"label_stroke_color"`
	LabelStrokeWidth     int      `json:"label_stroke_width"`
	LabelAlignHorizontal string   `json:"label_align_horizontal"`
	LabelAlignVertical   string   `json:"label_align_vertical"`
	LabelHideNames       bool     `json:"label_hide_names"`

	CreateDoneFile bool   `json:"create_done_file"`
	DoneFilename   string `json:"done_filename"`

	MediaPath        string   `json:"media"`
	MediaSearchPaths []string `json:"media_search_path"`
	NoMedia          bool     `json:"no_media"`

	ResultFilePath string `json:"result_file_path"`
}

// DefaultSettings returns the defaults of every run option.
func DefaultSettings() Settings {
	return Settings{
		Subfolder:            true,
		Format:               string(export.FormatCSV),
		IDMode:               string(markers.IDModeProjectTimecode),
		ImageFormat:          string(media.ImagePNG),
		ImageQuality:         100,
		ImageSizePercent:     100,
		GIFFPS:               10,
		GIFSpan:              2,
		LabelFont:            "Menlo-Regular",
		LabelFontSize:        30,
		LabelOpacity:         100,
		LabelFontColor:       "#FFFFFF",
		LabelStrokeColor:     "#000000",
		LabelStrokeWidth:     -1,
		LabelAlignHorizontal: string(media.AlignLeft),
		LabelAlignVertical:   string(media.AlignTop),
		DoneFilename:         export.DefaultDoneFilename,
	}
}

// parsed holds the typed values behind the string options.
type parsed struct {
	format      export.Format
	idMode      markers.IDMode
	imageFormat media.ImageFormat
	labels      []export.Field
	alignH      media.HorizontalAlign
	alignV      media.VerticalAlign
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks ranges and enumerations and returns the first problem
// wrapped in ErrInvalidSettings.
func (s Settings) Validate() error {
	_, err := s.parse()
	return err
}

func (s Settings) parse() (parsed, error) {
	var p parsed
	invalid := func(format string, args ...any) (parsed, error) {
		return parsed{}, fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...))
	}

	if s.SourcePath == "" {
		return invalid("source path is required")
	}
	if s.OutputDir == "" {
		return invalid("output directory is required")
	}

	var err error
	if p.format, err = export.ParseFormat(s.Format); err != nil {
		return parsed{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if p.idMode, err = markers.ParseIDMode(s.IDMode); err != nil {
		return parsed{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if p.imageFormat, err = media.ParseImageFormat(s.ImageFormat); err != nil {
		return parsed{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	for _, l := range s.Labels {
		f, err := export.ParseField(l)
		if err != nil {
			return parsed{}, fmt.Errorf("%w: label: %w", ErrInvalidSettings, err)
		}
		p.labels = append(p.labels, f)
	}

	switch {
	case s.ImageQuality < 0 || s.ImageQuality > 100:
		return invalid("image quality %d outside 0-100", s.ImageQuality)
	case s.ImageWidth < 0 || s.ImageHeight < 0:
		return invalid("image dimensions must not be negative")
	case s.ImageSizePercent < 1 || s.ImageSizePercent > 100:
		return invalid("image size percent %d outside 1-100", s.ImageSizePercent)
	case s.GIFFPS < 0.1 || s.GIFFPS > 60:
		return invalid("gif fps %g outside 0.1-60", s.GIFFPS)
	case s.GIFSpan <= 0:
		return invalid("gif span must be positive")
	case s.LabelOpacity < 0 || s.LabelOpacity > 100:
		return invalid("label opacity %d outside 0-100", s.LabelOpacity)
	case s.LabelFontSize <= 0:
		return invalid("label font size must be positive")
	case !hexColor.MatchString(s.LabelFontColor):
		return invalid("label font color %q is not #RRGGBB", s.LabelFontColor)
	case !hexColor.MatchString(s.LabelStrokeColor):
		return invalid("label stroke color %q is not #RRGGBB", s.LabelStrokeColor)
	case s.NoMedia && s.MediaPath != "":
		return invalid("--media and --no-media are mutually exclusive")
	case s.CreateDoneFile && s.DoneFilename == "":
		return invalid("done filename is required with create done file")
	}

	switch h := media.HorizontalAlign(s.LabelAlignHorizontal); h {
	case media.AlignLeft, media.AlignCenter, media.AlignRight:
		p.alignH = h
	default:
		return invalid("unknown horizontal alignment %q", s.LabelAlignHorizontal)
	}
	switch v := media.VerticalAlign(s.LabelAlignVertical); v {
	case media.AlignTop, media.AlignMiddle, media.AlignBottom:
		p.alignV = v
	default:
		return invalid("unknown vertical alignment %q", s.LabelAlignVertical)
	}
	return p, nil
}
