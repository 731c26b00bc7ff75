// Package media defines the prober and renderer collaborators used by the
// exporter and implements them on top of the ffmpeg command line tools.
package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/heimdex/markers-extractor/internal/timecode"
)

// PlaceholderSource is an ffmpeg lavfi source used in place of media that
// has no video track.
const PlaceholderSource = "color=c=black:s=1280x720:r=25:d=1"

// Prober reports whether a media file has a usable video track.
type Prober interface {
	HasVideo(ctx context.Context, path string) (bool, error)
}

// Renderer writes one image per capture entry.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) error
}

// ImageFormat is the thumbnail output format.
type ImageFormat string

const (
	ImagePNG ImageFormat = "png"
	ImageJPG ImageFormat = "jpg"
	ImageGIF ImageFormat = "gif"
)

var ImageFormats = []ImageFormat{ImagePNG, ImageJPG, ImageGIF}

// ParseImageFormat validates an image format name.
func ParseImageFormat(s string) (ImageFormat, error) {
	for _, f := range ImageFormats {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown image format %q", s)
}

// IsAnimated reports whether the format captures a span instead of a frame.
func (f ImageFormat) IsAnimated() bool { return f == ImageGIF }

// Ext returns the file extension without a dot.
func (f ImageFormat) Ext() string { return string(f) }

// CaptureEntry pairs an output file name with the timeline position to
// capture.
type CaptureEntry struct {
	Filename string
	Position timecode.Timecode
}

// HorizontalAlign and VerticalAlign position label text on the image.
type (
	HorizontalAlign string
	VerticalAlign   string
)

const (
	AlignLeft   HorizontalAlign = "left"
	AlignCenter HorizontalAlign = "center"
	AlignRight  HorizontalAlign = "right"

	AlignTop    VerticalAlign = "top"
	AlignMiddle VerticalAlign = "center"
	AlignBottom VerticalAlign = "bottom"
)

// LabelStyle controls how label text is drawn over thumbnails.
type LabelStyle struct {
	Font        string
	MaxFontSize int
	Opacity     int // percent
	FontColor   string
	StrokeColor string
	StrokeWidth int // 0 disables the stroke; negative selects automatic width
	AlignH      HorizontalAlign
	AlignV      VerticalAlign
}

// RenderRequest describes one batch of thumbnails.
type RenderRequest struct {
	// Source is a media path, or a lavfi graph when Placeholder is set.
	Source      string
	Placeholder bool
	// MediaStart is the timeline position of the first media frame.
	MediaStart timecode.Timecode
	OutputDir  string
	Entries    []CaptureEntry

	Format      ImageFormat
	Quality     int // JPG quality percent
	Width       int
	Height      int
	SizePercent int
	GIFFPS      float64
	GIFSpan     float64 // seconds around the marker

	// Labels is empty or holds one text per entry.
	Labels []string
	Style  LabelStyle
}
