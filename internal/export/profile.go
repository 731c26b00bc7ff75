// Package export turns extracted markers into manifest files, icons and
// thumbnails for one of a fixed set of destination formats.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/heimdex/markers-extractor/internal/markers"
	"github.com/heimdex/markers-extractor/internal/media"
	"github.com/heimdex/markers-extractor/internal/timecode"
)

// SingleFrameImageName is the base name of the one thumbnail shared by all
// markers when there is nothing marker-specific to draw.
const SingleFrameImageName = "marker-placeholder"

// Payload locates the files a profile writes for one run.
type Payload struct {
	ProjectName  string
	OutputDir    string
	ManifestPath string
}

// PrepareOptions carries the run settings a profile needs to render marker
// values.
type PrepareOptions struct {
	IDMode      markers.IDMode
	Timecode    timecode.FormatOptions
	ImageFormat media.ImageFormat
	SingleFrame bool
}

// PreparedMarker is a marker with every manifest value rendered to text.
type PreparedMarker struct {
	Kind markers.Kind
	At   timecode.Timecode

	ID            string
	Name          string
	Type          string
	Checked       string
	Status        string
	Notes         string
	Position      string
	ClipType      string
	ClipName      string
	ClipDuration  string
	VideoRole     string
	AudioRoles    []string
	CaptionRole   string
	EventName     string
	ProjectName   string
	LibraryName   string
	IconImage     string
	ImageFileName string
}

// Value returns the text of field f. Multi-valued fields are joined with
// a comma.
func (pm *PreparedMarker) Value(f Field) string {
	switch f {
	case FieldID:
		return pm.ID
	case FieldName:
		return pm.Name
	case FieldType:
		return pm.Type
	case FieldChecked:
		return pm.Checked
	case FieldStatus:
		return pm.Status
	case FieldNotes:
		return pm.Notes
	case FieldPosition:
		return pm.Position
	case FieldClipType:
		return pm.ClipType
	case FieldClipName:
		return pm.ClipName
	case FieldClipDuration:
		return pm.ClipDuration
	case FieldVideoRole:
		return pm.VideoRole
	case FieldAudioRole:
		return strings.Join(pm.AudioRoles, ", ")
	case FieldCaptionRole:
		return pm.CaptionRole
	case FieldEventName:
		return pm.EventName
	case FieldProjectName:
		return pm.ProjectName
	case FieldLibraryName:
		return pm.LibraryName
	case FieldIconImage:
		return pm.IconImage
	case FieldImageFileName:
		return pm.ImageFileName
	}
	return ""
}

// Profile is implemented once per destination format.
type Profile interface {
	Format() Format
	// MediaCapable reports whether the destination consumes thumbnails
	// even when no image column or label is requested.
	MediaCapable() bool
	// Fields lists every manifest column the profile can write.
	Fields() []Field
	Payload(projectName, outputDir string) Payload
	PrepareMarkers(ms []markers.Marker, opts PrepareOptions) []PreparedMarker
	// ManifestFields returns the ordered column values for pm. The
	// image column is left out when noMedia is set.
	ManifestFields(pm *PreparedMarker, noMedia bool) []FieldValue
	WriteManifest(pms []PreparedMarker, p Payload, noMedia bool) error
	DoneFileContent(p Payload) ([]byte, error)
	Icon(k markers.Kind) Icon
}

// ProfileFor returns the profile for f.
func ProfileFor(f Format) (Profile, error) {
	switch f {
	case FormatCSV:
		return &tabularProfile{base: base{format: FormatCSV, icons: true}, comma: ','}, nil
	case FormatTSV:
		return &tabularProfile{base: base{format: FormatTSV, icons: true}, comma: '\t'}, nil
	case FormatTXT:
		return &txtProfile{base: base{format: FormatTXT}}, nil
	case FormatJSON:
		return &jsonProfile{base: base{format: FormatJSON, icons: true}}, nil
	case FormatEDL:
		return &edlProfile{base: base{format: FormatEDL}}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// ManifestKey is the key naming the manifest path in done files and run
// results, e.g. "csvManifestPath".
func ManifestKey(f Format) string {
	return string(f) + "ManifestPath"
}

// base holds the behavior shared by every profile.
type base struct {
	format Format
	icons  bool
}

func (b *base) Format() Format { return b.format }

func (b *base) Payload(projectName, outputDir string) Payload {
	name := markers.SanitizeFilename(projectName)
	if name == "" {
		name = "markers"
	}
	return Payload{
		ProjectName:  projectName,
		OutputDir:    outputDir,
		ManifestPath: filepath.Join(outputDir, name+"."+string(b.format)),
	}
}

func (b *base) Icon(k markers.Kind) Icon {
	if !b.icons {
		return EmptyIcon
	}
	return IconFor(k)
}

func (b *base) DoneFileContent(p Payload) ([]byte, error) {
	return json.MarshalIndent(map[string]string{ManifestKey(b.format): p.ManifestPath}, "", "  ")
}

func (b *base) PrepareMarkers(ms []markers.Marker, opts PrepareOptions) []PreparedMarker {
	stems := markers.FileStems(ms, opts.IDMode, opts.Timecode)
	out := make([]PreparedMarker, len(ms))
	for i := range ms {
		out[i] = b.prepare(&ms[i], stems[i], opts)
	}
	return out
}

func (b *base) prepare(m *markers.Marker, stem string, opts PrepareOptions) PreparedMarker {
	ext := opts.ImageFormat.Ext()
	if ext == "" {
		ext = media.ImagePNG.Ext()
	}
	image := stem + "." + ext
	if opts.SingleFrame {
		image = SingleFrameImageName + "." + ext
	}

	pi := m.ParentInfo
	return PreparedMarker{
		Kind:          m.Kind,
		At:            m.Position,
		ID:            m.ID(opts.IDMode, opts.Timecode),
		Name:          m.Name,
		Type:          m.Kind.Name(),
		Checked:       strconv.FormatBool(m.Kind.Checked()),
		Status:        string(m.Kind.Status()),
		Notes:         m.Notes,
		Position:      m.PositionString(opts.Timecode),
		ClipType:      pi.ClipType,
		ClipName:      pi.ClipName,
		ClipDuration:  pi.ClipDuration().Format(opts.Timecode),
		VideoRole:     m.Roles.VideoFormatted(),
		AudioRoles:    []string{m.Roles.AudioFormatted()},
		CaptionRole:   m.Roles.CaptionFormatted(),
		EventName:     pi.EventName,
		ProjectName:   pi.ProjectName,
		LibraryName:   pi.LibraryName,
		IconImage:     b.Icon(m.Kind).Filename(),
		ImageFileName: image,
	}
}

// columns filters the image column out of fields for metadata-only runs.
func columns(fields []Field, noMedia bool) []Field {
	if !noMedia {
		return fields
	}
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f != FieldImageFileName {
			out = append(out, f)
		}
	}
	return out
}

func fieldValues(pm *PreparedMarker, cols []Field) []FieldValue {
	out := make([]FieldValue, len(cols))
	for i, f := range cols {
		out[i] = FieldValue{Field: f, Value: pm.Value(f)}
	}
	return out
}
