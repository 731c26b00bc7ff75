package export

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Format names an export profile.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatTXT  Format = "txt"
	FormatJSON Format = "json"
	FormatEDL  Format = "edl"
)

// Formats lists every supported profile.
var Formats = []Format{FormatCSV, FormatTSV, FormatTXT, FormatJSON, FormatEDL}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Field is a manifest column.
type Field string

const (
	FieldID            Field = "id"
	FieldName          Field = "name"
	FieldType          Field = "type"
	FieldChecked       Field = "checked"
	FieldStatus        Field = "status"
	FieldNotes         Field = "notes"
	FieldPosition      Field = "position"
	FieldClipType      Field = "clipType"
	FieldClipName      Field = "clipName"
	FieldClipDuration  Field = "clipDuration"
	FieldVideoRole     Field = "videoRole"
	FieldAudioRole     Field = "audioRole"
	FieldCaptionRole   Field = "captionRole"
	FieldEventName     Field = "eventName"
	FieldProjectName   Field = "projectName"
	FieldLibraryName   Field = "libraryName"
	FieldIconImage     Field = "iconImage"
	FieldImageFileName Field = "imageFileName"
)

// Fields lists every field in manifest column order.
var Fields = []Field{
	FieldID, FieldName, FieldType, FieldChecked, FieldStatus, FieldNotes,
	FieldPosition, FieldClipType, FieldClipName, FieldClipDuration,
	FieldVideoRole, FieldAudioRole, FieldCaptionRole,
	FieldEventName, FieldProjectName, FieldLibraryName,
	FieldIconImage, FieldImageFileName,
}

var fieldHeaders = map[Field]string{
	FieldID:            "Marker ID",
	FieldName:          "Marker Name",
	FieldType:          "Type",
	FieldChecked:       "Checked",
	FieldStatus:        "Status",
	FieldNotes:         "Notes",
	FieldPosition:      "Marker Position",
	FieldClipType:      "Clip Type",
	FieldClipName:      "Clip Name",
	FieldClipDuration:  "Clip Duration",
	FieldVideoRole:     "Video Role",
	FieldAudioRole:     "Audio Role",
	FieldCaptionRole:   "Caption Role",
	FieldEventName:     "Event Name",
	FieldProjectName:   "Project Name",
	FieldLibraryName:   "Library Name",
	FieldIconImage:     "Icon Image",
	FieldImageFileName: "Image Filename",
}

// Header is the display name used in manifest headers and image labels.
func (f Field) Header() string {
	if h, ok := fieldHeaders[f]; ok {
		return h
	}
	return string(f)
}

// ParseField accepts a field key ("clipName") or its header.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s || strings.EqualFold(f.Header(), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// FieldValue is one entry of an ordered field map.
type FieldValue struct {
	Field Field
	Value string
}

// Lookup returns the value for f in an ordered field map.
func Lookup(values []FieldValue, f Field) (string, bool) {
	for _, v := range values {
		if v.Field == f {
			return v.Value, true
		}
	}
	return "", false
}
