package export

import (
	"fmt"
	"strings"

	"github.com/heimdex/markers-extractor/internal/markers"
	"github.com/heimdex/markers-extractor/internal/timecode"
)

// edlProfile writes a CMX3600 edit decision list with one single-frame
// event and locator per marker.
type edlProfile struct {
	base
}

var edlFields = []Field{FieldID, FieldName, FieldType, FieldPosition, FieldNotes, FieldClipName}

func (p *edlProfile) MediaCapable() bool { return false }

func (p *edlProfile) Fields() []Field { return edlFields }

func (p *edlProfile) ManifestFields(pm *PreparedMarker, noMedia bool) []FieldValue {
	return fieldValues(pm, columns(edlFields, noMedia))
}

func (p *edlProfile) WriteManifest(pms []PreparedMarker, payload Payload, _ bool) error {
	return writeFile(payload.ManifestPath, []byte(GenerateEDL(pms, payload.ProjectName)))
}

// GenerateEDL renders markers as EDL events. The frame counting mode
// follows the first marker's rate.
func GenerateEDL(pms []PreparedMarker, title string) string {
	lines := []string{"TITLE: " + edlText(title)}
	if len(pms) > 0 && pms[0].At.Rate().IsDrop() {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i := range pms {
		pm := &pms[i]
		in := pm.At.String()
		out := nextFrame(pm.At).String()

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", in, out, in, out),
			fmt.Sprintf("* FROM CLIP NAME:  %s", edlText(pm.ClipName)),
			fmt.Sprintf("* LOC: %s %-7s %s", in, locatorColor(pm.Kind), edlText(pm.ID)),
		)
		if pm.Notes != "" {
			lines = append(lines, "* COMMENT: "+edlText(pm.Notes))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func nextFrame(tc timecode.Timecode) timecode.Timecode {
	one, err := timecode.FromFrames(1, tc.Rate())
	if err != nil {
		return tc
	}
	next, err := tc.Add(one)
	if err != nil {
		return tc
	}
	return next
}

// locatorColor maps marker kinds to the colors editors use for them.
func locatorColor(k markers.Kind) string {
	switch {
	case k.Tag == markers.KindChapter:
		return "YELLOW"
	case k.Tag == markers.KindToDo && k.Completed:
		return "GREEN"
	case k.Tag == markers.KindToDo:
		return "RED"
	}
	return "BLUE"
}

// edlText keeps comment lines on a single line.
func edlText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
