// Package markers locates marker annotations in an FCPXML document and
// turns them into immutable Marker records with resolved positions, roles
// and parent context. It also assigns and disambiguates marker ids.
package markers

import (
	"errors"

	"github.com/heimdex/markers-extractor/internal/timecode"
)

var (
	ErrStructure = errors.New("malformed marker hierarchy")
	ErrEmptyID   = errors.New("empty marker id")
)

// KindTag is the broad marker category.
type KindTag int

const (
	KindStandard KindTag = iota
	KindToDo
	KindChapter
)

// Kind classifies a marker. Completed is only meaningful for KindToDo.
type Kind struct {
	Tag       KindTag
	Completed bool
}

var (
	Standard = Kind{Tag: KindStandard}
	Chapter  = Kind{Tag: KindChapter}
)

// ToDo returns a to-do kind.
func ToDo(completed bool) Kind {
	return Kind{Tag: KindToDo, Completed: completed}
}

// Name returns the display name of the kind.
func (k Kind) Name() string {
	switch k.Tag {
	case KindToDo:
		return "To Do"
	case KindChapter:
		return "Chapter"
	}
	return "Marker"
}

// Status is the workflow status shown in manifests.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Status derives the workflow status from the kind.
func (k Kind) Status() Status {
	if k.Tag == KindToDo {
		if k.Completed {
			return StatusDone
		}
		return StatusInProgress
	}
	return StatusNotStarted
}

// Checked reports whether the marker is a completed to-do.
func (k Kind) Checked() bool {
	return k.Tag == KindToDo && k.Completed
}

// ParentInfo is the context of a marker's containing clip, captured at
// extraction time.
type ParentInfo struct {
	ClipType     string
	ClipName     string
	ClipIn       timecode.Timecode
	ClipOut      timecode.Timecode
	EventName    string
	ProjectName  string
	ProjectStart timecode.Timecode
	LibraryName  string
	// MediaSource is the clip's media URL, empty when the clip has none.
	MediaSource string
}

// ClipDuration returns the clip span. Out-of-range spans render as zero.
func (p ParentInfo) ClipDuration() timecode.Timecode {
	d, err := p.ClipOut.Sub(p.ClipIn)
	if err != nil {
		return timecode.New(p.ClipIn.Rate())
	}
	return d
}

// Marker is one extracted annotation. IDSuffix is written only by
// UniqueIDs; every other field is fixed at construction.
type Marker struct {
	Kind       Kind
	Name       string
	Notes      string
	Roles      Roles
	Position   timecode.Timecode
	ParentInfo ParentInfo
	IDSuffix   string
}

// Rate returns the frame rate of the marker position.
func (m *Marker) Rate() timecode.FrameRate {
	return m.Position.Rate()
}

// OffsetFromProjectStart returns the position relative to the project's
// start timecode. A position before the start renders as zero.
func (m *Marker) OffsetFromProjectStart() timecode.Timecode {
	d, err := m.Position.Sub(m.ParentInfo.ProjectStart)
	if err != nil {
		return timecode.New(m.Rate())
	}
	return d
}
