package markers

import (
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"path"
	"strings"

	"github.com/heimdex/markers-extractor/internal/env"
	"github.com/heimdex/markers-extractor/internal/fcpxml"
)

// Extractor builds Marker records from a loaded document.
type Extractor struct {
	doc      *fcpxml.Document
	logger   *slog.Logger
	progress *env.Progress

	// resolved per sequence node; nil keys markers outside any sequence
	timings map[*fcpxml.Node]*sequenceTiming
}

// NewExtractor binds an extractor to doc and the run environment.
func NewExtractor(doc *fcpxml.Document, e *env.Env) *Extractor {
	x := &Extractor{
		doc:     doc,
		logger:  slog.New(slog.DiscardHandler),
		timings: make(map[*fcpxml.Node]*sequenceTiming),
	}
	if e != nil {
		if e.Logger != nil {
			x.logger = e.Logger.With("component", "markers")
		}
		x.progress = e.Progress
	}
	return x
}

// Extract returns every marker inside a project, in document order.
// Markers outside any project are skipped. A marker without an enclosing
// clip, event or library aborts extraction with ErrStructure.
func (x *Extractor) Extract() ([]Marker, error) {
	nodes := fcpxml.FindDescendants(x.doc.Root, "", fcpxml.TypeMarker, fcpxml.TypeChapterMarker)

	var child *env.Progress
	if x.progress != nil {
		child = x.progress.AddChild(int64(len(nodes)), int64(len(nodes)))
	}

	out := make([]Marker, 0, len(nodes))
	for _, n := range nodes {
		m, ok, err := x.build(n)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m)
		}
		if child != nil {
			child.Advance(1)
		}
	}

	x.logger.Debug("extracted markers", "count", len(out), "nodes", len(nodes))
	return out, nil
}

func (x *Extractor) build(n *fcpxml.Node) (Marker, bool, error) {
	project, ok := fcpxml.FindAncestor(n, fcpxml.OfType(fcpxml.TypeProject))
	if !ok {
		return Marker{}, false, nil
	}

	clip := n.Parent
	if clip == nil {
		return Marker{}, false, fmt.Errorf("%w: marker %q has no parent clip", ErrStructure, n.AttrOr("value", ""))
	}
	event, ok := fcpxml.FindAncestor(clip, fcpxml.OfType(fcpxml.TypeEvent))
	if !ok {
		return Marker{}, false, fmt.Errorf("%w: marker %q has no enclosing event", ErrStructure, n.AttrOr("value", ""))
	}
	library, ok := fcpxml.FindAncestor(event, fcpxml.OfType(fcpxml.TypeLibrary))
	if !ok {
		return Marker{}, false, fmt.Errorf("%w: marker %q has no enclosing library", ErrStructure, n.AttrOr("value", ""))
	}

	st := x.timing(n)
	rate := st.rate

	clipDuration, err := fcpxml.TimeAttr(clip, "duration")
	if err != nil {
		clipDuration = new(big.Rat)
	}
	clipInSec := fcpxml.TimelineInPoint(clip)
	clipOutSec := new(big.Rat).Add(clipInSec, clipDuration)

	mediaSrc, _ := x.doc.MediaSource(clip)

	return Marker{
		Kind:     kindOf(n),
		Name:     n.AttrOr("value", ""),
		Notes:    n.AttrOr("note", ""),
		Roles:    ResolveRoles(clip),
		Position: x.position(n, clip, rate, clipDuration),
		ParentInfo: ParentInfo{
			ClipType:     clip.Name,
			ClipName:     clipName(clip, mediaSrc),
			ClipIn:       timecodeOrZero(clipInSec, rate, x.logger),
			ClipOut:      timecodeOrZero(clipOutSec, rate, x.logger),
			EventName:    event.AttrOr("name", ""),
			ProjectName:  project.AttrOr("name", ""),
			ProjectStart: st.start,
			LibraryName:  libraryName(library),
			MediaSource:  mediaSrc,
		},
	}, true, nil
}

func kindOf(n *fcpxml.Node) Kind {
	if n.Type == fcpxml.TypeChapterMarker {
		return Chapter
	}
	// completed is only present on to-do markers
	if c, ok := n.Attr("completed"); ok {
		return ToDo(c == "1")
	}
	return Standard
}

// clipName appends the media file extension to the clip name when the
// clip references a media file.
func clipName(clip *fcpxml.Node, mediaSrc string) string {
	name, ok := clip.Attr("name")
	if !ok {
		return ""
	}
	if mediaSrc == "" {
		return name
	}
	p := mediaSrc
	if u, err := url.Parse(mediaSrc); err == nil && u.Path != "" {
		p = u.Path
	}
	if ext := strings.TrimPrefix(path.Ext(p), "."); ext != "" {
		return name + "." + ext
	}
	return name
}

// libraryName derives the library display name from its location URL.
func libraryName(library *fcpxml.Node) string {
	loc, ok := library.Attr("location")
	if !ok || loc == "" {
		return ""
	}

	p := loc
	if u, err := url.Parse(loc); err == nil && u.Path != "" {
		p = u.Path
	} else if unescaped, err := url.PathUnescape(loc); err == nil {
		p = unescaped
	}

	base := path.Base(strings.TrimRight(p, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
