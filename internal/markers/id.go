package markers

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/heimdex/markers-extractor/internal/timecode"
)

// IDMode selects how marker ids are derived.
type IDMode string

const (
	IDModeProjectTimecode IDMode = "projectTimecode"
	IDModeName            IDMode = "name"
	IDModeNotes           IDMode = "notes"
)

// IDModes lists the supported modes in display order.
var IDModes = []IDMode{IDModeProjectTimecode, IDModeName, IDModeNotes}

// ParseIDMode validates a mode name.
func ParseIDMode(s string) (IDMode, error) {
	for _, m := range IDModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown id naming mode %q", s)
}

// PositionString renders the marker position with hours always shown.
func (m *Marker) PositionString(opts timecode.FormatOptions) string {
	opts.OmitZeroHours = false
	return m.Position.Format(opts)
}

// BaseID is the id before uniquing.
func (m *Marker) BaseID(mode IDMode, opts timecode.FormatOptions) string {
	switch mode {
	case IDModeName:
		return m.Name
	case IDModeNotes:
		return m.Notes
	default:
		return m.ParentInfo.ProjectName + "_" + m.PositionString(opts)
	}
}

// ID is the base id plus the uniquing suffix.
func (m *Marker) ID(mode IDMode, opts timecode.FormatOptions) string {
	return m.BaseID(mode, opts) + m.IDSuffix
}

var timecodePunctuation = strings.NewReplacer(";", "_", ":", "_", ".", "_")

// PathSafeID is ID with characters that are not valid in file names
// substituted. In projectTimecode mode the timecode separators also become
// underscores.
func (m *Marker) PathSafeID(mode IDMode, opts timecode.FormatOptions) string {
	id := m.ID(mode, opts)
	if mode == IDModeProjectTimecode || mode == "" {
		id = timecodePunctuation.Replace(id)
	}
	return SanitizeFilename(id)
}

// EmptyStem replaces a path-safe id that sanitizes to nothing.
const EmptyStem = "marker"

// FileStems returns one file name stem per marker, derived from
// PathSafeID. Ids that only differ in characters lost to sanitizing, or in
// case, would share a file; later markers of such a group get "-2", "-3",
// ... appended, skipping stems already in use.
func FileStems(ms []Marker, mode IDMode, opts timecode.FormatOptions) []string {
	stems := make([]string, len(ms))
	taken := make(map[string]bool, len(ms))
	for i := range ms {
		stem := ms[i].PathSafeID(mode, opts)
		if stem == "" {
			stem = EmptyStem
		}
		stems[i] = stem
		taken[strings.ToLower(stem)] = true
	}

	used := make(map[string]bool, len(ms))
	for i, stem := range stems {
		key := strings.ToLower(stem)
		if !used[key] {
			used[key] = true
			continue
		}
		for n := 2; ; n++ {
			candidate := stem + "-" + strconv.Itoa(n)
			ck := strings.ToLower(candidate)
			if !taken[ck] {
				stems[i] = candidate
				taken[ck] = true
				used[ck] = true
				break
			}
		}
	}
	return stems
}

// SanitizeFilename drops control characters and replaces characters that
// are reserved in file names with an underscore.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// CheckIDs fails with ErrEmptyID if any marker resolves to an empty id.
func CheckIDs(ms []Marker, mode IDMode, opts timecode.FormatOptions) error {
	for i := range ms {
		if ms[i].BaseID(mode, opts) == "" {
			return fmt.Errorf("%w: marker %d at %s in %q (mode %s)",
				ErrEmptyID, i+1, ms[i].PositionString(opts), ms[i].ParentInfo.ClipName, mode)
		}
	}
	return nil
}

// DuplicateIDs returns every id shared by more than one marker, sorted.
func DuplicateIDs(ms []Marker, mode IDMode, opts timecode.FormatOptions) []string {
	counts := make(map[string]int, len(ms))
	for i := range ms {
		counts[ms[i].ID(mode, opts)]++
	}
	var dupes []string
	for id, n := range counts {
		if n > 1 {
			dupes = append(dupes, id)
		}
	}
	sort.Strings(dupes)
	return dupes
}

// Sort orders markers by position. Equal positions keep their relative
// order.
func Sort(ms []Marker) {
	slices.SortStableFunc(ms, func(a, b Marker) int {
		switch {
		case a.Position.Before(b.Position):
			return -1
		case b.Position.Before(a.Position):
			return 1
		}
		return 0
	})
}

// UniqueIDs appends "-1", "-2", ... to markers sharing an id, numbering
// each group in slice order. Callers sort first so numbering follows the
// timeline. Counters that would produce an id already in use are skipped.
// Running it on a set with unique ids changes nothing.
func UniqueIDs(ms []Marker, mode IDMode, opts timecode.FormatOptions) {
	ids := make([]string, len(ms))
	groups := make(map[string][]int, len(ms))
	var order []string
	for i := range ms {
		id := ms[i].ID(mode, opts)
		ids[i] = id
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}

	taken := make(map[string]bool, len(ms))
	for _, id := range ids {
		taken[id] = true
	}

	for _, id := range order {
		idx := groups[id]
		if len(idx) < 2 {
			continue
		}
		counter := 1
		for _, i := range idx {
			suffix := "-" + strconv.Itoa(counter)
			for taken[id+suffix] {
				counter++
				suffix = "-" + strconv.Itoa(counter)
			}
			ms[i].IDSuffix += suffix
			taken[id+suffix] = true
			counter++
		}
	}
}
