package markers

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/heimdex/markers-extractor/internal/fcpxml"
)

// NotAssigned is displayed for an empty role.
const NotAssigned = "Not Assigned"

// DefaultCaptionRole is used for caption clips without a role.
const DefaultCaptionRole = "Captions"

// Role is a resolved role label. IsDefault marks values that came from the
// clip-type fallback table rather than the document.
type Role struct {
	Value     string
	IsDefault bool
}

func (r Role) IsEmpty() bool { return r.Value == "" }

// IsDefined reports a non-empty role that was set in the document.
func (r Role) IsDefined() bool { return !r.IsEmpty() && !r.IsDefault }

// Formatted returns the value or NotAssigned.
func (r Role) Formatted() string {
	if r.Value == "" {
		return NotAssigned
	}
	return r.Value
}

// Roles holds the video, audio and caption roles of a marker's clip.
type Roles struct {
	Video   Role
	Audio   Role
	Caption Role
}

func (r Roles) VideoFormatted() string { return r.Video.Formatted() }

func (r Roles) AudioFormatted() string { return r.Audio.Formatted() }

// CaptionFormatted returns the main caption role, never the raw caption
// format suffix.
func (r Roles) CaptionFormatted() string {
	if r.Caption.Value == "" {
		return NotAssigned
	}
	return captionMainRole(r.Caption.Value)
}

type defaultRoles struct {
	video, audio, caption string
}

// defaultRolesByTag mirrors the roles Final Cut Pro assigns to new clips.
var defaultRolesByTag = map[string]defaultRoles{
	"asset-clip": {video: "Video", audio: "Dialogue"},
	"clip":       {video: "Video", audio: "Dialogue"},
	"mc-clip":    {video: "Video", audio: "Dialogue"},
	"ref-clip":   {video: "Video", audio: "Dialogue"},
	"sync-clip":  {video: "Video", audio: "Dialogue"},
	"video":      {video: "Video"},
	"audio":      {audio: "Dialogue"},
	"title":      {video: "Titles"},
	"caption":    {caption: DefaultCaptionRole},
}

var subrolePattern = regexp.MustCompile(`^(.*)\.(.*)-(\d{1,3})$`)

// CollapseSubrole strips a subrole that Final Cut Pro generates
// automatically, e.g. "Music.Music-1" becomes "Music". Roles that do not
// match the pattern are returned unchanged.
func CollapseSubrole(role string) string {
	m := subrolePattern.FindStringSubmatch(role)
	if m == nil {
		return role
	}
	return m[1]
}

// ResolveRoles collects role candidates for clip and picks one per pool.
// The lexicographically smallest candidate wins a pool, independent of
// where in the clip it was found.
func ResolveRoles(clip *fcpxml.Node) Roles {
	if acs := clip.Child("audio-channel-source"); acs != nil {
		if role := acs.AttrOr("role", ""); role != "" {
			return Roles{Audio: Role{Value: CollapseSubrole(capitalize(role))}}
		}
	}

	var videoPool, audioPool []string
	videoPool = appendCandidate(videoPool, clip.AttrOr("videoRole", ""))
	if v := clip.Child("video"); v != nil {
		videoPool = appendCandidate(videoPool, v.AttrOr("role", ""))
		if a := v.Child("audio"); a != nil {
			audioPool = appendCandidate(audioPool, a.AttrOr("role", ""))
		}
	}
	videoPool = appendCandidate(videoPool, clip.AttrOr("role", ""))

	audioPool = appendCandidate(audioPool, clip.AttrOr("audioRole", ""))
	if a := clip.Child("audio"); a != nil {
		audioPool = appendCandidate(audioPool, a.AttrOr("role", ""))
	}

	defaults := defaultRolesByTag[clip.Name]
	var roles Roles

	if clip.Type == fcpxml.TypeCaption {
		// caption clips carry a caption role in their role attribute
		videoPool = nil
		if role := clip.AttrOr("role", ""); role != "" {
			roles.Caption = Role{Value: role}
		} else {
			roles.Caption = Role{Value: defaults.caption, IsDefault: true}
		}
	}

	roles.Video = pick(videoPool, defaults.video)
	roles.Audio = pick(audioPool, defaults.audio)
	return roles
}

func pick(pool []string, fallback string) Role {
	if len(pool) == 0 {
		if fallback == "" {
			return Role{}
		}
		return Role{Value: CollapseSubrole(fallback), IsDefault: true}
	}
	sort.Strings(pool)
	return Role{Value: CollapseSubrole(pool[0])}
}

func appendCandidate(pool []string, raw string) []string {
	if c := capitalize(raw); c != "" {
		return append(pool, c)
	}
	return pool
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}

func captionMainRole(role string) string {
	if i := strings.IndexByte(role, '?'); i >= 0 {
		return role[:i]
	}
	return role
}
