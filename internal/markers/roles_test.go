package markers

import (
	"testing"

	"github.com/heimdex/markers-extractor/internal/fcpxml"
)

func attr(name, value string) fcpxml.Attr {
	return fcpxml.Attr{Name: name, Value: value}
}

func TestResolveRoles(t *testing.T) {
	tests := []struct {
		name string
		clip *fcpxml.Node
		want Roles
	}{
		{
			name: "smallest candidate wins",
			clip: fcpxml.NewNode("asset-clip", attr("videoRole", "Zebra"), attr("role", "Alpha")),
			want: Roles{
				Video: Role{Value: "Alpha"},
				Audio: Role{Value: "Dialogue", IsDefault: true},
			},
		},
		{
			name: "candidates are capitalized",
			clip: fcpxml.NewNode("asset-clip", attr("videoRole", "b-roll"), attr("audioRole", "effects")),
			want: Roles{
				Video: Role{Value: "B-Roll"},
				Audio: Role{Value: "Effects"},
			},
		},
		{
			name: "sub-element roles",
			clip: fcpxml.NewNode("sync-clip").Append(
				fcpxml.NewNode("video", attr("role", "Video")).Append(
					fcpxml.NewNode("audio", attr("role", "music.music-1")),
				),
			),
			want: Roles{
				Video: Role{Value: "Video"},
				Audio: Role{Value: "Music"},
			},
		},
		{
			name: "audio channel source overrides pools",
			clip: fcpxml.NewNode("asset-clip", attr("videoRole", "Video"), attr("audioRole", "Music")).Append(
				fcpxml.NewNode("audio-channel-source", attr("role", "dialogue.dialogue-2")),
			),
			want: Roles{
				Audio: Role{Value: "Dialogue"},
			},
		},
		{
			name: "title defaults",
			clip: fcpxml.NewNode("title"),
			want: Roles{
				Video: Role{Value: "Titles", IsDefault: true},
			},
		},
		{
			name: "gap has no roles",
			clip: fcpxml.NewNode("gap"),
			want: Roles{},
		},
		{
			name: "caption role",
			clip: fcpxml.NewNode("caption", attr("role", "iTT?captionFormat=ITT.en")),
			want: Roles{
				Caption: Role{Value: "iTT?captionFormat=ITT.en"},
			},
		},
		{
			name: "caption default",
			clip: fcpxml.NewNode("caption"),
			want: Roles{
				Caption: Role{Value: "Captions", IsDefault: true},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveRoles(tc.clip)
			if got != tc.want {
				t.Fatalf("ResolveRoles() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestResolveRoles_TieBreakIsOrderIndependent(t *testing.T) {
	a := ResolveRoles(fcpxml.NewNode("clip", attr("videoRole", "Zebra"), attr("role", "Alpha")))
	b := ResolveRoles(fcpxml.NewNode("clip", attr("videoRole", "Alpha"), attr("role", "Zebra")))
	if a.Video.Value != "Alpha" || b.Video.Value != "Alpha" {
		t.Fatalf("tie-break = %q / %q, want Alpha for both", a.Video.Value, b.Video.Value)
	}
}

func TestCollapseSubrole(t *testing.T) {
	tests := map[string]string{
		"Music.Music-1":    "Music",
		"Dialogue":         "Dialogue",
		"Dialogue.Boom-12": "Dialogue",
		"Effects.Foley":    "Effects.Foley",
		"Music.Music-1234": "Music.Music-1234",
		"":                 "",
	}
	for in, want := range tests {
		if got := CollapseSubrole(in); got != want {
			t.Errorf("CollapseSubrole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRolesFormatted(t *testing.T) {
	r := Roles{
		Video:   Role{Value: "Video"},
		Caption: Role{Value: "SRT?captionFormat=SRT.en"},
	}
	if got := r.VideoFormatted(); got != "Video" {
		t.Errorf("VideoFormatted() = %q", got)
	}
	if got := r.AudioFormatted(); got != NotAssigned {
		t.Errorf("AudioFormatted() = %q, want %q", got, NotAssigned)
	}
	if got := r.CaptionFormatted(); got != "SRT" {
		t.Errorf("CaptionFormatted() = %q, want SRT", got)
	}
}
