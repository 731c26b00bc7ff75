package media

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/heimdex/markers-extractor/internal/timecode"
)

func tc(t *testing.T, s string) timecode.Timecode {
	t.Helper()
	v, err := timecode.Parse(s, timecode.FPS25)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", s, err)
	}
	return v
}

func TestBuildArgs_Still(t *testing.T) {
	req := RenderRequest{
		Source:     "/media/clip.mov",
		MediaStart: tc(t, "01:00:00:00"),
		Format:     ImageJPG,
		Quality:    100,
		Width:      640,
	}
	entry := CaptureEntry{Filename: "m1.jpg", Position: tc(t, "01:00:10:00")}

	got := strings.Join(buildArgs(req, entry, "", "/out/m1.jpg"), " ")
	want := "-hide_banner -loglevel error -y -ss 10 -i /media/clip.mov -frames:v 1 -vf scale=640:-2 -q:v 2 /out/m1.jpg"
	if got != want {
		t.Fatalf("buildArgs() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildArgs_PlaceholderWithLabel(t *testing.T) {
	req := RenderRequest{
		Source:      PlaceholderSource,
		Placeholder: true,
		Format:      ImagePNG,
		Style:       LabelStyle{MaxFontSize: 20, FontColor: "#fff", Opacity: 50, AlignH: AlignRight, AlignV: AlignBottom},
	}
	entry := CaptureEntry{Filename: "m.png", Position: tc(t, "00:00:05:00")}

	args := buildArgs(req, entry, "/tmp/label.txt", "/out/m.png")
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-f lavfi -i "+PlaceholderSource) {
		t.Errorf("placeholder input missing: %s", joined)
	}
	if strings.Contains(joined, "-ss") {
		t.Errorf("placeholder capture should not seek: %s", joined)
	}
	vf := args[len(args)-2]
	for _, part := range []string{"textfile='/tmp/label.txt'", "fontsize=20", "fontcolor=0xFFFFFF@0.50", "x=w-text_w-10", "y=h-text_h-10"} {
		if !strings.Contains(vf, part) {
			t.Errorf("drawtext filter %q missing %q", vf, part)
		}
	}
	if strings.Contains(vf, "borderw") {
		t.Errorf("zero stroke width should disable border: %q", vf)
	}
}

func TestBuildArgs_GIF(t *testing.T) {
	req := RenderRequest{
		Source:      "/media/clip.mov",
		Format:      ImageGIF,
		GIFFPS:      10,
		GIFSpan:     2,
		SizePercent: 50,
	}
	entry := CaptureEntry{Filename: "m.gif", Position: tc(t, "00:00:00:10")}

	got := strings.Join(buildArgs(req, entry, "", "/out/m.gif"), " ")
	want := "-hide_banner -loglevel error -y -ss 0 -t 2 -i /media/clip.mov -vf fps=10,scale=trunc(iw*50/200)*2:-2 -loop 0 /out/m.gif"
	if got != want {
		t.Fatalf("buildArgs() =\n%s\nwant\n%s", got, want)
	}
}

func TestJPGQScale(t *testing.T) {
	tests := map[int]int{0: 31, 50: 17, 100: 2, 150: 2, -5: 31}
	for in, want := range tests {
		if got := jpgQScale(in); got != want {
			t.Errorf("jpgQScale(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseProbe(t *testing.T) {
	tests := []struct {
		name string
		json string
		want bool
	}{
		{name: "video", json: `{"streams":[{"codec_type":"video","disposition":{"attached_pic":0}}]}`, want: true},
		{name: "cover art only", json: `{"streams":[{"codec_type":"video","disposition":{"attached_pic":1}}]}`, want: false},
		{name: "no streams", json: `{"streams":[]}`, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseProbe([]byte(tc.json))
			if err != nil {
				t.Fatalf("parseProbe() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("parseProbe() = %v, want %v", got, tc.want)
			}
		})
	}

	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Fatal("parseProbe() expected error for invalid JSON")
	}
}

func TestLimitedWriter_KeepsTail(t *testing.T) {
	var buf bytes.Buffer
	w := &limitedWriter{w: &buf, limit: 4}
	w.Write([]byte("abc"))
	w.Write([]byte("defg"))
	if buf.String() != "defg" {
		t.Fatalf("limitedWriter kept %q, want defg", buf.String())
	}
}

func TestColorWithAlpha(t *testing.T) {
	tests := map[string]string{
		"#000":    "0x000000@1.00",
		"#ff8800": "0xFF8800@1.00",
		"bogus":   "0xFFFFFF@1.00",
	}
	for in, want := range tests {
		if got := colorWithAlpha(in, 100); got != want {
			t.Errorf("colorWithAlpha(%q) = %q, want %q", in, got, want)
		}
	}
}

type fakeChecker struct {
	calls int
	err   error
}

func (f *fakeChecker) Check(context.Context) (*Capabilities, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Capabilities{FFmpeg: ToolInfo{Available: true}, FFprobe: ToolInfo{Available: true}, ProbedAt: time.Now()}, nil
}

func TestCachedDoctor(t *testing.T) {
	checker := &fakeChecker{}
	d := NewCachedDoctor(checker, nil)

	if d.Peek() != nil {
		t.Fatal("Peek() should be nil before first probe")
	}
	caps, err := d.Get(context.Background())
	if err != nil || !caps.CanRender() {
		t.Fatalf("Get() = %+v, %v", caps, err)
	}
	if _, err := d.Get(context.Background()); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if checker.calls != 1 {
		t.Fatalf("checker called %d times, want 1 (cached)", checker.calls)
	}

	checker.err = errors.New("boom")
	if _, err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() should return stale cache, got %v", err)
	}

	d.Invalidate()
	if _, err := d.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() without cache should fail")
	}
}
