package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const maxStderrBytes = 8 * 1024

// Config holds the ffmpeg tool locations and limits.
type Config struct {
	FFmpegPath  string        // empty = look up "ffmpeg" on PATH
	FFprobePath string        // empty = look up "ffprobe" on PATH
	Timeout     time.Duration // per command; zero disables
	Concurrency int           // zero = runtime.NumCPU()
	Logger      *slog.Logger
}

// FFmpeg implements Prober and Renderer with the ffmpeg and ffprobe
// executables.
type FFmpeg struct {
	cfg Config
}

// NewFFmpeg returns an FFmpeg bound to cfg. Executables are resolved lazily
// so that metadata-only runs work without ffmpeg installed.
func NewFFmpeg(cfg Config) *FFmpeg {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	return &FFmpeg{cfg: cfg}
}

type probeOutput struct {
	Streams []struct {
		CodecType   string `json:"codec_type"`
		Disposition struct {
			AttachedPic int `json:"attached_pic"`
		} `json:"disposition"`
	} `json:"streams"`
}

// HasVideo runs ffprobe and reports whether path has a video stream that
// is not an embedded cover image.
func (f *FFmpeg) HasVideo(ctx context.Context, path string) (bool, error) {
	bin, err := resolve(f.cfg.FFprobePath, "ffprobe")
	if err != nil {
		return false, err
	}

	out, err := f.run(ctx, bin,
		"-v", "error",
		"-select_streams", "v",
		"-show_entries", "stream=codec_type:stream_disposition=attached_pic",
		"-of", "json",
		path,
	)
	if err != nil {
		return false, fmt.Errorf("failed to probe %q: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (bool, error) {
	var p probeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return false, fmt.Errorf("cannot parse ffprobe JSON: %w", err)
	}
	for _, s := range p.Streams {
		if s.CodecType == "video" && s.Disposition.AttachedPic == 0 {
			return true, nil
		}
	}
	return false, nil
}

// Render writes every entry of req concurrently. The first failure cancels
// the remaining captures.
func (f *FFmpeg) Render(ctx context.Context, req RenderRequest) error {
	if len(req.Labels) != 0 && len(req.Labels) != len(req.Entries) {
		return fmt.Errorf("got %d labels for %d capture entries", len(req.Labels), len(req.Entries))
	}
	bin, err := resolve(f.cfg.FFmpegPath, "ffmpeg")
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)

	for i, entry := range req.Entries {
		label := ""
		if len(req.Labels) > 0 {
			label = req.Labels[i]
		}
		g.Go(func() error {
			return f.renderOne(ctx, bin, req, entry, label)
		})
	}
	return g.Wait()
}

func (f *FFmpeg) renderOne(ctx context.Context, bin string, req RenderRequest, entry CaptureEntry, label string) error {
	target := filepath.Join(req.OutputDir, entry.Filename)

	var labelFile string
	if label != "" {
		tmp, err := os.CreateTemp("", "marker-label-*.txt")
		if err != nil {
			return fmt.Errorf("failed to create label file for %q: %w", target, err)
		}
		labelFile = tmp.Name()
		defer os.Remove(labelFile)
		if _, err := tmp.WriteString(label); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write label file for %q: %w", target, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("failed to write label file for %q: %w", target, err)
		}
	}

	args := buildArgs(req, entry, labelFile, target)
	if _, err := f.run(ctx, bin, args...); err != nil {
		return fmt.Errorf("failed to render %q: %w", target, err)
	}
	f.cfg.Logger.Debug("rendered marker image", "file", entry.Filename, "position", entry.Position.String())
	return nil
}

// buildArgs assembles the ffmpeg command line for a single capture.
func buildArgs(req RenderRequest, entry CaptureEntry, labelFile, target string) []string {
	seek := seekSeconds(req, entry)
	args := []string{"-hide_banner", "-loglevel", "error", "-y"}

	if req.Format.IsAnimated() {
		span := req.GIFSpan
		if span <= 0 {
			span = 2
		}
		start := math.Max(0, seek-span/2)
		if req.Placeholder {
			args = append(args, "-f", "lavfi", "-i", req.Source, "-t", formatFloat(span))
		} else {
			args = append(args, "-ss", formatFloat(start), "-t", formatFloat(span), "-i", req.Source)
		}
		filters := []string{"fps=" + formatFloat(gifFPS(req.GIFFPS))}
		filters = append(filters, scaleFilter(req)...)
		filters = append(filters, drawtextFilter(req.Style, labelFile)...)
		args = append(args, "-vf", strings.Join(filters, ","), "-loop", "0", target)
		return args
	}

	if req.Placeholder {
		args = append(args, "-f", "lavfi", "-i", req.Source)
	} else {
		args = append(args, "-ss", formatFloat(seek), "-i", req.Source)
	}
	args = append(args, "-frames:v", "1")

	filters := append(scaleFilter(req), drawtextFilter(req.Style, labelFile)...)
	if len(filters) > 0 {
		args = append(args, "-vf", strings.Join(filters, ","))
	}
	if req.Format == ImageJPG {
		args = append(args, "-q:v", strconv.Itoa(jpgQScale(req.Quality)))
	}
	return append(args, target)
}

func seekSeconds(req RenderRequest, entry CaptureEntry) float64 {
	if req.Placeholder {
		return 0
	}
	pos := entry.Position.Seconds()
	pos.Sub(pos, req.MediaStart.Seconds())
	s, _ := pos.Float64()
	return math.Max(0, s)
}

func scaleFilter(req RenderRequest) []string {
	switch {
	case req.Width > 0 && req.Height > 0:
		return []string{fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", req.Width, req.Height)}
	case req.Width > 0:
		return []string{fmt.Sprintf("scale=%d:-2", req.Width)}
	case req.Height > 0:
		return []string{fmt.Sprintf("scale=-2:%d", req.Height)}
	case req.SizePercent > 0 && req.SizePercent < 100:
		return []string{fmt.Sprintf("scale=trunc(iw*%d/200)*2:-2", req.SizePercent)}
	}
	return nil
}

func drawtextFilter(style LabelStyle, labelFile string) []string {
	if labelFile == "" {
		return nil
	}

	size := style.MaxFontSize
	if size <= 0 {
		size = 30
	}
	parts := []string{
		"textfile=" + escapeFilterValue(labelFile),
		"fontsize=" + strconv.Itoa(size),
		"fontcolor=" + colorWithAlpha(style.FontColor, style.Opacity),
	}
	if style.Font != "" {
		parts = append(parts, "font="+escapeFilterValue(style.Font))
	}

	stroke := style.StrokeWidth
	if stroke < 0 {
		stroke = max(1, size/10)
	}
	if stroke > 0 {
		parts = append(parts,
			"borderw="+strconv.Itoa(stroke),
			"bordercolor="+colorWithAlpha(style.StrokeColor, style.Opacity))
	}

	switch style.AlignH {
	case AlignCenter:
		parts = append(parts, "x=(w-text_w)/2")
	case AlignRight:
		parts = append(parts, "x=w-text_w-10")
	default:
		parts = append(parts, "x=10")
	}
	switch style.AlignV {
	case AlignMiddle:
		parts = append(parts, "y=(h-text_h)/2")
	case AlignBottom:
		parts = append(parts, "y=h-text_h-10")
	default:
		parts = append(parts, "y=10")
	}

	return []string{"drawtext=" + strings.Join(parts, ":")}
}

// colorWithAlpha converts "#RGB" or "#RRGGBB" to an ffmpeg color with
// opacity applied.
func colorWithAlpha(color string, opacity int) string {
	hex := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		hex = "FFFFFF"
	}
	if opacity <= 0 || opacity > 100 {
		opacity = 100
	}
	return fmt.Sprintf("0x%s@%.2f", strings.ToUpper(hex), float64(opacity)/100)
}

// escapeFilterValue quotes a filter option value. Inside quotes only the
// quote itself needs escaping.
func escapeFilterValue(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// jpgQScale maps a 0-100 quality percent to ffmpeg's 31-2 qscale range.
func jpgQScale(quality int) int {
	quality = min(max(quality, 0), 100)
	return 31 - quality*29/100
}

func gifFPS(fps float64) float64 {
	if fps <= 0 {
		return 10
	}
	return fps
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// run executes a tool and returns its stdout. stderr is kept, bounded, for
// the error message.
func (f *FFmpeg) run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderr, limit: maxStderrBytes})

	err := cmd.Run()
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		f.cfg.Logger.Warn("media command failed",
			"tool", filepath.Base(bin),
			"exit_code", exitCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"stderr_tail", truncate(stderr.String(), 512),
		)
		if tail := strings.TrimSpace(stderr.String()); tail != "" {
			return nil, fmt.Errorf("%s exited %d: %s", filepath.Base(bin), exitCode, truncate(tail, 512))
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func resolve(configured, name string) (string, error) {
	if configured != "" {
		if p, err := exec.LookPath(configured); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured %s %q not found", name, configured)
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("no %s binary found on PATH", name)
	}
	return p, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last limit bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-lw.limit:]...)
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
