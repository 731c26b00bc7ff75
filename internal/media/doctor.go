package media

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// ToolInfo is the availability of one external executable.
type ToolInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Capabilities reports which media features the installed tools support.
type Capabilities struct {
	FFmpeg   ToolInfo  `json:"ffmpeg"`
	FFprobe  ToolInfo  `json:"ffprobe"`
	Drawtext bool      `json:"drawtext"`
	GIF      bool      `json:"gif"`
	ProbedAt time.Time `json:"probed_at"`
}

// CanRender reports whether thumbnails can be produced at all.
func (c Capabilities) CanRender() bool {
	return c.FFmpeg.Available && c.FFprobe.Available
}

// Checker inspects the local media toolchain.
type Checker interface {
	Check(ctx context.Context) (*Capabilities, error)
}

// Check runs "-version" and "-filters" on the configured tools.
func (f *FFmpeg) Check(ctx context.Context) (*Capabilities, error) {
	caps := &Capabilities{ProbedAt: time.Now()}

	caps.FFmpeg = f.toolInfo(ctx, f.cfg.FFmpegPath, "ffmpeg")
	caps.FFprobe = f.toolInfo(ctx, f.cfg.FFprobePath, "ffprobe")

	if caps.FFmpeg.Available {
		out, err := f.run(ctx, caps.FFmpeg.Path, "-hide_banner", "-filters")
		if err == nil {
			filters := string(out)
			caps.Drawtext = strings.Contains(filters, " drawtext ")
			caps.GIF = strings.Contains(filters, " palettegen ") || strings.Contains(filters, " fps ")
		}
	}

	f.cfg.Logger.Info("media doctor probe complete",
		"ffmpeg", caps.FFmpeg.Available,
		"ffprobe", caps.FFprobe.Available,
		"drawtext", caps.Drawtext,
	)
	return caps, nil
}

var versionPattern = regexp.MustCompile(`version (\S+)`)

func (f *FFmpeg) toolInfo(ctx context.Context, configured, name string) ToolInfo {
	bin, err := resolve(configured, name)
	if err != nil {
		return ToolInfo{Error: err.Error()}
	}
	out, err := f.run(ctx, bin, "-version")
	if err != nil {
		return ToolInfo{Path: bin, Error: err.Error()}
	}
	info := ToolInfo{Available: true, Path: bin}
	if m := versionPattern.FindSubmatch(out); m != nil {
		info.Version = string(m[1])
	}
	return info
}

// CachedDoctor caches Checker results for a TTL so that status requests
// do not spawn processes every time.
type CachedDoctor struct {
	checker Checker
	ttl     time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

// NewCachedDoctor creates a caching wrapper around checker.
func NewCachedDoctor(checker Checker, logger *slog.Logger) *CachedDoctor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedDoctor{
		checker: checker,
		ttl:     defaultCacheTTL,
		logger:  logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

// Peek returns the cached value without probing. It may be nil.
func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new probe. On failure a stale cached value is returned
// when one exists.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.checker.Check(ctx)
	if err != nil {
		d.logger.Warn("media doctor probe failed", "error", err)
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return nil, err
	}

	d.cached = caps
	return caps, nil
}

// Invalidate clears the cached capabilities.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
