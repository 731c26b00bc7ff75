package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/heimdex/markers-extractor/internal/env"
	"github.com/heimdex/markers-extractor/internal/markers"
	"github.com/heimdex/markers-extractor/internal/media"
	"github.com/heimdex/markers-extractor/internal/timecode"
)

// ImageSettings controls thumbnail output.
type ImageSettings struct {
	Format      media.ImageFormat
	Quality     int
	Width       int
	Height      int
	SizePercent int
	GIFFPS      float64
	GIFSpan     float64
}

// Options configures one export run.
type Options struct {
	Format      Format
	ProjectName string
	OutputDir   string
	// MediaPath is the rendered project video. Empty selects the
	// placeholder source.
	MediaPath string
	NoMedia   bool

	IDMode   markers.IDMode
	Timecode timecode.FormatOptions
	Image    ImageSettings

	LabelFields    []Field
	LabelCopyright string
	LabelHideNames bool
	LabelStyle     media.LabelStyle

	CreateDoneFile bool
	DoneFilename   string
	ResultFilePath string
	Version        string
}

// Exporter runs export profiles against a media prober and renderer.
type Exporter struct {
	prober   media.Prober
	renderer media.Renderer
}

func NewExporter(prober media.Prober, renderer media.Renderer) *Exporter {
	return &Exporter{prober: prober, renderer: renderer}
}

// Export writes icons, thumbnails, the manifest and the optional done file
// for ms. Any write failure aborts the run. Missing video is not a failure:
// a placeholder source is rendered instead.
func (x *Exporter) Export(ctx context.Context, e *env.Env, ms []markers.Marker, opts Options) (*Result, error) {
	profile, err := ProfileFor(opts.Format)
	if err != nil {
		return nil, err
	}
	logger := e.Logger.With("component", "export", "profile", string(profile.Format()))
	payload := profile.Payload(opts.ProjectName, opts.OutputDir)
	progress := e.Progress.AddChild(3, 100)

	noMedia := metadataOnly(profile, opts)
	hasVideo := false
	if !noMedia {
		hasVideo = x.probe(ctx, logger, opts.MediaPath)
	}
	singleFrame := !noMedia && !hasVideo && len(opts.LabelFields) == 0 && opts.LabelCopyright == ""

	pms := profile.PrepareMarkers(ms, PrepareOptions{
		IDMode:      opts.IDMode,
		Timecode:    opts.Timecode,
		ImageFormat: opts.Image.Format,
		SingleFrame: singleFrame,
	})
	progress.Advance(1)

	result := newResult(profile.Format(), opts, len(ms))

	if noMedia {
		logger.Info("metadata-only export, skipping icons and images")
	} else {
		icons, err := writeIcons(profile, ms, opts.OutputDir)
		if err != nil {
			return nil, err
		}
		logger.Info("exported marker icons", "count", len(icons))

		entries := capturePlan(ms, pms, hasVideo, singleFrame)
		progress.AddUnits(int64(len(entries)))
		if len(entries) > 0 {
			req := x.renderRequest(ms, opts, hasVideo, entries)
			req.Labels = labelText(profile, pms, opts, noMedia)
			logger.Info("generating marker images",
				"format", strings.ToUpper(string(req.Format)),
				"count", len(entries),
				"placeholder", req.Placeholder)
			if err := x.renderer.Render(ctx, req); err != nil {
				return nil, fmt.Errorf("failed to generate marker images in %q: %w", opts.OutputDir, err)
			}
		}
		progress.Advance(int64(len(entries)))
		result.ImageCount = len(entries)
	}
	progress.Advance(1)

	if err := profile.WriteManifest(pms, payload, noMedia); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	result.Files[ManifestKey(profile.Format())] = payload.ManifestPath
	logger.Info("wrote manifest", "path", payload.ManifestPath, "markers", len(pms))

	if opts.CreateDoneFile {
		path, err := writeDoneFile(profile, payload, opts)
		if err != nil {
			return nil, err
		}
		result.Files["doneFilePath"] = path
		logger.Info("created done file", "path", path)
	}
	progress.Advance(1)

	if opts.ResultFilePath != "" {
		if err := result.WriteFile(opts.ResultFilePath); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// metadataOnly reports whether the run can skip probing and rendering.
func metadataOnly(p Profile, opts Options) bool {
	if opts.NoMedia {
		return true
	}
	return !p.MediaCapable() &&
		!slices.Contains(p.Fields(), FieldImageFileName) &&
		len(opts.LabelFields) == 0
}

func (x *Exporter) probe(ctx context.Context, logger *slog.Logger, path string) bool {
	if path == "" {
		logger.Warn("no media file, using video placeholder for markers")
		return false
	}
	ok, err := x.prober.HasVideo(ctx, path)
	if err != nil {
		logger.Warn("could not probe media file, using video placeholder for markers", "path", path, "error", err)
		return false
	}
	if !ok {
		logger.Warn("media file has no video track, using video placeholder for markers", "path", path)
	}
	return ok
}

func (x *Exporter) renderRequest(ms []markers.Marker, opts Options, hasVideo bool, entries []media.CaptureEntry) media.RenderRequest {
	req := media.RenderRequest{
		Source:      opts.MediaPath,
		OutputDir:   opts.OutputDir,
		Entries:     entries,
		Format:      opts.Image.Format,
		Quality:     opts.Image.Quality,
		Width:       opts.Image.Width,
		Height:      opts.Image.Height,
		SizePercent: opts.Image.SizePercent,
		GIFFPS:      opts.Image.GIFFPS,
		GIFSpan:     opts.Image.GIFSpan,
		Style:       opts.LabelStyle,
	}
	if req.Format == "" {
		req.Format = media.ImagePNG
	}
	if hasVideo {
		req.MediaStart = ms[0].ParentInfo.ProjectStart
	} else {
		req.Source = media.PlaceholderSource
		req.Placeholder = true
	}
	return req
}

// writeIcons writes one file per distinct non-empty icon used by ms.
func writeIcons(p Profile, ms []markers.Marker, dir string) ([]string, error) {
	seen := make(map[Icon]bool)
	var written []string
	for i := range ms {
		icon := p.Icon(ms[i].Kind)
		if icon.IsEmpty() || seen[icon] {
			continue
		}
		seen[icon] = true

		data, err := icon.PNG()
		if err != nil {
			return nil, fmt.Errorf("failed to draw icon %q: %w", icon.Filename(), err)
		}
		path := filepath.Join(dir, icon.Filename())
		if err := writeFile(path, data); err != nil {
			return nil, fmt.Errorf("failed to write marker icon: %w", err)
		}
		written = append(written, path)
	}
	return written, nil
}

// labelText builds one label per prepared marker, or nil when no label was
// requested.
func labelText(p Profile, pms []PreparedMarker, opts Options, noMedia bool) []string {
	var labels []string
	if len(opts.LabelFields) > 0 {
		labels = make([]string, len(pms))
		for i := range pms {
			values := p.ManifestFields(&pms[i], noMedia)
			lines := make([]string, len(opts.LabelFields))
			for j, f := range opts.LabelFields {
				v, _ := Lookup(values, f)
				if opts.LabelHideNames {
					lines[j] = v
				} else {
					lines[j] = f.Header() + ": " + v
				}
			}
			labels[i] = strings.Join(lines, "\n")
		}
	}

	if opts.LabelCopyright != "" {
		if labels == nil {
			labels = make([]string, len(pms))
			for i := range labels {
				labels[i] = opts.LabelCopyright
			}
		} else {
			for i := range labels {
				labels[i] += "\n" + opts.LabelCopyright
			}
		}
	}
	return labels
}

// capturePlan pairs image file names with the raw marker positions. Without
// video every marker captures the first placeholder frame, and single-frame
// runs keep only the first entry.
func capturePlan(ms []markers.Marker, pms []PreparedMarker, hasVideo, singleFrame bool) []media.CaptureEntry {
	entries := make([]media.CaptureEntry, len(pms))
	for i := range pms {
		pos := ms[i].Position
		if !hasVideo {
			pos = timecode.New(ms[i].Rate())
		}
		entries[i] = media.CaptureEntry{Filename: pms[i].ImageFileName, Position: pos}
	}
	if singleFrame && len(entries) > 1 {
		entries = entries[:1]
	}
	return entries
}

func writeDoneFile(p Profile, payload Payload, opts Options) (string, error) {
	name := opts.DoneFilename
	if name == "" {
		name = DefaultDoneFilename
	}
	data, err := p.DoneFileContent(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode done file: %w", err)
	}
	path := filepath.Join(opts.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to create done file %q: %w", path, err)
	}
	return path, nil
}

// DefaultDoneFilename is written when no done file name is configured.
const DefaultDoneFilename = "done.json"
