package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/heimdex/markers-extractor/internal/env"
	"github.com/heimdex/markers-extractor/internal/export"
	"github.com/heimdex/markers-extractor/internal/fcpxml"
	"github.com/heimdex/markers-extractor/internal/history"
	"github.com/heimdex/markers-extractor/internal/logging"
	"github.com/heimdex/markers-extractor/internal/markers"
	"github.com/heimdex/markers-extractor/internal/media"
	"github.com/heimdex/markers-extractor/internal/timecode"
)

// MediaExtensions are tried, in order, when looking for the rendered
// project video next to the document.
var MediaExtensions = []string{".mov", ".mp4", ".m4v", ".mxf", ".avi", ".mts", ".m2ts"}

// Report describes a finished run.
type Report struct {
	RunID       string         `json:"run_id"`
	ProjectName string         `json:"project_name"`
	MediaPath   string         `json:"media_path,omitempty"`
	Duplicates  []string       `json:"duplicate_ids,omitempty"`
	Result      *export.Result `json:"result"`
}

// Runner executes runs. History is optional.
type Runner struct {
	exporter *export.Exporter
	history  history.Repository
	version  string
	now      func() time.Time
}

func NewRunner(prober media.Prober, renderer media.Renderer, repo history.Repository, version string) *Runner {
	return &Runner{
		exporter: export.NewExporter(prober, renderer),
		history:  repo,
		version:  version,
		now:      time.Now,
	}
}

// Run performs one extraction. Every failure is terminal and is recorded
// in the history when one is configured.
func (r *Runner) Run(ctx context.Context, e *env.Env, s Settings) (*Report, error) {
	if e == nil {
		e = env.New(nil)
	}
	p, err := s.parse()
	if err != nil {
		return nil, err
	}
	logger := e.Logger.With("component", "extractor")

	rec := r.startRecord(ctx, logger, e.RunID, s)
	report, ms, err := r.run(ctx, e, logger, s, p)
	r.finishRecord(ctx, logger, rec, report, ms, p, s, err)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Runner) run(ctx context.Context, e *env.Env, logger *slog.Logger, s Settings, p parsed) (*Report, []markers.Marker, error) {
	doc, err := fcpxml.Load(s.SourcePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("loaded document", "path", logging.SanitizePath(s.SourcePath), "version", doc.Version())

	ms, err := markers.NewExtractor(doc, e).Extract()
	if err != nil {
		return nil, nil, err
	}

	tcOpts := timecode.FormatOptions{SubFrames: s.Subframes}
	if err := markers.CheckIDs(ms, p.idMode, tcOpts); err != nil {
		return nil, nil, err
	}
	dupes := markers.DuplicateIDs(ms, p.idMode, tcOpts)
	if len(dupes) > 0 {
		logger.Info("found duplicate marker ids, adding suffixes", "ids", dupes)
	}
	markers.Sort(ms)
	markers.UniqueIDs(ms, p.idMode, tcOpts)

	project := projectName(doc, ms, s.SourcePath)

	outDir := s.OutputDir
	if s.Subfolder {
		outDir, err = export.CreateExportFolder(s.OutputDir, project, p.format, r.now())
		if err != nil {
			return nil, nil, err
		}
	} else if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory %q: %w", outDir, err)
	}

	mediaPath := s.MediaPath
	if mediaPath == "" && !s.NoMedia {
		mediaPath = FindMedia(mediaSearchDirs(s), project)
		if mediaPath != "" {
			logger.Info("found project media", "path", logging.SanitizePath(mediaPath))
		}
	}

	result, err := r.exporter.Export(ctx, e, ms, export.Options{
		Format:      p.format,
		ProjectName: project,
		OutputDir:   outDir,
		MediaPath:   mediaPath,
		NoMedia:     s.NoMedia,
		IDMode:      p.idMode,
		Timecode:    tcOpts,
		Image: export.ImageSettings{
			Format:      p.imageFormat,
			Quality:     s.ImageQuality,
			Width:       s.ImageWidth,
			Height:      s.ImageHeight,
			SizePercent: s.ImageSizePercent,
			GIFFPS:      s.GIFFPS,
			GIFSpan:     s.GIFSpan,
		},
		LabelFields:    p.labels,
		LabelCopyright: s.LabelCopyright,
		LabelHideNames: s.LabelHideNames,
		LabelStyle: media.LabelStyle{
			Font:        s.LabelFont,
			MaxFontSize: s.LabelFontSize,
			Opacity:     s.LabelOpacity,
			FontColor:   s.LabelFontColor,
			StrokeColor: s.LabelStrokeColor,
			StrokeWidth: s.LabelStrokeWidth,
			AlignH:      p.alignH,
			AlignV:      p.alignV,
		},
		CreateDoneFile: s.CreateDoneFile,
		DoneFilename:   s.DoneFilename,
		ResultFilePath: s.ResultFilePath,
		Version:        r.version,
	})
	if err != nil {
		return nil, ms, err
	}

	logger.Info("export finished",
		"project", project,
		"markers", result.MarkerCount,
		"images", result.ImageCount,
		"output", outDir)

	return &Report{
		RunID:       e.RunID,
		ProjectName: project,
		MediaPath:   mediaPath,
		Duplicates:  dupes,
		Result:      result,
	}, ms, nil
}

// projectName prefers the project enclosing the first marker, then the
// first project of the document, then the document file name.
func projectName(doc *fcpxml.Document, ms []markers.Marker, source string) string {
	if len(ms) > 0 && ms[0].ParentInfo.ProjectName != "" {
		return ms[0].ParentInfo.ProjectName
	}
	for _, p := range doc.Projects() {
		if name := p.AttrOr("name", ""); name != "" {
			return name
		}
	}
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func mediaSearchDirs(s Settings) []string {
	if len(s.MediaSearchPaths) > 0 {
		return s.MediaSearchPaths
	}
	return []string{filepath.Dir(filepath.Clean(s.SourcePath))}
}

// FindMedia returns the first regular file named after the project with
// one of MediaExtensions in dirs, or "".
func FindMedia(dirs []string, project string) string {
	name := markers.SanitizeFilename(project)
	if name == "" {
		return ""
	}
	for _, dir := range dirs {
		for _, ext := range MediaExtensions {
			for _, candidate := range []string{name + ext, name + strings.ToUpper(ext)} {
				path := filepath.Join(dir, candidate)
				if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
					return path
				}
			}
		}
	}
	return ""
}

func (r *Runner) startRecord(ctx context.Context, logger *slog.Logger, runID string, s Settings) *history.Run {
	if r.history == nil {
		return nil
	}
	run := &history.Run{
		ID:         runID,
		SourcePath: s.SourcePath,
		Profile:    s.Format,
		OutputDir:  s.OutputDir,
	}
	if err := r.history.CreateRun(ctx, run); err != nil {
		logger.Warn("failed to record run", "error", err)
		return nil
	}
	return run
}

// finishRecord stores the outcome. History errors are logged, never
// returned: the export itself already succeeded or failed.
func (r *Runner) finishRecord(ctx context.Context, logger *slog.Logger, run *history.Run, report *Report, ms []markers.Marker, p parsed, s Settings, runErr error) {
	if run == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	if runErr != nil {
		if err := r.history.FailRun(ctx, run.ID, runErr.Error()); err != nil {
			logger.Warn("failed to record run failure", "error", err)
		}
		return
	}

	tcOpts := timecode.FormatOptions{SubFrames: s.Subframes}
	summaries := make([]history.RunMarker, len(ms))
	for i := range ms {
		m := &ms[i]
		summaries[i] = history.RunMarker{
			Seq:      i + 1,
			MarkerID: m.ID(p.idMode, tcOpts),
			Name:     m.Name,
			Kind:     m.Kind.Name(),
			Status:   string(m.Kind.Status()),
			Position: m.PositionString(tcOpts),
			ClipName: m.ParentInfo.ClipName,
			Notes:    m.Notes,
		}
	}
	if err := r.history.AddMarkers(ctx, run.ID, summaries); err != nil {
		logger.Warn("failed to record run markers", "error", err)
	}

	res := report.Result
	err := r.history.FinishRun(ctx, run.ID, history.Outcome{
		ProjectName:  report.ProjectName,
		OutputDir:    res.ExportFolder,
		MarkerCount:  res.MarkerCount,
		ImageCount:   res.ImageCount,
		ManifestPath: res.ManifestPath(),
	})
	if err != nil {
		logger.Warn("failed to record run result", "error", err)
	}
}

// IsUserError reports whether err stems from invalid input rather than an
// environment failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidSettings) ||
		errors.Is(err, fcpxml.ErrNotFCPXML) ||
		errors.Is(err, markers.ErrEmptyID) ||
		errors.Is(err, markers.ErrStructure) ||
		errors.Is(err, export.ErrUnknownFormat)
}
