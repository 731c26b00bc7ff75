package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/heimdex/markers-extractor/internal/markers"
)

var ErrInvalidOutputDir = errors.New("invalid output directory")

// ValidateOutputDir checks that dir is a clean path to an existing
// directory.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidOutputDir)
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("%w: %q contains path traversal", ErrInvalidOutputDir, dir)
		}
	}

	if filepath.Clean(dir) != dir {
		return fmt.Errorf("%w: %q is not a clean path", ErrInvalidOutputDir, dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q does not exist", ErrInvalidOutputDir, dir)
		}
		return fmt.Errorf("%w: %w", ErrInvalidOutputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrInvalidOutputDir, dir)
	}
	return nil
}

// ExportFolderName names the per-run folder: the project name, the date
// and the profile, e.g. "Cut 1 2024-05-01 10-30-00 [csv]".
func ExportFolderName(projectName string, f Format, at time.Time) string {
	name := markers.SanitizeFilename(projectName)
	if name == "" {
		name = "markers"
	}
	return fmt.Sprintf("%s %s [%s]", name, at.Format("2006-01-02 15-04-05"), f)
}

// CreateExportFolder creates a new folder for one run under parent. An
// existing folder of the same name gets a numeric suffix instead of being
// reused.
func CreateExportFolder(parent, projectName string, f Format, at time.Time) (string, error) {
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %q: %w", parent, err)
	}
	base := ExportFolderName(projectName, f, at)
	dir := filepath.Join(parent, base)
	for n := 2; ; n++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to create export folder %q: %w", dir, err)
		}
		dir = filepath.Join(parent, fmt.Sprintf("%s %d", base, n))
	}
}
