// Package cli implements the markers-extractor commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/heimdex/markers-extractor/internal/config"
	"github.com/heimdex/markers-extractor/internal/db"
	"github.com/heimdex/markers-extractor/internal/history"
	"github.com/heimdex/markers-extractor/internal/logging"
	"github.com/heimdex/markers-extractor/internal/media"
)

var (
	configFile string
	quiet      bool

	cfg     *config.ViperConfig
	logger  *slog.Logger
	logFile io.Closer
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "markers-extractor",
	Short:         "Extract markers from Final Cut Pro XML projects",
	Long:          "Reads an FCPXML document, extracts its markers, to-dos and chapters, and exports them as csv, tsv, txt, json or edl manifests with thumbnails.",
	Version:       config.Version,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (json, yaml or toml)")
	pf.String("log", "", "Log file path")
	pf.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")
	pf.String("log-format", config.DefaultLogFormat, "Console log format: text or json")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Disable console logging")
}

// setup loads config, binds the logging flags over it and builds the
// logger shared by every command.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.New(configFile)
	if err != nil {
		return err
	}

	v := cfg.Viper()
	pf := cmd.Flags()
	for key, flag := range map[string]string{
		config.KeyLogFile:   "log",
		config.KeyLogLevel:  "log-level",
		config.KeyLogFormat: "log-format",
	} {
		if f := pf.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", flag, err)
			}
		}
	}

	opts := logging.Options{
		Level:  cfg.LogLevel(),
		Format: cfg.LogFormat(),
		Quiet:  quiet,
	}
	if path := cfg.LogFile(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", path, err)
		}
		opts.File = f
		logFile = f
	}
	logger = logging.NewLogger(opts)
	return nil
}

func newFFmpeg() *media.FFmpeg {
	return media.NewFFmpeg(media.Config{
		FFmpegPath:  cfg.FFmpegPath(),
		FFprobePath: cfg.FFprobePath(),
		Timeout:     cfg.RenderTimeout(),
		Concurrency: cfg.RenderConcurrency(),
		Logger:      logging.WithComponent(logger, "media"),
	})
}

// openHistory opens the run history database. It returns a nil repository
// when history is disabled.
func openHistory() (*db.DB, history.Repository, error) {
	if !cfg.HistoryEnabled() {
		return nil, nil, nil
	}
	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return nil, nil, err
	}
	return database, history.NewRepository(database.Conn()), nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
