// Package config provides configuration management for markers-extractor.
// Values come from defaults, an optional config file and MARKERS_*
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultPort              = 8788
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultDataDir           = ".markers-extractor"
	DefaultRenderTimeout     = 2 * time.Minute
	DefaultRenderConcurrency = 0 // one per CPU

	// EnvPrefix is prepended to every environment variable, e.g.
	// MARKERS_LOG_LEVEL for "log.level".
	EnvPrefix = "MARKERS"

	// Database filename
	DBFilename = "history.db"
)

// Config keys.
const (
	KeyPort              = "port"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyLogFile           = "log.file"
	KeyDataDir           = "data_dir"
	KeyAPIToken          = "api_token"
	KeyFFmpegPath        = "ffmpeg.path"
	KeyFFprobePath       = "ffprobe.path"
	KeyHistoryEnabled    = "history.enabled"
	KeyRenderTimeout     = "render.timeout"
	KeyRenderConcurrency = "render.concurrency"
)

var ErrInvalid = errors.New("invalid configuration")

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	LogFormat() string
	LogFile() string
	DataDir() string
	DBPath() string
	APIToken() string
	FFmpegPath() string
	FFprobePath() string
	HistoryEnabled() bool
	RenderTimeout() time.Duration
	RenderConcurrency() int
}

// ViperConfig reads configuration through a private viper instance.
type ViperConfig struct {
	v *viper.Viper
}

// New loads configuration. configFile may be empty; when set it must
// exist and its type is taken from the extension.
func New(configFile string) (*ViperConfig, error) {
	v := viper.New()

	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyDataDir, defaultDataDir())
	v.SetDefault(KeyAPIToken, "")
	v.SetDefault(KeyFFmpegPath, "")
	v.SetDefault(KeyFFprobePath, "")
	v.SetDefault(KeyHistoryEnabled, true)
	v.SetDefault(KeyRenderTimeout, DefaultRenderTimeout)
	v.SetDefault(KeyRenderConcurrency, DefaultRenderConcurrency)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %q: %w", configFile, err)
		}
	}

	cfg := &ViperConfig{v: v}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ViperConfig) validate() error {
	if p := c.Port(); p < 1 || p > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalid, p)
	}
	switch strings.ToLower(c.LogFormat()) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json, got %q", ErrInvalid, c.LogFormat())
	}
	if c.RenderTimeout() < 0 {
		return fmt.Errorf("%w: render timeout cannot be negative", ErrInvalid)
	}
	return nil
}

// Viper exposes the underlying instance so that command flags can be bound
// to config keys.
func (c *ViperConfig) Viper() *viper.Viper { return c.v }

// Port returns the HTTP server port
func (c *ViperConfig) Port() int { return c.v.GetInt(KeyPort) }

// LogLevel returns the log level (debug, info, warn, error)
func (c *ViperConfig) LogLevel() string { return c.v.GetString(KeyLogLevel) }

func (c *ViperConfig) LogFormat() string { return c.v.GetString(KeyLogFormat) }

// LogFile returns the optional log file path.
func (c *ViperConfig) LogFile() string { return c.v.GetString(KeyLogFile) }

func (c *ViperConfig) DataDir() string { return c.v.GetString(KeyDataDir) }

// DBPath returns the full path to the SQLite database file
func (c *ViperConfig) DBPath() string {
	return filepath.Join(c.DataDir(), DBFilename)
}

// APIToken is the bearer token required by the HTTP API. When empty, serve
// generates one per process.
func (c *ViperConfig) APIToken() string { return c.v.GetString(KeyAPIToken) }

func (c *ViperConfig) FFmpegPath() string { return c.v.GetString(KeyFFmpegPath) }

func (c *ViperConfig) FFprobePath() string { return c.v.GetString(KeyFFprobePath) }

func (c *ViperConfig) HistoryEnabled() bool { return c.v.GetBool(KeyHistoryEnabled) }

func (c *ViperConfig) RenderTimeout() time.Duration { return c.v.GetDuration(KeyRenderTimeout) }

func (c *ViperConfig) RenderConcurrency() int { return c.v.GetInt(KeyRenderConcurrency) }

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
