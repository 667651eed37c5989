package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultMaxFileSize     = 512 * 1024 * 1024 // 512MB
	DefaultMaxRevisions    = 64
	DefaultExifToolTimeout = 30 * time.Second
	DefaultRenderTimeout   = 60 * time.Second
	DefaultVisualPageCap   = 5
	DefaultVisualDPI       = 72
	DefaultLogLevel        = "info"

	// Directory permissions for materialized revisions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for a scan session. A Config value is
// immutable once validated: the coordinator and every component receive it
// by value or as a read-only pointer and never write back.
type Config struct {
	// Scan configuration
	Workers      int   // analysis worker pool size
	CopyWorkers  int   // revision copy-out pool size
	MaxFileSize  int64 // maximum PDF file size in bytes
	MaxRevisions int   // cap on carved revisions per document

	// External tool configuration
	ExifToolPath    string
	ExifToolTimeout time.Duration
	PdftoppmPath    string
	RenderTimeout   time.Duration

	// Visual comparison configuration
	VisualPageCap int
	VisualDPI     int

	// Revision handling
	KeepBrokenRevisions  bool // retain-and-report carves exiftool calls broken
	MaterializeRevisions bool // write carved revisions next to the original

	// Application configuration
	Version  string
	LogLevel string
	LogJSON  bool
}

// Default returns a configuration with sensible defaults. Worker counts are
// derived from available hardware parallelism.
func Default() *Config {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	copyWorkers := workers / 4
	if copyWorkers < 1 {
		copyWorkers = 1
	}

	return &Config{
		Workers:              workers,
		CopyWorkers:          copyWorkers,
		MaxFileSize:          DefaultMaxFileSize,
		MaxRevisions:         DefaultMaxRevisions,
		ExifToolPath:         "exiftool",
		ExifToolTimeout:      DefaultExifToolTimeout,
		PdftoppmPath:         "pdftoppm",
		RenderTimeout:        DefaultRenderTimeout,
		VisualPageCap:        DefaultVisualPageCap,
		VisualDPI:            DefaultVisualDPI,
		KeepBrokenRevisions:  true,
		MaterializeRevisions: false,
		Version:              "1.0.0",
		LogLevel:             DefaultLogLevel,
		LogJSON:              false,
	}
}

// BindFlags registers all configuration flags on the given flag set and
// wires them to viper so PDFSCOUT_* environment variables override defaults.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	viper.SetEnvPrefix("PDFSCOUT")
	viper.AutomaticEnv()

	fs.Int("workers", cfg.Workers, "Analysis worker pool size")
	fs.Int("copy-workers", cfg.CopyWorkers, "Revision copy-out pool size")
	fs.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Int("max-revisions", cfg.MaxRevisions, "Maximum carved revisions per document")
	fs.String("exiftool", cfg.ExifToolPath, "Path to the exiftool binary")
	fs.Duration("exiftool-timeout", cfg.ExifToolTimeout, "Timeout per exiftool invocation")
	fs.String("pdftoppm", cfg.PdftoppmPath, "Path to the pdftoppm binary")
	fs.Duration("render-timeout", cfg.RenderTimeout, "Timeout per page render")
	fs.Int("visual-pages", cfg.VisualPageCap, "Maximum pages compared per revision")
	fs.Int("visual-dpi", cfg.VisualDPI, "Render resolution for visual comparison")
	fs.Bool("keep-broken-revisions", cfg.KeepBrokenRevisions,
		"Retain carved revisions that fail structural validation")
	fs.Bool("materialize-revisions", cfg.MaterializeRevisions,
		"Write carved revisions to a sibling directory of the original")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Bool("logjson", cfg.LogJSON, "Emit logs as JSON instead of console format")

	for _, name := range []string{
		"workers", "copy-workers", "max-file-size", "max-revisions",
		"exiftool", "exiftool-timeout", "pdftoppm", "render-timeout",
		"visual-pages", "visual-dpi", "keep-broken-revisions",
		"materialize-revisions", "loglevel", "logjson",
	} {
		_ = viper.BindPFlag(name, fs.Lookup(name))
	}
}

// FromViper fills the config struct with resolved flag/env values.
func FromViper(cfg *Config) {
	cfg.Workers = viper.GetInt("workers")
	cfg.CopyWorkers = viper.GetInt("copy-workers")
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
	cfg.MaxRevisions = viper.GetInt("max-revisions")
	cfg.ExifToolPath = viper.GetString("exiftool")
	cfg.ExifToolTimeout = viper.GetDuration("exiftool-timeout")
	cfg.PdftoppmPath = viper.GetString("pdftoppm")
	cfg.RenderTimeout = viper.GetDuration("render-timeout")
	cfg.VisualPageCap = viper.GetInt("visual-pages")
	cfg.VisualDPI = viper.GetInt("visual-dpi")
	cfg.KeepBrokenRevisions = viper.GetBool("keep-broken-revisions")
	cfg.MaterializeRevisions = viper.GetBool("materialize-revisions")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.LogJSON = viper.GetBool("logjson")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("worker count must be at least 1")
	}
	if c.CopyWorkers < 1 {
		return errors.New("copy worker count must be at least 1")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.MaxRevisions < 0 {
		return errors.New("maximum revision count cannot be negative")
	}
	if c.ExifToolTimeout <= 0 {
		return errors.New("exiftool timeout must be positive")
	}
	if c.VisualPageCap < 1 {
		return errors.New("visual page cap must be at least 1")
	}
	if c.VisualDPI < 36 || c.VisualDPI > 600 {
		return fmt.Errorf("visual DPI %d out of range (36-600)", c.VisualDPI)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// RevisionDir returns the sibling directory used to materialize carved
// revisions of the given file.
func RevisionDir(path string) string {
	dir := filepath.Dir(path)
	stem := Stem(path)
	return filepath.Join(dir, stem+"_revisions")
}

// RevisionFileName returns the deterministic name for a materialized
// revision: stem, sequence number and source byte offset.
func RevisionFileName(path string, sequence int, offset int64) string {
	return fmt.Sprintf("%s_rev%d_%d.pdf", Stem(path), sequence, offset)
}

// Stem returns the file name without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Workers: %d, CopyWorkers: %d, MaxFileSize: %d, MaxRevisions: %d, LogLevel: %s}",
		c.Workers, c.CopyWorkers, c.MaxFileSize, c.MaxRevisions, c.LogLevel)
}
