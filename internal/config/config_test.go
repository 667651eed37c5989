package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.GreaterOrEqual(t, cfg.CopyWorkers, 1)
	assert.True(t, cfg.KeepBrokenRevisions, "retain-and-report is the default carve policy")
	assert.False(t, cfg.MaterializeRevisions)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"zero copy workers", func(c *Config) { c.CopyWorkers = 0 }},
		{"non-positive max file size", func(c *Config) { c.MaxFileSize = 0 }},
		{"negative max revisions", func(c *Config) { c.MaxRevisions = -1 }},
		{"non-positive exiftool timeout", func(c *Config) { c.ExifToolTimeout = 0 }},
		{"zero visual page cap", func(c *Config) { c.VisualPageCap = 0 }},
		{"visual dpi too low", func(c *Config) { c.VisualDPI = 12 }},
		{"visual dpi too high", func(c *Config) { c.VisualDPI = 1200 }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRevisionPaths(t *testing.T) {
	assert.Equal(t, "/evidence/contract_revisions", RevisionDir("/evidence/contract.pdf"))
	assert.Equal(t, "contract_rev2_11734.pdf", RevisionFileName("/evidence/contract.pdf", 2, 11734))
	assert.Equal(t, "contract", Stem("/evidence/contract.pdf"))
	assert.Equal(t, "archive.tar", Stem("archive.tar.gz"))
}

func TestIsDebug(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.IsDebug())
	cfg.LogLevel = "debug"
	assert.True(t, cfg.IsDebug())
}
