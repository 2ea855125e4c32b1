package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceLocal, cfg.SourceKind)
	assert.True(t, filepath.IsAbs(cfg.SourceDir))
	assert.True(t, filepath.IsAbs(cfg.DestDir))
	assert.True(t, filepath.IsAbs(cfg.HistoryPath))
	assert.Equal(t, DefaultDriveSuffix, cfg.DriveSuffixName)
	assert.Equal(t, DefaultRescanInterval, cfg.RescanInterval)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultStatsInterval, cfg.StatsInterval)
}

func TestValidateResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		SourceDir:   dir,
		DestDir:     filepath.Join(dir, "out"),
		HistoryPath: filepath.Join(dir, "history.json"),
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, dir, cfg.SourceDir)
}

func TestValidateS3RequiresBucket(t *testing.T) {
	cfg := &Config{SourceKind: SourceS3}
	assert.Error(t, cfg.Validate())

	cfg = &Config{SourceKind: SourceS3, S3: S3Config{Bucket: "my-bucket"}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "us-east-1", cfg.S3.Region)
}

func TestValidateUnknownKind(t *testing.T) {
	cfg := &Config{SourceKind: "ftp"}
	assert.Error(t, cfg.Validate())
}
