package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/turbosort/turbosort/internal/utils"
)

type SourceKind string

const (
	SourceLocal SourceKind = "local"
	SourceS3    SourceKind = "s3"
)

const (
	DefaultSourceDir      = "source"
	DefaultDestDir        = "destination"
	DefaultHistoryPath    = "turbosort_history.json"
	DefaultDriveSuffix    = "incoming"
	DefaultRescanInterval = 5 * time.Minute
	DefaultPollInterval   = 30 * time.Second
	DefaultStatsInterval  = 5 * time.Minute
	DefaultDebounceQuiet  = 2 * time.Second
	DefaultDebounceDrain  = time.Second
)

// S3Config holds the remote source location and credentials.
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Config is built once at startup, field by field from flat viper keys
// ("source_dir", "s3_bucket", ...), and passed into every component
// constructor. It is never mutated after Validate.
type Config struct {
	SourceKind SourceKind
	SourceDir  string
	S3         S3Config

	DestDir     string
	HistoryPath string

	YearPrefix      bool
	DriveSuffix     bool
	DriveSuffixName string

	ForceRecopy bool

	RescanInterval time.Duration
	PollInterval   time.Duration
	StatsInterval  time.Duration
}

// Validate fills defaults, resolves all local paths to absolute form and
// rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.SourceKind == "" {
		c.SourceKind = SourceLocal
	}

	switch c.SourceKind {
	case SourceLocal:
		if c.SourceDir == "" {
			c.SourceDir = DefaultSourceDir
		}
		srcDir, err := utils.ResolvePath(c.SourceDir)
		if err != nil {
			return fmt.Errorf("resolve source dir: %w", err)
		}
		c.SourceDir = srcDir

	case SourceS3:
		if c.S3.Bucket == "" {
			return errors.New("s3 source requires a bucket")
		}
		if c.S3.Region == "" {
			c.S3.Region = "us-east-1"
		}

	default:
		return fmt.Errorf("unknown source kind %q", c.SourceKind)
	}

	if c.DestDir == "" {
		c.DestDir = DefaultDestDir
	}
	destDir, err := utils.ResolvePath(c.DestDir)
	if err != nil {
		return fmt.Errorf("resolve dest dir: %w", err)
	}
	c.DestDir = destDir

	if c.HistoryPath == "" {
		c.HistoryPath = DefaultHistoryPath
	}
	historyPath, err := utils.ResolvePath(c.HistoryPath)
	if err != nil {
		return fmt.Errorf("resolve history path: %w", err)
	}
	c.HistoryPath = historyPath

	if c.DriveSuffixName == "" {
		c.DriveSuffixName = DefaultDriveSuffix
	}

	if c.RescanInterval <= 0 {
		c.RescanInterval = DefaultRescanInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = DefaultStatsInterval
	}

	return nil
}
