package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDisc()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("MUSICUS_LIBRARY_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.LibraryDir = value
	}

	var err error
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		c.Paths.LibraryDir = defaultLibraryDir
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.LibraryDir, defaultDatabaseName)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeDisc() {
	c.Disc.Device = strings.TrimSpace(c.Disc.Device)
	if c.Disc.Device == "" {
		c.Disc.Device = defaultDevice
	}
	c.Disc.ReaderBinary = strings.TrimSpace(c.Disc.ReaderBinary)
	if c.Disc.ReaderBinary == "" {
		c.Disc.ReaderBinary = defaultReaderBinary
	}
	c.Disc.EncoderBinary = strings.TrimSpace(c.Disc.EncoderBinary)
	if c.Disc.EncoderBinary == "" {
		c.Disc.EncoderBinary = defaultEncoderBinary
	}
	c.Disc.FileExtension = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Disc.FileExtension)), ".")
	if c.Disc.FileExtension == "" {
		c.Disc.FileExtension = defaultFileExtension
	}
	if c.Disc.TOCTimeout == 0 {
		c.Disc.TOCTimeout = defaultTOCTimeout
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = defaultWatchDebounceMS
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
