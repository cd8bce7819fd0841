package config

import (
	"errors"
	"fmt"

	"github.com/handiism/musicweb/internal/audio"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBuild(); err != nil {
		return err
	}
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("formats: %w", err)
	}
	return nil
}

func (c *Config) validateBuild() error {
	if c.Build.AlbumWorkers < 1 {
		return errors.New("build.album_workers must be at least 1")
	}
	if c.Build.FormatWorkers < 1 {
		return errors.New("build.format_workers must be at least 1")
	}
	if c.Build.ProcessLimit < 0 {
		return errors.New("build.process_limit must be 0 (number of CPUs) or positive")
	}
	if c.Build.PlaylistFormat != "none" {
		if _, err := audio.ParsePlaylistFormat(c.Build.PlaylistFormat); err != nil {
			return fmt.Errorf("build.playlist_format: %w", err)
		}
	}
	return nil
}

func (c *Config) validateSite() error {
	if c.Site.Enabled && c.Site.ThumbnailSize < 16 {
		return errors.New("site.thumbnail_size must be at least 16")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// PlaylistsEnabled reports whether format directories receive a playlist.
func (c *Config) PlaylistsEnabled() bool {
	return c.Build.PlaylistFormat != "none"
}
