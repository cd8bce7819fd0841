package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFile is read from the working directory before environment overrides
// are applied. Variables already set in the environment win.
const EnvFile = ".env"

func (c *Config) applyEnv() error {
	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", EnvFile, err)
	}

	if value, ok := lookupEnv("MUSICWEB_LOG_LEVEL"); ok {
		c.Logging.Level = value
	}
	if value, ok := lookupEnv("MUSICWEB_LOG_FORMAT"); ok {
		c.Logging.Format = value
	}
	if value, ok := lookupEnv("MUSICWEB_FFMPEG"); ok {
		c.Tools.FFmpeg = value
	}
	if value, ok := lookupEnv("MUSICWEB_ZIP"); ok {
		c.Tools.Zip = value
	}
	if value, ok := lookupEnv("MUSICWEB_ALBUM_WORKERS"); ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("MUSICWEB_ALBUM_WORKERS: %w", err)
		}
		c.Build.AlbumWorkers = n
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func (c *Config) normalize() error {
	c.Build.PlaylistFormat = strings.ToLower(strings.TrimSpace(c.Build.PlaylistFormat))

	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	c.Tools.Zip = strings.TrimSpace(c.Tools.Zip)
	if c.Tools.Zip == "" {
		c.Tools.Zip = "zip"
	}

	c.Site.Title = strings.TrimSpace(c.Site.Title)

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}

	for i := range c.Formats {
		f := &c.Formats[i]
		f.ID = strings.TrimSpace(f.ID)
		f.Format = strings.TrimSpace(f.Format)
		f.Extension = strings.ToLower(strings.TrimSpace(f.Extension))
		if f.Extension != "" && !strings.HasPrefix(f.Extension, ".") {
			f.Extension = "." + f.Extension
		}
	}
	return nil
}
