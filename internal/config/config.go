package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/handiism/musicweb/internal/catalog"
)

//go:embed sample_config.toml
var sampleConfig string

// Build contains album and format build settings.
type Build struct {
	AlbumWorkers       int    `toml:"album_workers"`
	FormatWorkers      int    `toml:"format_workers"`
	ProcessLimit       int    `toml:"process_limit"` // 0 = number of CPUs
	RetagLossy         bool   `toml:"retag_lossy"`
	ExtractEmbeddedArt bool   `toml:"extract_embedded_art"`
	Durations          bool   `toml:"durations"`
	PlaylistFormat     string `toml:"playlist_format"` // m3u, pls, wpl, zpl or none
	M3UExtended        bool   `toml:"m3u_extended"`
}

// Tools names the external binaries.
type Tools struct {
	FFmpeg string `toml:"ffmpeg"`
	Zip    string `toml:"zip"`
}

// Site contains page rendering settings.
type Site struct {
	Enabled       bool   `toml:"enabled"`
	Title         string `toml:"title"`
	ThumbnailSize int    `toml:"thumbnail_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for musicweb.
type Config struct {
	Build   Build              `toml:"build"`
	Tools   Tools              `toml:"tools"`
	Site    Site               `toml:"site"`
	Logging Logging            `toml:"logging"`
	Formats []catalog.Encoding `toml:"formats,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Build: Build{
			AlbumWorkers:       2,
			FormatWorkers:      2,
			RetagLossy:         true,
			ExtractEmbeddedArt: true,
			Durations:          true,
			PlaylistFormat:     "m3u",
			M3UExtended:        true,
		},
		Tools: Tools{
			FFmpeg: "ffmpeg",
			Zip:    "zip",
		},
		Site: Site{
			Enabled:       true,
			Title:         "Music",
			ThumbnailSize: 300,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/musicweb/config.toml")
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the path it resolved and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("musicweb.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Catalog builds the format catalog from the configured formats, or the
// stock catalog when none are configured.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	if len(c.Formats) == 0 {
		return catalog.Default(), nil
	}
	return catalog.New(c.Formats)
}

// Save writes the configuration as TOML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// CreateSample writes the commented sample configuration to path. An
// existing file is only replaced when overwrite is set.
func CreateSample(path string, overwrite bool) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(expanded); err == nil {
			return fmt.Errorf("config file %s already exists", expanded)
		}
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
