package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	ioutils "github.com/handiism/musicweb/internal/io"
)

// StateDir is the per-album directory holding build markers.
const StateDir = ".musicweb"

// Marker records what a format directory was built from. It is written
// when a format is staged and compared on later runs.
type Marker struct {
	Encoding    string    `yaml:"encoding"`
	Label       string    `yaml:"label"`
	Fingerprint string    `yaml:"fingerprint"`
	Sources     []string  `yaml:"sources"`
	BuiltAt     time.Time `yaml:"built_at"`
	RunID       string    `yaml:"run_id,omitempty"`
}

func markerPath(albumPath, formatSlug string) string {
	return filepath.Join(albumPath, StateDir, formatSlug+".yaml")
}

// WriteMarker stores m for the format in albumPath.
func WriteMarker(albumPath, formatSlug string, m *Marker) error {
	path := markerPath(albumPath, formatSlug)
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode marker: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadMarker loads the marker of a format. It returns (nil, nil) when the
// format has none.
func ReadMarker(albumPath, formatSlug string) (*Marker, error) {
	data, err := os.ReadFile(markerPath(albumPath, formatSlug))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Marker
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode marker: %w", err)
	}
	return &m, nil
}

// Compare returns a StaleFormatError when the marker was built from other
// sources or other encoder settings, nil otherwise.
func (m *Marker) Compare(fingerprint string, sources []string) *StaleFormatError {
	had := make(map[string]bool, len(m.Sources))
	for _, s := range m.Sources {
		had[s] = true
	}
	have := make(map[string]bool, len(sources))
	for _, s := range sources {
		have[s] = true
	}

	stale := &StaleFormatError{Encoding: m.Encoding, Settings: m.Fingerprint != fingerprint}
	for s := range have {
		if !had[s] {
			stale.Added = append(stale.Added, s)
		}
	}
	for s := range had {
		if !have[s] {
			stale.Removed = append(stale.Removed, s)
		}
	}
	if !stale.Settings && len(stale.Added) == 0 && len(stale.Removed) == 0 {
		return nil
	}
	sort.Strings(stale.Added)
	sort.Strings(stale.Removed)
	return stale
}
