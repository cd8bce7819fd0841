package model

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Album represents one source music directory and everything derived from it.
//
// Album contains:
//   - Slug, SourcePath and Path (output directory) for file placement
//   - Title, Artists, Genres and Date derived from the reference songs
//   - Songs in the reference (lossless) encoding
//   - One FormatGroup per encoding actually produced
//   - Auxiliary file names (images, logs, cuesheets, playlists)
//
// The output path is a pure function of the output root and the slug, so it
// is reproducible without prior state:
//
//	album := NewAlbum("/music/Test Album", "/www")
//	// album.Slug = "test-album"
//	// album.Path = "/www/test-album"
type Album struct {
	Slug       string
	SourcePath string
	Path       string

	// Title is the album tag of the first reference song.
	Title string

	// Artists and Genres are sorted and deduplicated across reference songs.
	Artists []string
	Genres  []string

	// Date is the date tag of the first reference song.
	Date string

	// Songs are the reference encoding songs ordered by track number.
	Songs []*Song

	// Formats has one group per encoding produced, in catalog order.
	Formats []*FormatGroup

	// Archives pairs each archive file name with its encoding ID.
	Archives []Archive

	// Images are ordered by pixel width, ascending. The last UnprobedImages
	// entries are images whose width could not be read, in name order.
	Images         []string
	UnprobedImages int

	Logs      []string
	Cuesheets []string
	Playlists []string
}

// ProbedImages returns the images with a known width, widest last.
func (a *Album) ProbedImages() []string {
	n := len(a.Images) - a.UnprobedImages
	if n < 0 {
		n = 0
	}
	return a.Images[:n]
}

// Archive names a packaged format archive.
type Archive struct {
	FileName string
	Encoding string
}

// NewAlbum creates an Album whose slug and output path are derived from the
// source directory name.
func NewAlbum(sourcePath, outputRoot string, slugify func(string) string) *Album {
	slug := slugify(filepath.Base(sourcePath))
	return &Album{
		Slug:       slug,
		SourcePath: sourcePath,
		Path:       filepath.Join(outputRoot, slug),
	}
}

// Format returns the group for an encoding slug, or nil.
func (a *Album) Format(slug string) *FormatGroup {
	for _, g := range a.Formats {
		if g.Encoding == slug {
			return g
		}
	}
	return nil
}

// Artist joins the artist set for display.
func (a *Album) Artist() string {
	return strings.Join(a.Artists, ", ")
}

// Duration is the total playing time of the reference songs.
func (a *Album) Duration() time.Duration {
	var total time.Duration
	for _, s := range a.Songs {
		total += s.Duration
	}
	return total
}

// FormattedDate renders Date for display. Full dates become "January 2, 2006",
// year-month dates "January 2006"; anything else is returned unchanged.
func (a *Album) FormattedDate() string {
	return FormatDate(a.Date)
}

var dateLayouts = []struct {
	parse   string
	display string
}{
	{"2006-01-02", "January 2, 2006"},
	{"2006-01", "January 2006"},
	{"2006", "2006"},
	{time.RFC3339, "January 2, 2006"},
}

// FormatDate renders a tag date for display. See Album.FormattedDate.
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l.parse, value); err == nil {
			return t.Format(l.display)
		}
	}
	return value
}

// UniqueSorted returns the distinct non-empty values, sorted.
func UniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// SortAlbums orders albums by title, case-insensitively, breaking ties by slug.
func SortAlbums(albums []*Album) {
	sort.SliceStable(albums, func(i, j int) bool {
		ti, tj := strings.ToLower(albums[i].Title), strings.ToLower(albums[j].Title)
		if ti != tj {
			return ti < tj
		}
		return albums[i].Slug < albums[j].Slug
	})
}
