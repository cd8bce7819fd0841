package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Song represents one audio file in one encoding.
//
// Song contains the metadata read from the file's tags plus the encoding
// it was produced for. Songs are rebuilt from the filesystem on every run
// and never persisted.
//
// Example:
//
//	song := &Song{Path: "/www/album/v0/01-intro.mp3", FileName: "01-intro.mp3", Track: 1}
//	fmt.Println(song.DisplayEncoding()) // "MP3 V0"
type Song struct {
	// Path is the absolute path of the audio file.
	Path string

	// FileName is the slugified base name of the file.
	FileName string

	// Track is the track number. It is the primary ordering key within a
	// format group.
	Track int

	Title  string
	Artist string
	Album  string
	Genre  string

	// Date is the release date tag as found in the file ("2024", "2024-03-01").
	Date string

	// Format is the container/codec the file was actually encoded in,
	// as reported by the tag reader (e.g. "FLAC", "MP3").
	Format string

	// Encoding is the requested catalog encoding ID (e.g. "V0").
	Encoding string

	// Duration is the playing time. Zero when it could not be determined.
	Duration time.Duration
}

// DisplayEncoding combines format and encoding for display: the format
// alone when both match, otherwise "format encoding".
func (s *Song) DisplayEncoding() string {
	switch {
	case s.Encoding == "":
		return s.Format
	case s.Format == "" || strings.EqualFold(s.Format, s.Encoding):
		return s.Encoding
	default:
		return s.Format + " " + s.Encoding
	}
}

// DisplayDuration formats Duration as m:ss, or "" when unknown.
func (s *Song) DisplayDuration() string {
	if s.Duration <= 0 {
		return ""
	}
	secs := int(s.Duration.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// SortSongs orders songs by track number, breaking ties by file name.
// The sort is stable so equal entries keep their enumeration order.
func SortSongs(songs []*Song) {
	sort.SliceStable(songs, func(i, j int) bool {
		if songs[i].Track != songs[j].Track {
			return songs[i].Track < songs[j].Track
		}
		return songs[i].FileName < songs[j].FileName
	})
}

// FormatGroup holds all songs of one album in one target encoding.
type FormatGroup struct {
	// Encoding is the encoding slug, unique within an album.
	Encoding string

	// Label is the display label of the encoding (e.g. "MP3 V0").
	Label string

	// Songs are ordered by track number.
	Songs []*Song

	// Dir is the encoded directory.
	Dir string

	// ArchivePath is the packaged archive of Dir.
	ArchivePath string

	// ArchiveSize is the archive size in bytes, zero when unknown.
	ArchiveSize int64
}

// TotalDuration sums the durations of the group's songs.
func (g *FormatGroup) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range g.Songs {
		total += s.Duration
	}
	return total
}
