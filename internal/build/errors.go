package build

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoDecodableAudio is returned when none of an album's reference
	// files has readable tags. The album is not emitted.
	ErrNoDecodableAudio = errors.New("no decodable audio")

	// ErrEmptyFormat is reported when a format directory holds no readable songs.
	ErrEmptyFormat = errors.New("format has no readable songs")

	// ErrEmptySlug is returned for a source directory whose name has no
	// slug, e.g. one made of punctuation only.
	ErrEmptySlug = errors.New("source directory name has an empty slug")

	// ErrDuplicateSlug is returned for a source directory whose slug is
	// already used by another source directory.
	ErrDuplicateSlug = errors.New("album slug already used")
)

// Stage names the step of a format build that failed.
type Stage string

const (
	StageStage     Stage = "stage"
	StageCopy      Stage = "copy"
	StageTranscode Stage = "transcode"
	StageRename    Stage = "rename"
	StageRetag     Stage = "retag"
	StagePlaylist  Stage = "playlist"
	StageMarker    Stage = "marker"
	StageInventory Stage = "inventory"
	StageArchive   Stage = "archive"
)

// FormatError is a failure building one encoding of an album. When its
// Stage is fatal to the format, the FormatGroup is omitted from the album;
// sibling formats are unaffected.
type FormatError struct {
	Encoding string
	Stage    Stage
	Err      error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format %s: %s: %v", e.Encoding, e.Stage, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// AuxiliaryCopyError is a failure copying one non-audio file into the
// album's output directory. The file is left out.
type AuxiliaryCopyError struct {
	File string
	Err  error
}

func (e *AuxiliaryCopyError) Error() string {
	return fmt.Sprintf("copy %s: %v", e.File, e.Err)
}

func (e *AuxiliaryCopyError) Unwrap() error {
	return e.Err
}

// StaleFormatError reports a reused format whose recorded sources or
// encoder settings no longer match. The format is still published as is.
type StaleFormatError struct {
	Encoding string
	Added    []string
	Removed  []string
	Settings bool
}

func (e *StaleFormatError) Error() string {
	var parts []string
	if len(e.Added) > 0 {
		parts = append(parts, "new sources "+strings.Join(e.Added, ", "))
	}
	if len(e.Removed) > 0 {
		parts = append(parts, "removed sources "+strings.Join(e.Removed, ", "))
	}
	if e.Settings {
		parts = append(parts, "encoder settings changed")
	}
	return fmt.Sprintf("format %s is stale: %s", e.Encoding, strings.Join(parts, "; "))
}

// TagConflictError reports reference songs that disagree on an album-level
// field. The value of the first song in track order is used.
type TagConflictError struct {
	Field  string
	Used   string
	Values []string
}

func (e *TagConflictError) Error() string {
	return fmt.Sprintf("songs disagree on %s %q, using %q", e.Field, strings.Join(e.Values, `", "`), e.Used)
}
