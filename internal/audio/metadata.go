package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bogem/id3v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"github.com/handiism/musicweb/internal/model"
)

// TagReadError is returned when a file's tags cannot be read.
type TagReadError struct {
	Path string
	Err  error
}

func (e *TagReadError) Error() string {
	return fmt.Sprintf("read tags %s: %v", e.Path, e.Err)
}

func (e *TagReadError) Unwrap() error {
	return e.Err
}

// Tags is the subset of file metadata the site is built from.
type Tags struct {
	Track  int
	Title  string
	Artist string
	Album  string
	Genre  string
	Date   string

	// Format is the container/codec name, e.g. "FLAC" or "MP3".
	Format string

	// Duration is zero when it could not be determined.
	Duration time.Duration
}

// TagReader reads metadata from one audio file.
//
// Implementations return a *TagReadError when the file cannot be parsed.
type TagReader interface {
	ReadTags(path string) (Tags, error)
}

// Reader is the TagReader used for real files. It dispatches on the file
// extension: FLAC via go-flac Vorbis comments, MP3 via id3v2 and every
// other container via dhowden/tag.
//
// Example:
//
//	r := audio.NewReader(true)
//	tags, err := r.ReadTags("/www/album/flac/01-intro.flac")
//	var tre *audio.TagReadError
//	if errors.As(err, &tre) {
//	    // skip the file
//	}
type Reader struct {
	durations bool
}

// NewReader creates a Reader. When durations is true the audio stream is
// decoded to measure playing time; failures there leave Duration at zero.
func NewReader(durations bool) *Reader {
	return &Reader{durations: durations}
}

// ReadTags implements TagReader.
func (r *Reader) ReadTags(path string) (Tags, error) {
	var (
		tags Tags
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		tags, err = readFLAC(path)
	case ".mp3":
		tags, err = readID3(path)
	default:
		tags, err = readGeneric(path)
	}
	if err != nil {
		return Tags{}, &TagReadError{Path: path, Err: err}
	}

	if r.durations {
		if d, err := Duration(path); err == nil {
			tags.Duration = d
		}
	}
	return tags, nil
}

func readFLAC(path string) (Tags, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return Tags{}, err
	}

	tags := Tags{Format: "FLAC"}
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			return Tags{}, err
		}
		tags.Title = vorbisField(cmt, flacvorbis.FIELD_TITLE)
		tags.Artist = vorbisField(cmt, flacvorbis.FIELD_ARTIST)
		tags.Album = vorbisField(cmt, flacvorbis.FIELD_ALBUM)
		tags.Genre = vorbisField(cmt, flacvorbis.FIELD_GENRE)
		tags.Date = vorbisField(cmt, flacvorbis.FIELD_DATE)
		tags.Track = parseTrack(vorbisField(cmt, flacvorbis.FIELD_TRACKNUMBER))
		break
	}
	return tags, nil
}

// vorbisField returns the first value of a comment field. Field names are
// case-insensitive.
func vorbisField(cmt *flacvorbis.MetaDataBlockVorbisComment, field string) string {
	for _, c := range cmt.Comments {
		key, value, ok := strings.Cut(c, "=")
		if ok && strings.EqualFold(key, field) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func readID3(path string) (Tags, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Tags{}, err
	}
	defer t.Close()

	return Tags{
		Format: "MP3",
		Title:  t.Title(),
		Artist: t.Artist(),
		Album:  t.Album(),
		Genre:  t.Genre(),
		Date:   t.Year(),
		Track:  parseTrack(t.GetTextFrame("TRCK").Text),
	}, nil
}

func readGeneric(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Tags{}, err
	}

	tags := Tags{
		Format: formatName(m.FileType()),
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
		Genre:  m.Genre(),
	}
	tags.Track, _ = m.Track()
	if y := m.Year(); y > 0 {
		tags.Date = strconv.Itoa(y)
	}
	return tags, nil
}

func formatName(ft tag.FileType) string {
	switch ft {
	case tag.OGG:
		return "Ogg Vorbis"
	case tag.M4A, tag.M4B:
		return "AAC"
	case tag.UnknownFileType:
		return ""
	default:
		return string(ft)
	}
}

// parseTrack reads "3" or "3/12" as 3. Anything else is 0.
func parseTrack(s string) int {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NewSong builds the Song for a file from its tags.
func NewSong(path, encoding string, tags Tags) *model.Song {
	return &model.Song{
		Path:     path,
		FileName: filepath.Base(path),
		Track:    tags.Track,
		Title:    tags.Title,
		Artist:   tags.Artist,
		Album:    tags.Album,
		Genre:    tags.Genre,
		Date:     tags.Date,
		Format:   tags.Format,
		Encoding: encoding,
		Duration: tags.Duration,
	}
}

// ReadSong reads the tags of path with r and wraps them in a Song.
func ReadSong(r TagReader, path, encoding string) (*model.Song, error) {
	tags, err := r.ReadTags(path)
	if err != nil {
		var tre *TagReadError
		if !errors.As(err, &tre) {
			err = &TagReadError{Path: path, Err: err}
		}
		return nil, err
	}
	return NewSong(path, encoding, tags), nil
}
