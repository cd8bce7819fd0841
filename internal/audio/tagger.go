package audio

import (
	"strconv"

	"github.com/bogem/id3v2"

	"github.com/handiism/musicweb/internal/model"
)

// TagEditAction defines how to handle individual ID3 tags.
type TagEditAction int

const (
	// TagEmpty clears the tag value.
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the value from the reference song.
	TagModify

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// TagConfig holds the retagging action for each ID3 field.
//
// Example:
//
//	cfg := &TagConfig{
//	    Artist:     TagModify,
//	    Album:      TagModify,
//	    TrackTitle: TagModify,
//	    Comments:   TagEmpty,      // drop encoder comments
//	    Genre:      TagDoNotModify,
//	}
type TagConfig struct {
	// Artist controls the TPE1 (Lead artist) frame.
	Artist TagEditAction

	// AlbumArtist controls the TPE2 (Album artist) frame.
	AlbumArtist TagEditAction

	// Album controls the TALB (Album title) frame.
	Album TagEditAction

	// Date controls the TDRC (Recording time) frame.
	Date TagEditAction

	// TrackNumber controls the TRCK (Track number) frame.
	TrackNumber TagEditAction

	// TrackTitle controls the TIT2 (Title) frame.
	TrackTitle TagEditAction

	// Genre controls the TCON (Content type) frame.
	Genre TagEditAction

	// Comments controls the COMM (Comments) frame.
	Comments TagEditAction
}

// DefaultTagConfig copies every field from the reference song and clears
// comments left behind by the encoder.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		Artist:      TagModify,
		AlbumArtist: TagModify,
		Album:       TagModify,
		Date:        TagModify,
		TrackNumber: TagModify,
		TrackTitle:  TagModify,
		Genre:       TagModify,
		Comments:    TagEmpty,
	}
}

// Tagger writes ID3 tags to encoded MP3 files so they carry the same
// metadata as the lossless file they were made from.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//	err := tagger.Retag("/www/album/v0/01-intro.mp3", reference, album)
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// Retag rewrites the ID3 frames of the MP3 at path from the reference song.
// A file without an ID3 tag gets a new one.
func (t *Tagger) Retag(path string, ref *model.Song, album *model.Album) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return &TagReadError{Path: path, Err: err}
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	t.updateStringTags(tag, ref, album)

	return tag.Save()
}

// updateStringTags updates text-based ID3 frames based on configuration.
func (t *Tagger) updateStringTags(tag *id3v2.Tag, ref *model.Song, album *model.Album) {
	apply(t.config.Artist, tag, "TPE1", ref.Artist)
	apply(t.config.AlbumArtist, tag, "TPE2", album.Artist())
	apply(t.config.Album, tag, "TALB", album.Title)
	apply(t.config.TrackTitle, tag, "TIT2", ref.Title)
	apply(t.config.Genre, tag, "TCON", ref.Genre)
	apply(t.config.Date, tag, "TDRC", ref.Date)

	track := ""
	if ref.Track > 0 {
		track = strconv.Itoa(ref.Track)
	}
	apply(t.config.TrackNumber, tag, "TRCK", track)

	if t.config.Comments == TagEmpty {
		tag.DeleteFrames(tag.CommonID("Comments"))
	}
}

func apply(action TagEditAction, tag *id3v2.Tag, frame, value string) {
	switch action {
	case TagEmpty:
		tag.DeleteFrames(frame)
	case TagModify:
		tag.DeleteFrames(frame)
		if value != "" {
			tag.AddTextFrame(frame, id3v2.EncodingUTF8, value)
		}
	}
}
