package audio

import (
	"errors"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/go-flac"
)

// ErrNoCover is returned when a file has no embedded picture.
var ErrNoCover = errors.New("no embedded cover")

// Cover is a picture extracted from an audio file.
type Cover struct {
	MIME string
	Data []byte
}

// Extension returns the file extension matching the picture's MIME type.
func (c *Cover) Extension() string {
	switch strings.ToLower(c.MIME) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// EmbeddedCover returns the picture embedded in a FLAC file, preferring the
// front cover over any other picture type.
func EmbeddedCover(path string) (*Cover, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, &TagReadError{Path: path, Err: err}
	}

	var found *flacpicture.MetadataBlockPicture
	for _, block := range f.Meta {
		if block.Type != flac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*block)
		if err != nil || len(pic.ImageData) == 0 {
			continue
		}
		if pic.PictureType == flacpicture.PictureTypeFrontCover {
			found = pic
			break
		}
		if found == nil {
			found = pic
		}
	}
	if found == nil {
		return nil, ErrNoCover
	}
	return &Cover{MIME: found.MIME, Data: found.ImageData}, nil
}
