package audio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	beepflac "github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
)

// ErrUnsupportedDuration is returned by Duration for containers it cannot decode.
var ErrUnsupportedDuration = errors.New("duration: unsupported format")

// Duration measures the playing time of a FLAC or MP3 file from its stream
// header and length.
func Duration(path string) (time.Duration, error) {
	var decode func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		decode = func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return beepflac.Decode(f) }
	case ".mp3":
		decode = func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) }
	default:
		return 0, ErrUnsupportedDuration
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	stream, format, err := decode(f)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	if format.SampleRate <= 0 {
		return 0, ErrUnsupportedDuration
	}
	return format.SampleRate.D(stream.Len()), nil
}
