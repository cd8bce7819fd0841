// Package catalog holds the ordered list of target encodings an album is
// published in. The first entry is always the lossless reference encoding,
// which is copied from the source rather than transcoded.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	ioutils "github.com/handiism/musicweb/internal/io"
)

var (
	// ErrNoReference is returned when a catalog's first entry is not lossless.
	ErrNoReference = errors.New("catalog: first encoding must be the lossless reference")

	// ErrEmpty is returned for a catalog without encodings.
	ErrEmpty = errors.New("catalog: no encodings")
)

// Encoding is one target representation of an album.
type Encoding struct {
	// ID is the operator-facing identifier, e.g. "V0" or "FLAC".
	ID string `toml:"id"`

	// Format is the container/codec family name, e.g. "MP3".
	Format string `toml:"format"`

	// Extension of encoded files including the dot, e.g. ".mp3".
	Extension string `toml:"extension"`

	// Lossless marks the reference encoding. Exactly one entry, the first,
	// is lossless.
	Lossless bool `toml:"lossless"`

	// Args are the encoder arguments that select codec and quality.
	Args []string `toml:"args"`
}

// Slug is the directory and URL token for the encoding.
func (e Encoding) Slug() string {
	return ioutils.Slugify(e.ID)
}

// Label is the display name: the format name alone when it matches the
// encoding ID, otherwise "format encoding" (e.g. "MP3 V0").
func (e Encoding) Label() string {
	if e.Format == "" || strings.EqualFold(e.Format, e.ID) {
		return e.ID
	}
	return e.Format + " " + e.ID
}

// Fingerprint identifies the encoder settings of this entry. It changes
// when the arguments or extension change.
func (e Encoding) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%t", e.ID, e.Format, strings.ToLower(e.Extension), e.Lossless)
	for _, a := range e.Args {
		fmt.Fprintf(h, "\x00%s", a)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Catalog is an immutable ordered list of encodings. It is safe for
// concurrent use.
type Catalog struct {
	encodings []Encoding
}

// New validates encodings and returns a Catalog preserving their order.
func New(encodings []Encoding) (*Catalog, error) {
	if len(encodings) == 0 {
		return nil, ErrEmpty
	}
	if !encodings[0].Lossless {
		return nil, ErrNoReference
	}

	seen := make(map[string]string, len(encodings))
	for i, e := range encodings {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("catalog: encoding %d has no id", i)
		}
		if !strings.HasPrefix(e.Extension, ".") {
			return nil, fmt.Errorf("catalog: encoding %q extension %q must start with a dot", e.ID, e.Extension)
		}
		if i > 0 && e.Lossless {
			return nil, fmt.Errorf("catalog: encoding %q: only the first encoding may be lossless", e.ID)
		}
		slug := e.Slug()
		if slug == "" {
			return nil, fmt.Errorf("catalog: encoding %q has an empty slug", e.ID)
		}
		if prev, ok := seen[slug]; ok {
			return nil, fmt.Errorf("catalog: encodings %q and %q share slug %q", prev, e.ID, slug)
		}
		seen[slug] = e.ID
	}

	cp := make([]Encoding, len(encodings))
	for i, e := range encodings {
		e.Args = append([]string(nil), e.Args...)
		cp[i] = e
	}
	return &Catalog{encodings: cp}, nil
}

// MustNew is like New but panics on an invalid catalog.
func MustNew(encodings []Encoding) *Catalog {
	c, err := New(encodings)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the stock catalog: FLAC, then MP3 320/V0/V2, Ogg Vorbis q8
// and AAC.
func Default() *Catalog {
	return MustNew(DefaultEncodings())
}

// DefaultEncodings returns a fresh copy of the stock encoding list.
func DefaultEncodings() []Encoding {
	return []Encoding{
		{ID: "FLAC", Format: "FLAC", Extension: ".flac", Lossless: true},
		{ID: "320", Format: "MP3", Extension: ".mp3", Args: []string{"-c:a", "libmp3lame", "-b:a", "320k"}},
		{ID: "V0", Format: "MP3", Extension: ".mp3", Args: []string{"-c:a", "libmp3lame", "-q:a", "0"}},
		{ID: "V2", Format: "MP3", Extension: ".mp3", Args: []string{"-c:a", "libmp3lame", "-q:a", "2"}},
		{ID: "Q8", Format: "Ogg Vorbis", Extension: ".ogg", Args: []string{"-c:a", "libvorbis", "-q:a", "8"}},
		{ID: "AAC", Format: "AAC", Extension: ".m4a", Args: []string{"-c:a", "aac", "-b:a", "256k"}},
	}
}

// Encodings returns the encodings in catalog order. The slice is a copy.
func (c *Catalog) Encodings() []Encoding {
	out := make([]Encoding, len(c.encodings))
	copy(out, c.encodings)
	return out
}

// Len returns the number of encodings.
func (c *Catalog) Len() int {
	return len(c.encodings)
}

// Reference returns the lossless reference encoding.
func (c *Catalog) Reference() Encoding {
	return c.encodings[0]
}

// IsReferenceFile reports whether name has the reference encoding's
// extension (case-insensitive).
func (c *Catalog) IsReferenceFile(name string) bool {
	return ioutils.HasExtension(name, c.encodings[0].Extension)
}

// Lookup finds an encoding by slug.
func (c *Catalog) Lookup(slug string) (Encoding, bool) {
	for _, e := range c.encodings {
		if e.Slug() == slug {
			return e, true
		}
	}
	return Encoding{}, false
}

// NeedsTranscoder reports whether any encoding requires the external encoder.
func (c *Catalog) NeedsTranscoder() bool {
	return len(c.encodings) > 1
}
