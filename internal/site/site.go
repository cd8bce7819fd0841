// Package site renders the static pages of a built music library: one index
// of all albums, one page per album and one page per album format.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/handiism/musicweb/internal/build"
	"github.com/handiism/musicweb/internal/catalog"
	ioutils "github.com/handiism/musicweb/internal/io"
	"github.com/handiism/musicweb/internal/model"
)

// Thumbnailer scales image data down to fit a box.
type Thumbnailer interface {
	ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error)
}

// Options configures an Assembler.
type Options struct {
	// Title heads the index page.
	Title string

	// Renderer renders pages. Nil uses the bundled templates.
	Renderer Renderer

	// Catalog, when set, lets the assembler mark the lossless format and
	// remove pages of catalog formats an album no longer has.
	Catalog *catalog.Catalog

	// Thumbnails, when set, produces album thumbnails of ThumbnailSize pixels.
	Thumbnails    Thumbnailer
	ThumbnailSize int

	Logger *slog.Logger
}

// Assembler writes the site pages for a set of built albums.
type Assembler struct {
	opts   Options
	logger *slog.Logger
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title     string
	SiteTitle string

	// Root is the relative path from the page to the output root.
	Root string
}

// AlbumCard is one entry of the index.
type AlbumCard struct {
	Album *model.Album
	Thumb string
}

// IndexPageData contains data for the index page template.
type IndexPageData struct {
	PageData
	Albums []AlbumCard
}

// AlbumPageData contains data for the album page template.
type AlbumPageData struct {
	PageData
	Album *model.Album
	Thumb string
}

// FormatPageData contains data for the format page template.
type FormatPageData struct {
	PageData
	Album    *model.Album
	Format   *model.FormatGroup
	Lossless bool
}

// Summary counts what an Assemble call did.
type Summary struct {
	Written   int
	Unchanged int
	Removed   int
}

// NewAssembler creates an Assembler.
func NewAssembler(opts Options) (*Assembler, error) {
	if opts.Renderer == nil {
		tmpl, err := NewTemplates(DefaultTemplates())
		if err != nil {
			return nil, err
		}
		opts.Renderer = tmpl
	}
	if opts.Title == "" {
		opts.Title = "Music"
	}
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = 300
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{opts: opts, logger: logger}, nil
}

// Assemble renders the index into outputRoot and the album and format
// pages into each album's directory. Albums are listed by title,
// case-insensitively. Pages whose content did not change are not rewritten.
func (a *Assembler) Assemble(ctx context.Context, outputRoot string, albums []*model.Album) (*Summary, error) {
	sorted := make([]*model.Album, len(albums))
	copy(sorted, albums)
	model.SortAlbums(sorted)

	sum := &Summary{}
	cards := make([]AlbumCard, 0, len(sorted))
	for _, album := range sorted {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		thumb := a.thumbnail(ctx, album)
		cards = append(cards, AlbumCard{Album: album, Thumb: thumb})

		page := AlbumPageData{PageData: a.page(album.Title, ".."), Album: album, Thumb: thumb}
		if err := a.write(sum, filepath.Join(album.Path, "index.html"), "album", page); err != nil {
			return sum, err
		}
		for _, format := range album.Formats {
			page := FormatPageData{
				PageData: a.page(album.Title+" ("+format.Label+")", ".."),
				Album:    album,
				Format:   format,
			}
			if a.opts.Catalog != nil {
				if enc, ok := a.opts.Catalog.Lookup(format.Encoding); ok {
					page.Lossless = enc.Lossless
				}
			}
			if err := a.write(sum, filepath.Join(album.Path, format.Encoding+".html"), "format", page); err != nil {
				return sum, err
			}
		}
		a.prune(sum, album)
	}

	index := IndexPageData{PageData: a.page(a.opts.Title, "."), Albums: cards}
	if err := a.write(sum, filepath.Join(outputRoot, "index.html"), "index", index); err != nil {
		return sum, err
	}
	return sum, nil
}

func (a *Assembler) page(title, root string) PageData {
	return PageData{Title: title, SiteTitle: a.opts.Title, Root: root}
}

func (a *Assembler) write(sum *Summary, path, page string, data any) error {
	var buf bytes.Buffer
	if err := a.opts.Renderer.Render(&buf, page, data); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}

	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, buf.Bytes()) {
		sum.Unchanged++
		return nil
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	sum.Written++
	return nil
}

// prune removes pages of catalog formats the album does not have.
func (a *Assembler) prune(sum *Summary, album *model.Album) {
	if a.opts.Catalog == nil {
		return
	}
	for _, enc := range a.opts.Catalog.Encodings() {
		slug := enc.Slug()
		if album.Format(slug) != nil {
			continue
		}
		err := os.Remove(filepath.Join(album.Path, slug+".html"))
		switch {
		case err == nil:
			sum.Removed++
		case !errors.Is(err, fs.ErrNotExist):
			a.logger.Warn("could not remove format page", "album", album.Slug, "encoding", enc.ID, "error", err)
		}
	}
}

// thumbnail returns the album's thumbnail file name, creating it from the
// widest probed image that decodes when it does not exist yet. It returns
// "" when the album has no usable image.
func (a *Assembler) thumbnail(ctx context.Context, album *model.Album) string {
	path := filepath.Join(album.Path, build.ThumbnailName)
	if ok, _ := ioutils.Exists(path); ok {
		return build.ThumbnailName
	}
	candidates := album.ProbedImages()
	if a.opts.Thumbnails == nil || len(candidates) == 0 {
		return ""
	}

	size := a.opts.ThumbnailSize
	for i := len(candidates) - 1; i >= 0; i-- {
		name := candidates[i]
		data, err := os.ReadFile(filepath.Join(album.Path, name))
		if err != nil {
			continue
		}
		thumb, err := a.opts.Thumbnails.ResizeImage(ctx, data, size, size)
		if err != nil {
			a.logger.Debug("image not usable for thumbnail", "album", album.Slug, "file", name, "error", err)
			continue
		}
		if err := ioutils.WriteFile(ctx, path, thumb); err != nil {
			a.logger.Warn("could not write thumbnail", "album", album.Slug, "error", err)
			return ""
		}
		return build.ThumbnailName
	}
	return ""
}
