package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/musicweb/internal/audio"
	"github.com/handiism/musicweb/internal/catalog"
	"github.com/handiism/musicweb/internal/encode"
	ioutils "github.com/handiism/musicweb/internal/io"
	"github.com/handiism/musicweb/internal/library"
	"github.com/handiism/musicweb/internal/model"
)

// ThumbnailName is the site thumbnail written next to an album's images.
// It never counts as an album image.
const ThumbnailName = "thumb.jpg"

// ImageProber reads the pixel width of an image file.
type ImageProber interface {
	PixelWidth(path string) (int, error)
}

// CoverConverter re-encodes embedded artwork as JPEG.
type CoverConverter interface {
	ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error)
}

// Retagger copies reference metadata onto an encoded MP3.
type Retagger interface {
	Retag(path string, ref *model.Song, album *model.Album) error
}

// Options configures a Builder. Catalog, Tags, Transcoder and Archiver
// are required.
type Options struct {
	OutputRoot string
	Catalog    *catalog.Catalog
	Tags       audio.TagReader
	Transcoder encode.Transcoder
	Archiver   encode.Archiver

	// ArchiveExt is the archive file extension, ".zip" by default.
	ArchiveExt string

	// Images orders album images by width. Nil keeps name order.
	Images ImageProber

	// Retagger, when set, retags encoded MP3 files from their reference song.
	Retagger Retagger

	// Playlist, when set, writes a playlist into every staged format directory.
	Playlist *audio.PlaylistCreator

	// FormatWorkers bounds concurrent formats per album. Values below 1 mean 1.
	FormatWorkers int

	// ExtractEmbeddedArt writes the cover embedded in the first reference
	// file when the album has no image.
	ExtractEmbeddedArt bool

	// Covers, when set, stores extracted covers that are not JPEG as
	// cover.jpg. Artwork it cannot decode keeps its own format.
	Covers CoverConverter

	// RunID is recorded in build markers.
	RunID string

	Logger     *slog.Logger
	OnProgress func(ProgressEvent)
}

// Builder turns one source album directory into its published output.
// Builds of different albums share nothing but the Builder's read-only
// options, so Build may be called from several goroutines.
type Builder struct {
	opts   Options
	logger *slog.Logger
}

// Result is the outcome of one album build.
type Result struct {
	Source library.Source

	// Album is nil when the build failed.
	Album *model.Album

	// Issues holds every recoverable problem met during the build, each a
	// typed error: *FormatError, *AuxiliaryCopyError, *StaleFormatError,
	// *TagConflictError, *audio.TagReadError or *ioutils.ProbeError.
	Issues []error
}

// NewBuilder validates opts and creates a Builder.
func NewBuilder(opts Options) (*Builder, error) {
	switch {
	case opts.OutputRoot == "":
		return nil, errors.New("build: output root is required")
	case opts.Catalog == nil:
		return nil, errors.New("build: catalog is required")
	case opts.Tags == nil:
		return nil, errors.New("build: tag reader is required")
	case opts.Transcoder == nil && opts.Catalog.NeedsTranscoder():
		return nil, errors.New("build: transcoder is required")
	case opts.Archiver == nil:
		return nil, errors.New("build: archiver is required")
	}
	if opts.ArchiveExt == "" {
		opts.ArchiveExt = ".zip"
	}
	if opts.FormatWorkers < 1 {
		opts.FormatWorkers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{opts: opts, logger: logger}, nil
}

// issues collects recoverable problems from concurrent format builds.
type issues struct {
	mu   sync.Mutex
	list []error
}

func (i *issues) add(err error) {
	if err == nil {
		return
	}
	i.mu.Lock()
	i.list = append(i.list, err)
	i.mu.Unlock()
}

// Build stages the album at src.Path into the output root.
//
// The returned Result is never nil. The error is non-nil only when the
// album cannot be emitted at all: ErrNoDecodableAudio, an unusable output
// directory or a cancelled context. Everything else is recorded in
// Result.Issues.
func (b *Builder) Build(ctx context.Context, src library.Source) (*Result, error) {
	res := &Result{Source: src}
	var iss issues
	defer func() { res.Issues = iss.list }()

	album := model.NewAlbum(src.Path, b.opts.OutputRoot, ioutils.Slugify)
	if album.Slug == "" {
		return res, fmt.Errorf("%s: %w", src.Name, ErrEmptySlug)
	}
	logger := b.logger.With("album", album.Slug)

	if err := ioutils.EnsureDir(album.Path); err != nil {
		return res, fmt.Errorf("create album directory: %w", err)
	}
	if err := cleanStale(album.Path); err != nil {
		logger.Warn("stale staging cleanup failed", "error", err)
	}

	refs, aux, err := listSource(src.Path, b.opts.Catalog)
	if err != nil {
		return res, fmt.Errorf("read album source: %w", err)
	}

	ref := b.opts.Catalog.Reference()
	inputs := make([]string, 0, len(refs))
	for _, name := range refs {
		song, err := audio.ReadSong(b.opts.Tags, filepath.Join(src.Path, name), ref.ID)
		if err != nil {
			logger.Warn("skipping unreadable reference file", "file", name, "error", err)
			iss.add(err)
			continue
		}
		song.FileName = ioutils.SlugFileName(name)
		album.Songs = append(album.Songs, song)
		inputs = append(inputs, name)
	}
	if len(album.Songs) == 0 {
		return res, fmt.Errorf("%s: %w", src.Name, ErrNoDecodableAudio)
	}
	model.SortSongs(album.Songs)
	for _, conflict := range deriveFields(album, src.Name) {
		logger.Warn("tag conflict", "error", conflict)
		iss.add(conflict)
	}
	b.progress(ProgressEvent{Message: fmt.Sprintf("Building %s (%d songs)", album.Title, len(album.Songs)), Level: LevelVerbose, Album: album.Slug})

	reserved := b.reservedNames(album)
	for _, err := range copyAuxiliary(ctx, src.Path, album.Path, aux, reserved) {
		logger.Warn("auxiliary file not copied", "error", err)
		iss.add(err)
	}
	if b.opts.ExtractEmbeddedArt {
		if err := b.extractCover(ctx, album, reserved); err != nil {
			iss.add(err)
		}
	}

	encodings := b.opts.Catalog.Encodings()
	groups := make([]*model.FormatGroup, len(encodings))
	g := new(errgroup.Group)
	g.SetLimit(b.opts.FormatWorkers)
	for i, enc := range encodings {
		g.Go(func() error {
			fb := &formatBuild{b: b, album: album, enc: enc, sources: refs, inputs: inputs, logger: logger.With("encoding", enc.ID), issues: &iss}
			groups[i] = fb.run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	for _, group := range groups {
		if group == nil {
			continue
		}
		album.Formats = append(album.Formats, group)
		album.Archives = append(album.Archives, model.Archive{
			FileName: filepath.Base(group.ArchivePath),
			Encoding: group.Label,
		})
	}
	if lossless := album.Format(ref.Slug()); lossless != nil {
		album.Songs = lossless.Songs
	}

	for _, err := range b.collectAuxiliary(album) {
		iss.add(err)
	}

	res.Album = album
	level := LevelSuccess
	if len(album.Formats) < len(encodings) {
		level = LevelWarning
	}
	b.progress(ProgressEvent{
		Message: fmt.Sprintf("Built %s: %d/%d formats", album.Title, len(album.Formats), len(encodings)),
		Level:   level,
		Album:   album.Slug,
	})
	return res, nil
}

// listSource splits the regular files of dir into reference audio and
// everything else, both sorted by name.
func listSource(dir string, cat *catalog.Catalog) (refs, aux []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if cat.IsReferenceFile(e.Name()) {
			refs = append(refs, e.Name())
		} else {
			aux = append(aux, e.Name())
		}
	}
	sort.Strings(refs)
	sort.Strings(aux)
	return refs, aux, nil
}

// deriveFields fills the album-level fields from the sorted reference
// songs. The first song wins for title and date.
func deriveFields(album *model.Album, dirName string) []error {
	first := album.Songs[0]
	album.Title = strings.TrimSpace(first.Album)
	if album.Title == "" {
		album.Title = dirName
	}
	album.Date = first.Date

	var artists, genres, titles, dates []string
	for _, s := range album.Songs {
		artists = append(artists, s.Artist)
		genres = append(genres, s.Genre)
		titles = append(titles, s.Album)
		dates = append(dates, s.Date)
	}
	album.Artists = model.UniqueSorted(artists)
	album.Genres = model.UniqueSorted(genres)

	var conflicts []error
	if v := model.UniqueSorted(titles); len(v) > 1 {
		conflicts = append(conflicts, &TagConflictError{Field: "album", Used: album.Title, Values: v})
	}
	if v := model.UniqueSorted(dates); len(v) > 1 {
		conflicts = append(conflicts, &TagConflictError{Field: "date", Used: album.Date, Values: v})
	}
	return conflicts
}

// reservedNames are output names owned by the builder and the site, which
// auxiliary files must not take.
func (b *Builder) reservedNames(album *model.Album) map[string]bool {
	reserved := map[string]bool{
		StateDir:      true,
		ThumbnailName: true,
		"index.html":  true,
	}
	for _, enc := range b.opts.Catalog.Encodings() {
		reserved[enc.Slug()] = true
		reserved[enc.Slug()+".html"] = true
		reserved[b.archiveName(album, enc)] = true
	}
	return reserved
}

func (b *Builder) archiveName(album *model.Album, enc catalog.Encoding) string {
	return ioutils.Slugify(album.Title+" - "+enc.ID) + b.opts.ArchiveExt
}

func (b *Builder) extractCover(ctx context.Context, album *model.Album, reserved map[string]bool) error {
	entries, err := os.ReadDir(album.Path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Type().IsRegular() && isImage(e.Name()) && e.Name() != ThumbnailName {
			return nil
		}
	}

	cover, err := audio.EmbeddedCover(album.Songs[0].Path)
	if errors.Is(err, audio.ErrNoCover) {
		return nil
	}
	if err != nil {
		return &AuxiliaryCopyError{File: "embedded cover", Err: err}
	}
	data, ext := cover.Data, cover.Extension()
	if ext != ".jpg" && b.opts.Covers != nil {
		jpg, err := b.opts.Covers.ConvertToJPEG(ctx, data)
		if err == nil {
			data, ext = jpg, ".jpg"
		} else {
			b.logger.Debug("embedded cover kept as is", "album", album.Slug, "mime", cover.MIME, "error", err)
		}
	}
	name := "cover" + ext
	if reserved[name] {
		return nil
	}
	if err := os.WriteFile(filepath.Join(album.Path, name), data, 0o644); err != nil {
		return &AuxiliaryCopyError{File: name, Err: err}
	}
	b.logger.Debug("extracted embedded cover", "album", album.Slug, "file", name)
	return nil
}

func (b *Builder) progress(event ProgressEvent) {
	if b.opts.OnProgress != nil {
		b.opts.OnProgress(event)
	}
}
