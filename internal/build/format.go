package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handiism/musicweb/internal/audio"
	"github.com/handiism/musicweb/internal/catalog"
	ioutils "github.com/handiism/musicweb/internal/io"
	"github.com/handiism/musicweb/internal/model"
)

// partialTag marks staging paths. Anything in an album directory whose
// name starts with a dot and contains it is left over from an interrupted
// run.
const partialTag = ".partial-"

// formatBuild builds one encoding of one album.
type formatBuild struct {
	b       *Builder
	album   *model.Album
	enc     catalog.Encoding
	sources []string
	// inputs are the reference files whose tags could be read.
	inputs  []string
	logger  *slog.Logger
	issues  *issues
}

func (f *formatBuild) fail(stage Stage, err error) *model.FormatGroup {
	ferr := &FormatError{Encoding: f.enc.ID, Stage: stage, Err: err}
	f.logger.Warn("format build failed", "stage", string(stage), "error", err)
	f.issues.add(ferr)
	f.b.progress(ProgressEvent{Message: ferr.Error(), Level: LevelError, Album: f.album.Slug, Encoding: f.enc.ID})
	return nil
}

// run returns the format's group, or nil when the format is omitted.
//
// The format directory only ever appears through a rename of a fully
// staged directory, so its existence means the format is complete and
// nothing is transcoded again. A missing archive is rebuilt on its own.
func (f *formatBuild) run(ctx context.Context) *model.FormatGroup {
	slug := f.enc.Slug()
	group := &model.FormatGroup{
		Encoding:    slug,
		Label:       f.enc.Label(),
		Dir:         filepath.Join(f.album.Path, slug),
		ArchivePath: filepath.Join(f.album.Path, f.b.archiveName(f.album, f.enc)),
	}

	exists, err := ioutils.Exists(group.Dir)
	if err != nil {
		return f.fail(StageStage, err)
	}

	if exists {
		f.logger.Debug("reusing format directory", "path", group.Dir)
		f.checkMarker(slug)
		songs, err := f.inventory(group.Dir)
		if err != nil {
			return f.fail(StageInventory, err)
		}
		group.Songs = songs
	} else {
		songs, err := f.stage(ctx, group)
		if err != nil {
			return nil
		}
		group.Songs = songs
	}

	if err := f.archive(ctx, group); err != nil {
		return f.fail(StageArchive, err)
	}
	if info, err := os.Stat(group.ArchivePath); err == nil {
		group.ArchiveSize = info.Size()
	}
	return group
}

// stage produces the format in a hidden partial directory and renames it
// into place. Failures are recorded before they are returned.
func (f *formatBuild) stage(ctx context.Context, group *model.FormatGroup) ([]*model.Song, error) {
	partial, err := os.MkdirTemp(f.album.Path, "."+group.Encoding+partialTag)
	if err != nil {
		f.fail(StageStage, err)
		return nil, err
	}
	defer os.RemoveAll(partial)

	start := time.Now()
	if f.enc.Lossless {
		err = ioutils.CopyTree(ctx, f.album.SourcePath, partial)
		if err != nil {
			f.fail(StageCopy, err)
			return nil, err
		}
	} else {
		f.b.progress(ProgressEvent{Message: fmt.Sprintf("Transcoding %s to %s", f.album.Title, group.Label), Level: LevelVerbose, Album: f.album.Slug, Encoding: f.enc.ID})
		if err = f.b.opts.Transcoder.Transcode(ctx, f.album.SourcePath, f.inputs, f.enc, partial); err != nil {
			f.fail(StageTranscode, err)
			return nil, err
		}
	}

	if _, err = ioutils.SlugRenameDir(partial); err != nil {
		f.fail(StageRename, err)
		return nil, err
	}

	if !f.enc.Lossless && f.b.opts.Retagger != nil && ioutils.HasExtension(f.enc.Extension, ".mp3") {
		f.retag(partial)
	}

	songs, err := f.inventory(partial)
	if err != nil {
		f.fail(StageInventory, err)
		return nil, err
	}
	group.Songs = songs

	if creator := f.b.opts.Playlist; creator != nil {
		name := f.album.Slug + creator.Format().Extension()
		content := creator.CreatePlaylist(f.album, group)
		if err = os.WriteFile(filepath.Join(partial, name), []byte(content), 0o644); err != nil {
			f.fail(StagePlaylist, err)
			return nil, err
		}
	}

	marker := &Marker{
		Encoding:    f.enc.ID,
		Label:       group.Label,
		Fingerprint: f.enc.Fingerprint(),
		Sources:     f.sources,
		BuiltAt:     time.Now().UTC(),
		RunID:       f.b.opts.RunID,
	}
	if err = WriteMarker(f.album.Path, group.Encoding, marker); err != nil {
		f.fail(StageMarker, err)
		return nil, err
	}

	if err = os.Rename(partial, group.Dir); err != nil {
		f.fail(StageRename, err)
		return nil, err
	}
	for _, s := range songs {
		s.Path = filepath.Join(group.Dir, s.FileName)
	}

	f.logger.Info("format staged", "songs", len(songs), "took", time.Since(start).Round(time.Millisecond))
	return songs, nil
}

// inventory reads the songs of the format's extension in dir. Files with
// unreadable tags are reported and left out.
func (f *formatBuild) inventory(dir string) ([]*model.Song, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var songs []*model.Song
	for _, e := range entries {
		if !e.Type().IsRegular() || !ioutils.HasExtension(e.Name(), f.enc.Extension) {
			continue
		}
		song, err := audio.ReadSong(f.b.opts.Tags, filepath.Join(dir, e.Name()), f.enc.ID)
		if err != nil {
			f.logger.Warn("skipping unreadable file", "file", e.Name(), "error", err)
			f.issues.add(err)
			continue
		}
		songs = append(songs, song)
	}
	if len(songs) == 0 {
		return nil, ErrEmptyFormat
	}
	model.SortSongs(songs)
	return songs, nil
}

// retag matches encoded files to reference songs by slug base name.
func (f *formatBuild) retag(dir string) {
	refs := make(map[string]*model.Song, len(f.album.Songs))
	for _, s := range f.album.Songs {
		refs[baseName(s.FileName)] = s
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		f.issues.add(&FormatError{Encoding: f.enc.ID, Stage: StageRetag, Err: err})
		return
	}
	for _, e := range entries {
		ref, ok := refs[baseName(e.Name())]
		if !ok || !ioutils.HasExtension(e.Name(), f.enc.Extension) {
			continue
		}
		if err := f.b.opts.Retagger.Retag(filepath.Join(dir, e.Name()), ref, f.album); err != nil {
			f.logger.Warn("retag failed", "file", e.Name(), "error", err)
			f.issues.add(&FormatError{Encoding: f.enc.ID, Stage: StageRetag, Err: err})
		}
	}
}

func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// archive packages the format directory unless its archive already exists.
// The archiver writes to a hidden name that is renamed on success.
func (f *formatBuild) archive(ctx context.Context, group *model.FormatGroup) error {
	exists, err := ioutils.Exists(group.ArchivePath)
	if err != nil || exists {
		return err
	}

	ext := f.b.opts.ArchiveExt
	base := strings.TrimSuffix(filepath.Base(group.ArchivePath), ext)
	tmp := filepath.Join(f.album.Path, "."+base+partialTag+uuid.NewString()+ext)
	defer os.Remove(tmp)

	if err := f.b.opts.Archiver.Archive(ctx, group.Dir, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, group.ArchivePath)
}

// checkMarker reports a reused format whose recorded build no longer
// matches the sources. A format without a marker is trusted.
func (f *formatBuild) checkMarker(slug string) {
	m, err := ReadMarker(f.album.Path, slug)
	if err != nil {
		f.logger.Warn("unreadable build marker", "error", err)
		return
	}
	if m == nil {
		return
	}
	if stale := m.Compare(f.enc.Fingerprint(), f.sources); stale != nil {
		stale.Encoding = f.enc.ID
		f.logger.Warn("format is stale", "error", stale)
		f.issues.add(stale)
	}
}
