package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	ioutils "github.com/handiism/musicweb/internal/io"
	"github.com/handiism/musicweb/internal/model"
)

var (
	imageExts    = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}
	logExts      = []string{".log"}
	cuesheetExts = []string{".cue"}
	playlistExts = []string{".m3u", ".m3u8", ".pls"}
)

func hasAnyExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if ioutils.HasExtension(name, ext) {
			return true
		}
	}
	return false
}

func isImage(name string) bool {
	return hasAnyExtension(name, imageExts)
}

// cleanStale removes staging leftovers of interrupted runs from an album
// directory.
func cleanStale(albumPath string) error {
	entries, err := os.ReadDir(albumPath)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && strings.Contains(name, partialTag) {
			errs = append(errs, os.RemoveAll(filepath.Join(albumPath, name)))
		}
	}
	return errors.Join(errs...)
}

// copyAuxiliary copies the non-audio files of an album into its output
// directory under slug names. A file whose destination already exists is
// left alone. Names are assigned in source order so the same source file
// always gets the same name.
func copyAuxiliary(ctx context.Context, srcDir, dstDir string, names []string, reserved map[string]bool) []error {
	taken := make(map[string]bool, len(reserved)+len(names))
	for name := range reserved {
		taken[name] = true
	}

	var errs []error
	for _, name := range names {
		target := ioutils.SlugFileName(name)
		if target == "" || (strings.HasPrefix(target, ".") && strings.Contains(target, partialTag)) {
			errs = append(errs, &AuxiliaryCopyError{File: name, Err: errors.New("name is not publishable")})
			continue
		}
		target = ioutils.UniqueName(target, taken)
		taken[target] = true

		dst := filepath.Join(dstDir, target)
		exists, err := ioutils.Exists(dst)
		if err != nil {
			errs = append(errs, &AuxiliaryCopyError{File: name, Err: err})
			continue
		}
		if exists {
			continue
		}

		tmp := filepath.Join(dstDir, "."+target+partialTag+uuid.NewString())
		if err := ioutils.CopyFile(ctx, filepath.Join(srcDir, name), tmp); err != nil {
			os.Remove(tmp)
			errs = append(errs, &AuxiliaryCopyError{File: name, Err: err})
			continue
		}
		if err := os.Rename(tmp, dst); err != nil {
			os.Remove(tmp)
			errs = append(errs, &AuxiliaryCopyError{File: name, Err: err})
		}
	}
	return errs
}

// collectAuxiliary lists the images, logs, cuesheets and playlists at the
// top of the album directory. Images are ordered by width; those that
// cannot be probed follow in name order and are reported.
func (b *Builder) collectAuxiliary(album *model.Album) []error {
	entries, err := os.ReadDir(album.Path)
	if err != nil {
		return []error{err}
	}

	var images []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		switch {
		case isImage(name):
			if name != ThumbnailName {
				images = append(images, name)
			}
		case hasAnyExtension(name, logExts):
			album.Logs = append(album.Logs, name)
		case hasAnyExtension(name, cuesheetExts):
			album.Cuesheets = append(album.Cuesheets, name)
		case hasAnyExtension(name, playlistExts):
			album.Playlists = append(album.Playlists, name)
		}
	}

	var errs []error
	album.Images, errs = b.orderImages(album.Path, images)
	album.UnprobedImages = len(errs)
	return errs
}

func (b *Builder) orderImages(dir string, names []string) ([]string, []error) {
	if b.opts.Images == nil {
		return names, nil
	}

	type probed struct {
		name  string
		width int
	}
	var (
		sized   []probed
		unsized []string
		errs    []error
	)
	for _, name := range names {
		w, err := b.opts.Images.PixelWidth(filepath.Join(dir, name))
		if err != nil {
			b.logger.Debug("image width unknown", "path", filepath.Join(dir, name), "error", err)
			unsized = append(unsized, name)
			errs = append(errs, err)
			continue
		}
		sized = append(sized, probed{name: name, width: w})
	}
	sort.SliceStable(sized, func(i, j int) bool { return sized[i].width < sized[j].width })

	out := make([]string, 0, len(names))
	for _, p := range sized {
		out = append(out, p.name)
	}
	return append(out, unsized...), errs
}
