package site

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/musicweb/internal/catalog"
	ioutils "github.com/handiism/musicweb/internal/io"
	"github.com/handiism/musicweb/internal/model"
)

func group(albumPath, slug, label, ext string, titles ...string) *model.FormatGroup {
	g := &model.FormatGroup{
		Encoding:    slug,
		Label:       label,
		Dir:         filepath.Join(albumPath, slug),
		ArchivePath: filepath.Join(albumPath, filepath.Base(albumPath)+"-"+slug+".zip"),
		ArchiveSize: 5 * 1000 * 1000,
	}
	for i, title := range titles {
		g.Songs = append(g.Songs, &model.Song{
			FileName: strings.ToLower(title) + ext,
			Track:    i + 1,
			Title:    title,
			Duration: 90 * time.Second,
		})
	}
	return g
}

func testAlbums(t *testing.T, out string) []*model.Album {
	t.Helper()

	bside := &model.Album{Slug: "b-side", Title: "b Side", Path: filepath.Join(out, "b-side"), Artists: []string{"Band"}}
	bside.Formats = []*model.FormatGroup{group(bside.Path, "flac", "FLAC", ".flac", "One")}

	alpha := &model.Album{
		Slug:    "alpha",
		Title:   "Alpha",
		Path:    filepath.Join(out, "alpha"),
		Artists: []string{"Artist A", "Artist B"},
		Genres:  []string{"Rock"},
		Date:    "2024-03-01",
		Images:  []string{"cover.png"},
		Logs:    []string{"rip.log"},
	}
	alpha.Formats = []*model.FormatGroup{
		group(alpha.Path, "flac", "FLAC", ".flac", "First", "Second"),
		group(alpha.Path, "v0", "MP3 V0", ".mp3", "First", "Second"),
	}
	alpha.Songs = alpha.Formats[0].Songs

	for _, a := range []*model.Album{bside, alpha} {
		require.NoError(t, os.MkdirAll(a.Path, 0o755))
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 600, 400))))
	require.NoError(t, os.WriteFile(filepath.Join(alpha.Path, "cover.png"), buf.Bytes(), 0o644))

	return []*model.Album{bside, alpha}
}

func newAssembler(t *testing.T) *Assembler {
	t.Helper()
	a, err := NewAssembler(Options{
		Title:         "My Music",
		Catalog:       catalog.Default(),
		Thumbnails:    ioutils.NewImageService(),
		ThumbnailSize: 300,
	})
	require.NoError(t, err)
	return a
}

func readDoc(t *testing.T, path string) *goquery.Document {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func TestAssemble_Index(t *testing.T) {
	out := t.TempDir()
	albums := testAlbums(t, out)

	_, err := newAssembler(t).Assemble(context.Background(), out, albums)
	require.NoError(t, err)

	doc := readDoc(t, filepath.Join(out, "index.html"))
	assert.Equal(t, "My Music", doc.Find("title").Text())

	var titles, links []string
	doc.Find("li.album").Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, s.Find(".title").Text())
		href, _ := s.Find("a").Attr("href")
		links = append(links, href)
	})
	assert.Equal(t, []string{"Alpha", "b Side"}, titles)
	assert.Equal(t, []string{"alpha/index.html", "b-side/index.html"}, links)

	src, ok := doc.Find("li.album img").Attr("src")
	require.True(t, ok)
	assert.Equal(t, "alpha/thumb.jpg", src)
	assert.FileExists(t, filepath.Join(out, "alpha", "thumb.jpg"))
	assert.NoFileExists(t, filepath.Join(out, "b-side", "thumb.jpg"))
}

func TestAssemble_AlbumAndFormatPages(t *testing.T) {
	out := t.TempDir()
	albums := testAlbums(t, out)

	_, err := newAssembler(t).Assemble(context.Background(), out, albums)
	require.NoError(t, err)

	doc := readDoc(t, filepath.Join(out, "alpha", "index.html"))
	assert.Equal(t, "Alpha", doc.Find("h1").Text())
	assert.Equal(t, "Artist A, Artist B", doc.Find(".artist").Text())
	assert.Equal(t, "March 1, 2024", doc.Find(".date").Text())
	assert.Equal(t, "3:00", doc.Find(".length").Text())

	var pages, archives []string
	doc.Find("li.format").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find("a.page").Attr("href")
		pages = append(pages, href)
		href, _ = s.Find("a.archive").Attr("href")
		archives = append(archives, href)
	})
	assert.Equal(t, []string{"flac.html", "v0.html"}, pages)
	assert.Equal(t, []string{"alpha-flac.zip", "alpha-v0.zip"}, archives)
	assert.Equal(t, "5.0 MB", doc.Find("li.format .size").First().Text())
	assert.Equal(t, 1, doc.Find("li.log").Length())

	// one page per format, none for formats the album lacks
	assert.FileExists(t, filepath.Join(out, "alpha", "flac.html"))
	assert.FileExists(t, filepath.Join(out, "alpha", "v0.html"))
	assert.FileExists(t, filepath.Join(out, "b-side", "flac.html"))
	assert.NoFileExists(t, filepath.Join(out, "b-side", "v0.html"))

	format := readDoc(t, filepath.Join(out, "alpha", "v0.html"))
	assert.Equal(t, "MP3 V0", format.Find("h1 small").Text())
	assert.Equal(t, "3:00", format.Find(".length").Text())
	assert.Equal(t, 0, format.Find(".lossless").Length())
	assert.Equal(t, 1, readDoc(t, filepath.Join(out, "alpha", "flac.html")).Find(".lossless").Length())
	var songs []string
	format.Find("a.song").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		songs = append(songs, href)
	})
	assert.Equal(t, []string{"v0/first.mp3", "v0/second.mp3"}, songs)
}

func TestAssemble_Idempotent(t *testing.T) {
	out := t.TempDir()
	albums := testAlbums(t, out)
	a := newAssembler(t)

	first, err := a.Assemble(context.Background(), out, albums)
	require.NoError(t, err)
	assert.Equal(t, 6, first.Written)

	second, err := a.Assemble(context.Background(), out, albums)
	require.NoError(t, err)
	assert.Zero(t, second.Written)
	assert.Equal(t, 6, second.Unchanged)
}

func TestAssemble_PrunesAbsentFormatPages(t *testing.T) {
	out := t.TempDir()
	albums := testAlbums(t, out)
	stale := filepath.Join(out, "b-side", "320.html")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	sum, err := newAssembler(t).Assemble(context.Background(), out, albums)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Removed)
	assert.NoFileExists(t, stale)
}

func TestTemplates_UnknownPage(t *testing.T) {
	tmpl, err := NewTemplates(DefaultTemplates())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"index", "album", "format"}, tmpl.Pages())

	err = tmpl.Render(&bytes.Buffer{}, "missing", nil)
	assert.Error(t, err)
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestAssemble_ThumbnailFromWidestProbedImage(t *testing.T) {
	out := t.TempDir()
	album := &model.Album{
		Slug:           "probed",
		Title:          "Probed",
		Path:           filepath.Join(out, "probed"),
		Images:         []string{"small.png", "wide.png", "unknown.png"},
		UnprobedImages: 1,
	}
	album.Formats = []*model.FormatGroup{group(album.Path, "flac", "FLAC", ".flac", "One")}
	require.NoError(t, os.MkdirAll(album.Path, 0o755))
	writePNG(t, filepath.Join(album.Path, "small.png"), 50, 50)
	writePNG(t, filepath.Join(album.Path, "wide.png"), 800, 200)
	writePNG(t, filepath.Join(album.Path, "unknown.png"), 400, 400)

	_, err := newAssembler(t).Assemble(context.Background(), out, []*model.Album{album})
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(album.Path, "thumb.jpg"))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 75, cfg.Height)
}
