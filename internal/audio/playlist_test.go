package audio

import (
	"strings"
	"testing"
	"time"

	"github.com/handiism/musicweb/internal/model"
)

func TestPlaylistCreator_M3U(t *testing.T) {
	album, group := createTestAlbum()
	creator := NewPlaylistCreator(FormatM3U, false)

	content := creator.CreatePlaylist(album, group)

	if content != "01-track1.mp3\n02-track2.mp3\n" {
		t.Errorf("M3U = %q", content)
	}
}

func TestPlaylistCreator_M3UExtended(t *testing.T) {
	album, group := createTestAlbum()
	creator := NewPlaylistCreator(FormatM3U, true)

	content := creator.CreatePlaylist(album, group)

	if !strings.HasPrefix(content, "#EXTM3U") {
		t.Error("Extended M3U should start with #EXTM3U")
	}
	if !strings.Contains(content, "#EXTINF:180,Test Artist - track1\n") {
		t.Errorf("Extended M3U should contain #EXTINF for track1, got %q", content)
	}
	if !strings.Contains(content, "#EXTINF:-1,Guest - track2\n") {
		t.Errorf("Extended M3U should mark unknown length as -1, got %q", content)
	}
}

func TestPlaylistCreator_PLS(t *testing.T) {
	album, group := createTestAlbum()
	creator := NewPlaylistCreator(FormatPLS, false)

	content := creator.CreatePlaylist(album, group)

	if !strings.HasPrefix(content, "[playlist]") {
		t.Error("PLS should start with [playlist]")
	}
	if !strings.Contains(content, "File1=") {
		t.Error("PLS should contain File1=")
	}
	if !strings.Contains(content, "NumberOfEntries=2") {
		t.Error("PLS should contain NumberOfEntries")
	}
}

func TestPlaylistCreator_WPL(t *testing.T) {
	album, group := createTestAlbum()
	creator := NewPlaylistCreator(FormatWPL, false)

	content := creator.CreatePlaylist(album, group)

	if !strings.Contains(content, "<?wpl") {
		t.Error("WPL should contain XML declaration")
	}
	if !strings.Contains(content, "<smil>") {
		t.Error("WPL should contain smil element")
	}
	if !strings.Contains(content, "<media src=") {
		t.Error("WPL should contain media elements")
	}
}

func TestPlaylistCreator_ZPL(t *testing.T) {
	album, group := createTestAlbum()
	creator := NewPlaylistCreator(FormatZPL, false)

	content := creator.CreatePlaylist(album, group)

	if !strings.Contains(content, "<?zpl") {
		t.Error("ZPL should contain XML declaration")
	}
	if !strings.Contains(content, "albumTitle=") {
		t.Error("ZPL should contain albumTitle attribute")
	}
}

func TestPlaylistCreator_XMLEscape(t *testing.T) {
	album := &model.Album{Title: "Album <Special>", Artists: []string{"Artist & Co"}}
	group := &model.FormatGroup{
		Encoding: "flac",
		Songs:    []*model.Song{{FileName: "01-track.flac", Track: 1, Title: "Track & \"Quote\""}},
	}

	creator := NewPlaylistCreator(FormatWPL, false)
	content := creator.CreatePlaylist(album, group)

	if strings.Contains(content, "&") && !strings.Contains(content, "&amp;") {
		t.Error("WPL should escape & as &amp;")
	}
	if strings.Contains(content, "<Special>") {
		t.Error("WPL should escape < and >")
	}
}

func TestParsePlaylistFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    PlaylistFormat
		ext     string
		wantErr bool
	}{
		{"", FormatM3U, ".m3u", false},
		{"M3U", FormatM3U, ".m3u", false},
		{"pls", FormatPLS, ".pls", false},
		{"wpl", FormatWPL, ".wpl", false},
		{"zpl", FormatZPL, ".zpl", false},
		{"xspf", FormatM3U, ".m3u", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePlaylistFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePlaylistFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePlaylistFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.Extension() != tt.ext {
				t.Errorf("Extension() = %q, want %q", got.Extension(), tt.ext)
			}
		})
	}
}

func createTestAlbum() (*model.Album, *model.FormatGroup) {
	album := &model.Album{
		Slug:    "test-album",
		Title:   "Test Album",
		Artists: []string{"Test Artist"},
	}
	group := &model.FormatGroup{
		Encoding: "v0",
		Label:    "MP3 V0",
		Songs: []*model.Song{
			{FileName: "01-track1.mp3", Track: 1, Title: "track1", Duration: 180 * time.Second},
			{FileName: "02-track2.mp3", Track: 2, Title: "track2", Artist: "Guest"},
		},
	}
	return album, group
}
