// Package audio reads and writes audio file metadata: tag reading for the
// build pipeline, ID3 retagging of encoded MP3s, embedded cover extraction
// and playlist generation.
//
// # Tag Reading
//
// Reader implements TagReader for FLAC (Vorbis comments), MP3 (ID3v2) and
// the containers dhowden/tag understands (Ogg, M4A):
//
//	r := audio.NewReader(true) // also measure durations
//	song, err := audio.ReadSong(r, "/www/album/flac/01-intro.flac", "FLAC")
//
// Unreadable files yield a *TagReadError; callers drop the file and keep going.
//
// # ID3 Tagging
//
// Use the Tagger to copy reference metadata onto encoded MP3 files:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.Retag(path, referenceSong, album)
//
// # Playlist Generation
//
// Generate a playlist for one format group:
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true) // extended M3U
//	content := creator.CreatePlaylist(album, group)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
