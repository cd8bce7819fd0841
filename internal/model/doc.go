// Package model defines the core data structures used throughout musicweb.
//
// # Album
//
// Album represents one source directory and its published output:
//
//	album := model.NewAlbum("/music/Test Album", "/www", ioutils.Slugify)
//	fmt.Println(album.Path) // "/www/test-album"
//
// # Song
//
// Song represents one audio file in one encoding, built from its tags.
//
// # FormatGroup
//
// FormatGroup collects the songs of one album in one encoding together with
// the encoded directory and its archive:
//
//	for _, g := range album.Formats {
//	    fmt.Println(g.Label, len(g.Songs), g.ArchivePath)
//	}
//
// Songs within a group are ordered by track number, ties broken by file
// name; see SortSongs.
package model
