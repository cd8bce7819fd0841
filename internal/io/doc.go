// Package ioutils provides file system and image utilities.
//
// This package contains functions for:
//   - Slug normalization of album, song and file names
//   - File and directory tree copying
//   - Slug renaming of every file in a directory
//   - Image width probing and thumbnail resizing
//
// # Slugs
//
// Use Slugify to turn arbitrary text into a web-safe token:
//
//	ioutils.Slugify("My Album (2024)")     // Returns "my-album-2024"
//	ioutils.SlugFileName("01 Intro.flac")  // Returns "01-intro.flac"
//
// # File Operations
//
//	err := ioutils.CopyTree(ctx, "/music/Album", "/www/album/flac")
//	renamed, err := ioutils.SlugRenameDir("/www/album/flac")
//
// # Image Processing
//
//	svc := ioutils.NewImageService()
//	width, err := svc.PixelWidth("/www/album/cover.jpg")
//	thumb, err := svc.ResizeImage(ctx, data, 300, 300)
package ioutils
