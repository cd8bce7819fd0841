// Package build turns source album directories into their published form.
//
// # Builder
//
// Builder.Build handles one album: it stages the output directory, reads
// the reference songs, copies auxiliary files under slug names and builds
// every catalog encoding:
//
//	builder, err := build.NewBuilder(build.Options{
//	    OutputRoot: "/www/music",
//	    Catalog:    catalog.Default(),
//	    Tags:       audio.NewReader(true),
//	    Transcoder: encode.NewFFmpeg("ffmpeg", runner, cat.Reference()),
//	    Archiver:   encode.NewZip("zip", runner),
//	})
//	res, err := builder.Build(ctx, source)
//	if errors.Is(err, build.ErrNoDecodableAudio) {
//	    // album skipped
//	}
//	for _, issue := range res.Issues {
//	    var ferr *build.FormatError
//	    if errors.As(issue, &ferr) {
//	        // ferr.Encoding was omitted
//	    }
//	}
//
// Builds are idempotent. A format directory is only created by renaming a
// fully staged directory into place, so an existing one is complete and is
// reused without transcoding. A missing archive is rebuilt on its own.
// Staging leftovers of interrupted runs are removed at the next build.
//
// # Manager
//
// Manager runs a batch of albums concurrently and reports progress through
// a callback:
//
//	mgr := build.NewManager(builder, 4, logger, func(e build.ProgressEvent) {
//	    fmt.Println(e.Message)
//	})
//	report, err := mgr.Run(ctx, sources)
package build
