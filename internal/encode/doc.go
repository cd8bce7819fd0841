// Package encode runs the external programs that produce a format: the
// transcoder that turns lossless sources into lossy files and the archiver
// that packages a format directory.
//
// Every process goes through a Runner. ExecRunner spawns real processes;
// Limited wraps any Runner with a process-wide semaphore so transcodes from
// concurrent albums and formats never oversubscribe the CPU:
//
//	runner := encode.NewLimited(encode.ExecRunner{}, 0)
//	ff := encode.NewFFmpeg("ffmpeg", runner, cat.Reference())
//	zip := encode.NewZip("zip", runner)
//
//	err := ff.Transcode(ctx, "/music/Album", nil, enc, "/www/album/.v0.partial-1")
//	err = zip.Archive(ctx, "/www/album/v0", "/www/album/album-v0.zip")
//
// Failed processes return a *CommandError carrying the combined output.
package encode
