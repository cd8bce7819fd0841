package encode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/handiism/musicweb/internal/catalog"
	ioutils "github.com/handiism/musicweb/internal/io"
)

// Transcoder encodes the named reference files in sourceDir into outputDir
// using the given encoding, one output file per input file. A nil files
// list means every reference file in sourceDir.
type Transcoder interface {
	Transcode(ctx context.Context, sourceDir string, files []string, enc catalog.Encoding, outputDir string) error
}

// Archiver packages the full contents of sourceDir into a single file.
type Archiver interface {
	Archive(ctx context.Context, sourceDir, archivePath string) error
}

// FFmpeg transcodes with the ffmpeg binary, one process per file. Tags are
// carried over from the source file and attached pictures are dropped.
type FFmpeg struct {
	binary    string
	runner    Runner
	reference catalog.Encoding
}

// NewFFmpeg creates an FFmpeg transcoder. Files with the reference
// encoding's extension are the inputs.
func NewFFmpeg(binary string, runner Runner, reference catalog.Encoding) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary, runner: runner, reference: reference}
}

// Transcode implements Transcoder. The first failing file stops the
// encoding and its error is returned.
func (f *FFmpeg) Transcode(ctx context.Context, sourceDir string, files []string, enc catalog.Encoding, outputDir string) error {
	inputs := files
	if inputs == nil {
		var err error
		if inputs, err = f.inputs(sourceDir); err != nil {
			return err
		}
	}
	if len(inputs) == 0 {
		return fmt.Errorf("transcode %s: no %s files in %s", enc.ID, f.reference.Extension, sourceDir)
	}

	for _, name := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		out := filepath.Join(outputDir, base+enc.Extension)
		if _, err := f.runner.Run(ctx, f.command(filepath.Join(sourceDir, name), enc, out)); err != nil {
			return fmt.Errorf("transcode %s to %s: %w", name, enc.ID, err)
		}
	}
	return nil
}

func (f *FFmpeg) command(in string, enc catalog.Encoding, out string) Command {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", in,
		"-map_metadata", "0",
		"-vn",
	}
	args = append(args, enc.Args...)
	args = append(args, out)
	return Command{Name: f.binary, Args: args}
}

func (f *FFmpeg) inputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && ioutils.HasExtension(e.Name(), f.reference.Extension) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Zip archives with the zip binary. Paths inside the archive are relative
// to the archived directory.
type Zip struct {
	binary string
	runner Runner
}

// NewZip creates a zip Archiver.
func NewZip(binary string, runner Runner) *Zip {
	if binary == "" {
		binary = "zip"
	}
	return &Zip{binary: binary, runner: runner}
}

// Extension is the archive file extension.
func (z *Zip) Extension() string {
	return ".zip"
}

// Archive implements Archiver. archivePath must not exist yet.
func (z *Zip) Archive(ctx context.Context, sourceDir, archivePath string) error {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return err
	}
	cmd := Command{
		Name: z.binary,
		Args: []string{"-r", "-q", "-X", abs, "."},
		Dir:  sourceDir,
	}
	if _, err := z.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("archive %s: %w", filepath.Base(sourceDir), err)
	}
	return nil
}
