package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/k0kubun/go-ansi"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/handiism/musicweb/internal/audio"
	"github.com/handiism/musicweb/internal/build"
	"github.com/handiism/musicweb/internal/catalog"
	"github.com/handiism/musicweb/internal/config"
	"github.com/handiism/musicweb/internal/encode"
	ioutils "github.com/handiism/musicweb/internal/io"
	"github.com/handiism/musicweb/internal/library"
	"github.com/handiism/musicweb/internal/logging"
	"github.com/handiism/musicweb/internal/site"
	"github.com/handiism/musicweb/internal/tui"
)

// LockFile is taken in the output root for the duration of a run.
const LockFile = ".musicweb.lock"

// ErrLocked is returned when another run holds the output root.
var ErrLocked = errors.New("output directory is in use by another musicweb run")

// pipeline holds everything a run needs except the progress sink, which
// depends on how the run is displayed.
type pipeline struct {
	cfg        *config.Config
	catalog    *catalog.Catalog
	outputRoot string
	runID      string
	logger     *slog.Logger
	images     *ioutils.ImageService
	transcoder encode.Transcoder
	archiver   *encode.Zip
	retagger   build.Retagger
	playlist   *audio.PlaylistCreator
}

func runBuild(cmd *cobra.Command, opts *rootOptions, inputDir, outputDir string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, _, _, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg, opts.tui)
	if err != nil {
		return err
	}

	if inputDir == "" || outputDir == "" {
		return errors.New("input and output directories must not be empty")
	}
	inputRoot, err := config.ExpandPath(inputDir)
	if err != nil {
		return err
	}
	outputRoot, err := config.ExpandPath(outputDir)
	if err != nil {
		return err
	}
	if inputRoot == outputRoot {
		return errors.New("input and output directories must differ")
	}
	if !ioutils.IsDir(inputRoot) {
		return fmt.Errorf("input %s is not a directory", inputRoot)
	}

	if _, err := preflight(cfg); err != nil {
		return err
	}

	if err := ioutils.EnsureDir(outputRoot); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(filepath.Join(outputRoot, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock output directory: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", logging.Args(logging.Error(err))...)
		}
	}()

	p, err := newPipeline(cfg, outputRoot, logger)
	if err != nil {
		return err
	}

	sources, err := library.Discover(inputRoot, p.catalog.IsReferenceFile)
	if err != nil {
		return err
	}
	p.logger.Info("starting build", logging.Args(
		logging.Path(inputRoot),
		logging.String("output", outputRoot),
		logging.Int("albums", len(sources)),
		logging.Int("formats", p.catalog.Len()),
	)...)

	var report *build.Report
	switch {
	case opts.tui:
		report, err = tui.Run(tui.Options{
			Albums:     len(sources),
			OutputRoot: outputRoot,
			Verbose:    opts.verbose,
			Context:    ctx,
			Start: func(ctx context.Context, onProgress func(build.ProgressEvent)) (*build.Report, error) {
				return p.run(ctx, sources, onProgress)
			},
		})
	case !opts.verbose && isTerminal(out):
		report, err = runWithProgressBar(ctx, p, sources)
	default:
		report, err = p.run(ctx, sources, printProgress(out, opts.verbose))
	}
	if err != nil {
		return err
	}

	var pages *site.Summary
	if cfg.Site.Enabled && !opts.noPages {
		assembler, err := site.NewAssembler(site.Options{
			Title:         cfg.Site.Title,
			Catalog:       p.catalog,
			Thumbnails:    p.images,
			ThumbnailSize: cfg.Site.ThumbnailSize,
			Logger:        logging.NewComponentLogger(p.logger, "site"),
		})
		if err != nil {
			return err
		}
		if pages, err = assembler.Assemble(ctx, outputRoot, report.Albums); err != nil {
			return fmt.Errorf("write pages: %w", err)
		}
	}

	printSummary(out, report, pages)
	return nil
}

func newLogger(cfg *config.Config, quiet bool) (*slog.Logger, error) {
	if !quiet {
		return logging.NewFromConfig(cfg)
	}
	// the TUI owns the terminal; only a configured log file receives records
	if cfg.Logging.File == "" {
		return logging.NewNop(), nil
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{cfg.Logging.File},
	})
}

func newPipeline(cfg *config.Config, outputRoot string, logger *slog.Logger) (*pipeline, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	runner := encode.NewLimited(encode.ExecRunner{}, cfg.Build.ProcessLimit)

	p := &pipeline{
		cfg:        cfg,
		catalog:    cat,
		outputRoot: outputRoot,
		runID:      runID,
		logger:     logger.With(logging.RunID(runID)),
		images:     ioutils.NewImageService(),
		archiver:   encode.NewZip(cfg.Tools.Zip, runner),
	}
	if cat.NeedsTranscoder() {
		p.transcoder = encode.NewFFmpeg(cfg.Tools.FFmpeg, runner, cat.Reference())
	}
	if cfg.Build.RetagLossy {
		p.retagger = audio.NewTagger(audio.DefaultTagConfig())
	}
	if cfg.PlaylistsEnabled() {
		format, err := audio.ParsePlaylistFormat(cfg.Build.PlaylistFormat)
		if err != nil {
			return nil, err
		}
		p.playlist = audio.NewPlaylistCreator(format, cfg.Build.M3UExtended)
	}
	return p, nil
}

func (p *pipeline) run(ctx context.Context, sources []library.Source, onProgress func(build.ProgressEvent)) (*build.Report, error) {
	logger := logging.NewComponentLogger(p.logger, "build")
	builder, err := build.NewBuilder(build.Options{
		OutputRoot:         p.outputRoot,
		Catalog:            p.catalog,
		Tags:               audio.NewReader(p.cfg.Build.Durations),
		Transcoder:         p.transcoder,
		Archiver:           p.archiver,
		ArchiveExt:         p.archiver.Extension(),
		Images:             p.images,
		Retagger:           p.retagger,
		Playlist:           p.playlist,
		FormatWorkers:      p.cfg.Build.FormatWorkers,
		ExtractEmbeddedArt: p.cfg.Build.ExtractEmbeddedArt,
		Covers:             p.images,
		RunID:              p.runID,
		Logger:             logger,
		OnProgress:         onProgress,
	})
	if err != nil {
		return nil, err
	}
	return build.NewManager(builder, p.cfg.Build.AlbumWorkers, logger, onProgress).Run(ctx, sources)
}

func runWithProgressBar(ctx context.Context, p *pipeline, sources []library.Source) (*build.Report, error) {
	bar := progressbar.NewOptions(
		len(sources),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Building albums[reset]"),
	)
	report, err := p.run(ctx, sources, func(e build.ProgressEvent) {
		if e.AlbumDone {
			_ = bar.Add(1)
		}
	})
	_ = bar.Finish()
	fmt.Println()
	return report, err
}

// printProgress returns a sink that prints events as lines. Verbose events
// are dropped unless verbose is set.
func printProgress(w io.Writer, verbose bool) func(build.ProgressEvent) {
	var mu sync.Mutex
	return func(e build.ProgressEvent) {
		if e.Level == build.LevelVerbose && !verbose {
			return
		}

		prefix := "   "
		switch e.Level {
		case build.LevelError:
			prefix = "✗  "
		case build.LevelWarning:
			prefix = "!  "
		case build.LevelSuccess:
			prefix = "✓  "
		case build.LevelInfo:
			prefix = "›  "
		}

		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, prefix+e.Message)
	}
}

func printSummary(w io.Writer, report *build.Report, pages *site.Summary) {
	rows := make([][]string, 0, len(report.Results))
	var total int64
	for _, res := range report.Results {
		if res == nil {
			continue
		}
		if res.Album == nil {
			rows = append(rows, []string{res.Source.Name, "", "", fmt.Sprint(len(res.Issues)), "failed"})
			continue
		}
		labels := make([]string, 0, len(res.Album.Formats))
		var size int64
		for _, f := range res.Album.Formats {
			labels = append(labels, f.Label)
			size += f.ArchiveSize
		}
		total += size
		rows = append(rows, []string{
			res.Album.Title,
			strings.Join(labels, ", "),
			humanize.Bytes(uint64(size)),
			fmt.Sprint(len(res.Issues)),
			"ok",
		})
	}

	fmt.Fprintln(w, renderTable(
		[]string{"Album", "Formats", "Archives", "Issues", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(w, "%d albums built, %d failed, %d issues, %s of archives\n",
		len(report.Albums), report.Failed, report.Issues(), humanize.Bytes(uint64(total)))
	if pages != nil {
		fmt.Fprintf(w, "Pages: %d written, %d unchanged, %d removed\n", pages.Written, pages.Unchanged, pages.Removed)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
