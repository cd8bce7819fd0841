package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	ioutils "github.com/handiism/musicweb/internal/io"
	"github.com/handiism/musicweb/internal/library"
	"github.com/handiism/musicweb/internal/model"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// String returns the lowercase level name.
func (l ProgressLevel) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "info"
	}
}

// ProgressEvent represents a build progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel

	// Album is the album slug, empty for batch-level events.
	Album string

	// Encoding is the encoding ID for format-level events.
	Encoding string

	// AlbumDone is set on the single event emitted when an album finishes,
	// successfully or not.
	AlbumDone bool
}

// Report is the outcome of a batch.
type Report struct {
	// Results are in source order, one per source.
	Results []*Result

	// Albums are the successfully built albums ordered by title.
	Albums []*model.Album

	// Failed counts albums that could not be emitted.
	Failed int
}

// Issues counts the recoverable problems across all results.
func (r *Report) Issues() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Issues)
	}
	return n
}

// Manager builds a batch of albums concurrently. Each album is independent:
// a failing album never stops the others.
type Manager struct {
	builder    *Builder
	workers    int
	logger     *slog.Logger
	onProgress func(ProgressEvent)

	total int32
	done  int32
}

// NewManager creates a Manager running up to workers album builds at once.
func NewManager(builder *Builder, workers int, logger *slog.Logger, onProgress func(ProgressEvent)) *Manager {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{builder: builder, workers: workers, logger: logger, onProgress: onProgress}
}

// Run builds every source. The error is non-nil only when ctx is cancelled.
func (m *Manager) Run(ctx context.Context, sources []library.Source) (*Report, error) {
	atomic.StoreInt32(&m.total, int32(len(sources)))
	atomic.StoreInt32(&m.done, 0)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Found %d albums", len(sources)), Level: LevelInfo})

	results := make([]*Result, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	dups := duplicateSlugs(sources)
	for i, src := range sources {
		if other, ok := dups[i]; ok {
			err := fmt.Errorf("%w: %s and %s", ErrDuplicateSlug, other, src.Name)
			m.logger.Error("album build failed", "source", src.Path, "error", err)
			results[i] = &Result{Source: src}
			atomic.AddInt32(&m.done, 1)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Skipped %s: %v", src.Name, err), Level: LevelError, AlbumDone: true})
			continue
		}
		g.Go(func() error {
			res, err := m.builder.Build(gctx, src)
			results[i] = res
			atomic.AddInt32(&m.done, 1)

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				m.logger.Error("album build failed", "source", src.Path, "error", err)
				m.progress(ProgressEvent{Message: fmt.Sprintf("Skipped %s: %v", src.Name, err), Level: LevelError, AlbumDone: true})
				return nil
			}
			m.progress(ProgressEvent{
				Message:   fmt.Sprintf("Finished %s", res.Album.Title),
				Level:     LevelSuccess,
				Album:     res.Album.Slug,
				AlbumDone: true,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Results: results}
	for _, res := range results {
		if res == nil || res.Album == nil {
			report.Failed++
			continue
		}
		report.Albums = append(report.Albums, res.Album)
	}
	model.SortAlbums(report.Albums)
	return report, nil
}

// duplicateSlugs maps the index of every source whose slug is already
// used by a source with a smaller name to that source's name. Two such
// directories would share one output directory.
func duplicateSlugs(sources []library.Source) map[int]string {
	order := make([]int, len(sources))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return sources[order[a]].Name < sources[order[b]].Name })

	owner := make(map[string]string, len(sources))
	dups := make(map[int]string)
	for _, i := range order {
		slug := ioutils.Slugify(sources[i].Name)
		if name, ok := owner[slug]; ok {
			dups[i] = name
			continue
		}
		owner[slug] = sources[i].Name
	}
	return dups
}

// GetProgress returns the number of finished and total albums.
func (m *Manager) GetProgress() (done, total int32) {
	return atomic.LoadInt32(&m.done), atomic.LoadInt32(&m.total)
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
