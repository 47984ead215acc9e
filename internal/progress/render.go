package progress

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	gpprogress "github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"

	"deckhand/internal/logging"
)

const renderInterval = 250 * time.Millisecond

// Renderer periodically surfaces tracker counters to the operator.
type Renderer interface {
	Start(ctx context.Context)
	Stop()
}

// NewRenderer picks the presentation for the current stdout: live progress
// bars on a terminal, periodic log lines otherwise.
func NewRenderer(tracker *Tracker, logger *slog.Logger) Renderer {
	if isTerminal(os.Stdout) {
		return newBarRenderer(tracker)
	}
	return newLogRenderer(tracker, logger)
}

func isTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// barRenderer drives go-pretty progress trackers from the shared counters.
type barRenderer struct {
	tracker  *Tracker
	writer   gpprogress.Writer
	download *gpprogress.Tracker
	upload   *gpprogress.Tracker

	stopOnce sync.Once
	done     chan struct{}
}

func newBarRenderer(tracker *Tracker) *barRenderer {
	snapshot := tracker.Snapshot()

	writer := gpprogress.NewWriter()
	writer.SetOutputWriter(os.Stdout)
	writer.SetAutoStop(false)
	writer.SetTrackerLength(25)
	writer.SetUpdateFrequency(renderInterval)
	writer.SetStyle(gpprogress.StyleDefault)

	download := &gpprogress.Tracker{Message: "Images downloaded", Total: snapshot.Total}
	upload := &gpprogress.Tracker{Message: "Images uploaded", Total: snapshot.Total}
	writer.AppendTracker(download)
	writer.AppendTracker(upload)

	return &barRenderer{
		tracker:  tracker,
		writer:   writer,
		download: download,
		upload:   upload,
		done:     make(chan struct{}),
	}
}

func (r *barRenderer) Start(ctx context.Context) {
	go r.writer.Render()
	go func() {
		ticker := time.NewTicker(renderInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.done:
				return
			case <-ticker.C:
				r.sync()
			}
		}
	}()
}

func (r *barRenderer) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.sync()
		r.download.MarkAsDone()
		r.upload.MarkAsDone()
		r.writer.Stop()
	})
}

func (r *barRenderer) sync() {
	snapshot := r.tracker.Snapshot()
	r.download.SetValue(snapshot.Downloaded)
	r.upload.SetValue(snapshot.Uploaded)
}

// logRenderer emits a counter line at a slow cadence for non-interactive runs.
type logRenderer struct {
	tracker *Tracker
	logger  *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

const logInterval = 5 * time.Second

func newLogRenderer(tracker *Tracker, logger *slog.Logger) *logRenderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &logRenderer{tracker: tracker, logger: logger, done: make(chan struct{})}
}

func (r *logRenderer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(logInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.done:
				return
			case <-ticker.C:
				r.emit()
			}
		}
	}()
}

func (r *logRenderer) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.emit()
	})
}

func (r *logRenderer) emit() {
	snapshot := r.tracker.Snapshot()
	r.logger.Info("run progress",
		logging.Int64("total", snapshot.Total),
		logging.Int64("downloaded", snapshot.Downloaded),
		logging.Int64("uploaded", snapshot.Uploaded),
		logging.Int64("skipped", snapshot.Skipped),
		logging.Bool("done", snapshot.Done()),
	)
}
