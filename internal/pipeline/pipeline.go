// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a conversion job: it walks the queued documents in
// order, creates the job folder tree, renders every page to JPG and records
// per-document status, honoring cooperative cancellation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pdiddy/pdf2jpg/internal/naming"
	"github.com/pdiddy/pdf2jpg/internal/render"
	"github.com/pdiddy/pdf2jpg/pkg/types"
)

// DefaultStartDelay gives a progress display time to attach before the first
// document is opened.
const DefaultStartDelay = 250 * time.Millisecond

// maxMkdirAttempts bounds retries when a resolved subfolder name turns out to
// exist already (case-insensitive filesystems, concurrent writers).
const maxMkdirAttempts = 100

// PageSource renders the pages of one loaded document.
type PageSource interface {
	PageCount() int
	Render(page int) ([]byte, error)
	Close() error
}

// Loader opens queued documents.
type Loader interface {
	Load(path string) (PageSource, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string) (PageSource, error)

func (f LoaderFunc) Load(path string) (PageSource, error) { return f(path) }

// RendererLoader loads documents through r.
func RendererLoader(r *render.Renderer) Loader {
	return LoaderFunc(func(path string) (PageSource, error) {
		doc, err := r.Open(path)
		if err != nil {
			return nil, err
		}
		return doc, nil
	})
}

// Options configure a Pipeline. The zero value is usable.
type Options struct {
	// Log receives one line per finished document and a closing summary.
	Log io.Writer

	// OnUpdate receives a consistent copy of the job after every change. It
	// runs on the goroutine that made the change (the one calling Run, or a
	// Cancel caller) and must not block for long. Calls never overlap and
	// arrive in the order the changes were made. OnUpdate must not call
	// Cancel or Run.
	OnUpdate func(types.Job)

	// StartDelay overrides DefaultStartDelay; negative means no delay.
	StartDelay time.Duration

	// Export writes an encoded page; defaults to render.Export.
	Export func(data []byte, path string) error
}

// Pipeline converts the documents of one job. The coordinating goroutine
// calling Run is the only writer of job state; other goroutines read it
// through Snapshot and may call Cancel at any time.
type Pipeline struct {
	loader Loader
	opts   Options

	mu  sync.RWMutex
	job *types.Job

	// pub is held from a change until its snapshot is delivered, so an
	// observer never receives an older state after a newer one.
	pub sync.Mutex

	cancelled atomic.Bool
}

// New returns a pipeline for job. The pipeline takes ownership of job.
func New(job *types.Job, loader Loader, opts Options) *Pipeline {
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	if opts.Export == nil {
		opts.Export = render.Export
	}
	if opts.StartDelay == 0 {
		opts.StartDelay = DefaultStartDelay
	}
	return &Pipeline{loader: loader, opts: opts, job: job}
}

// Cancel asks the run to stop at the next document or page boundary. A page
// already rendering always completes. Calling Cancel more than once is
// harmless.
func (p *Pipeline) Cancel() {
	if p.cancelled.Swap(true) {
		return
	}
	p.update(func(j *types.Job) bool {
		if j.State != types.JobRunning || j.Cancelled {
			return false
		}
		j.Cancelled = true
		return true
	})
}

// Snapshot returns a copy of the job as of the last published change.
func (p *Pipeline) Snapshot() types.Job {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.job.Clone()
}

// Run converts every queued document in order and returns the outcome counts.
// Only a job folder that cannot be created is an error; the job then returns
// to idle. Cancelling ctx has the same effect as Cancel.
func (p *Pipeline) Run(ctx context.Context) (types.Summary, error) {
	p.mu.Lock()
	err := Validate(p.job)
	if err == nil {
		SetJobName(p.job, p.job.Name)
	}
	folder, _ := p.job.FolderPath()
	p.mu.Unlock()
	if err != nil {
		return types.Summary{}, err
	}

	p.update(func(j *types.Job) bool {
		j.State = types.JobRunning
		j.Cancelled = p.cancelled.Load()
		j.StartedAt = time.Now()
		return true
	})

	if err := os.MkdirAll(folder, 0o755); err != nil {
		p.update(func(j *types.Job) bool {
			j.State = types.JobIdle
			j.StartedAt = time.Time{}
			return true
		})
		return types.Summary{}, fmt.Errorf("%w: %s: %w", ErrFolderCreationFailed, folder, err)
	}

	p.wait(ctx, p.opts.StartDelay)

	used, err := naming.ReadDirNames(folder)
	if err != nil {
		fmt.Fprintf(p.opts.Log, "warning: %v\n", err)
		used = naming.NewNameSet()
	}

	p.mu.RLock()
	n := len(p.job.Items)
	p.mu.RUnlock()

	for i := 0; i < n; i++ {
		p.convertDocument(ctx, i, folder, used)
	}

	var summary types.Summary
	p.update(func(j *types.Job) bool {
		j.State = types.JobFinished
		j.FinishedAt = time.Now()
		summary = j.Summary()
		return true
	})

	fmt.Fprintf(p.opts.Log, "\nJob summary: %d completed, %d failed, %d skipped, %d cancelled (total: %d)\n",
		summary.Completed, summary.Failed, summary.Skipped, summary.Cancelled, summary.Total())
	return summary, nil
}

// convertDocument runs steps a to g for the document at index i.
func (p *Pipeline) convertDocument(ctx context.Context, i int, folder string, used naming.NameSet) {
	item := p.item(i)

	if p.isCancelled(ctx) {
		p.setStatus(i, types.StatusCancelled())
		fmt.Fprintf(p.opts.Log, "cancelled: %s\n", item.DisplayName)
		return
	}

	p.setStatus(i, types.StatusInProgress())

	if item.Locked {
		p.skip(i, item, ErrPasswordProtected)
		return
	}

	sub, err := makeSubfolder(folder, item.SanitizedName, used)
	if err != nil {
		p.fail(i, item, types.ReasonSubfolderFailed, fmt.Errorf("%w: %w", ErrFolderCreationFailed, err))
		return
	}
	p.update(func(j *types.Job) bool {
		j.Items[i].FolderName = sub
		return true
	})
	dir := filepath.Join(folder, sub)

	src, err := p.loader.Load(item.SourcePath)
	if err != nil {
		if errors.Is(err, ErrPasswordProtected) {
			p.skip(i, item, err)
			return
		}
		p.fail(i, item, types.ReasonLoadFailed, fmt.Errorf("%w: %w", ErrDocumentLoadFailed, err))
		return
	}
	defer src.Close()

	pages := src.PageCount()
	p.update(func(j *types.Job) bool {
		j.Items[i].PageCount = pages
		return true
	})

	for page := 1; page <= pages; page++ {
		if p.isCancelled(ctx) {
			p.setStatus(i, types.StatusCancelled())
			done := p.item(i)
			fmt.Fprintf(p.opts.Log, "cancelled: %s (%d/%d pages)\n", done.DisplayName, done.CompletedPages, pages)
			return
		}

		path := filepath.Join(dir, naming.PageFilename(page, pages, item.SanitizedName))
		err := p.renderPage(src, page, path)
		p.update(func(j *types.Job) bool {
			if err != nil {
				j.Items[i].FailedPages = append(j.Items[i].FailedPages, page)
			} else {
				j.Items[i].CompletedPages++
			}
			return true
		})
		if err != nil {
			fmt.Fprintf(p.opts.Log, "  page %d of %s: %v\n", page, item.DisplayName, err)
		}
	}

	done := p.item(i)
	switch {
	case len(done.FailedPages) == 0:
		p.setStatus(i, types.StatusCompleted())
		fmt.Fprintf(p.opts.Log, "converted: %s (%d pages)\n", done.DisplayName, done.CompletedPages)
	case done.CompletedPages == 0:
		p.setStatus(i, types.StatusFailed(types.ReasonAllPagesFailed))
		fmt.Fprintf(p.opts.Log, "failed:    %s (%s)\n", done.DisplayName, types.ReasonAllPagesFailed)
	default:
		// Partial success is reported as completed; the failed pages stay
		// visible on the item.
		p.setStatus(i, types.StatusCompleted())
		fmt.Fprintf(p.opts.Log, "converted: %s (%d/%d pages, failed pages %v)\n",
			done.DisplayName, done.CompletedPages, pages, done.FailedPages)
	}
}

// renderPage renders and exports one page on a worker goroutine and waits for
// the result, keeping the coordinator free to publish state in the meantime.
func (p *Pipeline) renderPage(src PageSource, page int, path string) error {
	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- &render.RenderError{Page: page, Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		data, err := src.Render(page)
		if err == nil {
			err = p.opts.Export(data, path)
		}
		result <- err
	}()
	return <-result
}

// makeSubfolder creates a uniquely named directory for base under folder and
// records the chosen name in used.
func makeSubfolder(folder, base string, used naming.NameSet) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxMkdirAttempts; attempt++ {
		name := naming.Resolve(base, used)
		used.Add(name)
		err := os.Mkdir(filepath.Join(folder, name), 0o755)
		if err == nil {
			return name, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (p *Pipeline) skip(i int, item types.DocumentItem, err error) {
	p.setStatus(i, types.StatusSkipped(types.ReasonPasswordProtected))
	fmt.Fprintf(p.opts.Log, "skipped:   %s (%v)\n", item.DisplayName, err)
}

func (p *Pipeline) fail(i int, item types.DocumentItem, reason string, err error) {
	p.setStatus(i, types.StatusFailed(reason))
	fmt.Fprintf(p.opts.Log, "failed:    %s (%v)\n", item.DisplayName, err)
}

// isCancelled folds context cancellation into the cancel flag.
func (p *Pipeline) isCancelled(ctx context.Context) bool {
	if ctx.Err() != nil && !p.cancelled.Load() {
		p.Cancel()
	}
	return p.cancelled.Load()
}

func (p *Pipeline) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (p *Pipeline) item(i int) types.DocumentItem {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.job.Items[i].Clone()
}

// setStatus applies a forward transition; backward moves are ignored.
func (p *Pipeline) setStatus(i int, s types.ConversionStatus) {
	p.update(func(j *types.Job) bool {
		cur := j.Items[i].Status
		if cur == s || !cur.CanTransition(s) {
			return false
		}
		j.Items[i].Status = s
		return true
	})
}

// update applies fn under the write lock and, if fn reports a change,
// publishes the new state to OnUpdate.
func (p *Pipeline) update(fn func(j *types.Job) bool) {
	p.pub.Lock()
	defer p.pub.Unlock()

	p.mu.Lock()
	changed := fn(p.job)
	var snap types.Job
	if changed && p.opts.OnUpdate != nil {
		snap = p.job.Clone()
	}
	p.mu.Unlock()

	if changed && p.opts.OnUpdate != nil {
		p.opts.OnUpdate(snap)
	}
}
