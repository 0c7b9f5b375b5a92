// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2jpg/internal/pdfdoc"
	"github.com/pdiddy/pdf2jpg/internal/render"
	"github.com/pdiddy/pdf2jpg/pkg/types"
)

// fakeSource implements PageSource. Pages listed in fail return an error;
// onRender, when set, runs before every page.
type fakeSource struct {
	pages    int
	fail     map[int]bool
	panicOn  int
	onRender func(page int)
	closed   bool
}

func (f *fakeSource) PageCount() int { return f.pages }

func (f *fakeSource) Render(page int) ([]byte, error) {
	if f.onRender != nil {
		f.onRender(page)
	}
	if page == f.panicOn {
		panic("rasterizer crashed")
	}
	if f.fail[page] {
		return nil, &render.RenderError{Page: page, Err: errors.New("bad page")}
	}
	return []byte(fmt.Sprintf("page %d", page)), nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

// fakeLoader hands out sources by path, or the configured error.
type fakeLoader struct {
	sources map[string]*fakeSource
	errs    map[string]error
}

func (l *fakeLoader) Load(path string) (PageSource, error) {
	if err, ok := l.errs[path]; ok {
		return nil, err
	}
	if src, ok := l.sources[path]; ok {
		return src, nil
	}
	return nil, errors.New("unexpected path: " + path)
}

// newTestJob queues items without touching the filesystem for inspection.
func newTestJob(t *testing.T, items ...types.DocumentItem) (*types.Job, string) {
	t.Helper()
	dest := t.TempDir()
	j := NewJob(dest, "Batch 1")
	j.Items = items
	return j, filepath.Join(dest, "Batch 1")
}

func item(path string, pages int) types.DocumentItem {
	return NewDocumentItem(path, pdfdoc.Info{PageCount: pages})
}

func run(t *testing.T, j *types.Job, l Loader, opts Options) (types.Summary, *Pipeline) {
	t.Helper()
	if opts.StartDelay == 0 {
		opts.StartDelay = -1
	}
	p := New(j, l, opts)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	return summary, p
}

func TestRun_DuplicateNamesGetDistinctFolders(t *testing.T) {
	j, folder := newTestJob(t, item("/a/Doc.pdf", 2), item("/b/Doc.pdf", 1))
	l := &fakeLoader{sources: map[string]*fakeSource{
		"/a/Doc.pdf": {pages: 2},
		"/b/Doc.pdf": {pages: 1},
	}}

	summary, p := run(t, j, l, Options{})
	assert.Equal(t, types.Summary{Completed: 2}, summary)

	snap := p.Snapshot()
	assert.Equal(t, "Doc", snap.Items[0].FolderName)
	assert.Equal(t, "Doc (2)", snap.Items[1].FolderName)
	assert.FileExists(t, filepath.Join(folder, "Doc", "001 - Doc.jpg"))
	assert.FileExists(t, filepath.Join(folder, "Doc", "002 - Doc.jpg"))
	assert.FileExists(t, filepath.Join(folder, "Doc (2)", "001 - Doc.jpg"))

	data, err := os.ReadFile(filepath.Join(folder, "Doc", "002 - Doc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "page 2", string(data))
}

func TestRun_ExistingFolderNamesAreAvoided(t *testing.T) {
	j, folder := newTestJob(t, item("/a/Report.pdf", 1))
	require.NoError(t, os.MkdirAll(filepath.Join(folder, "Report"), 0o755))

	l := &fakeLoader{sources: map[string]*fakeSource{"/a/Report.pdf": {pages: 1}}}
	_, p := run(t, j, l, Options{})

	assert.Equal(t, "Report (2)", p.Snapshot().Items[0].FolderName)
	assert.FileExists(t, filepath.Join(folder, "Report (2)", "001 - Report.jpg"))
}

func TestRun_DocumentOutcomes(t *testing.T) {
	locked := NewDocumentItem("/locked.pdf", pdfdoc.Info{Locked: true})
	badName := item("/bad.pdf", 1)
	badName.SanitizedName = "bad\x00name"

	j, folder := newTestJob(t,
		item("/ok.pdf", 3),
		locked,
		item("/unreadable.pdf", 2),
		item("/late-lock.pdf", 2),
		item("/partial.pdf", 3),
		item("/broken.pdf", 2),
		badName,
	)
	l := &fakeLoader{
		sources: map[string]*fakeSource{
			"/ok.pdf":      {pages: 3},
			"/partial.pdf": {pages: 3, fail: map[int]bool{2: true}},
			"/broken.pdf":  {pages: 2, fail: map[int]bool{1: true, 2: true}},
			"/bad.pdf":     {pages: 1},
		},
		errs: map[string]error{
			"/unreadable.pdf": errors.New("xref table corrupt"),
			"/late-lock.pdf":  fmt.Errorf("opening: %w", ErrPasswordProtected),
		},
	}

	var log bytes.Buffer
	summary, p := run(t, j, l, Options{Log: &log})
	snap := p.Snapshot()

	want := []types.ConversionStatus{
		types.StatusCompleted(),
		types.StatusSkipped(types.ReasonPasswordProtected),
		types.StatusFailed(types.ReasonLoadFailed),
		types.StatusSkipped(types.ReasonPasswordProtected),
		types.StatusCompleted(),
		types.StatusFailed(types.ReasonAllPagesFailed),
		types.StatusFailed(types.ReasonSubfolderFailed),
	}
	for i, w := range want {
		assert.Equal(t, w, snap.Items[i].Status, "item %d (%s)", i, snap.Items[i].DisplayName)
	}

	assert.Equal(t, 3, snap.Items[0].CompletedPages)
	assert.Empty(t, snap.Items[0].FailedPages)
	assert.Equal(t, 2, snap.Items[4].CompletedPages)
	assert.Equal(t, []int{2}, snap.Items[4].FailedPages)
	assert.Equal(t, 0, snap.Items[5].CompletedPages)
	assert.Equal(t, []int{1, 2}, snap.Items[5].FailedPages)

	assert.Equal(t, types.Summary{Completed: 2, Failed: 3, Skipped: 2}, summary)
	assert.Equal(t, len(j.Items), summary.Total())
	assert.Equal(t, types.JobFinished, snap.State)
	assert.False(t, snap.FinishedAt.IsZero())

	assert.NoDirExists(t, filepath.Join(folder, "locked"), "locked documents get no subfolder")
	assert.True(t, l.sources["/ok.pdf"].closed)

	out := log.String()
	assert.Contains(t, out, "converted: ok (3 pages)")
	assert.Contains(t, out, "skipped:   locked")
	assert.Contains(t, out, "failed:    unreadable")
	assert.Contains(t, out, ErrDocumentLoadFailed.Error())
	assert.Contains(t, out, "failed pages [2]")
	assert.Contains(t, out, "Job summary: 2 completed, 3 failed, 2 skipped, 0 cancelled (total: 7)")
}

func TestRun_CancelMidDocument(t *testing.T) {
	j, folder := newTestJob(t, item("/one.pdf", 2), item("/two.pdf", 4), item("/three.pdf", 1))

	var p *Pipeline
	two := &fakeSource{pages: 4, onRender: func(page int) {
		if page == 2 {
			p.Cancel()
		}
	}}
	l := &fakeLoader{sources: map[string]*fakeSource{
		"/one.pdf":   {pages: 2},
		"/two.pdf":   two,
		"/three.pdf": {pages: 1},
	}}
	p = New(j, l, Options{StartDelay: -1})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	snap := p.Snapshot()
	assert.Equal(t, types.StatusCompleted(), snap.Items[0].Status)
	assert.Equal(t, types.StatusCancelled(), snap.Items[1].Status)
	assert.Equal(t, types.StatusCancelled(), snap.Items[2].Status)
	assert.True(t, snap.Cancelled)

	// The page in flight when Cancel arrived still completes.
	assert.Equal(t, 2, snap.Items[1].CompletedPages)
	assert.FileExists(t, filepath.Join(folder, "two", "002 - two.jpg"))
	assert.NoFileExists(t, filepath.Join(folder, "two", "003 - two.jpg"))
	assert.NoDirExists(t, filepath.Join(folder, "three"))

	assert.Equal(t, types.Summary{Completed: 1, Cancelled: 2}, summary)

	// Replaying the cancellation changes nothing.
	p.Cancel()
	assert.Equal(t, snap, p.Snapshot())
}

func TestRun_ContextCancelledBeforeStart(t *testing.T) {
	j, _ := newTestJob(t, item("/one.pdf", 1), item("/two.pdf", 1))
	l := &fakeLoader{sources: map[string]*fakeSource{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(j, l, Options{})
	summary, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Summary{Cancelled: 2}, summary)
	assert.True(t, p.Snapshot().Cancelled)
}

func TestRun_JobFolderCreationFails(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(dest, []byte("file"), 0o644))

	j := NewJob(dest, "Batch")
	j.Items = []types.DocumentItem{item("/one.pdf", 1)}

	p := New(j, &fakeLoader{}, Options{StartDelay: -1})
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFolderCreationFailed)

	snap := p.Snapshot()
	assert.Equal(t, types.JobIdle, snap.State)
	assert.Equal(t, types.StatusPending(), snap.Items[0].Status)
}

func TestRun_Validation(t *testing.T) {
	dest := t.TempDir()
	tests := []struct {
		name string
		job  *types.Job
		want error
	}{
		{name: "no destination", job: func() *types.Job { j := NewJob("", "x"); j.Items = []types.DocumentItem{item("/a.pdf", 1)}; return j }(), want: ErrNoDestination},
		{name: "blank name", job: func() *types.Job { j := NewJob(dest, "  "); j.Items = []types.DocumentItem{item("/a.pdf", 1)}; return j }(), want: ErrNoJobName},
		{name: "empty queue", job: NewJob(dest, "x"), want: ErrEmptyQueue},
		{name: "already finished", job: func() *types.Job {
			j := NewJob(dest, "x")
			j.Items = []types.DocumentItem{item("/a.pdf", 1)}
			j.State = types.JobFinished
			return j
		}(), want: ErrNotIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.job, &fakeLoader{}, Options{}).Run(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRun_ExportFailureAndPanicAreFailedPages(t *testing.T) {
	j, _ := newTestJob(t, item("/doc.pdf", 3))
	l := &fakeLoader{sources: map[string]*fakeSource{"/doc.pdf": {pages: 3, panicOn: 3}}}

	export := func(data []byte, path string) error {
		if strings.HasPrefix(filepath.Base(path), "001") {
			return &render.ExportError{Path: path, Err: errors.New("disk full")}
		}
		return render.Export(data, path)
	}

	var log bytes.Buffer
	_, p := run(t, j, l, Options{Export: export, Log: &log})
	snap := p.Snapshot()

	assert.Equal(t, types.StatusCompleted(), snap.Items[0].Status)
	assert.Equal(t, 1, snap.Items[0].CompletedPages)
	assert.Equal(t, []int{1, 3}, snap.Items[0].FailedPages)
	assert.Contains(t, log.String(), "disk full")
	assert.Contains(t, log.String(), "panic: rasterizer crashed")
}

func TestRun_FourDigitPageNames(t *testing.T) {
	j, _ := newTestJob(t, item("/big.pdf", 1000))
	l := &fakeLoader{sources: map[string]*fakeSource{"/big.pdf": {pages: 1000}}}

	var mu sync.Mutex
	var names []string
	export := func(_ []byte, path string) error {
		mu.Lock()
		names = append(names, filepath.Base(path))
		mu.Unlock()
		return nil
	}

	summary, _ := run(t, j, l, Options{Export: export})
	assert.Equal(t, 1, summary.Completed)
	require.Len(t, names, 1000)
	assert.Equal(t, "0001 - big.jpg", names[0])
	assert.Equal(t, "1000 - big.jpg", names[999])
}

func TestRun_PublishesForwardOnlySnapshots(t *testing.T) {
	j, _ := newTestJob(t, item("/a.pdf", 2), item("/b.pdf", 1))
	l := &fakeLoader{sources: map[string]*fakeSource{
		"/a.pdf": {pages: 2},
		"/b.pdf": {pages: 1, fail: map[int]bool{1: true}},
	}}

	var snaps []types.Job
	_, _ = run(t, j, l, Options{OnUpdate: func(s types.Job) { snaps = append(snaps, s) }})
	require.NotEmpty(t, snaps)

	assert.Equal(t, types.JobRunning, snaps[0].State)
	last := snaps[len(snaps)-1]
	assert.Equal(t, types.JobFinished, last.State)
	assert.InDelta(t, 2.0/3.0, last.Progress(), 1e-9)

	for idx := range last.Items {
		prev := types.StatusPending()
		prevDone := 0
		for _, s := range snaps {
			cur := s.Items[idx].Status
			assert.True(t, prev.CanTransition(cur), "item %d: %s -> %s", idx, prev, cur)
			assert.GreaterOrEqual(t, s.Items[idx].CompletedPages, prevDone)
			prev, prevDone = cur, s.Items[idx].CompletedPages
		}
	}
}

func TestRun_CancelFromAnotherGoroutineDeliversInOrder(t *testing.T) {
	j, _ := newTestJob(t, item("/a.pdf", 3))

	var (
		p       *Pipeline
		mu      sync.Mutex
		snaps   []types.Job
		mutated = make(chan struct{})
		once    sync.Once
	)
	onUpdate := func(s types.Job) {
		if s.Cancelled && s.State == types.JobRunning {
			slow := false
			once.Do(func() { slow = true; close(mutated) })
			if slow {
				// The cancelling goroutine is still delivering while the
				// coordinator carries on.
				time.Sleep(50 * time.Millisecond)
			}
		}
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	}

	cancelled := make(chan struct{})
	src := &fakeSource{pages: 3, onRender: func(page int) {
		if page == 1 {
			go func() {
				p.Cancel()
				close(cancelled)
			}()
			<-mutated
		}
	}}
	l := &fakeLoader{sources: map[string]*fakeSource{"/a.pdf": src}}
	p = New(j, l, Options{StartDelay: -1, OnUpdate: onUpdate})

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	<-cancelled

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, snaps)
	last := snaps[len(snaps)-1]
	assert.Equal(t, types.JobFinished, last.State)
	assert.Equal(t, types.StatusCancelled(), last.Items[0].Status)
	assert.Equal(t, p.Snapshot(), last)
}

func TestMakeSubfolder(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(folder, "Doc"), 0o755))

	// The snapshot missed "Doc"; creation notices and moves on.
	used := map[string]struct{}{}
	name, err := makeSubfolder(folder, "Doc", used)
	require.NoError(t, err)
	assert.Equal(t, "Doc (2)", name)
	assert.DirExists(t, filepath.Join(folder, "Doc (2)"))

	file := filepath.Join(folder, "plain-file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = makeSubfolder(file, "Doc", map[string]struct{}{})
	assert.Error(t, err)
}
