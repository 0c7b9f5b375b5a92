// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/pdf2jpg/internal/naming"
	"github.com/pdiddy/pdf2jpg/internal/pdfdoc"
	"github.com/pdiddy/pdf2jpg/pkg/types"
)

// Inspector reports page count and lock state for a PDF about to be queued.
type Inspector func(path string) (pdfdoc.Info, error)

// Rejection explains why a path was not queued.
type Rejection struct {
	Path string
	Err  error
}

// AddResult is the outcome of AddDocuments.
type AddResult struct {
	Added     int
	Duplicate int
	Rejected  []Rejection
}

// NewJob returns an idle job with a fresh ID.
func NewJob(destination, name string) *types.Job {
	j := &types.Job{
		ID:          uuid.NewString(),
		Destination: destination,
		State:       types.JobIdle,
	}
	SetJobName(j, name)
	return j
}

// SetJobName sets the job folder name and its sanitized form.
func SetJobName(j *types.Job, name string) {
	j.Name = name
	j.FolderName = ""
	if strings.TrimSpace(name) != "" {
		j.FolderName = naming.Sanitize(name)
	}
}

// NewDocumentItem builds a pending queue entry for path.
func NewDocumentItem(path string, info pdfdoc.Info) types.DocumentItem {
	display := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return types.DocumentItem{
		SourcePath:    path,
		DisplayName:   display,
		SanitizedName: naming.Sanitize(display),
		PageCount:     info.PageCount,
		Locked:        info.Locked,
		Status:        types.StatusPending(),
	}
}

// AddDocuments queues each path in order. Paths already queued are skipped.
// Password-protected files are queued as locked so the run can report them;
// unreadable files and files without pages are rejected. Files whose
// encryption pdfdoc cannot decode are queued and left to the renderer. A nil
// inspect uses pdfdoc.Inspect.
func AddDocuments(j *types.Job, paths []string, inspect Inspector) (AddResult, error) {
	if j.State == types.JobRunning {
		return AddResult{}, ErrNotIdle
	}
	if inspect == nil {
		inspect = pdfdoc.Inspect
	}

	queued := make(map[string]bool, len(j.Items))
	for _, it := range j.Items {
		queued[canonicalPath(it.SourcePath)] = true
	}

	var res AddResult
	for _, p := range paths {
		key := canonicalPath(p)
		if queued[key] {
			res.Duplicate++
			continue
		}

		info, err := inspect(p)
		if errors.Is(err, pdfdoc.ErrUnsupportedEncryption) {
			// Queued with an unknown page count; a backend that cannot
			// open it reports a load failure at run time.
			j.Items = append(j.Items, NewDocumentItem(p, pdfdoc.Info{}))
			queued[key] = true
			res.Added++
			continue
		}
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Path: p, Err: err})
			continue
		}
		if !info.Locked && info.PageCount == 0 {
			res.Rejected = append(res.Rejected, Rejection{Path: p, Err: errors.New("document has no pages")})
			continue
		}

		j.Items = append(j.Items, NewDocumentItem(p, info))
		queued[key] = true
		res.Added++
	}
	return res, nil
}

// RemoveDocument drops the queued document at index.
func RemoveDocument(j *types.Job, index int) error {
	if j.State == types.JobRunning {
		return ErrNotIdle
	}
	if index < 0 || index >= len(j.Items) {
		return fmt.Errorf("no document at index %d", index)
	}
	j.Items = append(j.Items[:index], j.Items[index+1:]...)
	return nil
}

// ClearDocuments empties the queue.
func ClearDocuments(j *types.Job) error {
	if j.State == types.JobRunning {
		return ErrNotIdle
	}
	j.Items = nil
	return nil
}

// ResetJob prepares j for a new batch: the queue and name are cleared and the
// destination is kept.
func ResetJob(j *types.Job) error {
	if j.State == types.JobRunning {
		return ErrNotIdle
	}
	*j = types.Job{
		ID:          uuid.NewString(),
		Destination: j.Destination,
		State:       types.JobIdle,
	}
	return nil
}

// Validate reports the first reason j cannot start.
func Validate(j *types.Job) error {
	switch {
	case j.State != types.JobIdle:
		return ErrNotIdle
	case j.Destination == "":
		return ErrNoDestination
	case strings.TrimSpace(j.Name) == "":
		return ErrNoJobName
	case len(j.Items) == 0:
		return ErrEmptyQueue
	}
	return nil
}

// CanStart reports whether Validate passes.
func CanStart(j *types.Job) bool {
	return Validate(j) == nil
}

func canonicalPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
