// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2jpg/internal/pdfdoc"
	"github.com/pdiddy/pdf2jpg/internal/pdfdoc/pdftest"
	"github.com/pdiddy/pdf2jpg/pkg/types"
)

func TestNewJob(t *testing.T) {
	j := NewJob("/out", "  Q3: Invoices  ")
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, types.JobIdle, j.State)
	assert.Equal(t, "Q3_ Invoices", j.FolderName)

	path, ok := j.FolderPath()
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/out", "Q3_ Invoices"), path)

	other := NewJob("/out", "x")
	assert.NotEqual(t, j.ID, other.ID)
}

func TestFolderPath_RequiresDestinationAndName(t *testing.T) {
	_, ok := NewJob("", "Batch").FolderPath()
	assert.False(t, ok)

	_, ok = NewJob("/out", "   ").FolderPath()
	assert.False(t, ok)

	j := NewJob("/out", "")
	SetJobName(j, "...")
	path, ok := j.FolderPath()
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/out", "Untitled"), path)
}

func TestAddDocuments(t *testing.T) {
	infos := map[string]pdfdoc.Info{
		"/in/a.pdf":      {PageCount: 3},
		"/in/b.pdf":      {PageCount: 1},
		"/in/locked.pdf": {Locked: true},
		"/in/empty.pdf":  {PageCount: 0},
	}
	inspect := func(path string) (pdfdoc.Info, error) {
		info, ok := infos[path]
		if !ok {
			return pdfdoc.Info{}, errors.New("cannot open " + path)
		}
		return info, nil
	}

	j := NewJob("/out", "Batch")
	res, err := AddDocuments(j, []string{
		"/in/a.pdf", "/in/b.pdf", "/in/a.pdf", "/in/locked.pdf", "/in/empty.pdf", "/in/missing.pdf",
	}, inspect)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 1, res.Duplicate)
	require.Len(t, res.Rejected, 2)
	assert.Equal(t, "/in/empty.pdf", res.Rejected[0].Path)
	assert.Equal(t, "/in/missing.pdf", res.Rejected[1].Path)

	require.Len(t, j.Items, 3)
	assert.Equal(t, "a", j.Items[0].DisplayName)
	assert.Equal(t, 3, j.Items[0].PageCount)
	assert.Equal(t, types.StatusPending(), j.Items[0].Status)
	assert.True(t, j.Items[2].Locked)

	// A second call still sees earlier entries as duplicates.
	res, err = AddDocuments(j, []string{"/in/b.pdf"}, inspect)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Duplicate)
	assert.Len(t, j.Items, 3)
}

func TestAddDocuments_RealFiles(t *testing.T) {
	dir := t.TempDir()
	ok := pdftest.Write(t, dir, "Quarterly: Report.pdf", pdftest.Letter(4), pdftest.Options{})
	locked := pdftest.Write(t, dir, "secret.pdf", pdftest.Letter(1), pdftest.Options{Encrypted: true})

	j := NewJob(dir, "out")
	res, err := AddDocuments(j, []string{ok, locked}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)

	assert.Equal(t, "Quarterly: Report", j.Items[0].DisplayName)
	assert.Equal(t, "Quarterly_ Report", j.Items[0].SanitizedName)
	assert.Equal(t, 4, j.Items[0].PageCount)
	assert.True(t, j.Items[1].Locked)
}

func TestAddDocuments_UnsupportedEncryptionIsQueued(t *testing.T) {
	dir := t.TempDir()
	aes := pdftest.Write(t, dir, "Restricted.pdf", pdftest.Letter(1), pdftest.Options{AES256: true})

	j := NewJob(dir, "out")
	res, err := AddDocuments(j, []string{aes}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Empty(t, res.Rejected)

	require.Len(t, j.Items, 1)
	assert.False(t, j.Items[0].Locked)
	assert.Zero(t, j.Items[0].PageCount)
}

func TestQueueEditing(t *testing.T) {
	j := NewJob("/out", "Batch")
	j.Items = []types.DocumentItem{item("/a.pdf", 1), item("/b.pdf", 1), item("/c.pdf", 1)}

	require.NoError(t, RemoveDocument(j, 1))
	require.Len(t, j.Items, 2)
	assert.Equal(t, "c", j.Items[1].DisplayName)
	assert.Error(t, RemoveDocument(j, 5))

	j.State = types.JobRunning
	assert.ErrorIs(t, RemoveDocument(j, 0), ErrNotIdle)
	assert.ErrorIs(t, ClearDocuments(j), ErrNotIdle)
	_, err := AddDocuments(j, []string{"/d.pdf"}, nil)
	assert.ErrorIs(t, err, ErrNotIdle)
	assert.ErrorIs(t, ResetJob(j), ErrNotIdle)

	j.State = types.JobFinished
	require.NoError(t, ClearDocuments(j))
	assert.Empty(t, j.Items)
}

func TestResetJob_KeepsDestination(t *testing.T) {
	j := NewJob("/out", "Batch")
	j.Items = []types.DocumentItem{item("/a.pdf", 1)}
	j.State = types.JobFinished
	j.Cancelled = true
	oldID := j.ID

	require.NoError(t, ResetJob(j))
	assert.Equal(t, "/out", j.Destination)
	assert.Empty(t, j.Name)
	assert.Empty(t, j.Items)
	assert.False(t, j.Cancelled)
	assert.Equal(t, types.JobIdle, j.State)
	assert.NotEqual(t, oldID, j.ID)
	assert.False(t, CanStart(j))
}

func TestValidate(t *testing.T) {
	j := NewJob("/out", "Batch")
	assert.ErrorIs(t, Validate(j), ErrEmptyQueue)

	j.Items = []types.DocumentItem{item("/a.pdf", 1)}
	assert.NoError(t, Validate(j))
	assert.True(t, CanStart(j))

	SetJobName(j, "")
	assert.ErrorIs(t, Validate(j), ErrNoJobName)
}
