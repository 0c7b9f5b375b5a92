// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"

	"github.com/pdiddy/pdf2jpg/internal/render"
)

// Failure taxonomy. Only ErrFolderCreationFailed is ever returned from Run;
// the others are recorded on the affected document and wrapped into log lines.
var (
	ErrFolderCreationFailed = errors.New("folder creation failed")
	ErrDocumentLoadFailed   = errors.New("document load failed")
	ErrPageRenderFailed     = render.ErrPageRenderFailed
	ErrExportFailed         = render.ErrExportFailed
	ErrPasswordProtected    = render.ErrPasswordProtected
)

// Queue and lifecycle errors.
var (
	ErrNoDestination = errors.New("no destination directory chosen")
	ErrNoJobName     = errors.New("job name is empty")
	ErrEmptyQueue    = errors.New("no documents queued")
	ErrNotIdle       = errors.New("job is not idle")
)
