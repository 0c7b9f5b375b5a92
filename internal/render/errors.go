// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"errors"
	"fmt"

	"github.com/pdiddy/pdf2jpg/internal/pdfdoc"
)

var (
	// ErrPageRenderFailed matches every *RenderError.
	ErrPageRenderFailed = errors.New("page render failed")

	// ErrExportFailed matches every *ExportError.
	ErrExportFailed = errors.New("export failed")

	// ErrPasswordProtected is returned by Open for locked documents.
	ErrPasswordProtected = pdfdoc.ErrPasswordProtected
)

// RenderError reports a page that could not be rasterized or encoded.
type RenderError struct {
	Page int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering page %d: %v", e.Page, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrPageRenderFailed }

// ExportError reports an encoded page that could not be written to disk.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("exporting %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

func (e *ExportError) Is(target error) bool { return target == ErrExportFailed }
