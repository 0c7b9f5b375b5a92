// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/pdiddy/pdf2jpg/internal/pdfdoc"
)

// FitzRasterizer renders pages in-process with MuPDF.
type FitzRasterizer struct{}

// NewFitzRasterizer returns the MuPDF backend.
func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

func (f *FitzRasterizer) Name() string { return "fitz" }

func (f *FitzRasterizer) Open(path string) (Source, error) {
	doc, err := openFitz(path)
	if err != nil {
		return nil, err
	}
	return &fitzSource{doc: doc}, nil
}

// Inspect reads page count and lock state through MuPDF, which handles every
// standard security handler including AES-256.
func (f *FitzRasterizer) Inspect(path string) (pdfdoc.Info, error) {
	doc, err := openFitz(path)
	if errors.Is(err, ErrPasswordProtected) {
		return pdfdoc.Info{Locked: true}, nil
	}
	if err != nil {
		return pdfdoc.Info{}, err
	}
	defer doc.Close()
	return pdfdoc.Info{PageCount: doc.NumPage()}, nil
}

func openFitz(path string) (*fitz.Document, error) {
	doc, err := fitz.New(path)
	if errors.Is(err, fitz.ErrNeedsPassword) {
		doc.Close()
		return nil, fmt.Errorf("opening %s: %w", path, ErrPasswordProtected)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return doc, nil
}

// fitzSource is also the document's Geometry. MuPDF reports bounds with the
// crop box and /Rotate already applied, so boxes carry no rotation.
type fitzSource struct {
	doc *fitz.Document
}

func (s *fitzSource) NumPage() int { return s.doc.NumPage() }

func (s *fitzSource) PageBox(n int) (pdfdoc.PageBox, error) {
	if n < 1 || n > s.doc.NumPage() {
		return pdfdoc.PageBox{}, fmt.Errorf("page %d out of range 1..%d", n, s.doc.NumPage())
	}
	b, err := s.doc.Bound(n - 1)
	if err != nil {
		return pdfdoc.PageBox{}, err
	}
	return pdfdoc.PageBox{Width: float64(b.Dx()), Height: float64(b.Dy())}, nil
}

// Rasterize renders through MuPDF, which applies /Rotate itself.
func (s *fitzSource) Rasterize(page int, dpi float64) (Raster, error) {
	img, err := s.doc.ImageDPI(page-1, dpi)
	if err != nil {
		return Raster{}, err
	}
	return Raster{Image: img, Upright: true}, nil
}

func (s *fitzSource) Close() error {
	return s.doc.Close()
}
