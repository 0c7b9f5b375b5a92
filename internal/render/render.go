// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render rasterizes PDF pages at a fixed resolution and encodes them
// as JPG. The pixels come from a pluggable Rasterizer backend (MuPDF through
// go-fitz, or poppler's pdftoppm). Page geometry comes from the backend when
// it can report it, and from pdfdoc otherwise.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"

	"github.com/pdiddy/pdf2jpg/internal/pdfdoc"
)

const (
	// DPI is the rasterization resolution for every page.
	DPI = 200

	// JPEGQuality is the encoder quality for every page, on the 1-100 scale.
	JPEGQuality = 80

	// pointsPerInch is the PDF user-space unit.
	pointsPerInch = 72.0
)

// Raster is one rasterized page.
type Raster struct {
	Image image.Image

	// Upright is true when the backend already applied the page's /Rotate.
	Upright bool
}

// Rasterizer opens PDFs for pixel rendering. Different backends (fitz,
// poppler) implement this interface.
type Rasterizer interface {
	// Name identifies the backend in logs.
	Name() string

	// Open prepares the PDF at path for rendering. A document that needs a
	// password yields an error wrapping ErrPasswordProtected.
	Open(path string) (Source, error)
}

// Source renders pages of one open document.
type Source interface {
	// Rasterize draws the 1-based page at dpi.
	Rasterize(page int, dpi float64) (Raster, error)
	Close() error
}

// Geometry reports page count and page boxes of an open document. A Source
// that implements it is used for geometry instead of pdfdoc.
type Geometry interface {
	NumPage() int
	PageBox(n int) (pdfdoc.PageBox, error)
}

// Inspector is implemented by rasterizers that can tell page count and lock
// state without pdfdoc.
type Inspector interface {
	Inspect(path string) (pdfdoc.Info, error)
}

// Renderer turns PDF pages into JPG bytes.
type Renderer struct {
	rasterizer Rasterizer
	dpi        float64
	quality    int
}

// NewRenderer returns a Renderer at the fixed DPI and JPEGQuality.
func NewRenderer(r Rasterizer) *Renderer {
	return &Renderer{rasterizer: r, dpi: DPI, quality: JPEGQuality}
}

// Backend returns the rasterizer name.
func (r *Renderer) Backend() string {
	return r.rasterizer.Name()
}

// Inspect reports page count and lock state of the PDF at path, asking the
// backend first so that files it can render are never turned away by pdfdoc.
func (r *Renderer) Inspect(path string) (pdfdoc.Info, error) {
	if in, ok := r.rasterizer.(Inspector); ok {
		return in.Inspect(path)
	}
	return pdfdoc.Inspect(path)
}

// Document is a PDF opened for rendering.
type Document struct {
	geom    Geometry
	closers []func() error
	src     Source
	dpi     float64
	quality int
}

// Open loads the PDF at path. Password-protected files return an error
// wrapping ErrPasswordProtected.
func (r *Renderer) Open(path string) (*Document, error) {
	src, err := r.rasterizer.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.rasterizer.Name(), err)
	}
	d := &Document{src: src, closers: []func() error{src.Close}, dpi: r.dpi, quality: r.quality}

	if g, ok := src.(Geometry); ok {
		d.geom = g
		return d, nil
	}
	pd, err := pdfdoc.Open(path)
	if err != nil {
		src.Close()
		return nil, err
	}
	d.geom = pd
	d.closers = append(d.closers, pd.Close)
	return d, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.geom.NumPage()
}

// Close releases the rasterizer source and any separate geometry reader.
func (d *Document) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// PixelSize returns the output dimensions of a page at dpi. Pages rotated by
// 90 or 270 degrees come out with width and height swapped.
func PixelSize(box pdfdoc.PageBox, dpi float64) (width, height int) {
	scale := dpi / pointsPerInch
	width = int(math.Round(box.Width * scale))
	height = int(math.Round(box.Height * scale))
	if box.Rotation == 90 || box.Rotation == 270 {
		width, height = height, width
	}
	return width, height
}

// Render rasterizes the 1-based page onto an opaque white canvas and encodes
// it as JPG. Failures are returned as *RenderError.
func (d *Document) Render(page int) ([]byte, error) {
	box, err := d.geom.PageBox(page)
	if err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}

	width, height := PixelSize(box, d.dpi)
	if width <= 0 || height <= 0 {
		return nil, &RenderError{Page: page, Err: fmt.Errorf("invalid page size %dx%d", width, height)}
	}

	raster, err := d.src.Rasterize(page, d.dpi)
	if err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}
	if raster.Image == nil || raster.Image.Bounds().Empty() {
		return nil, &RenderError{Page: page, Err: errors.New("rasterizer returned no image")}
	}

	img := raster.Image
	if !raster.Upright {
		img = rotate(img, box.Rotation)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: d.quality}); err != nil {
		return nil, &RenderError{Page: page, Err: fmt.Errorf("encoding jpeg: %w", err)}
	}
	return buf.Bytes(), nil
}
