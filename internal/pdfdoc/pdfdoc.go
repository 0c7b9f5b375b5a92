// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoc reads the structural facts the converter needs from a PDF:
// page count, page boxes, page rotation, and whether a password is required.
// Pixels are produced elsewhere; this package never rasterizes.
package pdfdoc

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrPasswordProtected is returned when a document cannot be opened without a
// user password.
var ErrPasswordProtected = errors.New("pdf is password protected")

// ErrUnsupportedEncryption is returned for security handlers this reader
// cannot decode (AES-256 among them). Such files may still render through
// another backend, so callers should not treat this as a damaged file.
var ErrUnsupportedEncryption = errors.New("unsupported pdf encryption")

// maxInheritDepth bounds the walk up the page tree when resolving inherited
// attributes, so a cyclic /Parent chain cannot loop forever.
const maxInheritDepth = 32

// PageBox is the visible area of one page in PDF points (1/72 inch) and the
// clockwise rotation the page asks viewers to apply.
type PageBox struct {
	Width    float64
	Height   float64
	Rotation int // 0, 90, 180 or 270
}

// Info summarizes a document for queueing.
type Info struct {
	PageCount int
	Locked    bool
}

// Document is an open PDF.
type Document struct {
	path string
	f    *os.File
	r    *pdf.Reader
}

// Open opens the PDF at path. A document that needs a password yields an
// error wrapping ErrPasswordProtected.
func Open(path string) (doc *Document, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("parsing %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, fmt.Errorf("opening %s: %w", path, ErrPasswordProtected)
		}
		if isEncryptionError(err) {
			return nil, fmt.Errorf("opening %s: %w: %w", path, ErrUnsupportedEncryption, err)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &Document{path: path, f: f, r: r}, nil
}

// Inspect reports the page count of the PDF at path, or Locked when it needs
// a password. Any other open failure is returned as an error.
func Inspect(path string) (Info, error) {
	doc, err := Open(path)
	if err != nil {
		if errors.Is(err, ErrPasswordProtected) {
			return Info{Locked: true}, nil
		}
		return Info{}, err
	}
	defer doc.Close()
	return Info{PageCount: doc.NumPage()}, nil
}

// isEncryptionError matches the reader's errors for security handlers it
// does not implement, which are plain formatted strings.
func isEncryptionError(err error) bool {
	return strings.Contains(err.Error(), "encryption")
}

// NumPage returns the number of pages.
func (d *Document) NumPage() int {
	return d.r.NumPage()
}

// PageBox returns the box and rotation of the 1-based page n. The crop box is
// preferred over the media box, matching what viewers display.
func (d *Document) PageBox(n int) (box PageBox, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading page %d of %s: %v", n, d.path, r)
		}
	}()

	if n < 1 || n > d.NumPage() {
		return PageBox{}, fmt.Errorf("page %d out of range 1..%d", n, d.NumPage())
	}
	page := d.r.Page(n)
	if page.V.IsNull() {
		return PageBox{}, fmt.Errorf("page %d of %s not found", n, d.path)
	}

	rect := inherited(page.V, "CropBox")
	if rect.Kind() != pdf.Array || rect.Len() != 4 {
		rect = inherited(page.V, "MediaBox")
	}
	if rect.Kind() != pdf.Array || rect.Len() != 4 {
		return PageBox{}, fmt.Errorf("page %d of %s has no media box", n, d.path)
	}

	llx, lly := rect.Index(0).Float64(), rect.Index(1).Float64()
	urx, ury := rect.Index(2).Float64(), rect.Index(3).Float64()

	return PageBox{
		Width:    math.Abs(urx - llx),
		Height:   math.Abs(ury - lly),
		Rotation: NormalizeRotation(int(inherited(page.V, "Rotate").Int64())),
	}, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.f.Close()
}

// NormalizeRotation maps any /Rotate value onto 0, 90, 180 or 270. Values that
// are not multiples of 90 are invalid per the PDF reference and read as 0.
func NormalizeRotation(deg int) int {
	if deg%90 != 0 {
		return 0
	}
	return ((deg % 360) + 360) % 360
}

// inherited looks key up on the page dictionary and then on its ancestors in
// the page tree.
func inherited(v pdf.Value, key string) pdf.Value {
	for i := 0; i < maxInheritDepth && !v.IsNull(); i++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}
