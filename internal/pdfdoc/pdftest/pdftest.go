// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftest builds small, structurally valid PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Page describes one page. Zero Width/Height inherit the tree-level media
// box (612x792, US Letter).
type Page struct {
	Width, Height float64
	Rotate        int
	CropBox       []float64
}

// Options tweak the generated document.
type Options struct {
	// Encrypted adds a Standard security handler whose user password is not
	// empty, so readers must ask for a password.
	Encrypted bool

	// AES256 adds a revision 6 (AES-256) security handler with owner
	// password "owner" and the given UserPassword. With an empty
	// UserPassword the file opens without a password, as restricted PDFs do.
	AES256       bool
	UserPassword string

	// Rotate is set on the page tree root and inherited by pages.
	Rotate int
}

// Build returns the bytes of a PDF with the given pages.
func Build(pages []Page, opts Options) []byte {
	var objs []string

	// 1: catalog, 2: page tree, 3..: pages, then one shared empty content stream.
	contentRef := 3 + len(pages)
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}

	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")
	tree := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792]",
		strings.Join(kids, " "), len(pages))
	if opts.Rotate != 0 {
		tree += fmt.Sprintf(" /Rotate %d", opts.Rotate)
	}
	objs = append(objs, tree+" >>")

	for _, p := range pages {
		var b strings.Builder
		b.WriteString("<< /Type /Page /Parent 2 0 R")
		if !opts.AES256 {
			// Pages of AES-256 files stay blank so no stream needs encrypting.
			fmt.Fprintf(&b, " /Contents %d 0 R", contentRef)
		}
		if p.Width > 0 && p.Height > 0 {
			fmt.Fprintf(&b, " /MediaBox [0 0 %g %g]", p.Width, p.Height)
		}
		if len(p.CropBox) == 4 {
			fmt.Fprintf(&b, " /CropBox [%g %g %g %g]", p.CropBox[0], p.CropBox[1], p.CropBox[2], p.CropBox[3])
		}
		if p.Rotate != 0 {
			fmt.Fprintf(&b, " /Rotate %d", p.Rotate)
		}
		b.WriteString(" >>")
		objs = append(objs, b.String())
	}
	objs = append(objs, "<< /Length 0 >>\nstream\n\nendstream")

	encryptRef := 0
	switch {
	case opts.AES256:
		encryptRef = len(objs) + 1
		objs = append(objs, aes256Dict(opts.UserPassword, "owner"))
	case opts.Encrypted:
		encryptRef = len(objs) + 1
		objs = append(objs, fmt.Sprintf(
			"<< /Filter /Standard /V 1 /R 2 /O <%s> /U <%s> /P -44 >>",
			strings.Repeat("ab", 32), strings.Repeat("cd", 32)))
	}

	var buf bytes.Buffer
	if opts.AES256 {
		buf.WriteString("%PDF-1.7\n")
	} else {
		buf.WriteString("%PDF-1.4\n")
	}
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R", len(objs)+1)
	if encryptRef > 0 {
		fmt.Fprintf(&buf, " /Encrypt %d 0 R /ID [<%s> <%s>]", encryptRef,
			strings.Repeat("01", 16), strings.Repeat("01", 16))
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// Write stores a generated PDF as dir/name and returns its path.
func Write(t testing.TB, dir, name string, pages []Page, opts Options) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages, opts), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Letter returns n default-sized pages.
func Letter(n int) []Page {
	return make([]Page, n)
}
