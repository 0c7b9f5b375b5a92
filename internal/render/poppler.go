// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"strconv"

	"github.com/pdiddy/pdf2jpg/internal/container"
)

const (
	popplerTool = "pdftoppm"

	// DefaultPopplerImage is the container image expected to provide pdftoppm.
	DefaultPopplerImage = "pdf2jpg-poppler:latest"
)

// PopplerRasterizer renders pages by piping the PDF through pdftoppm. It
// depends on a container.Runtime injected at construction time, which may
// run the tool in a container or directly on the host.
type PopplerRasterizer struct {
	runtime container.Runtime
	image   string
}

// NewPopplerRasterizer creates a rasterizer that runs pdftoppm through rt. It
// verifies that the image exists before returning.
func NewPopplerRasterizer(rt container.Runtime, image string) (*PopplerRasterizer, error) {
	if image == "" {
		image = DefaultPopplerImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("poppler image not available in %s: %w", rt.Name(), err)
	}
	return &PopplerRasterizer{runtime: rt, image: image}, nil
}

func (p *PopplerRasterizer) Name() string { return "poppler/" + p.runtime.Name() }

// Open checks that path is readable. Password detection is left to pdfdoc,
// which always runs before the rasterizer.
func (p *PopplerRasterizer) Open(path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &popplerSource{r: p, path: path}, nil
}

type popplerSource struct {
	r    *PopplerRasterizer
	path string
}

// popplerCommand renders one page of the PDF read from stdin as PNG on stdout.
func popplerCommand(page int, dpi float64) []string {
	n := strconv.Itoa(page)
	return []string{
		popplerTool,
		"-f", n, "-l", n,
		"-r", strconv.FormatFloat(dpi, 'f', -1, 64),
		"-cropbox",
		"-png", "-singlefile",
		"-",
	}
}

// Rasterize runs pdftoppm for a single page. pdftoppm applies /Rotate itself.
func (s *popplerSource) Rasterize(page int, dpi float64) (Raster, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Raster{}, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := s.r.runtime.Run(s.r.image, popplerCommand(page, dpi), f, &out); err != nil {
		return Raster{}, err
	}
	if out.Len() == 0 {
		return Raster{}, fmt.Errorf("pdftoppm produced empty output for page %d of %s", page, s.path)
	}

	img, err := png.Decode(&out)
	if err != nil {
		return Raster{}, fmt.Errorf("decoding pdftoppm output: %w", err)
	}
	return Raster{Image: img, Upright: true}, nil
}

func (s *popplerSource) Close() error { return nil }
