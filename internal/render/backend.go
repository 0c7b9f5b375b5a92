// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"

	"github.com/pdiddy/pdf2jpg/internal/container"
	"github.com/pdiddy/pdf2jpg/pkg/types"
)

// NewRasterizer builds the backend selected in cfg. An empty backend means
// fitz.
func NewRasterizer(cfg types.RenderConfig) (Rasterizer, error) {
	switch cfg.Backend {
	case "", types.BackendFitz:
		return NewFitzRasterizer(), nil
	case types.BackendPoppler:
		rt, err := container.Select(cfg.Poppler.Runtime, popplerTool)
		if err != nil {
			return nil, err
		}
		return NewPopplerRasterizer(rt, cfg.Poppler.Image)
	default:
		return nil, fmt.Errorf("unsupported backend %q: use fitz or poppler", cfg.Backend)
	}
}
