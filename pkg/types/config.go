// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RasterBackend identifies the library or tool that rasterizes PDF pages.
type RasterBackend string

const (
	BackendFitz    RasterBackend = "fitz"
	BackendPoppler RasterBackend = "poppler"
)

// PopplerConfig holds settings for the pdftoppm backend.
type PopplerConfig struct {
	// Runtime selects where pdftoppm runs: auto, docker, podman, or host.
	Runtime string `json:"runtime" yaml:"runtime"`

	// Image is the container image that provides pdftoppm (ignored for host).
	Image string `json:"image" yaml:"image"`
}

// RenderConfig holds settings for page rasterization. Resolution and JPG
// quality are fixed and deliberately absent.
type RenderConfig struct {
	// Backend selects the rasterizer: fitz or poppler.
	Backend RasterBackend `json:"backend" yaml:"backend"`

	Poppler PopplerConfig `json:"poppler" yaml:"poppler"`
}

// ConvertConfig holds settings for one conversion job.
type ConvertConfig struct {
	Render RenderConfig `json:"render" yaml:"render"`

	// Destination is the directory the job folder is created in.
	Destination string `json:"destination" yaml:"destination"`

	// JobName is the job folder name before sanitization.
	JobName string `json:"job_name" yaml:"job_name"`

	// StartDelay is the pause between creating the job folder and the first
	// document, giving a progress display time to attach (default 250ms).
	StartDelay time.Duration `json:"start_delay" yaml:"start_delay"`
}

// HistoryConfig holds settings for the job history database.
type HistoryConfig struct {
	// Enabled turns recording of finished jobs on or off.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// DBPath is the sqlite database file.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// SettingsConfig locates the persisted user settings.
type SettingsConfig struct {
	// File is the yaml file holding the remembered destination.
	File string `json:"file" yaml:"file"`
}
