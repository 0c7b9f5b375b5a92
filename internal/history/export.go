// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf2jpg/pkg/types"
)

// JobRecord is a finished job as stored in the history database.
type JobRecord struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	FolderName  string           `json:"folder_name" yaml:"folder_name"`
	Destination string           `json:"destination" yaml:"destination"`
	Cancelled   bool             `json:"cancelled" yaml:"cancelled"`
	StartedAt   time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time        `json:"finished_at" yaml:"finished_at"`
	Summary     types.Summary    `json:"summary" yaml:"summary"`
	Documents   []DocumentRecord `json:"documents,omitempty" yaml:"documents,omitempty"`
}

// DocumentRecord is one document of a recorded job.
type DocumentRecord struct {
	SourcePath     string                 `json:"source_path" yaml:"source_path"`
	DisplayName    string                 `json:"display_name" yaml:"display_name"`
	FolderName     string                 `json:"folder_name,omitempty" yaml:"folder_name,omitempty"`
	PageCount      int                    `json:"page_count" yaml:"page_count"`
	Status         types.ConversionStatus `json:"status" yaml:"status"`
	CompletedPages int                    `json:"completed_pages" yaml:"completed_pages"`
	FailedPages    []int                  `json:"failed_pages,omitempty" yaml:"failed_pages,omitempty"`
}

// ExportYAML writes rec to w as YAML.
func ExportYAML(w io.Writer, rec *JobRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes rec to w as indented JSON.
func ExportJSON(w io.Writer, rec *JobRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
