// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DocumentItem is one queued PDF and its conversion state. The pipeline is
// the only writer of Status, CompletedPages, FailedPages and FolderName while
// a job runs.
type DocumentItem struct {
	// SourcePath is the PDF on disk.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// DisplayName is the file name without extension, as the user sees it.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// SanitizedName is DisplayName made filesystem-safe.
	SanitizedName string `json:"sanitized_name" yaml:"sanitized_name"`

	// FolderName is the deduplicated subfolder created for this document.
	// Empty until the pipeline creates it.
	FolderName string `json:"folder_name,omitempty" yaml:"folder_name,omitempty"`

	PageCount int  `json:"page_count" yaml:"page_count"`
	Locked    bool `json:"locked" yaml:"locked"`

	Status         ConversionStatus `json:"status" yaml:"status"`
	CompletedPages int              `json:"completed_pages" yaml:"completed_pages"`

	// FailedPages lists 1-based page numbers that could not be rendered or
	// exported, in page order.
	FailedPages []int `json:"failed_pages,omitempty" yaml:"failed_pages,omitempty"`
}

// Clone returns a copy that shares no slices with d.
func (d DocumentItem) Clone() DocumentItem {
	c := d
	if d.FailedPages != nil {
		c.FailedPages = append([]int(nil), d.FailedPages...)
	}
	return c
}
