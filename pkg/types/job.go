// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
	"time"
)

// JobState is the lifecycle of a conversion job: idle -> running -> finished.
type JobState string

const (
	JobIdle     JobState = "idle"
	JobRunning  JobState = "running"
	JobFinished JobState = "finished"
)

// Job is one user-initiated batch conversion into a single destination.
type Job struct {
	ID string `json:"id" yaml:"id"`

	// Destination is the directory the job folder is created in.
	Destination string `json:"destination" yaml:"destination"`

	// Name is the job folder name as typed; FolderName is its sanitized form.
	Name       string `json:"name" yaml:"name"`
	FolderName string `json:"folder_name" yaml:"folder_name"`

	Items []DocumentItem `json:"items" yaml:"items"`

	State     JobState `json:"state" yaml:"state"`
	Cancelled bool     `json:"cancelled" yaml:"cancelled"`

	StartedAt  time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// FolderPath returns Destination joined with the sanitized job name. The
// second result is false until both a destination and a non-blank name are
// set.
func (j *Job) FolderPath() (string, bool) {
	if j.Destination == "" || strings.TrimSpace(j.Name) == "" || j.FolderName == "" {
		return "", false
	}
	return filepath.Join(j.Destination, j.FolderName), true
}

// TotalPages sums the page counts of all queued documents.
func (j *Job) TotalPages() int {
	n := 0
	for _, it := range j.Items {
		n += it.PageCount
	}
	return n
}

// CompletedPages sums the pages written so far.
func (j *Job) CompletedPages() int {
	n := 0
	for _, it := range j.Items {
		n += it.CompletedPages
	}
	return n
}

// Progress returns the completed fraction of all pages, in [0, 1].
func (j *Job) Progress() float64 {
	total := j.TotalPages()
	if total == 0 {
		return 0
	}
	return float64(j.CompletedPages()) / float64(total)
}

// Summary counts documents by terminal status.
func (j *Job) Summary() Summary {
	var s Summary
	for _, it := range j.Items {
		switch it.Status.Kind {
		case StatusKindCompleted:
			s.Completed++
		case StatusKindFailed:
			s.Failed++
		case StatusKindCancelled:
			s.Cancelled++
		case StatusKindSkipped:
			s.Skipped++
		}
	}
	return s
}

// Clone returns a deep copy of the job, safe to hand to readers.
func (j *Job) Clone() Job {
	c := *j
	c.Items = make([]DocumentItem, len(j.Items))
	for i, it := range j.Items {
		c.Items[i] = it.Clone()
	}
	return c
}

// Summary holds the outcome counts of a finished job.
type Summary struct {
	Completed int `json:"completed" yaml:"completed"`
	Failed    int `json:"failed" yaml:"failed"`
	Cancelled int `json:"cancelled" yaml:"cancelled"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// Total returns the number of documents that reached a terminal status.
func (s Summary) Total() int {
	return s.Completed + s.Failed + s.Cancelled + s.Skipped
}

// HasFailures reports whether any document failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}
