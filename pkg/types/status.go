// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// StatusKind names one variant of ConversionStatus.
type StatusKind string

const (
	StatusKindPending    StatusKind = "pending"
	StatusKindInProgress StatusKind = "in_progress"
	StatusKindCompleted  StatusKind = "completed"
	StatusKindFailed     StatusKind = "failed"
	StatusKindCancelled  StatusKind = "cancelled"
	StatusKindSkipped    StatusKind = "skipped"
)

// Reasons recorded on failed and skipped documents.
const (
	ReasonPasswordProtected = "Password protected"
	ReasonSubfolderFailed   = "Could not create subfolder"
	ReasonLoadFailed        = "Could not load PDF"
	ReasonAllPagesFailed    = "All pages failed"
)

// ConversionStatus is the conversion state of one queued document. Failed and
// Skipped carry a human-readable Reason; the other kinds leave it empty.
type ConversionStatus struct {
	Kind   StatusKind `json:"kind" yaml:"kind"`
	Reason string     `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func StatusPending() ConversionStatus    { return ConversionStatus{Kind: StatusKindPending} }
func StatusInProgress() ConversionStatus { return ConversionStatus{Kind: StatusKindInProgress} }
func StatusCompleted() ConversionStatus  { return ConversionStatus{Kind: StatusKindCompleted} }
func StatusCancelled() ConversionStatus  { return ConversionStatus{Kind: StatusKindCancelled} }

func StatusFailed(reason string) ConversionStatus {
	return ConversionStatus{Kind: StatusKindFailed, Reason: reason}
}

func StatusSkipped(reason string) ConversionStatus {
	return ConversionStatus{Kind: StatusKindSkipped, Reason: reason}
}

// IsTerminal reports whether no further transition is possible.
func (s ConversionStatus) IsTerminal() bool {
	switch s.Kind {
	case StatusKindCompleted, StatusKindFailed, StatusKindCancelled, StatusKindSkipped:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a forward move.
// A terminal status may only be replaced by an identical status, which makes
// replaying the same event a no-op.
func (s ConversionStatus) CanTransition(next ConversionStatus) bool {
	if s.IsTerminal() {
		return s == next
	}
	switch s.Kind {
	case StatusKindPending:
		return next.Kind != StatusKindCompleted
	case StatusKindInProgress:
		return next.Kind != StatusKindPending
	}
	return false
}

// String renders the status as shown in summaries, e.g. "failed: All pages failed".
func (s ConversionStatus) String() string {
	if s.Reason == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ": " + s.Reason
}
