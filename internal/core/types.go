package core

import (
	"io"
	"strings"
	"time"
)

// Category is the document category chosen for an upload batch.
type Category string

const (
	CategoryW2       Category = "W-2 Forms"
	Category1099     Category = "1099 Forms"
	CategoryBank     Category = "Bank Statements"
	CategoryReceipts Category = "Receipts & Deductions"
	CategoryOther    Category = "Other Documents"
)

var categories = []Category{
	CategoryW2,
	Category1099,
	CategoryBank,
	CategoryReceipts,
	CategoryOther,
}

// Categories returns the fixed set of document categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory matches s against the fixed set, ignoring surrounding
// whitespace and case.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Status is the lifecycle state of a tracked upload.
type Status string

const (
	StatusUploading        Status = "uploading"
	StatusUploadSuccessful Status = "upload_successful"
	StatusProcessing       Status = "processing"
	StatusReadyForReview   Status = "ready_for_review"
)

// rank orders the states; transitions must never decrease it.
func (s Status) rank() int {
	switch s {
	case StatusUploading:
		return 1
	case StatusUploadSuccessful:
		return 2
	case StatusProcessing:
		return 3
	case StatusReadyForReview:
		return 4
	}
	return 0
}

// Valid reports whether s is one of the lifecycle states.
func (s Status) Valid() bool { return s.rank() > 0 }

// Before reports whether s comes earlier in the lifecycle than o.
func (s Status) Before(o Status) bool { return s.rank() < o.rank() }

// Terminal reports whether no further automatic transitions follow s.
func (s Status) Terminal() bool { return s == StatusReadyForReview }

// Label returns the badge text shown to clients.
func (s Status) Label() string {
	switch s {
	case StatusUploading:
		return "Uploading"
	case StatusUploadSuccessful:
		return "Upload Successful"
	case StatusProcessing:
		return "Processing"
	case StatusReadyForReview:
		return "Ready for Review"
	}
	return string(s)
}

// Candidate is a file offered for upload. It is not retained after validation.
// Content is never read by this package.
type Candidate struct {
	Name     string
	MIMEType string
	Size     int64
	Content  io.Reader
}

// TrackedUpload is one simulated document upload owned by a Tracker.
type TrackedUpload struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Size           int64     `json:"size"`
	MIMEType       string    `json:"mimeType"`
	Category       Category  `json:"category"`
	Status         Status    `json:"status"`
	Progress       int       `json:"progress"`
	RegisteredDate time.Time `json:"registeredDate"`
}

// Event describes one applied change to a tracked upload.
// Removed events carry the last known status and progress.
type Event struct {
	UploadID string    `json:"uploadId"`
	Status   Status    `json:"status"`
	Progress int       `json:"progress"`
	Removed  bool      `json:"removed,omitempty"`
	At       time.Time `json:"at"`
}
