package core

// validation.go screens upload candidates before they are tracked.
//
// Validation happens at two levels:
//  1. Batch validation: a category must be selected before any file is checked
//  2. File validation: declared type and byte size against fixed limits
//
// Validation is by declared MIME type (or extension when no useful type was
// declared) and size only. File contents are never inspected.

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultMaxFileSize is the largest accepted document (5 MiB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

var (
	// ErrUnsupportedFormat is returned for files that are not PDF, JPEG or PNG.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned for files above the size ceiling.
	ErrFileTooLarge = errors.New("file too large")

	// ErrMissingCategory is returned when no document category was selected.
	ErrMissingCategory = errors.New("missing document category")
)

var allowedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Rejection is a validation refusal for one candidate (or for the whole batch
// when FileName is empty). It wraps every reason that applied.
type Rejection struct {
	FileName string
	Size     int64
	Reasons  []error
}

func (r *Rejection) Error() string {
	parts := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		parts[i] = reason.Error()
	}
	if r.FileName == "" {
		return strings.Join(parts, "; ")
	}
	return fmt.Sprintf("%s: %s", r.FileName, strings.Join(parts, "; "))
}

// Unwrap exposes the reasons to errors.Is.
func (r *Rejection) Unwrap() []error {
	return r.Reasons
}

// Reason returns the primary reason, the one shown to the user.
func (r *Rejection) Reason() error {
	if len(r.Reasons) == 0 {
		return nil
	}
	return r.Reasons[0]
}

// Notification builds the error acknowledgement for this rejection.
func (r *Rejection) Notification(maxSize int64) Notification {
	msg := MapError(r.Reason())
	n := Notification{
		Kind:  KindError,
		Title: msg.Message,
		Code:  msg.Code,
	}

	switch {
	case errors.Is(r.Reason(), ErrMissingCategory):
		n.Description = "Choose a document category before uploading files."
	case errors.Is(r.Reason(), ErrUnsupportedFormat):
		n.Description = fmt.Sprintf("%s is not a PDF, JPG or PNG file.", r.FileName)
	case errors.Is(r.Reason(), ErrFileTooLarge):
		n.Description = fmt.Sprintf("%s is %s; the limit is %s.",
			r.FileName, humanize.IBytes(uint64(r.Size)), humanize.IBytes(uint64(maxSize)))
	default:
		n.Description = msg.Action
	}
	return n
}

// Validator checks categories and candidates against the upload rules.
type Validator struct {
	maxSize int64
}

// NewValidator creates a validator with the given size ceiling in bytes.
// A non-positive maxSize selects DefaultMaxFileSize.
func NewValidator(maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Validator{maxSize: maxSize}
}

// MaxSize returns the size ceiling in bytes.
func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

// ValidateCategory checks the batch-level category selection.
func (v *Validator) ValidateCategory(raw string) (Category, error) {
	c, ok := ParseCategory(raw)
	if !ok {
		return "", &Rejection{Reasons: []error{ErrMissingCategory}}
	}
	return c, nil
}

// Validate checks one candidate. It returns nil on acceptance or a *Rejection
// listing every failed check, format first.
func (v *Validator) Validate(c Candidate) error {
	var reasons []error

	if !v.allowedType(c) {
		reasons = append(reasons, ErrUnsupportedFormat)
	}
	if c.Size > v.maxSize {
		reasons = append(reasons, ErrFileTooLarge)
	}

	if len(reasons) == 0 {
		return nil
	}
	return &Rejection{FileName: c.Name, Size: c.Size, Reasons: reasons}
}

// allowedType accepts on the declared MIME type, falling back to the file
// extension only when the browser declared nothing useful.
func (v *Validator) allowedType(c Candidate) bool {
	mimeType := strings.ToLower(strings.TrimSpace(c.MIMEType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	if mimeType != "" && mimeType != "application/octet-stream" {
		return allowedTypes[mimeType]
	}
	return allowedExtensions[strings.ToLower(filepath.Ext(c.Name))]
}
