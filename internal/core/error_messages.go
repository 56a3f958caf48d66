package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When clients encounter errors, they can quote the error code to the office
// for faster diagnosis.
//
// # Document Errors (FILE001-FILE099)
//
//	FILE001 - File too large: Document exceeds the 5 MB limit
//	          Action: Compress or split the document and upload it again
//	          Patterns: "file too large"
//
//	FILE002 - Unsupported format: Only PDF, JPG and PNG files are accepted
//	          Action: Save or scan the document as PDF, JPG or PNG
//	          Patterns: "unsupported file format"
//
//	FILE003 - Missing category: No document category was selected
//	          Action: Choose a document category before uploading files
//	          Patterns: "missing document category"
//
//	FILE004 - No file: No file was selected
//	          Action: Choose one or more documents to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Too many files: The batch has more files than allowed
//	          Action: Upload the documents in smaller batches
//	          Patterns: "too many files"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Server busy: Too many uploads are being received at once
//	         Action: Wait a few seconds and upload again
//	         Patterns: "too many uploads in progress"
//
//	UPL003 - Upload not found: The document is no longer tracked
//	         Action: Refresh the page to see your current uploads
//	         Patterns: "upload not found"
//
//	UPL004 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
// # Portal Errors (AUTH001-AUTH099)
//
//	AUTH001 - Sign in required: The portal session is missing or expired
//	          Action: Sign in to the client portal again
//	          Patterns: "sign in required"
//
// # Form Errors (FORM001-FORM099)
//
//	FORM001 - Invalid form input: One or more fields need attention
//	          Action: Review the highlighted fields and submit again
//	          Patterns: "invalid form input"
//
// # Navigation Errors (NAV001-NAV099)
//
//	NAV404 - Page not found: The requested page or article does not exist
//	         Action: Check the address or return to the home page
//	         Patterns: "page not found"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or call our office
//
// # Pattern Matching
//
// A [*Rejection] is mapped by its primary reason. Any other error is matched
// case-insensitively against the patterns using strings.Contains; the first
// matching pattern wins.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoFile is returned when an upload request carries no files.
	ErrNoFile = errors.New("no file provided")

	// ErrTooManyFiles is returned when a batch exceeds the per-request file limit.
	ErrTooManyFiles = errors.New("too many files")

	// ErrUploadsBusy is returned when no upload slot frees up in time.
	ErrUploadsBusy = errors.New("too many uploads in progress")

	// ErrSignInRequired is returned for portal requests without a signed-in session.
	ErrSignInRequired = errors.New("sign in required")

	// ErrPageNotFound is returned for unknown pages, articles and seed documents.
	ErrPageNotFound = errors.New("page not found")

	// ErrRateLimited is returned when a client exceeds its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Document Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File too large",
			Action:  "Compress or split the document and upload it again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "Unsupported file type",
			Action:  "Save or scan the document as PDF, JPG or PNG",
			Code:    "FILE002",
		},
	},
	{
		pattern: "missing document category",
		msg: UserMessage{
			Message: "Please select a document category",
			Action:  "Choose a document category before uploading files",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose one or more documents to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files in one upload",
			Action:  "Upload the documents in smaller batches",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Upload Errors (UPL001-UPL004)
	// =========================================================================
	{
		pattern: "too many uploads in progress",
		msg: UserMessage{
			Message: "The server is busy receiving other uploads",
			Action:  "Wait a few seconds and upload again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "upload not found",
		msg: UserMessage{
			Message: "Document not found",
			Action:  "Refresh the page to see your current uploads",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},

	// =========================================================================
	// Portal and form errors
	// =========================================================================
	{
		pattern: "sign in required",
		msg: UserMessage{
			Message: "Please sign in to the client portal",
			Action:  "Sign in to the client portal again",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid form input",
		msg: UserMessage{
			Message: "Some fields need your attention",
			Action:  "Review the highlighted fields and submit again",
			Code:    "FORM001",
		},
	},

	{
		pattern: "page not found",
		msg: UserMessage{
			Message: "Page not found",
			Action:  "Check the address or return to the home page",
			Code:    "NAV404",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or call our office",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback message with code ERR000 is returned.
//
// Example:
//
//	msg := MapError(fmt.Errorf("upload w2.pdf: %w", ErrFileTooLarge))
//	// msg.Code == "FILE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var rej *Rejection
	if errors.As(err, &rej) && rej.Reason() != nil {
		err = rej.Reason()
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
