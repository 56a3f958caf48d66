// Package core provides the business logic for the client portal's document
// upload lifecycle.
//
// This package contains the only stateful process of the site, independent of
// any UI or transport layer. It is used by the web handlers and by tests
// without modification.
//
// # Architecture
//
// The package is organized around four collaborators, wired together by
// [Portal] (one per browsing session):
//
//   - Validator: screens a batch for a selected [Category] and each
//     [Candidate] for declared type and size.
//   - Tracker: owns the [TrackedUpload] records of a session, in insertion
//     order, and publishes an [Event] for every applied change.
//   - Driver: advances each tracked upload through the lifecycle using an
//     injected [Scheduler], independently per upload.
//   - Notifier: fire-and-forget user acknowledgements.
//
// # Lifecycle
//
// Every accepted file moves forward through a fixed sequence and never back:
//
//	uploading (0 -> 100 in fixed steps)
//	  -> upload_successful (success notification, once)
//	  -> processing
//	  -> ready_for_review (terminal)
//
// Failures only happen at validation time, before a [TrackedUpload] exists.
// Removing an upload cancels its pending timer; a timer that fires anyway finds
// the entry gone and does nothing.
//
// # Time
//
// All delays go through [Scheduler]. Production uses [SystemScheduler]; tests
// use testutil.FakeScheduler and advance a manual clock.
//
// # Error Handling
//
// Validation failures are returned as [*Rejection], which wraps one or more of
// [ErrUnsupportedFormat], [ErrFileTooLarge] and [ErrMissingCategory].
// Technical errors are mapped to user-friendly messages using [MapError]:
//
//   - FILE001-FILE004: Document errors (size, format, category, no file)
//   - UPL003: Upload not found
//   - AUTH001: Portal sign-in required
//   - FORM001: Invalid form input
//   - RATE001: Rate limited
package core
