package core

import (
	"context"
	"log/slog"
)

// DefaultMaxFiles is the per-batch file limit used when Options.MaxFiles is unset.
const DefaultMaxFiles = 20

// Options configures a Portal. Zero values select defaults.
type Options struct {
	Scheduler   Scheduler
	Timing      Timing
	MaxFileSize int64
	MaxFiles    int
	HistorySize int

	// Notifier receives every notification in addition to the session history.
	Notifier Notifier
	Logger   *slog.Logger
}

// Portal is the upload lifecycle of one browsing session. It wires the
// validator, tracker, driver and notifiers together.
type Portal struct {
	validator *Validator
	tracker   *Tracker
	driver    *Driver
	history   *History
	notifier  Notifier
	sched     Scheduler
	maxFiles  int
	logger    *slog.Logger
}

// SubmitResult reports the outcome of one batch.
type SubmitResult struct {
	Category Category
	Accepted []TrackedUpload
	Rejected []*Rejection
}

// New creates a Portal with an empty tracker.
func New(opts Options) *Portal {
	sched := opts.Scheduler
	if sched == nil {
		sched = SystemScheduler{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	history := NewHistory(opts.HistorySize)
	notifier := Notifiers{history, LogNotifier{Logger: logger}}
	if opts.Notifier != nil {
		notifier = append(notifier, opts.Notifier)
	}

	tracker := NewTracker(sched.Now)
	return &Portal{
		validator: NewValidator(opts.MaxFileSize),
		tracker:   tracker,
		driver:    NewDriver(tracker, sched, opts.Timing, notifier, logger),
		history:   history,
		notifier:  notifier,
		sched:     sched,
		maxFiles:  maxFiles,
		logger:    logger,
	}
}

// Submit validates a batch and starts the lifecycle of every accepted file.
//
// A missing category rejects the whole batch before any file is checked and
// is returned as a *Rejection. Individual files that fail validation are
// listed in Rejected and never tracked. Each rejection emits exactly one
// error notification; accepted files are registered silently.
func (p *Portal) Submit(ctx context.Context, category string, candidates []Candidate) (SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, err
	}

	cat, err := p.validator.ValidateCategory(category)
	if err != nil {
		rej := err.(*Rejection)
		p.notify(rej.Notification(p.validator.MaxSize()))
		return SubmitResult{Rejected: []*Rejection{rej}}, err
	}

	if len(candidates) == 0 {
		return SubmitResult{Category: cat}, ErrNoFile
	}
	if len(candidates) > p.maxFiles {
		return SubmitResult{Category: cat}, ErrTooManyFiles
	}

	res := SubmitResult{Category: cat}
	for _, c := range candidates {
		if err := p.validator.Validate(c); err != nil {
			rej := err.(*Rejection)
			res.Rejected = append(res.Rejected, rej)
			p.notify(rej.Notification(p.validator.MaxSize()))
			continue
		}

		u := p.tracker.Register(c, cat)
		p.driver.Start(u.ID)
		res.Accepted = append(res.Accepted, u)
		p.logger.Debug("upload registered",
			"upload_id", u.ID,
			"category", cat,
			"size", u.Size,
		)
	}

	return res, nil
}

// Remove deletes an upload and cancels its pending transitions. It reports
// whether the upload was tracked; removing an unknown id is not an error.
func (p *Portal) Remove(id string) bool {
	p.driver.Cancel(id)
	return p.tracker.Remove(id)
}

// List returns the tracked uploads in insertion order.
func (p *Portal) List() []TrackedUpload {
	return p.tracker.List()
}

// Get returns one tracked upload or an error wrapping ErrUploadNotFound.
func (p *Portal) Get(id string) (TrackedUpload, error) {
	return p.tracker.Get(id)
}

// Subscribe streams lifecycle events published after the call.
func (p *Portal) Subscribe(buffer int) (<-chan Event, func()) {
	return p.tracker.Subscribe(buffer)
}

// Notify emits an out-of-band notification, such as a simulated download.
func (p *Portal) Notify(n Notification) {
	p.notify(n)
}

// Notifications returns the session's recent notifications, newest last.
func (p *Portal) Notifications() []Notification {
	return p.history.Recent()
}

// MaxFileSize returns the per-file size ceiling in bytes.
func (p *Portal) MaxFileSize() int64 {
	return p.validator.MaxSize()
}

// Timing returns the lifecycle delays in effect.
func (p *Portal) Timing() Timing {
	return p.driver.Timing()
}

// Close stops every pending transition and closes subscriber channels.
func (p *Portal) Close() {
	p.driver.Close()
	p.tracker.Close()
}

func (p *Portal) notify(n Notification) {
	if n.At.IsZero() {
		n.At = p.sched.Now()
	}
	p.notifier.Notify(n)
}
