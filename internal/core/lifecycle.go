package core

// lifecycle.go advances tracked uploads through their states.
//
// Each upload owns one pending timer at a time. A step is applied to the
// tracker first and only then is the next timer armed, so the steps of one
// upload can never overtake each other. Uploads do not share timers and
// interleave freely.
//
//	Start -> step (every StepInterval, +StepPercent) ... 100
//	      -> upload_successful (notify) -> ProcessingDelay -> processing
//	      -> ReviewDelay -> ready_for_review

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Timing holds the lifecycle delays.
type Timing struct {
	StepInterval    time.Duration // Between progress steps while uploading
	StepPercent     int           // Progress added per step
	ProcessingDelay time.Duration // upload_successful -> processing
	ReviewDelay     time.Duration // processing -> ready_for_review
}

// DefaultTiming returns the standard simulation delays.
func DefaultTiming() Timing {
	return Timing{
		StepInterval:    200 * time.Millisecond,
		StepPercent:     10,
		ProcessingDelay: 2 * time.Second,
		ReviewDelay:     3 * time.Second,
	}
}

// withDefaults fills unset fields. A zero Timing selects DefaultTiming; in a
// partially set Timing a zero delay means the transition happens immediately.
func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t == (Timing{}) {
		return d
	}
	if t.StepInterval <= 0 {
		t.StepInterval = d.StepInterval
	}
	if t.StepPercent <= 0 || t.StepPercent > 100 {
		t.StepPercent = d.StepPercent
	}
	if t.ProcessingDelay < 0 {
		t.ProcessingDelay = d.ProcessingDelay
	}
	if t.ReviewDelay < 0 {
		t.ReviewDelay = d.ReviewDelay
	}
	return t
}

// Driver schedules lifecycle transitions for the uploads of one tracker.
type Driver struct {
	tracker  *Tracker
	sched    Scheduler
	timing   Timing
	notifier Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	runs   map[string]Timer
	closed bool
}

// NewDriver creates a driver. A nil scheduler uses SystemScheduler and a nil
// notifier discards notifications.
func NewDriver(tracker *Tracker, sched Scheduler, timing Timing, notifier Notifier, logger *slog.Logger) *Driver {
	if sched == nil {
		sched = SystemScheduler{}
	}
	if notifier == nil {
		notifier = Notifiers(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		tracker:  tracker,
		sched:    sched,
		timing:   timing.withDefaults(),
		notifier: notifier,
		logger:   logger,
		runs:     make(map[string]Timer),
	}
}

// Timing returns the delays in effect.
func (d *Driver) Timing() Timing {
	return d.timing
}

// Start begins the lifecycle of a registered upload. Starting an id that is
// already running does nothing.
func (d *Driver) Start(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if _, running := d.runs[id]; running {
		return
	}
	d.runs[id] = d.sched.AfterFunc(d.timing.StepInterval, func() { d.step(id) })
}

// Cancel stops the pending timer of id and forgets it. It reports whether a
// run was active. A callback already executing finds the tracker entry gone
// or the run forgotten and stops there.
func (d *Driver) Cancel(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	timer, ok := d.runs[id]
	if !ok {
		return false
	}
	if timer != nil {
		timer.Stop()
	}
	delete(d.runs, id)
	return true
}

// Active returns the number of uploads with a pending transition.
func (d *Driver) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.runs)
}

// Close cancels every pending transition. Later calls to Start are ignored.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for id, timer := range d.runs {
		if timer != nil {
			timer.Stop()
		}
		delete(d.runs, id)
	}
}

// arm schedules fn for id after delay, but only while the run is active.
func (d *Driver) arm(id string, delay time.Duration, fn func(string)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, active := d.runs[id]; !active || d.closed {
		return
	}
	d.runs[id] = d.sched.AfterFunc(delay, func() { fn(id) })
}

// finish forgets a run that reached the terminal state or lost its entry.
func (d *Driver) finish(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.runs, id)
}

func (d *Driver) active(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.runs[id]
	return ok
}

func (d *Driver) step(id string) {
	if !d.active(id) {
		return
	}

	var done bool
	ok, err := d.tracker.Update(id, func(u *TrackedUpload) {
		u.Progress = min(u.Progress+d.timing.StepPercent, 100)
		done = u.Progress == 100
	})
	if !d.applied(id, ok, err) {
		return
	}
	if !done {
		d.arm(id, d.timing.StepInterval, d.step)
		return
	}

	var name string
	ok, err = d.tracker.Update(id, func(u *TrackedUpload) {
		u.Status = StatusUploadSuccessful
		u.Progress = 100
		name = u.Name
	})
	if !d.applied(id, ok, err) {
		return
	}

	d.notifyActive(id, Notification{
		Kind:        KindSuccess,
		Title:       "Upload successful",
		Description: fmt.Sprintf("%s has been uploaded securely.", name),
		UploadID:    id,
		At:          d.sched.Now(),
	})
	d.arm(id, d.timing.ProcessingDelay, d.process)
}

// notifyActive sends n only while the run of id is active. It holds the lock
// across the send so a concurrent Cancel either precedes it and suppresses
// the notification or waits for it.
func (d *Driver) notifyActive(id string, n Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, active := d.runs[id]; !active || d.closed {
		return
	}
	d.notifier.Notify(n)
}

func (d *Driver) process(id string) {
	if !d.active(id) {
		return
	}
	ok, err := d.tracker.Update(id, func(u *TrackedUpload) {
		u.Status = StatusProcessing
	})
	if !d.applied(id, ok, err) {
		return
	}
	d.arm(id, d.timing.ReviewDelay, d.review)
}

func (d *Driver) review(id string) {
	if !d.active(id) {
		return
	}
	ok, err := d.tracker.Update(id, func(u *TrackedUpload) {
		u.Status = StatusReadyForReview
	})
	if d.applied(id, ok, err) {
		d.logger.Debug("upload ready for review", "upload_id", id)
	}
	d.finish(id)
}

// applied reports whether an update took effect, forgetting the run if not.
func (d *Driver) applied(id string, ok bool, err error) bool {
	if err != nil {
		d.logger.Error("lifecycle update refused", "upload_id", id, "error", err)
		d.finish(id)
		return false
	}
	if !ok {
		d.logger.Debug("stale lifecycle update ignored", "upload_id", id)
		d.finish(id)
		return false
	}
	return true
}
