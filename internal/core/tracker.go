package core

// tracker.go owns the tracked uploads of one browsing session.
//
// Entries are kept in insertion order. Every applied change is published as an
// Event to subscribers under the tracker lock, so events for one upload are
// delivered in the order they were applied. Sends never block: a subscriber
// that falls behind loses events rather than stalling the lifecycle.

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUploadNotFound is returned by lookups for ids that are not tracked.
	ErrUploadNotFound = errors.New("upload not found")

	// ErrInvalidTransition is returned when an update would move an upload
	// backwards through the lifecycle.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)

// DefaultSubscriberBuffer is the channel buffer used when Subscribe is given
// a non-positive size. It holds one full lifecycle of a small batch.
const DefaultSubscriberBuffer = 64

// Tracker maps upload ids to their current state. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	order   []string
	uploads map[string]*TrackedUpload
	subs    map[int]chan Event
	nextSub int
	closed  bool

	now   func() time.Time
	newID func() string
}

// NewTracker creates an empty tracker reading time from now.
// A nil now uses time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		uploads: make(map[string]*TrackedUpload),
		subs:    make(map[int]chan Event),
		now:     now,
		newID:   uuid.NewString,
	}
}

// Register appends a new upload for an accepted candidate in the initial
// state with progress 0 and returns a copy of it.
func (t *Tracker) Register(c Candidate, category Category) TrackedUpload {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	id := t.newID()
	for t.uploads[id] != nil {
		id = t.newID()
	}

	u := &TrackedUpload{
		ID:             id,
		Name:           c.Name,
		Size:           c.Size,
		MIMEType:       c.MIMEType,
		Category:       category,
		Status:         StatusUploading,
		Progress:       0,
		RegisteredDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
	t.uploads[id] = u
	t.order = append(t.order, id)
	t.publish(Event{UploadID: id, Status: u.Status, Progress: u.Progress, At: now})

	return *u
}

// Update applies fn to the upload with the given id and publishes the result.
//
// Updating an id that is not tracked is a silent no-op and returns false with
// a nil error; the entry may have been removed while a timer was pending.
// Changes that would lower the status, lower progress or leave 0..100 are
// refused with ErrInvalidTransition and leave the entry untouched. An update
// that changes nothing is applied without publishing.
func (t *Tracker) Update(id string, fn func(*TrackedUpload)) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.uploads[id]
	if !ok {
		return false, nil
	}

	next := *cur
	fn(&next)
	next.ID = cur.ID

	if err := checkTransition(*cur, next); err != nil {
		return false, fmt.Errorf("upload %s: %w", id, err)
	}
	if next == *cur {
		return true, nil
	}

	*cur = next
	t.publish(Event{UploadID: id, Status: next.Status, Progress: next.Progress, At: t.now()})
	return true, nil
}

func checkTransition(from, to TrackedUpload) error {
	if !to.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to.Status)
	}
	if to.Status.rank() < from.Status.rank() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from.Status, to.Status)
	}
	if to.Progress < from.Progress || to.Progress > 100 {
		return fmt.Errorf("%w: progress %d -> %d", ErrInvalidTransition, from.Progress, to.Progress)
	}
	if to.Status != StatusUploading && to.Progress != 100 {
		return fmt.Errorf("%w: %s requires progress 100", ErrInvalidTransition, to.Status)
	}
	return nil
}

// Remove deletes the upload and reports whether it was tracked.
// Removing an unknown or already removed id has no effect.
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	u, ok := t.uploads[id]
	if !ok {
		return false
	}
	delete(t.uploads, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	t.publish(Event{UploadID: id, Status: u.Status, Progress: u.Progress, Removed: true, At: t.now()})
	return true
}

// Get returns a copy of the upload with the given id.
func (t *Tracker) Get(id string) (TrackedUpload, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u, ok := t.uploads[id]
	if !ok {
		return TrackedUpload{}, fmt.Errorf("%s: %w", id, ErrUploadNotFound)
	}
	return *u, nil
}

// List returns copies of all tracked uploads in insertion order.
func (t *Tracker) List() []TrackedUpload {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TrackedUpload, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.uploads[id])
	}
	return out
}

// Len returns the number of tracked uploads.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// Subscribe returns a channel receiving every event published after the call
// and a cancel func that closes it. Cancel is safe to call more than once.
// After Close the returned channel is already closed.
func (t *Tracker) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		close(ch)
		return ch, func() {}
	}

	key := t.nextSub
	t.nextSub++
	t.subs[key] = ch

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if sub, ok := t.subs[key]; ok {
			delete(t.subs, key)
			close(sub)
		}
	}
}

// Close closes every subscriber channel. Tracked uploads stay readable.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for key, ch := range t.subs {
		delete(t.subs, key)
		close(ch)
	}
}

// publish must be called with t.mu held.
func (t *Tracker) publish(ev Event) {
	for _, ch := range t.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
