package core_test

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/testutil"
)

var epoch = time.Date(2025, time.March, 3, 10, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder collects notifications for assertions.
type recorder struct {
	mu    sync.Mutex
	items []core.Notification
}

func (r *recorder) Notify(n core.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recorder) all() []core.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Notification, len(r.items))
	copy(out, r.items)
	return out
}

func (r *recorder) count(kind core.Kind) int {
	n := 0
	for _, item := range r.all() {
		if item.Kind == kind {
			n++
		}
	}
	return n
}

// step is an observed (status, progress) pair.
type step struct {
	Status   core.Status
	Progress int
}

// drain reads every buffered event without blocking.
func drain(ch <-chan core.Event) []core.Event {
	var out []core.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

// stepsFor returns the observed non-removal steps of one upload.
func stepsFor(events []core.Event, id string) []step {
	var out []step
	for _, ev := range events {
		if ev.UploadID == id && !ev.Removed {
			out = append(out, step{ev.Status, ev.Progress})
		}
	}
	return out
}

// fullLifecycle is the exact sequence every accepted file goes through.
func fullLifecycle() []step {
	out := []step{}
	for p := 0; p <= 100; p += 10 {
		out = append(out, step{core.StatusUploading, p})
	}
	return append(out,
		step{core.StatusUploadSuccessful, 100},
		step{core.StatusProcessing, 100},
		step{core.StatusReadyForReview, 100},
	)
}

func newPortal(sched *testutil.FakeScheduler, rec *recorder) *core.Portal {
	opts := core.Options{
		Scheduler: sched,
		Timing:    core.DefaultTiming(),
		Logger:    quietLogger(),
	}
	if rec != nil {
		opts.Notifier = rec
	}
	return core.New(opts)
}

func pdf(name string, size int64) core.Candidate {
	return core.Candidate{Name: name, MIMEType: "application/pdf", Size: size}
}
