package web

// upload_limiter.go bounds how many multipart upload bodies are read at once.
//
// Each slot is a buffered channel entry. A request that cannot get a slot
// within the wait fails with core.ErrUploadsBusy; Drain lets shutdown wait
// for requests still reading.

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/taxpro/internal/core"
)

type uploadLimiter struct {
	slots chan struct{}
	wait  time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

func newUploadLimiter(maxConcurrent int, wait time.Duration) *uploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	idle := make(chan struct{})
	close(idle)
	return &uploadLimiter{
		slots: make(chan struct{}, maxConcurrent),
		wait:  wait,
		idle:  idle,
	}
}

// acquire takes a slot. The caller must release it.
func (l *uploadLimiter) acquire(ctx context.Context) error {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-timer.C:
		return core.ErrUploadsBusy
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
	return nil
}

func (l *uploadLimiter) release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

// inFlight returns the number of held slots.
func (l *uploadLimiter) inFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// drain blocks until no slot is held or ctx is done.
func (l *uploadLimiter) drain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
