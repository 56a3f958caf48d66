package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/taxpro/internal/core"
)

func fixedClock() time.Time { return epoch }

func TestTracker_RegisterAppendsInOrder(t *testing.T) {
	tr := core.NewTracker(fixedClock)

	a := tr.Register(pdf("a.pdf", 10), core.CategoryW2)
	b := tr.Register(pdf("b.pdf", 20), core.CategoryBank)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, core.StatusUploading, a.Status)
	assert.Equal(t, 0, a.Progress)
	assert.Equal(t, core.CategoryW2, a.Category)
	assert.Equal(t, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), a.RegisteredDate)

	list := tr.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a.pdf", list[0].Name)
	assert.Equal(t, "b.pdf", list[1].Name)
}

func TestTracker_UpdateMissingIsNoop(t *testing.T) {
	tr := core.NewTracker(fixedClock)
	events, cancel := tr.Subscribe(0)
	defer cancel()

	ok, err := tr.Update("does-not-exist", func(u *core.TrackedUpload) { u.Progress = 50 })

	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Empty(t, tr.List())
	assert.Empty(t, drain(events))
}

func TestTracker_UpdateRefusesBackwardMoves(t *testing.T) {
	tr := core.NewTracker(fixedClock)
	u := tr.Register(pdf("a.pdf", 10), core.CategoryW2)

	ok, err := tr.Update(u.ID, func(u *core.TrackedUpload) { u.Progress = 40 })
	require.NoError(t, err)
	require.True(t, ok)

	tests := []struct {
		name string
		fn   func(*core.TrackedUpload)
	}{
		{"lower progress", func(u *core.TrackedUpload) { u.Progress = 30 }},
		{"progress over 100", func(u *core.TrackedUpload) { u.Progress = 110 }},
		{"unknown status", func(u *core.TrackedUpload) { u.Status = "failed" }},
		{"post-upload state below 100", func(u *core.TrackedUpload) { u.Status = core.StatusProcessing }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tr.Update(u.ID, tt.fn)
			assert.False(t, ok)
			assert.ErrorIs(t, err, core.ErrInvalidTransition)

			got, err := tr.Get(u.ID)
			require.NoError(t, err)
			assert.Equal(t, 40, got.Progress)
			assert.Equal(t, core.StatusUploading, got.Status)
		})
	}

	_, err = tr.Update(u.ID, func(u *core.TrackedUpload) {
		u.Status = core.StatusReadyForReview
		u.Progress = 100
	})
	require.NoError(t, err)

	_, err = tr.Update(u.ID, func(u *core.TrackedUpload) { u.Status = core.StatusProcessing })
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestTracker_UpdateKeepsID(t *testing.T) {
	tr := core.NewTracker(fixedClock)
	u := tr.Register(pdf("a.pdf", 10), core.CategoryW2)

	_, err := tr.Update(u.ID, func(x *core.TrackedUpload) {
		x.ID = "hijacked"
		x.Progress = 10
	})
	require.NoError(t, err)

	got, err := tr.Get(u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 10, got.Progress)
}

func TestTracker_RemoveIsIdempotent(t *testing.T) {
	tr := core.NewTracker(fixedClock)
	a := tr.Register(pdf("a.pdf", 10), core.CategoryW2)
	b := tr.Register(pdf("b.pdf", 10), core.CategoryW2)
	events, cancel := tr.Subscribe(0)
	defer cancel()

	assert.True(t, tr.Remove(a.ID))
	assert.False(t, tr.Remove(a.ID))
	assert.False(t, tr.Remove("never-registered"))

	list := tr.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	got := drain(events)
	require.Len(t, got, 1, "only the first removal publishes")
	assert.True(t, got[0].Removed)
	assert.Equal(t, a.ID, got[0].UploadID)

	_, err := tr.Get(a.ID)
	assert.ErrorIs(t, err, core.ErrUploadNotFound)
}

func TestTracker_SubscribePublishesChanges(t *testing.T) {
	tr := core.NewTracker(fixedClock)
	events, cancel := tr.Subscribe(0)
	defer cancel()

	u := tr.Register(pdf("a.pdf", 10), core.CategoryW2)
	_, _ = tr.Update(u.ID, func(x *core.TrackedUpload) { x.Progress = 10 })
	_, _ = tr.Update(u.ID, func(x *core.TrackedUpload) {}) // unchanged, not published

	got := stepsFor(drain(events), u.ID)
	assert.Equal(t, []step{
		{core.StatusUploading, 0},
		{core.StatusUploading, 10},
	}, got)
}

func TestTracker_SlowSubscriberDoesNotBlock(t *testing.T) {
	tr := core.NewTracker(fixedClock)
	events, cancel := tr.Subscribe(1)
	defer cancel()

	u := tr.Register(pdf("a.pdf", 10), core.CategoryW2)
	for p := 10; p <= 100; p += 10 {
		progress := p
		ok, err := tr.Update(u.ID, func(x *core.TrackedUpload) { x.Progress = progress })
		require.NoError(t, err)
		require.True(t, ok)
	}

	assert.Len(t, drain(events), 1)
	got, err := tr.Get(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
}

func TestTracker_CancelAndClose(t *testing.T) {
	tr := core.NewTracker(fixedClock)

	first, cancelFirst := tr.Subscribe(0)
	cancelFirst()
	cancelFirst()
	_, open := <-first
	assert.False(t, open)

	second, cancelSecond := tr.Subscribe(0)
	defer cancelSecond()
	tr.Close()
	tr.Close()
	_, open = <-second
	assert.False(t, open)

	late, _ := tr.Subscribe(0)
	_, open = <-late
	assert.False(t, open)
}
