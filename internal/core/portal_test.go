package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/testutil"
)

func TestPortal_W2Scenario(t *testing.T) {
	sched := testutil.NewFakeScheduler(epoch)
	rec := &recorder{}
	p := newPortal(sched, rec)
	defer p.Close()
	events, cancel := p.Subscribe(256)
	defer cancel()

	res, err := p.Submit(context.Background(), "W-2 Forms", []core.Candidate{pdf("w2.pdf", 2097152)})
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Empty(t, res.Rejected)
	assert.Empty(t, rec.all(), "acceptance is silent")

	u := res.Accepted[0]
	assert.Equal(t, core.CategoryW2, u.Category)
	assert.Equal(t, "w2.pdf", u.Name)
	assert.Equal(t, int64(2097152), u.Size)
	assert.Equal(t, core.StatusUploading, u.Status)
	assert.Equal(t, 0, u.Progress)

	sched.Advance(10 * time.Second)

	assert.Equal(t, fullLifecycle(), stepsFor(drain(events), u.ID))
	list := p.List()
	require.Len(t, list, 1)
	assert.Equal(t, core.StatusReadyForReview, list[0].Status)
	assert.Equal(t, 100, list[0].Progress)

	require.Len(t, rec.all(), 1)
	assert.Equal(t, core.KindSuccess, rec.all()[0].Kind)
	assert.Equal(t, epoch.Add(2*time.Second), rec.all()[0].At)
}

func TestPortal_OversizedPNGRejected(t *testing.T) {
	sched := testutil.NewFakeScheduler(epoch)
	rec := &recorder{}
	p := newPortal(sched, rec)
	defer p.Close()

	before := len(p.List())
	res, err := p.Submit(context.Background(), "Bank Statements", []core.Candidate{
		{Name: "statement.png", MIMEType: "image/png", Size: 6 * 1024 * 1024},
	})
	require.NoError(t, err)

	assert.Empty(t, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.ErrorIs(t, res.Rejected[0], core.ErrFileTooLarge)
	assert.Len(t, p.List(), before)
	assert.Equal(t, 0, sched.Pending())

	require.Len(t, rec.all(), 1)
	assert.Equal(t, "FILE001", rec.all()[0].Code)
}

func TestPortal_DocxRejected(t *testing.T) {
	sched := testutil.NewFakeScheduler(epoch)
	rec := &recorder{}
	p := newPortal(sched, rec)
	defer p.Close()

	res, err := p.Submit(context.Background(), "Other Documents", []core.Candidate{
		{Name: "letter.docx", MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Size: 30_000},
	})
	require.NoError(t, err)

	require.Len(t, res.Rejected, 1)
	assert.ErrorIs(t, res.Rejected[0], core.ErrUnsupportedFormat)
	assert.Empty(t, p.List())
	assert.Equal(t, 1, rec.count(core.KindError))
}

func TestPortal_MissingCategoryBeforeFileChecks(t *testing.T) {
	sched := testutil.NewFakeScheduler(epoch)
	rec := &recorder{}
	p := newPortal(sched, rec)
	defer p.Close()

	res, err := p.Submit(context.Background(), "", []core.Candidate{
		pdf("ok.pdf", 1024),
		{Name: "bad.docx", MIMEType: "application/msword", Size: 10 * 1024 * 1024},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingCategory)
	assert.NotErrorIs(t, err, core.ErrUnsupportedFormat)
	assert.Empty(t, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.Empty(t, p.List())

	notes := rec.all()
	require.Len(t, notes, 1, "one notification for the batch, none per file")
	assert.Equal(t, "FILE003", notes[0].Code)
}

func TestPortal_MixedBatch(t *testing.T) {
	sched := testutil.NewFakeScheduler(epoch)
	rec := &recorder{}
	p := newPortal(sched, rec)
	defer p.Close()

	res, err := p.Submit(context.Background(), "1099 Forms", []core.Candidate{
		pdf("1099-int.pdf", 1024),
		{Name: "notes.txt", MIMEType: "text/plain", Size: 10},
		{Name: "scan.jpg", MIMEType: "image/jpeg", Size: 2048},
		{Name: "huge.pdf", MIMEType: "application/pdf", Size: 8 * 1024 * 1024},
	})
	require.NoError(t, err)

	require.Len(t, res.Accepted, 2)
	assert.Equal(t, "1099-int.pdf", res.Accepted[0].Name)
	assert.Equal(t, "scan.jpg", res.Accepted[1].Name)
	require.Len(t, res.Rejected, 2)
	assert.Equal(t, "notes.txt", res.Rejected[0].FileName)
	assert.Equal(t, "huge.pdf", res.Rejected[1].FileName)
	assert.Equal(t, 2, rec.count(core.KindError))

	sched.Advance(10 * time.Second)
	assert.Equal(t, 2, rec.count(core.KindSuccess), "one success per accepted file")
	for _, u := range p.List() {
		assert.Equal(t, core.StatusReadyForReview, u.Status)
	}
}

func TestPortal_NoFilesAndTooMany(t *testing.T) {
	sched := testutil.NewFakeScheduler(epoch)
	p := core.New(core.Options{Scheduler: sched, MaxFiles: 2, Logger: quietLogger()})
	defer p.Close()

	_, err := p.Submit(context.Background(), "W-2 Forms", nil)
	assert.ErrorIs(t, err, core.ErrNoFile)

	_, err = p.Submit(context.Background(), "W-2 Forms", []core.Candidate{pdf("a.pdf", 1), pdf("b.pdf", 1), pdf("c.pdf", 1)})
	assert.ErrorIs(t, err, core.ErrTooManyFiles)
	assert.Empty(t, p.List())
}

func TestPortal_CancelledContext(t *testing.T) {
	p := newPortal(testutil.NewFakeScheduler(epoch), nil)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Submit(ctx, "W-2 Forms", []core.Candidate{pdf("a.pdf", 1)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.List())
}

func TestPortal_RemoveMidFlight(t *testing.T) {
	sched := testutil.NewFakeScheduler(epoch)
	rec := &recorder{}
	p := newPortal(sched, rec)
	defer p.Close()
	events, cancel := p.Subscribe(256)
	defer cancel()

	res, err := p.Submit(context.Background(), "Receipts & Deductions", []core.Candidate{
		pdf("a.pdf", 1024),
		pdf("b.pdf", 1024),
	})
	require.NoError(t, err)
	a, b := res.Accepted[0].ID, res.Accepted[1].ID

	sched.Advance(time.Second)
	assert.True(t, p.Remove(a))
	assert.False(t, p.Remove(a), "second removal has no effect")
	assert.NotPanics(t, func() { p.Remove(a) })

	sched.Advance(10 * time.Second)

	evs := drain(events)
	assert.Equal(t, fullLifecycle(), stepsFor(evs, b))
	aSteps := stepsFor(evs, a)
	assert.Equal(t, step{core.StatusUploading, 50}, aSteps[len(aSteps)-1])

	list := p.List()
	require.Len(t, list, 1)
	assert.Equal(t, b, list[0].ID)
	assert.Equal(t, 1, rec.count(core.KindSuccess))

	_, err = p.Get(a)
	assert.ErrorIs(t, err, core.ErrUploadNotFound)
}

func TestPortal_NotificationsHistory(t *testing.T) {
	sched := testutil.NewFakeScheduler(epoch)
	p := core.New(core.Options{Scheduler: sched, HistorySize: 3, Logger: quietLogger()})
	defer p.Close()

	for i := 0; i < 5; i++ {
		p.Notify(core.Notification{Kind: core.KindInfo, Title: "Download Started", Description: string(rune('a' + i))})
	}

	recent := p.Notifications()
	require.Len(t, recent, 3)
	assert.Equal(t, "c", recent[0].Description)
	assert.Equal(t, "e", recent[2].Description)
	assert.Equal(t, epoch, recent[2].At)
}

func TestPortal_CloseStopsTimers(t *testing.T) {
	sched := testutil.NewFakeScheduler(epoch)
	p := newPortal(sched, nil)
	events, _ := p.Subscribe(256)

	_, err := p.Submit(context.Background(), "W-2 Forms", []core.Candidate{pdf("a.pdf", 1024)})
	require.NoError(t, err)

	p.Close()
	assert.Equal(t, 0, sched.Pending())

	drain(events)
	_, open := <-events
	assert.False(t, open)
}

func TestPortal_Defaults(t *testing.T) {
	p := core.New(core.Options{Logger: quietLogger()})
	defer p.Close()

	assert.Equal(t, core.DefaultMaxFileSize, p.MaxFileSize())
	assert.Equal(t, core.DefaultTiming(), p.Timing())
}

func TestPortal_ZeroTimingUsesDefaultDelays(t *testing.T) {
	sched := testutil.NewFakeScheduler(epoch)
	p := core.New(core.Options{Scheduler: sched, Logger: quietLogger()})
	defer p.Close()

	res, err := p.Submit(context.Background(), "W-2 Forms", []core.Candidate{pdf("w2.pdf", 2048)})
	require.NoError(t, err)
	id := res.Accepted[0].ID

	status := func() core.Status {
		u, err := p.Get(id)
		require.NoError(t, err)
		return u.Status
	}

	sched.Advance(2 * time.Second)
	assert.Equal(t, core.StatusUploadSuccessful, status())

	sched.Advance(2*time.Second - time.Millisecond)
	assert.Equal(t, core.StatusUploadSuccessful, status())
	sched.Advance(time.Millisecond)
	assert.Equal(t, core.StatusProcessing, status())

	sched.Advance(3*time.Second - time.Millisecond)
	assert.Equal(t, core.StatusProcessing, status())
	sched.Advance(time.Millisecond)
	assert.Equal(t, core.StatusReadyForReview, status())
}
