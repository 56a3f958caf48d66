package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/logging"
	"github.com/JonMunkholm/taxpro/internal/site"
	"github.com/JonMunkholm/taxpro/internal/web/templates"
)

// maxFieldSize bounds the non-file multipart fields.
const maxFieldSize = 1 << 10

// progressResync is how often a progress stream re-reads the upload, in case
// the subscriber buffer dropped events.
var progressResync = time.Second

// readUploadForm streams a multipart body. File parts are counted and
// discarded; nothing is buffered or stored. Returns the category field and
// one candidate per non-empty file part named "files".
func (s *Server) readUploadForm(w http.ResponseWriter, r *http.Request) (string, []core.Candidate, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxRequestSize)

	mr, err := r.MultipartReader()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	var (
		category   string
		candidates []core.Candidate
	)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, s.bodyError(err)
		}

		switch part.FormName() {
		case "category":
			b, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
			if err != nil {
				return "", nil, s.bodyError(err)
			}
			category = string(b)

		case "files":
			n, err := io.Copy(io.Discard, part)
			if err != nil {
				return "", nil, s.bodyError(err)
			}
			// An empty file input still sends a part without a name.
			if part.FileName() == "" && n == 0 {
				break
			}
			candidates = append(candidates, core.Candidate{
				Name:     part.FileName(),
				MIMEType: part.Header.Get("Content-Type"),
				Size:     n,
			})

		default:
			if _, err := io.Copy(io.Discard, part); err != nil {
				return "", nil, s.bodyError(err)
			}
		}
		part.Close()
	}

	return category, candidates, nil
}

// bodyError reports an over-limit request body as too large.
func (s *Server) bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("%w: request exceeds %s", core.ErrFileTooLarge, humanize.IBytes(uint64(mbe.Limit)))
	}
	return err
}

// handleUploadForm accepts the portal's multipart upload form.
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requirePortal(w, r)
	if !ok {
		return
	}

	if err := s.uploads.acquire(r.Context()); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	category, candidates, err := s.readUploadForm(w, r)
	s.uploads.release()
	if err != nil {
		s.finishSubmit(w, r, p, core.SubmitResult{}, err)
		return
	}

	res, err := p.Submit(r.Context(), category, candidates)
	s.finishSubmit(w, r, p, res, err)
}

type fileMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type submitRequest struct {
	Category string     `json:"category"`
	Files    []fileMeta `json:"files"`
}

// handleSubmitUploads accepts file metadata as JSON. The lifecycle is the
// same as for multipart uploads; no content is transferred.
func (s *Server) handleSubmitUploads(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requirePortal(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormSize)).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", site.ErrInvalidForm, err), http.StatusBadRequest)
		return
	}

	candidates := make([]core.Candidate, 0, len(req.Files))
	for _, f := range req.Files {
		candidates = append(candidates, core.Candidate{Name: f.Name, MIMEType: f.Type, Size: f.Size})
	}

	res, err := p.Submit(r.Context(), req.Category, candidates)
	s.finishSubmit(w, r, p, res, err)
}

type rejectionResponse struct {
	FileName string   `json:"fileName"`
	Size     int64    `json:"size"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Reasons  []string `json:"reasons"`
}

type submitResponse struct {
	Category core.Category        `json:"category"`
	Accepted []core.TrackedUpload `json:"accepted"`
	Rejected []rejectionResponse  `json:"rejected"`
}

func newSubmitResponse(res core.SubmitResult) submitResponse {
	resp := submitResponse{
		Category: res.Category,
		Accepted: res.Accepted,
		Rejected: make([]rejectionResponse, 0, len(res.Rejected)),
	}
	if resp.Accepted == nil {
		resp.Accepted = []core.TrackedUpload{}
	}
	for _, rej := range res.Rejected {
		msg := core.MapError(rej)
		reasons := make([]string, 0, len(rej.Reasons))
		for _, reason := range rej.Reasons {
			reasons = append(reasons, reason.Error())
		}
		resp.Rejected = append(resp.Rejected, rejectionResponse{
			FileName: rej.FileName,
			Size:     rej.Size,
			Code:     msg.Code,
			Message:  msg.Message,
			Reasons:  reasons,
		})
	}
	return resp
}

// finishSubmit answers an upload batch. JSON and HTMX clients get the result
// (or the batch error) directly; browsers are redirected to the documents tab,
// where the session's notifications explain any rejection.
func (s *Server) finishSubmit(w http.ResponseWriter, r *http.Request, p *core.Portal, res core.SubmitResult, err error) {
	logger := logging.WithFields(r.Context(), "session_id", currentSession(r).ID)
	logger.Info("upload batch",
		"category", res.Category,
		"accepted", len(res.Accepted),
		"rejected", len(res.Rejected),
		"error", err,
	)

	var rej *core.Rejection
	if err != nil && !errors.As(err, &rej) {
		// Batch errors without a rejection have not been notified yet.
		msg := core.MapError(err)
		p.Notify(core.Notification{
			Kind:        core.KindError,
			Title:       msg.Message,
			Description: msg.Action,
			Code:        msg.Code,
		})
	}

	switch {
	case wantsJSON(r):
		if err != nil {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		status := http.StatusCreated
		if len(res.Accepted) == 0 {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, newSubmitResponse(res))

	case isHTMX(r):
		if err != nil {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		s.render(w, r, http.StatusOK, templates.UploadList(p.List()))

	default:
		http.Redirect(w, r, "/portal?tab=documents", http.StatusSeeOther)
	}
}

// handleRemoveForm removes an upload from the documents tab.
func (s *Server) handleRemoveForm(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requirePortal(w, r)
	if !ok {
		return
	}
	p.Remove(chi.URLParam(r, "uploadID"))

	if isHTMX(r) {
		s.render(w, r, http.StatusOK, templates.UploadList(p.List()))
		return
	}
	http.Redirect(w, r, "/portal?tab=documents", http.StatusSeeOther)
}

// handleDeleteUpload removes an upload. Removing an unknown id succeeds.
func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requirePortal(w, r)
	if !ok {
		return
	}
	p.Remove(chi.URLParam(r, "uploadID"))
	w.WriteHeader(http.StatusNoContent)
}

// handleListUploads returns the session's tracked uploads in upload order.
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requirePortal(w, r)
	if !ok {
		return
	}
	uploads := p.List()
	if uploads == nil {
		uploads = []core.TrackedUpload{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": uploads})
}

// newer reports whether ev moves u forward.
func newer(ev core.Event, u core.TrackedUpload) bool {
	if ev.Status != u.Status {
		return u.Status.Before(ev.Status)
	}
	return ev.Progress > u.Progress
}

// handleUploadProgress streams one upload's lifecycle via Server-Sent Events.
//
// The stream opens with the current state, then sends a "progress" event for
// every forward change. It ends with "complete" once the upload is ready for
// review (or the portal closes) and with "removed" if the upload is removed.
func (s *Server) handleUploadProgress(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requirePortal(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "uploadID")

	// Subscribe before the snapshot so no transition falls in between.
	events, cancel := p.Subscribe(core.DefaultSubscriberBuffer)
	defer cancel()

	last, err := p.Get(id)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	seq := 0
	send := func(event string, data any) bool {
		seq++
		b, _ := json.Marshal(data)
		if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, event, b); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if !send("progress", last) {
		return
	}
	if last.Status.Terminal() {
		send("complete", last)
		return
	}

	resync := time.NewTicker(progressResync)
	defer resync.Stop()

	removed := map[string]string{"id": id}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				send("complete", last)
				return
			}
			if ev.UploadID != id {
				continue
			}
			if ev.Removed {
				send("removed", removed)
				return
			}
			if !newer(ev, last) {
				continue
			}
			last.Status, last.Progress = ev.Status, ev.Progress

		case <-resync.C:
			u, err := p.Get(id)
			if errors.Is(err, core.ErrUploadNotFound) {
				send("removed", removed)
				return
			}
			if err != nil || !newer(core.Event{Status: u.Status, Progress: u.Progress}, last) {
				continue
			}
			last = u

		case <-r.Context().Done():
			return
		}

		if !send("progress", last) {
			return
		}
		if last.Status.Terminal() {
			send("complete", last)
			return
		}
	}
}
