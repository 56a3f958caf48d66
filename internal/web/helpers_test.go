package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/taxpro/internal/config"
	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/session"
	"github.com/JonMunkholm/taxpro/internal/site"
	"github.com/JonMunkholm/taxpro/internal/testutil"
	"github.com/JonMunkholm/taxpro/internal/web"
)

// Monday 2025-03-03 10:30 UTC.
var epoch = time.Date(2025, time.March, 3, 10, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns the defaults without simulated delays or rate limits.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Simulation = config.SimulationConfig{}
	cfg.Rate.Enabled = false
	return cfg
}

type harness struct {
	t        *testing.T
	cfg      *config.Config
	srv      *web.Server
	sched    *testutil.FakeScheduler
	sessions *session.Store
	cookie   *http.Cookie
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}

	content, err := site.Load()
	require.NoError(t, err)

	sessions := session.NewStore(cfg.Session.TTL, quietLogger())
	t.Cleanup(sessions.Close)

	sched := testutil.NewFakeScheduler(epoch)
	srv, err := web.NewServer(cfg, content, sessions,
		web.WithScheduler(sched),
		web.WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &harness{t: t, cfg: cfg, srv: srv, sched: sched, sessions: sessions}
}

// do serves req, carrying the session cookie across calls.
func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == h.cfg.Session.CookieName {
			h.cookie = c
		}
	}
	return rec
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	return h.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (h *harness) getJSON(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	return h.do(req)
}

func (h *harness) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) postJSON(path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	b, err := json.Marshal(body)
	require.NoError(h.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

// login signs the harness session in.
func (h *harness) login() {
	h.t.Helper()
	rec := h.postForm("/portal/login", url.Values{
		"email":    {"john.smith@email.com"},
		"password": {"secret"},
	})
	require.Equal(h.t, http.StatusSeeOther, rec.Code)
	require.Equal(h.t, "/portal", rec.Header().Get("Location"))
}

func (h *harness) uploads() []core.TrackedUpload {
	h.t.Helper()
	rec := h.get("/api/portal/uploads")
	require.Equal(h.t, http.StatusOK, rec.Code)

	var body struct {
		Uploads []core.TrackedUpload `json:"uploads"`
	}
	require.NoError(h.t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Uploads
}

type testFile struct {
	name    string
	mime    string
	content []byte
}

// multipartBody builds an upload form with a category field and file parts.
func multipartBody(t *testing.T, category string, files ...testFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	require.NoError(t, mw.WriteField("category", category))
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.mime)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (h *harness) upload(category string, files ...testFile) *httptest.ResponseRecorder {
	body, contentType := multipartBody(h.t, category, files...)
	req := httptest.NewRequest(http.MethodPost, "/portal/uploads", body)
	req.Header.Set("Content-Type", contentType)
	return h.do(req)
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) web.ErrorResponse {
	t.Helper()
	var resp web.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}
