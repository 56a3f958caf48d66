package web_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/taxpro/internal/config"
	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/session"
	"github.com/JonMunkholm/taxpro/internal/site"
	"github.com/JonMunkholm/taxpro/internal/web"
)

// liveServer runs the router on a real listener with the system scheduler.
type liveServer struct {
	t      *testing.T
	ts     *httptest.Server
	client *http.Client
}

func newLiveServer(t *testing.T, cfg *config.Config) *liveServer {
	t.Helper()

	content, err := site.Load()
	require.NoError(t, err)

	sessions := session.NewStore(cfg.Session.TTL, quietLogger())
	t.Cleanup(sessions.Close)

	srv, err := web.NewServer(cfg, content, sessions, web.WithLogger(quietLogger()))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &liveServer{
		t:  t,
		ts: ts,
		client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (l *liveServer) login() {
	l.t.Helper()
	resp, err := l.client.PostForm(l.ts.URL+"/portal/login", url.Values{
		"email":    {"john.smith@email.com"},
		"password": {"secret"},
	})
	require.NoError(l.t, err)
	resp.Body.Close()
	require.Equal(l.t, http.StatusSeeOther, resp.StatusCode)
}

func (l *liveServer) submit(name string) core.TrackedUpload {
	l.t.Helper()
	body := `{"category":"W-2 Forms","files":[{"name":"` + name + `","type":"application/pdf","size":1024}]}`
	resp, err := l.client.Post(l.ts.URL+"/api/portal/uploads", "application/json", strings.NewReader(body))
	require.NoError(l.t, err)
	defer resp.Body.Close()
	require.Equal(l.t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Accepted []core.TrackedUpload `json:"accepted"`
	}
	require.NoError(l.t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(l.t, out.Accepted, 1)
	return out.Accepted[0]
}

func (l *liveServer) cookieHeader() http.Header {
	u, err := url.Parse(l.ts.URL)
	require.NoError(l.t, err)

	hdr := http.Header{}
	for _, c := range l.client.Jar.Cookies(u) {
		hdr.Add("Cookie", c.String())
	}
	return hdr
}

type sseEvent struct {
	id    string
	event string
	data  string
}

// readEvent reads one event from an event stream.
func readEvent(sc *bufio.Scanner) (sseEvent, bool) {
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.event != "" {
				return ev, true
			}
		case strings.HasPrefix(line, "id: "):
			ev.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
	return ev, false
}

func fastTiming(cfg *config.Config) *config.Config {
	cfg.Upload.StepInterval = 5 * time.Millisecond
	cfg.Upload.StepPercent = 50
	cfg.Upload.ProcessingDelay = 5 * time.Millisecond
	cfg.Upload.ReviewDelay = 5 * time.Millisecond
	return cfg
}

func TestUploadProgress_StreamsToCompletion(t *testing.T) {
	l := newLiveServer(t, fastTiming(testConfig()))
	l.login()
	u := l.submit("w2.pdf")

	resp, err := l.client.Get(l.ts.URL + "/api/portal/uploads/" + u.ID + "/progress")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	var events []sseEvent
	for {
		ev, ok := readEvent(sc)
		if !ok {
			break
		}
		events = append(events, ev)
	}

	require.GreaterOrEqual(t, len(events), 2)
	last := events[len(events)-1]
	assert.Equal(t, "complete", last.event)

	var prev core.TrackedUpload
	for i, ev := range events {
		assert.Equal(t, strconv.Itoa(i+1), ev.id)

		var got core.TrackedUpload
		require.NoError(t, json.Unmarshal([]byte(ev.data), &got))
		assert.Equal(t, u.ID, got.ID)
		if i > 0 && ev.event == "progress" {
			assert.False(t, got.Status.Before(prev.Status), "status went backwards at event %d", i)
			if got.Status == prev.Status {
				assert.Greater(t, got.Progress, prev.Progress)
			}
		}
		if i < len(events)-1 {
			assert.Equal(t, "progress", ev.event)
		}
		prev = got
	}

	var final core.TrackedUpload
	require.NoError(t, json.Unmarshal([]byte(last.data), &final))
	assert.Equal(t, core.StatusReadyForReview, final.Status)
	assert.Equal(t, 100, final.Progress)
}

func TestUploadProgress_Removed(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.StepInterval = time.Hour
	l := newLiveServer(t, cfg)
	l.login()
	u := l.submit("w2.pdf")

	resp, err := l.client.Get(l.ts.URL + "/api/portal/uploads/" + u.ID + "/progress")
	require.NoError(t, err)
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	first, ok := readEvent(sc)
	require.True(t, ok)
	assert.Equal(t, "progress", first.event)

	req, err := http.NewRequest(http.MethodDelete, l.ts.URL+"/api/portal/uploads/"+u.ID, nil)
	require.NoError(t, err)
	del, err := l.client.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusNoContent, del.StatusCode)

	ev, ok := readEvent(sc)
	require.True(t, ok)
	assert.Equal(t, "removed", ev.event)
	assert.JSONEq(t, `{"id":"`+u.ID+`"}`, ev.data)

	_, ok = readEvent(sc)
	assert.False(t, ok, "stream should end after removal")
}

func wsURL(l *liveServer) string {
	return "ws" + strings.TrimPrefix(l.ts.URL, "http") + "/api/portal/ws"
}

func TestWebsocket_Notifications(t *testing.T) {
	l := newLiveServer(t, testConfig())
	l.login()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(l), l.cookieHeader())
	require.NoError(t, err)
	defer conn.Close()
	resp.Body.Close()

	read := func(t *testing.T) web.WSMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg web.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	assert.Equal(t, web.MsgTypeConnected, read(t).Type)

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(web.WSMessage{Type: web.MsgTypePing}))
		assert.Equal(t, web.MsgTypePong, read(t).Type)
	})

	t.Run("portal notifications are pushed", func(t *testing.T) {
		dl, err := l.client.PostForm(l.ts.URL+"/portal/documents/1/download", nil)
		require.NoError(t, err)
		dl.Body.Close()
		require.Equal(t, http.StatusSeeOther, dl.StatusCode)

		msg := read(t)
		require.Equal(t, web.MsgTypeNotification, msg.Type)
		payload, ok := msg.Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Download started", payload["title"])
		assert.Equal(t, "info", payload["kind"])
	})

	t.Run("logout closes the connection", func(t *testing.T) {
		out, err := l.client.PostForm(l.ts.URL+"/portal/logout", nil)
		require.NoError(t, err)
		out.Body.Close()

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, _, err = conn.ReadMessage()
		require.Error(t, err)
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	})
}

func TestWebsocket_RequiresSignIn(t *testing.T) {
	l := newLiveServer(t, testConfig())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(l), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
