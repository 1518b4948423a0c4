package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/completion"
	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/logger"
	"github.com/walma-app/walma/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	*Server
	mock *completion.Mock
}

func newTestServer(t *testing.T, mutate func(*Config)) testServer {
	t.Helper()
	catalog, err := level.Bundled(logger.Nop())
	require.NoError(t, err)

	mock := completion.NewMock()
	cfg := Config{
		Catalog:  catalog,
		Resolver: assets.NewResolver("https://cdn.example.com/img/"),
		Reporter: mock,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return testServer{Server: s, mock: mock}
}

func (ts testServer) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestNew_RequiresCatalog(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	code, body := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["levels"])
}

func TestListLevels_CompletionMarks(t *testing.T) {
	st, err := store.Open("file:server_marks?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.EventRepo().AppendCompletion(context.Background(), store.CompletionEventData{
		LevelID:     "calc2_week9_review1",
		SessionID:   "s",
		CompletedAt: time.Now(),
	}))

	ts := newTestServer(t, func(c *Config) { c.Events = st.EventRepo() })
	code, body := ts.do(t, http.MethodGet, "/levels", "")
	require.Equal(t, http.StatusOK, code)

	levels := body["levels"].([]any)
	require.Len(t, levels, 3)
	marks := map[string]bool{}
	for _, l := range levels {
		m := l.(map[string]any)
		marks[m["id"].(string)] = m["completed"].(bool)
	}
	assert.Equal(t, map[string]bool{
		"calc2_week9_level1":  false,
		"calc2_week9_review1": true,
		"dynsys_week2_level1": false,
	}, marks)
}

func TestGetLevel_ResolvesImages(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := ts.do(t, http.MethodGet, "/levels/calc2_week9_review1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "review", body["kind"])

	var srcs []string
	for _, u := range body["content"].([]any) {
		for _, p := range u.(map[string]any)["parts"].([]any) {
			part := p.(map[string]any)
			if part["kind"] == "image" {
				srcs = append(srcs, part["src"].(string))
			}
		}
	}
	assert.Contains(t, srcs, "https://cdn.example.com/img/week9/exponential_growth.png")

	code, body = ts.do(t, http.MethodGet, "/levels/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, CodeNotFound, body["error"])
}

func TestGetLevel_MathImageURLs(t *testing.T) {
	loc := assets.NewMathLocator("https://math.example.com", "")
	ts := newTestServer(t, func(c *Config) {
		c.Math = &loc
		c.MathParams = assets.MathParams{Scale: 2, WidthPt: 320, FontPx: 18}
	})

	code, body := ts.do(t, http.MethodGet, "/levels/calc2_week9_level1", "")
	require.Equal(t, http.StatusOK, code)

	found := false
	for _, u := range body["content"].([]any) {
		for _, p := range u.(map[string]any)["parts"].([]any) {
			part := p.(map[string]any)
			if part["kind"] == "inline_math" || part["kind"] == "block_math" {
				assert.True(t, strings.HasPrefix(part["src"].(string), "https://math.example.com/math/v1/png/"))
				found = true
			}
		}
	}
	assert.True(t, found)
}

func TestCheckLevel(t *testing.T) {
	ts := newTestServer(t, nil)

	good := `{"slides": [{"content": "a"}, {"content": " "}]}`
	code, body := ts.do(t, http.MethodPost, "/levels/check?name=w.json&policy=skip", good)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["skipped"], 1)

	code, body = ts.do(t, http.MethodPost, "/levels/check?name=w.json", good)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, CodeUnprocessable, body["error"])
	units := body["units"].([]any)
	require.Len(t, units, 1)
	assert.EqualValues(t, 1, units[0].(map[string]any)["ordinal"])

	code, _ = ts.do(t, http.MethodPost, "/levels/check?policy=lenient", good)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSession_PlayThrough(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := ts.do(t, http.MethodPost, "/sessions", `{"levelId": "calc2_week9_level1"}`)
	require.Equal(t, http.StatusCreated, code)
	id := body["sessionId"].(string)
	assert.Len(t, id, 36)
	assert.Equal(t, "viewing", body["phase"])
	assert.EqualValues(t, 3, body["total"])

	lvl, _ := ts.catalog.Get("calc2_week9_level1")
	for i, u := range lvl.Units {
		base := "/sessions/" + id

		code, _ = ts.do(t, http.MethodPost, base+"/advance", "")
		assert.Equal(t, http.StatusConflict, code, "advance before submit")

		code, body = ts.do(t, http.MethodPost, base+"/select", `{"option": "not an option"}`)
		assert.Equal(t, http.StatusConflict, code)

		opt, _ := json.Marshal(map[string]string{"option": u.CorrectAnswer()})
		code, _ = ts.do(t, http.MethodPost, base+"/select", string(opt))
		require.Equal(t, http.StatusOK, code)

		code, body = ts.do(t, http.MethodPost, base+"/submit", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["isCorrect"])
		assert.Nil(t, body["unit"].(map[string]any)["explanation"], "hidden after a correct answer")

		code, body = ts.do(t, http.MethodPost, base+"/toggle-explanation", "")
		require.Equal(t, http.StatusOK, code)
		assert.NotNil(t, body["unit"].(map[string]any)["explanation"])

		code, body = ts.do(t, http.MethodPost, base+"/advance", "")
		require.Equal(t, http.StatusOK, code)
		if i < len(lvl.Units)-1 {
			assert.Equal(t, "viewing", body["phase"])
		}
	}

	assert.Equal(t, "complete", body["phase"])
	assert.Equal(t, true, body["terminal"])
	assert.Nil(t, body["unit"])
	require.NotNil(t, body["report"])

	require.Eventually(t, func() bool { return ts.mock.CallCount() == 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		_, body := ts.do(t, http.MethodGet, "/sessions/"+id, "")
		return body["report"].(map[string]any)["status"] == "reported"
	}, time.Second, 10*time.Millisecond)

	rec := ts.mock.Calls[0]
	assert.Equal(t, "calc2_week9_level1", rec.LevelID)
	assert.Equal(t, id, rec.SessionID)
	assert.Equal(t, 3, rec.CorrectCount)

	code, _ = ts.do(t, http.MethodPost, "/sessions/"+id+"/advance", "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestSession_ReportFailureVisible(t *testing.T) {
	ts := newTestServer(t, func(c *Config) {
		c.Reporter = completion.ReporterFunc(func(context.Context, completion.Record) error {
			return errors.New("sink offline")
		})
	})

	_, body := ts.do(t, http.MethodPost, "/sessions", `{"levelId": "calc2_week9_review1"}`)
	id := body["sessionId"].(string)
	for range 4 {
		code, _ := ts.do(t, http.MethodPost, "/sessions/"+id+"/advance", "")
		require.Equal(t, http.StatusOK, code)
	}

	require.Eventually(t, func() bool {
		_, body := ts.do(t, http.MethodGet, "/sessions/"+id, "")
		r := body["report"].(map[string]any)
		return r["status"] == "failed" && strings.Contains(r["error"].(string), "sink offline")
	}, time.Second, 10*time.Millisecond)
}

func TestSession_Errors(t *testing.T) {
	ts := newTestServer(t, nil)

	code, _ := ts.do(t, http.MethodPost, "/sessions", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPost, "/sessions", `{"levelId": "missing"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, http.MethodGet, "/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, http.MethodPost, "/sessions/missing/submit", "")
	assert.Equal(t, http.StatusNotFound, code)

	_, body := ts.do(t, http.MethodPost, "/sessions", `{"levelId": "calc2_week9_level1"}`)
	id := body["sessionId"].(string)
	code, _ = ts.do(t, http.MethodPost, "/sessions/"+id+"/select", `{"nope": 1}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSession_Abandon(t *testing.T) {
	ts := newTestServer(t, nil)

	_, body := ts.do(t, http.MethodPost, "/sessions", `{"levelId": "calc2_week9_review1"}`)
	id := body["sessionId"].(string)
	code, _ := ts.do(t, http.MethodPost, "/sessions/"+id+"/advance", "")
	require.Equal(t, http.StatusOK, code)

	code, _ = ts.do(t, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = ts.do(t, http.MethodGet, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 0, ts.mock.CallCount())
}

func TestSweep_DropsIdleAndFinishedSessions(t *testing.T) {
	ts := newTestServer(t, func(c *Config) {
		c.SessionTTL = time.Hour
		c.CompletedTTL = time.Minute
	})
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return clock }

	for range 50 {
		code, _ := ts.do(t, http.MethodPost, "/sessions", `{"levelId": "calc2_week9_level1"}`)
		require.Equal(t, http.StatusCreated, code)
	}

	_, body := ts.do(t, http.MethodPost, "/sessions", `{"levelId": "calc2_week9_review1"}`)
	done := body["sessionId"].(string)
	for range 4 {
		code, _ := ts.do(t, http.MethodPost, "/sessions/"+done+"/advance", "")
		require.Equal(t, http.StatusOK, code)
	}
	require.Eventually(t, func() bool {
		_, body := ts.do(t, http.MethodGet, "/sessions/"+done, "")
		return body["report"].(map[string]any)["status"] == "reported"
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, 51, ts.sessions.len())

	ts.sweepSessions()
	assert.Equal(t, 51, ts.sessions.len(), "nothing has expired yet")

	clock = clock.Add(2 * time.Minute)
	ts.sweepSessions()
	assert.Equal(t, 50, ts.sessions.len(), "finished session dropped after its grace period")
	code, _ := ts.do(t, http.MethodGet, "/sessions/"+done, "")
	assert.Equal(t, http.StatusNotFound, code)

	clock = clock.Add(time.Hour)
	ts.sweepSessions()
	assert.Equal(t, 0, ts.sessions.len(), "idle sessions expire")
	assert.Equal(t, 1, ts.mock.CallCount(), "expired sessions report nothing")
}

func TestSweep_KeepsActiveSessions(t *testing.T) {
	ts := newTestServer(t, func(c *Config) { c.SessionTTL = 10 * time.Minute })
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return clock }

	_, body := ts.do(t, http.MethodPost, "/sessions", `{"levelId": "calc2_week9_level1"}`)
	id := body["sessionId"].(string)

	clock = clock.Add(9 * time.Minute)
	code, _ := ts.do(t, http.MethodGet, "/sessions/"+id, "")
	require.Equal(t, http.StatusOK, code)

	clock = clock.Add(9 * time.Minute)
	ts.sweepSessions()
	assert.Equal(t, 1, ts.sessions.len(), "each request resets the idle clock")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ts := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ts.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
