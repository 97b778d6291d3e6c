package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/stepwise"
	httpadapter "github.com/aretw0/stepwise/pkg/adapters/http"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docs = map[string]string{
	"start": `
name: start
kind: options
options:
  - name: Contact
    target: contact
`,
	"contact": `
name: contact
kind: context
submit: true
fields:
  - name: email
`,
}

func newServer(t *testing.T, opts ...httpadapter.Option) http.Handler {
	t.Helper()
	eng, err := stepwise.New("", stepwise.WithSources(memory.NewSource(docs)))
	require.NoError(t, err)
	return httpadapter.NewHandler(eng.NewManager(memory.NewStore()), opts...)
}

func call(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, httpadapter.SessionResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp httpadapter.SessionResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func TestServer_SessionLifecycle(t *testing.T) {
	h := newServer(t)

	w, started := call(t, h, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotEmpty(t, started.ID)
	require.NotNil(t, started.Prompt)
	assert.Equal(t, []string{"Contact"}, started.Prompt.Items)

	base := "/sessions/" + started.ID

	w, resp := call(t, h, http.MethodPost, base+"/input", `{"input": "Contact"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "contact", resp.Prompt.Title)

	w, resp = call(t, h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"email"}, resp.Prompt.Items)

	w, resp = call(t, h, http.MethodPost, base+"/back", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "start", resp.Prompt.Title)

	call(t, h, http.MethodPost, base+"/input", `{"input": "1"}`)
	w, resp = call(t, h, http.MethodPost, base+"/input", `{"input": "me@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Submitted)
	assert.Nil(t, resp.Prompt)
	assert.Equal(t, []domain.Entry{{Node: "contact", Field: "email", Value: "me@example.com"}}, resp.Entries)

	w, _ = call(t, h, http.MethodPost, base+"/input", `{"input": "again"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = call(t, h, http.MethodGet, base+"/collection", "")
	require.Equal(t, http.StatusOK, w.Code)
	var coll struct {
		Entries []domain.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &coll))
	assert.Len(t, coll.Entries, 1)

	w, _ = call(t, h, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = call(t, h, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_UnrecognizedInput(t *testing.T) {
	h := newServer(t)
	_, started := call(t, h, http.MethodPost, "/sessions", "")

	w, resp := call(t, h, http.MethodPost, "/sessions/"+started.ID+"/input", `{"input": "9"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "start", resp.Prompt.Title)
	assert.Contains(t, resp.Prompt.Error, "not a valid answer")
}

func TestServer_BadRequests(t *testing.T) {
	h := newServer(t)
	_, started := call(t, h, http.MethodPost, "/sessions", "")

	w, _ := call(t, h, http.MethodPost, "/sessions/"+started.ID+"/input", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	t.Setenv("STEPWISE_MAX_INPUT_SIZE", "4")
	w, _ = call(t, h, http.MethodPost, "/sessions/"+started.ID+"/input", `{"input": "way too long"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(t, h, http.MethodPost, "/sessions", `{"entry": "missing"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestServer_ListSessions(t *testing.T) {
	h := newServer(t)
	_, one := call(t, h, http.MethodPost, "/sessions", "")
	_, two := call(t, h, http.MethodPost, "/sessions", "")

	w, _ := call(t, h, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Sessions []string `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{one.ID, two.ID}, body.Sessions)
}

func TestServer_HealthInfoMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "stepwise_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h := newServer(t, httpadapter.WithGatherer(reg), httpadapter.WithVersion("1.2.3\n"))

	w, _ := call(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w, _ = call(t, h, http.MethodGet, "/info", "")
	assert.JSONEq(t, `{"app":"stepwise-http","version":"1.2.3"}`, w.Body.String())

	w, _ = call(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stepwise_test_total 1")
}

func TestServer_CORS(t *testing.T) {
	h := newServer(t, httpadapter.WithAllowedOrigins("https://app.example.com"))

	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_GlobalEvents(t *testing.T) {
	h := newServer(t, httpadapter.WithWatch(func(ctx context.Context) (<-chan string, error) {
		ch := make(chan string, 1)
		ch <- "forms/contact"
		close(ch)
		return ch, nil
	}))

	w, _ := call(t, h, http.MethodGet, "/events", "")
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "data: connected")
	assert.Contains(t, w.Body.String(), "data: forms/contact")

	plain := newServer(t)
	w, _ = call(t, plain, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestServer_SessionEvents(t *testing.T) {
	h := newServer(t)
	_, started := call(t, h, http.MethodPost, "/sessions", "")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+started.ID+"/events", nil).WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}
	done := make(chan struct{})
	go func() {
		h.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(w.String(), "connected")
	}, time.Second, 5*time.Millisecond)

	call(t, h, http.MethodPost, "/sessions/"+started.ID+"/input", `{"input": "1"}`)
	require.Eventually(t, func() bool {
		return strings.Contains(w.String(), `"title":"contact"`)
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
