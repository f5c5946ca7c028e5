package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/pocket-chat/internal/ai"
	"github.com/suPer8Hu/pocket-chat/internal/relay"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticProvider string

func (p staticProvider) Chat(context.Context, []ai.Message) (string, error) { return string(p), nil }

type replierFunc func(ctx context.Context, message, apiKey string) (relay.Outcome, error)

func (f replierFunc) Reply(ctx context.Context, message, apiKey string) (relay.Outcome, error) {
	return f(ctx, message, apiKey)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	reg := ai.NewRegistry()
	reg.Register("fake", func(_ context.Context, credential string) (ai.Provider, error) {
		if credential != "sk-good" {
			return nil, errors.New("status 401")
		}
		return staticProvider("from provider"), nil
	})
	svc := relay.NewService(reg, "fake", zerolog.Nop(), relay.WithStubDelay(0))
	return NewRouter(svc, zerolog.Nop())
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestChat_MissingMessage(t *testing.T) {
	r := newTestRouter(t)
	for _, body := range []string{`{}`, `{"message":""}`, `{"message":"   ","apiKey":"sk-good"}`} {
		w := do(r, http.MethodPost, "/chat", body)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "Message is required", decode(t, w)["error"])
	}
}

func TestChat_InvalidBody(t *testing.T) {
	w := do(newTestRouter(t), http.MethodPost, "/chat", `{"message":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode(t, w)["error"])
}

func TestChat_NonStringMessage(t *testing.T) {
	r := newTestRouter(t)
	for _, body := range []string{`{"message":123}`, `{"message":true}`, `{"message":["hi"]}`} {
		w := do(r, http.MethodPost, "/chat", body)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "Invalid request body", decode(t, w)["error"], body)
	}
}

func TestChat_WithKey(t *testing.T) {
	w := do(newTestRouter(t), http.MethodPost, "/chat", `{"message":"hi","apiKey":"sk-good"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "from provider", decode(t, w)["response"])
}

func TestChat_DemoModeIs200(t *testing.T) {
	r := newTestRouter(t)
	for _, body := range []string{`{"message":"hi"}`, `{"message":"hi","apiKey":"sk-bad"}`} {
		w := do(r, http.MethodPost, "/chat", body)
		require.Equal(t, http.StatusOK, w.Code, body)
		out := decode(t, w)
		assert.Contains(t, out["response"], "hi")
		assert.NotContains(t, out, "error")
	}
}

func TestChat_PanicIs500(t *testing.T) {
	r := NewRouter(replierFunc(func(context.Context, string, string) (relay.Outcome, error) {
		panic("boom")
	}), zerolog.Nop())

	w := do(r, http.MethodPost, "/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["error"])
}

func TestChat_ErrorIs500(t *testing.T) {
	r := NewRouter(replierFunc(func(context.Context, string, string) (relay.Outcome, error) {
		return relay.Outcome{}, context.Canceled
	}), zerolog.Nop())

	w := do(r, http.MethodPost, "/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["error"])
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(t), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "OK", out["status"])
	assert.NotEmpty(t, out["message"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDPropagates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestNotFoundAndMethod(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(r, http.MethodGet, "/chat", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	do(r, http.MethodPost, "/chat", `{"message":"hi"}`)
	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pocketchat_relay_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
