package ai

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayClient_Complete(t *testing.T) {
	srv, got := fakeServer(t, http.StatusOK, "application/json", `{"response":"from relay"}`)
	c := NewRelayClient(srv.URL, time.Second)

	reply, err := c.Complete(context.Background(), "hello", "sk-test")
	require.NoError(t, err)
	assert.Equal(t, "from relay", reply)
	assert.Equal(t, "/chat", got.Path)
	assert.Equal(t, "hello", got.Body["message"])
	assert.Equal(t, "sk-test", got.Body["apiKey"])
}

func TestRelayClient_Errors(t *testing.T) {
	srv, _ := fakeServer(t, http.StatusBadRequest, "application/json", `{"error":"Message is required"}`)
	_, err := NewRelayClient(srv.URL, time.Second).Complete(context.Background(), "", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Message is required")

	srv, _ = fakeServer(t, http.StatusOK, "application/json", `{"response":""}`)
	_, err = NewRelayClient(srv.URL, time.Second).Complete(context.Background(), "x", "k")
	require.ErrorIs(t, err, ErrEmptyCompletion)

	srv, _ = fakeServer(t, http.StatusOK, "application/json", `not json`)
	_, err = NewRelayClient(srv.URL, time.Second).Complete(context.Background(), "x", "k")
	require.Error(t, err)
}

func TestRelayClient_Health(t *testing.T) {
	srv, got := fakeServer(t, http.StatusOK, "application/json", `{"status":"OK"}`)
	require.NoError(t, NewRelayClient(srv.URL, time.Second).Health(context.Background()))
	assert.Equal(t, "/health", got.Path)

	srv, _ = fakeServer(t, http.StatusServiceUnavailable, "application/json", `{}`)
	require.Error(t, NewRelayClient(srv.URL, time.Second).Health(context.Background()))
}
