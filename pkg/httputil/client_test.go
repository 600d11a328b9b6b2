package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/papertrade/pkg/logger"
)

func TestNew(t *testing.T) {
	client := New(5*time.Second, logger.Nop())
	require.NotNil(t, client)

	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 2, client.retryConfig.MaxRetries)
	assert.True(t, client.retryConfig.Enabled)
}

func TestGetHTML_Success(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	client := New(time.Second, logger.Nop())
	body, err := client.GetHTML(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "<html>ok</html>", string(body))
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Contains(t, gotAccept, "text/html")
}

func TestGetHTML_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	client := New(time.Second, logger.Nop()).WithRetry(3, time.Millisecond)
	body, err := client.GetHTML(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "recovered", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetHTML_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(time.Second, logger.Nop()).WithRetry(3, time.Millisecond)
	_, err := client.GetHTML(context.Background(), server.URL)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetHTML_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := New(50*time.Millisecond, logger.Nop()).DisableRetry()
	_, err := client.GetHTML(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryableError(tt.code), "status %d", tt.code)
	}
}
