package httpfetch

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

	"AlertTrack/internal/domain"
)

func fastPolicy(retries uint64) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestGetReturnsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	body, err := New(time.Second, "test-agent", 0).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestGetRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := New(time.Second, "", 0).WithRetryPolicy(fastPolicy(3))
	body, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := New(time.Second, "", 0).WithRetryPolicy(fastPolicy(3))
	_, err := client.Get(context.Background(), srv.URL)
	require.Error(t, err)

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetGivesUpAfterBudget(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(time.Second, "", 0).WithRetryPolicy(fastPolicy(2))
	_, err := client.Get(context.Background(), srv.URL)

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusTooManyRequests, netErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDocumentParsesHTML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Title</h1></body></html>`))
	}))
	defer srv.Close()

	doc, err := New(time.Second, "", 0).Document(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Title", doc.Find("h1").Text())
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, Retryable(&domain.NetworkError{URL: "u", Err: errors.New("reset")}))
	assert.True(t, Retryable(&domain.NetworkError{URL: "u", StatusCode: 502}))
	assert.True(t, Retryable(&domain.NetworkError{URL: "u", StatusCode: 408}))
	assert.False(t, Retryable(&domain.NetworkError{URL: "u", StatusCode: 403}))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(errors.New("plain")))
	assert.False(t, Retryable(nil))
}
