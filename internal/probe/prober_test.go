package probe

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestIsReachable_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(Config{Timeout: time.Second}, testLogger())
	assert.True(t, p.IsReachable(context.Background(), srv.URL))
}

func TestIsReachable_NonSuccessStatus(t *testing.T) {
	statuses := []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError}

	for _, status := range statuses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		p := New(Config{Timeout: time.Second}, testLogger())
		assert.False(t, p.IsReachable(context.Background(), srv.URL), "status %d", status)
		srv.Close()
	}
}

func TestIsReachable_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	p := New(Config{Timeout: 50 * time.Millisecond}, testLogger())
	assert.False(t, p.IsReachable(context.Background(), srv.URL))
}

func TestIsReachable_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := New(Config{Timeout: time.Second}, testLogger())
	assert.False(t, p.IsReachable(context.Background(), url))
}

func TestIsReachable_BadURL(t *testing.T) {
	p := New(Config{Timeout: time.Second}, testLogger())
	assert.False(t, p.IsReachable(context.Background(), "http://bad url with spaces"))
}

func TestFilterReachable_PartitionsAllOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(Config{Timeout: time.Second}, testLogger())
	live, dead := p.FilterReachable(context.Background(), []string{
		srv.URL + "/a.jpg",
		srv.URL + "/missing.jpg",
		srv.URL + "/b.jpg",
		"http://127.0.0.1:1/refused.jpg",
	})

	assert.Equal(t, []string{srv.URL + "/a.jpg", srv.URL + "/b.jpg"}, live)
	assert.Equal(t, []string{srv.URL + "/missing.jpg", "http://127.0.0.1:1/refused.jpg"}, dead)
}

func TestFilterReachable_Empty(t *testing.T) {
	p := New(Config{Timeout: time.Second}, testLogger())
	live, dead := p.FilterReachable(context.Background(), nil)

	assert.Empty(t, live)
	assert.Empty(t, dead)
}

func TestFilterReachable_RespectsConcurrencyCap(t *testing.T) {
	var inFlight, peak int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&inFlight, 1)
		defer atomic.AddInt64(&inFlight, -1)
		for {
			old := atomic.LoadInt64(&peak)
			if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}))
	defer srv.Close()

	p := New(Config{Timeout: time.Second, Concurrency: 2}, testLogger())

	urls := make([]string, 10)
	for i := range urls {
		urls[i] = srv.URL
	}
	live, _ := p.FilterReachable(context.Background(), urls)

	require.Len(t, live, 10)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}
