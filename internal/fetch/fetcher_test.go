package fetch

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufscan/receipt-processor/constants"
	"github.com/sufscan/receipt-processor/internal/cache"
	"github.com/sufscan/receipt-processor/internal/common"
)

func testConfig() common.FetchConfig {
	return common.FetchConfig{
		Timeout:    2 * time.Second,
		Retries:    2,
		RetryDelay: 5 * time.Millisecond,
	}
}

func newFetcher(t *testing.T) (*Fetcher, *cache.Cache) {
	t.Helper()
	store, err := cache.New(t.TempDir(), nil)
	require.NoError(t, err)
	return New(testConfig(), store, nil), store
}

func TestFetchSuccessStoresToCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>Спецификација рачуна</body></html>"))
	}))
	defer srv.Close()

	f, store := newFetcher(t)
	doc, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, constants.ContentMarkup, doc.ContentType)
	assert.Contains(t, string(doc.Body), "Спецификација")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	entry, ok := store.Lookup(srv.URL)
	require.True(t, ok, "fetched body must be written through to the cache")
	assert.Equal(t, doc.Body, entry.Body)
}

func TestFetchRetriesOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("plain body"))
	}))
	defer srv.Close()

	f, _ := newFetcher(t)
	doc, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, constants.ContentText, doc.ContentType)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetch404FailsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f, _ := newFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, common.KindFetchUnavailable, common.KindOf(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "client errors are not retried")
}

func TestFetchTimeoutExhaustionKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	store, err := cache.New(t.TempDir(), nil)
	require.NoError(t, err)
	f := New(common.FetchConfig{
		Timeout:    20 * time.Millisecond,
		Retries:    1,
		RetryDelay: time.Millisecond,
	}, store, nil)

	_, err = f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, common.KindFetchTimeout, common.KindOf(err))
}

func TestFetchContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	f, _ := newFetcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "cancellation must abort the in-flight request promptly")
}

func TestFetchRefusesRedirects(t *testing.T) {
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("foreign body"))
	}))
	defer foreign.Close()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Redirect(w, r, foreign.URL, http.StatusFound)
	}))
	defer srv.Close()

	f, store := newFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, common.KindFetchUnavailable, common.KindOf(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "redirects are not retried")

	_, ok := store.Lookup(srv.URL)
	assert.False(t, ok, "a redirected response must never reach the cache")
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f, store := newFetcher(t)
	f.maxBody = 1024

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBodyTooLarge)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "an oversized body is not retried")

	_, ok := store.Lookup(srv.URL)
	assert.False(t, ok, "a truncated body must never reach the cache")
}

func TestFetchUsesRequestIDFromContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	store, err := cache.New(t.TempDir(), nil)
	require.NoError(t, err)
	f := New(testConfig(), store, slog.New(slog.NewTextHandler(&buf, nil)))

	ctx := common.WithRequestID(context.Background(), "req-123")
	_, err = f.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "req_id=req-123", "fetch logs carry the caller's request id")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		header string
		body   string
		want   constants.ContentType
	}{
		{"html header", "text/html; charset=utf-8", "whatever", constants.ContentMarkup},
		{"json header", "application/json", "whatever", constants.ContentJSON},
		{"sniff markup", "", "  <!DOCTYPE html><html></html>", constants.ContentMarkup},
		{"sniff json object", "application/octet-stream", `{"a":1}`, constants.ContentJSON},
		{"sniff json array", "", `[1,2]`, constants.ContentJSON},
		{"sniff bom markup", "", "\xEF\xBB\xBF<html>", constants.ContentMarkup},
		{"plain text fallback", "", "just text", constants.ContentText},
		{"empty body", "", "", constants.ContentText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.header, []byte(tt.body)))
		})
	}
}
