package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookharvest/pkg/config"
	"bookharvest/pkg/utils"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := config.HTTPClientConfig{Timeout: 10 * time.Second}
	return NewFetcher(NewClient(cfg, log), log)
}

func TestFetcher_Fetch(t *testing.T) {
	var gotUA, gotAccept atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		gotAccept.Store(r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><div class="book-item"><a href="/bd/?b=1">Книга</a></div></body></html>`))
	}))
	defer server.Close()

	f := newTestFetcher(t)
	doc, err := f.Fetch(context.Background(), server.URL, "harvester-test/1.0")
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "Книга", doc.Find("div.book-item a").Text())
	assert.Equal(t, "harvester-test/1.0", gotUA.Load())
	assert.Contains(t, gotAccept.Load(), "text/html")
}

func TestFetcher_Fetch_HTTPStatusError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		category   string
	}{
		{"not found", http.StatusNotFound, "HTTP_404"},
		{"forbidden", http.StatusForbidden, "HTTP_403"},
		{"rate limited", http.StatusTooManyRequests, "HTTP_429"},
		{"server error", http.StatusInternalServerError, "HTTP_5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f := newTestFetcher(t)
			doc, err := f.Fetch(context.Background(), server.URL, "ua")
			assert.Nil(t, doc)
			require.ErrorIs(t, err, utils.ErrHTTPStatus)
			assert.Equal(t, tt.category, utils.CategorizeError(err))
		})
	}
}

func TestFetcher_Fetch_NoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), server.URL, "ua")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_Fetch_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := newTestFetcher(t)
	_, err := f.Fetch(ctx, server.URL, "ua")
	require.Error(t, err)
}

func TestFetcher_Fetch_BadURL(t *testing.T) {
	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), "http://[::1]:namedport", "ua")
	require.ErrorIs(t, err, utils.ErrRequestCreation)
}
