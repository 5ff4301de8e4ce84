package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetcherRefreshSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	r := NewRegistry()
	fd, _, err := r.Add(srv.URL+"/cal.ics", "team")
	require.NoError(t, err)

	f := NewFetcher(r, discardLogger(), nil)
	res := f.Refresh(context.Background(), fd)

	assert.Equal(t, "success", res.Status)
	assert.Equal(t, fd.ID, res.FeedID)
	assert.Equal(t, 2, res.EventCount)
	assert.Equal(t, "Team Calendar", res.CalendarName)
	require.NotNil(t, res.LastFetch)
	assert.Equal(t, time.UTC, res.LastFetch.Location())

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.NotNil(t, snap[0].Calendar)
	assert.Empty(t, snap[0].Err)
}

func TestFetcherRefreshHTTPErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		contains   string
	}{
		{"unauthorized", http.StatusUnauthorized, "requires authentication"},
		{"not found", http.StatusNotFound, "not found (404)"},
		{"server error", http.StatusInternalServerError, "HTTP error 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			r := NewRegistry()
			fd, _, err := r.Add(srv.URL, "broken")
			require.NoError(t, err)

			f := NewFetcher(r, discardLogger(), nil)
			res := f.Refresh(context.Background(), fd)

			assert.Equal(t, "error", res.Status)
			assert.Contains(t, res.Error, tt.contains)
			assert.Nil(t, res.LastFetch)
			assert.Equal(t, StatusError, fd.Status())
		})
	}
}

func TestFetcherRefreshHTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<!DOCTYPE html><html><body>login required</body></html>"))
	}))
	defer srv.Close()

	r := NewRegistry()
	fd, _, err := r.Add(srv.URL, "")
	require.NoError(t, err)

	f := NewFetcher(r, discardLogger(), nil)
	res := f.Refresh(context.Background(), fd)

	assert.Equal(t, "error", res.Status)
	assert.Contains(t, res.Error, "HTML page")
}

func TestFetcherRefreshNonCalendarBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	r := NewRegistry()
	fd, _, err := r.Add(srv.URL, "")
	require.NoError(t, err)

	f := NewFetcher(r, discardLogger(), nil)
	res := f.Refresh(context.Background(), fd)

	assert.Equal(t, "error", res.Status)
	assert.Contains(t, res.Error, "BEGIN:VCALENDAR")
}

func TestFetcherRefreshTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	r := NewRegistry()
	fd, _, err := r.Add(srv.URL, "slow")
	require.NoError(t, err)

	f := NewFetcher(r, discardLogger(), nil)
	f.client.Timeout = 50 * time.Millisecond

	res := f.Refresh(context.Background(), fd)

	assert.Equal(t, "error", res.Status)
	assert.Contains(t, res.Error, "timed out")
	assert.Equal(t, "Connection timeout", fd.Err)
}

func TestFetcherDefaultTimeout(t *testing.T) {
	f := NewFetcher(NewRegistry(), discardLogger(), nil)

	assert.Equal(t, 30*time.Second, f.client.Timeout)
	assert.Equal(t, FetchKind("timeout"), FetchTimeout)
}

func TestFetcherStaleCalendarSurvivesFailure(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy {
			_, _ = w.Write([]byte(sampleICS))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRegistry()
	fd, _, err := r.Add(srv.URL, "flaky")
	require.NoError(t, err)

	f := NewFetcher(r, discardLogger(), nil)

	first := f.Refresh(context.Background(), fd)
	require.Equal(t, "success", first.Status)

	healthy = false
	second := f.Refresh(context.Background(), fd)
	assert.Equal(t, "error", second.Status)
	// The failed refresh reports the last successful fetch time.
	require.NotNil(t, second.LastFetch)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.NotNil(t, snap[0].Calendar, "previous calendar must stay queryable")
	assert.NotEmpty(t, snap[0].Err)
}

func TestFetcherConcurrentRefreshMixedOutcomes(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	r := NewRegistry()
	fd, _, err := r.Add(srv.URL, "contended")
	require.NoError(t, err)

	f := NewFetcher(r, discardLogger(), nil)

	// Concurrent refreshes of the same feed: a scheduler pass racing a
	// tool-driven refresh. Failure results must read the last-fetch time
	// from the snapshot taken under the registry lock, never from the
	// feed fields directly.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				res := f.Refresh(context.Background(), fd)
				if res.Status == "error" && res.LastFetch != nil {
					assert.False(t, res.LastFetch.IsZero())
				}
			}
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.NotNil(t, snap[0].Calendar, "successful fetches must survive interleaved failures")
}

func TestFetcherRefreshAllContinuesOnFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	r := NewRegistry()
	_, _, err := r.Add(bad.URL, "bad")
	require.NoError(t, err)
	_, _, err = r.Add(good.URL, "good")
	require.NoError(t, err)

	f := NewFetcher(r, discardLogger(), nil)
	results := f.RefreshAll(context.Background())

	require.Len(t, results, 2)
	assert.Equal(t, "error", results[0].Status)
	assert.Equal(t, "success", results[1].Status, "a failing feed must not abort the pass")
}
