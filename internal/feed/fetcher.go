package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"

	"github.com/teemow/icalmcp/internal/logging"
)

// defaultFetchTimeout bounds a single feed download.
const defaultFetchTimeout = 30 * time.Second

// maxFeedBytes caps the response body read for a single feed.
const maxFeedBytes = 32 << 20

// FetchRecorder receives fetch outcome metrics. Implemented by
// instrumentation.Metrics; a nil recorder disables recording.
type FetchRecorder interface {
	RecordFeedFetch(ctx context.Context, feed, status string, duration time.Duration)
	RecordFeedEvents(ctx context.Context, feed string, count int64)
}

// Fetcher downloads and parses feeds and stores the outcome on the registry.
// A failed fetch keeps the previously loaded calendar so queries keep working
// from stale data.
type Fetcher struct {
	registry *Registry
	client   *http.Client
	logger   *slog.Logger
	recorder FetchRecorder
}

// NewFetcher builds a Fetcher around the given registry. logger must not be
// nil; recorder may be.
func NewFetcher(registry *Registry, logger *slog.Logger, recorder FetchRecorder) *Fetcher {
	return &Fetcher{
		registry: registry,
		client:   &http.Client{Timeout: defaultFetchTimeout},
		logger:   logger,
		recorder: recorder,
	}
}

// Result describes the outcome of refreshing a single feed. The zero
// EventCount is meaningful on success, so it is always serialized.
type Result struct {
	Status       string     `json:"status"`
	FeedURL      string     `json:"feed_url"`
	FeedName     string     `json:"feed_name"`
	FeedID       string     `json:"feed_id"`
	LastFetch    *time.Time `json:"last_fetch"`
	EventCount   int        `json:"event_count"`
	CalendarName string     `json:"calendar_name,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Refresh downloads a single feed and records the outcome. It never returns
// an error: failures are classified, stored on the feed and reported in the
// Result so one broken feed cannot abort a refresh pass.
func (f *Fetcher) Refresh(ctx context.Context, fd *Feed) Result {
	logger := logging.WithFeed(f.logger, fd.Name)
	logger.Info("fetching calendar feed", logging.URL(fd.URL), logging.Host(fd.URL))

	start := time.Now()
	cal, err := f.download(ctx, fd)
	duration := time.Since(start)

	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			fe = parseError(fd.Name, err)
		}
		lastFetch := f.registry.storeFailure(fd, fe.Error())
		logger.Error("failed to fetch calendar feed",
			logging.Status(logging.StatusError),
			logging.Err(fe),
			slog.String("kind", string(fe.Kind)))
		if f.recorder != nil {
			f.recorder.RecordFeedFetch(ctx, fd.Name, logging.StatusError, duration)
		}
		return f.failureResult(fd, fe, lastFetch)
	}

	fetchedAt := time.Now().UTC()
	f.registry.storeSuccess(fd, cal, fetchedAt)

	count := CountEvents(cal)
	logger.Info("calendar feed fetched",
		logging.Status(logging.StatusSuccess),
		slog.Int("event_count", count),
		slog.Duration(logging.KeyDuration, duration))
	if f.recorder != nil {
		f.recorder.RecordFeedFetch(ctx, fd.Name, logging.StatusSuccess, duration)
		f.recorder.RecordFeedEvents(ctx, fd.Name, int64(count))
	}

	calName := CalendarName(cal)
	if calName == "" {
		calName = fd.Name
	}
	return Result{
		Status:       "success",
		FeedURL:      fd.URL,
		FeedName:     fd.Name,
		FeedID:       fd.ID,
		LastFetch:    &fetchedAt,
		EventCount:   count,
		CalendarName: calName,
	}
}

// RefreshAll refreshes every registered feed in order. Individual failures
// are reported per feed and never stop the pass.
func (f *Fetcher) RefreshAll(ctx context.Context) []Result {
	feeds := f.registry.Feeds()
	results := make([]Result, 0, len(feeds))
	for _, fd := range feeds {
		results = append(results, f.Refresh(ctx, fd))
	}
	return results
}

// failureResult builds the error Result. lastFetch is the snapshot returned
// by storeFailure; fd is only read for its immutable identity fields.
func (f *Fetcher) failureResult(fd *Feed, fe *FetchError, lastFetch time.Time) Result {
	res := Result{
		Status:   "error",
		FeedURL:  fd.URL,
		FeedName: fd.Name,
		FeedID:   fd.ID,
		Error:    fe.Guidance,
	}
	// Stale calendars keep their previous fetch time.
	if !lastFetch.IsZero() {
		t := lastFetch
		res.LastFetch = &t
	}
	return res
}

func (f *Fetcher) download(ctx context.Context, fd *Feed) (*ics.Calendar, error) {
	// webcal:// is the subscription convention for HTTPS feeds.
	fetchURL := fd.URL
	if strings.HasPrefix(fetchURL, "webcal://") {
		fetchURL = "https://" + strings.TrimPrefix(fetchURL, "webcal://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, parseError(fd.Name, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, timeoutError(fd.Name, err)
		}
		return nil, parseError(fd.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, httpError(fd.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, timeoutError(fd.Name, err)
		}
		return nil, parseError(fd.Name, err)
	}

	return decodeCalendar(fd.Name, body)
}

func decodeCalendar(feedName string, body []byte) (*ics.Calendar, error) {
	trimmed := bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")

	if len(trimmed) == 0 {
		return nil, parseError(feedName, errors.New("empty response body"))
	}
	lower := strings.ToLower(string(trimmed[:min(64, len(trimmed))]))
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return nil, parseError(feedName, errors.New("response is an HTML page, not an iCalendar feed"))
	}
	if !bytes.HasPrefix(trimmed, []byte("BEGIN:VCALENDAR")) {
		return nil, parseError(feedName, errors.New("response does not begin with BEGIN:VCALENDAR"))
	}

	cal, err := ics.NewDecoder(bytes.NewReader(trimmed)).Decode()
	if err != nil {
		return nil, parseError(feedName, fmt.Errorf("decoding calendar: %w", err))
	}
	return cal, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
