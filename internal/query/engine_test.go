package query

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/icalmcp/internal/feed"
	"github.com/teemow/icalmcp/internal/ical"
)

var workICS = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//test//EN",
	"X-WR-CALNAME:Work",
	"BEGIN:VEVENT",
	"UID:ev-standup",
	"SUMMARY:Daily Standup",
	"DTSTART:20240108T090000Z",
	"DTEND:20240108T093000Z",
	"RRULE:FREQ=DAILY;COUNT=5",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:ev-review",
	"SUMMARY:Sprint Review",
	"DESCRIPTION:team_sync notes",
	"LOCATION:Room 1",
	"DTSTART:20240110T140000Z",
	"DTEND:20240110T150000Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:ev-past",
	"SUMMARY:Kickoff",
	"DTSTART:20240101T100000Z",
	"DTEND:20240101T110000Z",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

var personalICS = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//test//EN",
	"BEGIN:VEVENT",
	"UID:ev-dentist",
	"SUMMARY:Dentist",
	"DTSTART:20240111T160000Z",
	"DTEND:20240111T170000Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:ev-holiday",
	"SUMMARY:Holiday",
	"DTSTART;VALUE=DATE:20240112",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:ev-planning",
	"SUMMARY:February Planning",
	"DTSTART:20240201T090000Z",
	"DTEND:20240201T100000Z",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

// testNow is a Wednesday.
var testNow = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		switch r.URL.Path {
		case "/work.ics":
			io.WriteString(w, workICS)
		case "/personal.ics":
			io.WriteString(w, personalICS)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	registry := feed.NewRegistry()
	_, _, err := registry.Add(srv.URL+"/work.ics", "work")
	require.NoError(t, err)
	_, _, err = registry.Add(srv.URL+"/personal.ics", "personal")
	require.NoError(t, err)

	fetcher := feed.NewFetcher(registry, discardLogger(), nil)
	for _, res := range fetcher.RefreshAll(context.Background()) {
		require.Equal(t, "success", res.Status)
	}

	engine := NewEngine(registry, discardLogger())
	engine.now = func() time.Time { return testNow }
	return engine
}

func uids(events []ical.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.UID)
	}
	return out
}

func TestGetEventsDefaultWindow(t *testing.T) {
	engine := newTestEngine(t)

	events, err := engine.GetEvents(Options{})
	require.NoError(t, err)

	// Standup recurs Jan 8-12, so three occurrences fall in [Jan 10, Jan 17).
	assert.Equal(t, []string{
		"ev-standup", // Jan 10 09:00
		"ev-review",  // Jan 10 14:00
		"ev-standup", // Jan 11 09:00
		"ev-dentist", // Jan 11 16:00
		"ev-holiday", // Jan 12 00:00
		"ev-standup", // Jan 12 09:00
	}, uids(events))

	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC), events[0].End)
	assert.Equal(t, "work", events[0].SourceFeedName)
	assert.True(t, events[4].AllDay)
}

func TestGetEventsExplicitWindow(t *testing.T) {
	engine := newTestEngine(t)

	events, err := engine.GetEvents(Options{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-planning"}, uids(events))
}

func TestGetEventsFeedFilter(t *testing.T) {
	engine := newTestEngine(t)

	events, err := engine.GetEvents(Options{Feeds: []string{"personal"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-dentist", "ev-holiday"}, uids(events))
}

func TestGetEventsUnknownFeedFailsEagerly(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.GetEvents(Options{Feeds: []string{"work", "nope"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'nope' not found")
}

func TestGetEventsPagination(t *testing.T) {
	engine := newTestEngine(t)

	events, err := engine.GetEvents(Options{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-review", "ev-standup"}, uids(events))

	events, err = engine.GetEvents(Options{Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSearchMatchesContent(t *testing.T) {
	engine := newTestEngine(t)

	// Summary match, case-insensitive; recurrences are not expanded.
	events, err := engine.Search("STANDUP", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-standup"}, uids(events))

	// Space in the query matches an underscore in the description.
	events, err = engine.Search("team sync", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-review"}, uids(events))

	// Location match.
	events, err = engine.Search("room 1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-review"}, uids(events))
}

func TestSearchFeedNameIncludesWholeFeed(t *testing.T) {
	engine := newTestEngine(t)

	events, err := engine.Search("personal", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-dentist", "ev-holiday", "ev-planning"}, uids(events))
}

func TestSearchRespectsFeedFilter(t *testing.T) {
	engine := newTestEngine(t)

	events, err := engine.Search("standup", []string{"personal"})
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = engine.Search("standup", []string{"nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'nope' not found")
}

func TestSearchEmptyQuery(t *testing.T) {
	engine := newTestEngine(t)

	events, err := engine.Search("", nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventByUID(t *testing.T) {
	engine := newTestEngine(t)

	ev, found, err := engine.EventByUID("ev-review", "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Sprint Review", ev.Summary)
	assert.Equal(t, "work", ev.SourceFeedName)

	_, found, err = engine.EventByUID("ev-missing", "")
	require.NoError(t, err)
	assert.False(t, found)

	// Restricting to the wrong feed misses the event.
	_, found, err = engine.EventByUID("ev-review", "personal")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = engine.EventByUID("ev-review", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'nope' not found")
}

func TestToday(t *testing.T) {
	engine := newTestEngine(t)

	events, day, err := engine.Today(nil)
	require.NoError(t, err)
	assert.Equal(t, testNow, day)
	assert.Equal(t, []string{"ev-standup", "ev-review"}, uids(events))
}

func TestTomorrow(t *testing.T) {
	engine := newTestEngine(t)

	events, day, err := engine.Tomorrow(nil)
	require.NoError(t, err)
	assert.Equal(t, testNow.AddDate(0, 0, 1), day)
	assert.Equal(t, []string{"ev-standup", "ev-dentist"}, uids(events))
}

func TestWeekStartsMonday(t *testing.T) {
	engine := newTestEngine(t)

	events, start, end, err := engine.Week(nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), end)
	// Five standups, review, dentist and the all-day holiday.
	assert.Len(t, events, 8)
}

func TestMonth(t *testing.T) {
	engine := newTestEngine(t)

	events, start, end, err := engine.Month(nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), end)
	// The January week plus the kickoff on Jan 1.
	assert.Len(t, events, 9)
}

func TestUpcoming(t *testing.T) {
	engine := newTestEngine(t)

	events, err := engine.Upcoming(2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-review", "ev-dentist"}, uids(events))

	// Recurring events appear once with their base start, which is in the
	// past here, so the standup is absent entirely.
	events, err = engine.Upcoming(0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-review", "ev-dentist", "ev-holiday", "ev-planning"}, uids(events))
}
