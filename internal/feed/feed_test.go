package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashID(t *testing.T) {
	id := HashID("https://example.com/cal.ics")

	assert.Len(t, id, 8)
	assert.Equal(t, id, HashID("https://example.com/cal.ics"), "hash should be deterministic")
	assert.NotEqual(t, id, HashID("https://example.com/other.ics"))

	for _, r := range id {
		assert.Contains(t, "0123456789abcdef", string(r))
	}
}

func TestDeriveName(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "ics file keeps domain only",
			url:      "https://calendar.google.com/calendar/ical/basic.ics",
			expected: "calendar",
		},
		{
			name:     "www prefix stripped",
			url:      "https://www.example.com/feed.ics",
			expected: "example",
		},
		{
			name:     "non-ics path segment appended",
			url:      "https://example.com/teams/platform",
			expected: "example-platform",
		},
		{
			name:     "bare host",
			url:      "https://example.com",
			expected: "example",
		},
		{
			name:     "webcal scheme",
			url:      "webcal://calendar.example.org/feed.ics",
			expected: "calendar",
		},
		{
			name:     "unparsable url falls back",
			url:      "http://exa mple.com/%zz",
			expected: "calendar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveName(tt.url))
		})
	}
}

func TestNew(t *testing.T) {
	f := New("https://example.com/work.ics", "")
	assert.Equal(t, "example", f.Name)
	assert.Equal(t, HashID("https://example.com/work.ics"), f.ID)
	assert.Equal(t, "https://example.com/work.ics", f.URL)

	named := New("https://example.com/work.ics", "Work Calendar")
	assert.Equal(t, "Work Calendar", named.Name)
	assert.Equal(t, f.ID, named.ID, "name must not influence the ID")
}

func TestFeedStatus(t *testing.T) {
	f := New("https://example.com/cal.ics", "")
	assert.Equal(t, StatusNotLoaded, f.Status())

	f.Err = "Connection timeout"
	assert.Equal(t, StatusError, f.Status())

	cal, err := decodeCalendar(f.Name, []byte(sampleICS))
	require.NoError(t, err)
	f.Calendar = cal
	// A stale calendar with a recorded error still counts as loaded.
	assert.Equal(t, StatusLoaded, f.Status())
}

func TestCountEvents(t *testing.T) {
	assert.Equal(t, 0, CountEvents(nil))

	cal, err := decodeCalendar("test", []byte(sampleICS))
	require.NoError(t, err)
	assert.Equal(t, 2, CountEvents(cal))
}

func TestCalendarName(t *testing.T) {
	assert.Equal(t, "", CalendarName(nil))

	cal, err := decodeCalendar("test", []byte(sampleICS))
	require.NoError(t, err)
	assert.Equal(t, "Team Calendar", CalendarName(cal))
}

var sampleICS = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//icalmcp//test//EN",
	"X-WR-CALNAME:Team Calendar",
	"BEGIN:VEVENT",
	"UID:ev-1",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240110T090000Z",
	"DTEND:20240110T100000Z",
	"SUMMARY:Standup",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:ev-2",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240111T130000Z",
	"DTEND:20240111T140000Z",
	"SUMMARY:Planning",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")
