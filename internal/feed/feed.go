package feed

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
)

// Feed lifecycle states reported in listings.
const (
	StatusLoaded    = "loaded"
	StatusError     = "error"
	StatusNotLoaded = "not_loaded"
)

// Feed is a single registered iCalendar source. The parsed calendar and the
// fetch bookkeeping fields are guarded by the owning Registry's lock; the
// identity fields (ID, Name, URL) are immutable after construction.
type Feed struct {
	ID   string
	Name string
	URL  string

	Calendar  *ics.Calendar
	LastFetch time.Time
	Err       string
}

// New builds a Feed for the given URL. When name is empty a readable default
// is derived from the URL.
func New(rawURL, name string) *Feed {
	if name == "" {
		name = DeriveName(rawURL)
	}
	return &Feed{
		ID:   HashID(rawURL),
		Name: name,
		URL:  rawURL,
	}
}

// HashID returns the stable identifier for a feed URL: the first 8 hex
// characters of the MD5 digest of the raw URL string. MD5 is used as a cheap
// stable hash here, not for any security purpose.
func HashID(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:4])
}

// DeriveName builds a default feed name from a URL: the host without a
// leading "www." truncated at the first dot, joined with the last path
// segment when that segment is not an .ics file. Falls back to "calendar"
// when nothing usable remains.
func DeriveName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "calendar"
	}

	host := strings.TrimPrefix(u.Host, "www.")
	domain := host
	if i := strings.Index(host, "."); i >= 0 {
		domain = host[:i]
	}

	segment := ""
	if p := strings.Trim(u.Path, "/"); p != "" {
		parts := strings.Split(p, "/")
		segment = parts[len(parts)-1]
	}

	if segment != "" && !strings.HasSuffix(segment, ".ics") {
		return domain + "-" + segment
	}
	if domain == "" {
		return "calendar"
	}
	return domain
}

// Status reports the lifecycle state of the feed. Caller must hold the
// registry lock or operate on a snapshot.
func (f *Feed) Status() string {
	switch {
	case f.Calendar != nil:
		return StatusLoaded
	case f.Err != "":
		return StatusError
	default:
		return StatusNotLoaded
	}
}

// CountEvents returns the number of VEVENT components in a calendar.
func CountEvents(cal *ics.Calendar) int {
	if cal == nil {
		return 0
	}
	n := 0
	for _, child := range cal.Children {
		if child.Name == ics.CompEvent {
			n++
		}
	}
	return n
}

// CalendarName returns the display name embedded in a calendar
// (X-WR-CALNAME, then NAME), or empty when neither is present.
func CalendarName(cal *ics.Calendar) string {
	if cal == nil {
		return ""
	}
	if prop := cal.Props.Get("X-WR-CALNAME"); prop != nil && prop.Value != "" {
		return prop.Value
	}
	if prop := cal.Props.Get("NAME"); prop != nil && prop.Value != "" {
		return prop.Value
	}
	return ""
}
