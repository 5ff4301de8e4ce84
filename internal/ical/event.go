package ical

import (
	"encoding/json"
	"time"
)

// SourceFeed identifies the feed an event came from. Events carry this so
// multi-feed query results stay attributable.
type SourceFeed struct {
	ID   string
	Name string
	URL  string
}

// Event is the canonical, feed-independent event model. All timestamps are
// UTC; End is always >= Start.
type Event struct {
	UID            string    `json:"uid"`
	Summary        string    `json:"summary"`
	Description    string    `json:"description,omitempty"`
	Location       string    `json:"location,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	AllDay         bool      `json:"all_day"`
	Status         string    `json:"status,omitempty"`
	Organizer      string    `json:"organizer,omitempty"`
	Attendees      []string  `json:"attendees,omitempty"`
	Categories     []string  `json:"categories,omitempty"`
	RecurrenceRule string    `json:"recurrence,omitempty"`
	SourceFeedURL  string    `json:"source_feed"`
	SourceFeedName string    `json:"source_feed_name"`
	SourceFeedID   string    `json:"source_feed_id"`
}

// MarshalJSON serializes Start/End as RFC 3339 strings and emits null for
// events that carry no usable timestamp instead of the zero-time sentinel.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	aux := struct {
		alias
		Start *string `json:"start"`
		End   *string `json:"end"`
	}{alias: alias(e)}

	if !e.Start.IsZero() {
		s := e.Start.Format(time.RFC3339)
		aux.Start = &s
	}
	if !e.End.IsZero() {
		s := e.End.Format(time.RFC3339)
		aux.End = &s
	}
	return json.Marshal(aux)
}

// Duration returns the event length. Zero for instant or malformed events.
func (e Event) Duration() time.Duration {
	if e.End.Before(e.Start) {
		return 0
	}
	return e.End.Sub(e.Start)
}
