// Package query answers event queries across all registered feeds: date
// ranges with recurrence expansion, text search, UID lookup, and the
// convenience windows (today, tomorrow, week, month, upcoming).
package query

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"

	"github.com/teemow/icalmcp/internal/feed"
	"github.com/teemow/icalmcp/internal/ical"
)

// Engine evaluates queries against a snapshot of the feed registry.
type Engine struct {
	registry *feed.Registry
	expander *ical.Expander
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine builds a query engine over the given registry.
func NewEngine(registry *feed.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		registry: registry,
		expander: ical.NewExpander(logger),
		logger:   logger,
		now:      time.Now,
	}
}

// Options control a GetEvents call. Zero values select the defaults: start
// now, end start+7d, all feeds, no pagination.
type Options struct {
	Start  time.Time
	End    time.Time
	Feeds  []string
	Limit  int
	Offset int
}

// GetEvents returns normalized events overlapping the requested window,
// sorted ascending by start time with events lacking a start first, then
// sliced by offset/limit. Unknown feed identifiers fail eagerly with a
// not-found error naming the identifier.
func (e *Engine) GetEvents(opts Options) ([]ical.Event, error) {
	states, err := e.selectFeeds(opts.Feeds)
	if err != nil {
		return nil, err
	}

	start := opts.Start
	if start.IsZero() {
		start = e.now().UTC()
	}
	end := opts.End
	if end.IsZero() {
		end = start.Add(7 * 24 * time.Hour)
	}

	events := make([]ical.Event, 0)
	for _, st := range states {
		if st.Calendar == nil {
			continue
		}
		src := sourceOf(st)
		for _, occ := range e.expander.Expand(st.Calendar, start, end) {
			events = append(events, ical.NormalizeOccurrence(occ, src))
		}
	}

	sortByStart(events)
	return paginate(events, opts.Offset, opts.Limit), nil
}

// Search matches events whose summary, description or location contains the
// query (case-insensitive), trying the raw query plus space/underscore/hyphen
// variants. A query that matches a feed's name restricts the search to that
// feed and includes all of its events. Recurrences are not expanded; each
// event appears once with its base start.
func (e *Engine) Search(rawQuery string, feedFilter []string) ([]ical.Event, error) {
	if rawQuery == "" {
		return []ical.Event{}, nil
	}

	if _, err := e.selectFeeds(feedFilter); err != nil {
		return nil, err
	}

	q := strings.ToLower(rawQuery)
	variations := []string{
		q,
		strings.ReplaceAll(q, " ", "_"),
		strings.ReplaceAll(q, "_", " "),
		strings.ReplaceAll(q, "-", " "),
	}

	states := e.registry.Snapshot()

	// Without an explicit filter, a query matching a feed name narrows the
	// search to the matching feeds.
	if len(feedFilter) == 0 {
		var matched []feed.State
		for _, st := range states {
			name := strings.ToLower(st.Name)
			for _, v := range variations {
				if strings.Contains(name, v) || strings.Contains(v, name) {
					matched = append(matched, st)
					break
				}
			}
		}
		if len(matched) > 0 {
			states = matched
		}
	} else {
		states = filterStates(states, e.resolveIDs(feedFilter))
	}

	matches := make([]ical.Event, 0)
	for _, st := range states {
		if st.Calendar == nil {
			continue
		}
		src := sourceOf(st)

		feedNameMatches := false
		name := strings.ToLower(st.Name)
		for _, v := range variations {
			if strings.Contains(name, v) {
				feedNameMatches = true
				break
			}
		}

		for _, comp := range st.Calendar.Children {
			if comp.Name != ics.CompEvent {
				continue
			}
			ev := ical.Normalize(comp, src)
			if feedNameMatches || matchesAny(ev, variations) {
				matches = append(matches, ev)
			}
		}
	}

	sortByStart(matches)
	return matches, nil
}

// EventByUID returns the first event with the given UID, optionally limited
// to one feed. Recurring events are returned once, un-expanded.
func (e *Engine) EventByUID(uid, feedIdentifier string) (ical.Event, bool, error) {
	var filter []string
	if feedIdentifier != "" {
		filter = []string{feedIdentifier}
	}
	states, err := e.selectFeeds(filter)
	if err != nil {
		return ical.Event{}, false, err
	}

	for _, st := range states {
		if st.Calendar == nil {
			continue
		}
		for _, comp := range st.Calendar.Children {
			if comp.Name != ics.CompEvent {
				continue
			}
			if prop := comp.Props.Get(ics.PropUID); prop != nil && prop.Value == uid {
				return ical.Normalize(comp, sourceOf(st)), true, nil
			}
		}
	}
	return ical.Event{}, false, nil
}

// Today returns events in [today 00:00 UTC, tomorrow 00:00 UTC).
func (e *Engine) Today(feeds []string) ([]ical.Event, time.Time, error) {
	day := startOfDay(e.now().UTC())
	events, err := e.GetEvents(Options{Start: day, End: day.AddDate(0, 0, 1), Feeds: feeds})
	return events, day, err
}

// Tomorrow returns events in [tomorrow 00:00 UTC, day after 00:00 UTC).
func (e *Engine) Tomorrow(feeds []string) ([]ical.Event, time.Time, error) {
	day := startOfDay(e.now().UTC()).AddDate(0, 0, 1)
	events, err := e.GetEvents(Options{Start: day, End: day.AddDate(0, 0, 1), Feeds: feeds})
	return events, day, err
}

// Week returns events for the current Monday-to-Sunday week together with
// the week bounds.
func (e *Engine) Week(feeds []string) ([]ical.Event, time.Time, time.Time, error) {
	now := e.now().UTC()
	weekday := int(now.Weekday()+6) % 7 // Monday = 0
	start := startOfDay(now).AddDate(0, 0, -weekday)
	end := start.AddDate(0, 0, 7)
	events, err := e.GetEvents(Options{Start: start, End: end, Feeds: feeds})
	return events, start, end, err
}

// Month returns events for the current calendar month together with the
// month bounds.
func (e *Engine) Month(feeds []string) ([]ical.Event, time.Time, time.Time, error) {
	now := e.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	events, err := e.GetEvents(Options{Start: start, End: end, Feeds: feeds})
	return events, start, end, err
}

// Upcoming returns the next count events with a start at or after now,
// sorted by start. Recurring events appear once with their base start.
func (e *Engine) Upcoming(count int, feeds []string) ([]ical.Event, error) {
	states, err := e.selectFeeds(feeds)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC()

	future := make([]ical.Event, 0)
	for _, st := range states {
		if st.Calendar == nil {
			continue
		}
		src := sourceOf(st)
		for _, comp := range st.Calendar.Children {
			if comp.Name != ics.CompEvent {
				continue
			}
			ev := ical.Normalize(comp, src)
			if !ev.Start.IsZero() && !ev.Start.Before(now) {
				future = append(future, ev)
			}
		}
	}

	sortByStart(future)
	if count > 0 && len(future) > count {
		future = future[:count]
	}
	return future, nil
}

// selectFeeds validates the filter eagerly and returns the snapshot of the
// selected feeds (all feeds when the filter is empty).
func (e *Engine) selectFeeds(identifiers []string) ([]feed.State, error) {
	if len(identifiers) == 0 {
		return e.registry.Snapshot(), nil
	}
	ids := make(map[string]bool, len(identifiers))
	for _, identifier := range identifiers {
		f, err := e.registry.Resolve(identifier)
		if err != nil {
			return nil, err
		}
		ids[f.ID] = true
	}
	return filterStates(e.registry.Snapshot(), ids), nil
}

func (e *Engine) resolveIDs(identifiers []string) map[string]bool {
	ids := make(map[string]bool, len(identifiers))
	for _, identifier := range identifiers {
		if f, ok := e.registry.Find(identifier); ok {
			ids[f.ID] = true
		}
	}
	return ids
}

func filterStates(states []feed.State, ids map[string]bool) []feed.State {
	out := make([]feed.State, 0, len(ids))
	for _, st := range states {
		if ids[st.ID] {
			out = append(out, st)
		}
	}
	return out
}

func sourceOf(st feed.State) ical.SourceFeed {
	return ical.SourceFeed{ID: st.ID, Name: st.Name, URL: st.URL}
}

func matchesAny(ev ical.Event, variations []string) bool {
	summary := strings.ToLower(ev.Summary)
	description := strings.ToLower(ev.Description)
	location := strings.ToLower(ev.Location)
	for _, v := range variations {
		if strings.Contains(summary, v) || strings.Contains(description, v) || strings.Contains(location, v) {
			return true
		}
	}
	return false
}

// sortByStart orders events ascending by start time. Zero starts sort first,
// matching lexicographic order over serialized timestamps where a missing
// start is the empty string.
func sortByStart(events []ical.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}

func paginate(events []ical.Event, offset, limit int) []ical.Event {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(events) {
		return []ical.Event{}
	}
	events = events[offset:]
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
