package ical

import (
	"log/slog"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/teemow/icalmcp/internal/logging"
)

// maxOccurrencesPerEvent caps a single event's expansion so a pathological
// RRULE cannot blow up a query.
const maxOccurrencesPerEvent = 5000

// Occurrence is one concrete instance of an event inside an expansion
// window: the source component plus resolved UTC start/end times.
type Occurrence struct {
	Component *ics.Component
	Start     time.Time
	End       time.Time
}

// Expander expands the VEVENTs of a calendar into concrete occurrences
// within a window. Recurrence math is delegated to rrule-go; any failure for
// a component degrades to emitting that component once, un-expanded, when its
// start falls inside the window. Expansion never returns an error.
type Expander struct {
	logger *slog.Logger
}

// NewExpander builds an Expander. logger must not be nil.
func NewExpander(logger *slog.Logger) *Expander {
	return &Expander{logger: logger}
}

// Expand returns all occurrences in [windowStart, windowEnd) for the given
// calendar. Non-recurring events that overlap the window are emitted
// directly; RRULE events are expanded with DTSTART anchoring and EXDATE
// removal; components carrying RECURRENCE-ID replace the base instance they
// override.
func (e *Expander) Expand(cal *ics.Calendar, windowStart, windowEnd time.Time) []Occurrence {
	if cal == nil || !windowEnd.After(windowStart) {
		return nil
	}
	windowStart = windowStart.UTC()
	windowEnd = windowEnd.UTC()

	// First pass: collect override instances so base expansions can skip the
	// occurrences they replace.
	overridden := make(map[string]map[time.Time]bool)
	for _, comp := range cal.Children {
		if comp.Name != ics.CompEvent {
			continue
		}
		ridProp := comp.Props.Get(ics.PropRecurrenceID)
		if ridProp == nil {
			continue
		}
		rid, err := parseDateTimeProperty(ridProp)
		if err != nil {
			continue
		}
		uid := propText(comp, ics.PropUID)
		if overridden[uid] == nil {
			overridden[uid] = make(map[time.Time]bool)
		}
		overridden[uid][rid] = true
	}

	var out []Occurrence
	for _, comp := range cal.Children {
		if comp.Name != ics.CompEvent {
			continue
		}
		out = append(out, e.expandComponent(comp, overridden, windowStart, windowEnd)...)
	}
	return out
}

func (e *Expander) expandComponent(comp *ics.Component, overridden map[string]map[time.Time]bool, windowStart, windowEnd time.Time) []Occurrence {
	start, end, allDay := eventTimes(comp)
	if start.IsZero() {
		return nil
	}

	rruleProp := comp.Props.Get(ics.PropRecurrenceRule)
	isOverride := comp.Props.Get(ics.PropRecurrenceID) != nil

	if rruleProp == nil || isOverride {
		// Single instance (or an override, which stands in for one).
		if overlapsWindow(start, end, windowStart, windowEnd) {
			return []Occurrence{{Component: comp, Start: start, End: end}}
		}
		return nil
	}

	occurrences, ok := e.expandRecurring(comp, rruleProp.Value, start, end, allDay, overridden, windowStart, windowEnd)
	if !ok {
		// Fallback: the base instance, un-expanded, when it is in the window.
		if overlapsWindow(start, end, windowStart, windowEnd) {
			return []Occurrence{{Component: comp, Start: start, End: end}}
		}
		return nil
	}
	return occurrences
}

func (e *Expander) expandRecurring(comp *ics.Component, rawRule string, start, end time.Time, allDay bool, overridden map[string]map[time.Time]bool, windowStart, windowEnd time.Time) ([]Occurrence, bool) {
	uid := propText(comp, ics.PropUID)

	r, err := rrule.StrToRRule(rawRule)
	if err != nil {
		e.logger.Warn("failed to parse recurrence rule, emitting event un-expanded",
			logging.Operation("ical.expand"),
			logging.Err(err),
			slog.String("uid", uid),
			slog.String("rrule", rawRule))
		return nil, false
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exceptionDates(comp) {
		set.ExDate(ex)
	}

	times := set.Between(windowStart, windowEnd, true)
	if len(times) > maxOccurrencesPerEvent {
		e.logger.Warn("recurrence expansion truncated",
			logging.Operation("ical.expand"),
			slog.String("uid", uid),
			slog.Int("cap", maxOccurrencesPerEvent))
		times = times[:maxOccurrencesPerEvent]
	}

	duration := end.Sub(start)
	out := make([]Occurrence, 0, len(times))
	for _, occStart := range times {
		occStart = occStart.UTC()
		if allDay {
			occStart = time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, time.UTC)
		}
		if overridden[uid][occStart] {
			continue
		}
		// Between is inclusive on both edges; the window is half-open.
		if !occStart.Before(windowEnd) {
			continue
		}
		out = append(out, Occurrence{
			Component: comp,
			Start:     occStart,
			End:       occStart.Add(duration),
		})
	}
	return out, true
}

// exceptionDates collects all EXDATE values of a component in UTC. EXDATE
// properties may repeat and may carry comma-separated value lists.
func exceptionDates(comp *ics.Component) []time.Time {
	var out []time.Time
	for _, prop := range comp.Props.Values(ics.PropExceptionDates) {
		for _, part := range strings.Split(prop.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			single := prop
			single.Value = part
			if t, err := parseDateTimeProperty(&single); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// overlapsWindow reports whether [start, end) intersects the half-open
// window. Instant events (end == start) count when the start is inside.
func overlapsWindow(start, end, windowStart, windowEnd time.Time) bool {
	if end.After(start) {
		return start.Before(windowEnd) && end.After(windowStart)
	}
	return !start.Before(windowStart) && start.Before(windowEnd)
}

func propText(comp *ics.Component, name string) string {
	prop := comp.Props.Get(name)
	if prop == nil {
		return ""
	}
	if text, err := prop.Text(); err == nil {
		return text
	}
	return prop.Value
}
