package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
)

// Normalize converts a VEVENT component into the canonical Event model:
// timestamps in UTC, the missing-DTEND derivation applied, structural all-day
// detection, and the source feed stamped on. Missing optional properties
// yield zero values, never errors.
func Normalize(comp *ics.Component, src SourceFeed) Event {
	ev := Event{
		UID:            propText(comp, ics.PropUID),
		Summary:        propText(comp, ics.PropSummary),
		Description:    propText(comp, ics.PropDescription),
		Location:       propText(comp, ics.PropLocation),
		Status:         propText(comp, ics.PropStatus),
		SourceFeedID:   src.ID,
		SourceFeedName: src.Name,
		SourceFeedURL:  src.URL,
	}

	if prop := comp.Props.Get(ics.PropOrganizer); prop != nil {
		ev.Organizer = prop.Value
	}
	for _, prop := range comp.Props.Values(ics.PropAttendee) {
		if prop.Value != "" {
			ev.Attendees = append(ev.Attendees, prop.Value)
		}
	}
	for _, prop := range comp.Props.Values(ics.PropCategories) {
		for _, cat := range strings.Split(prop.Value, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				ev.Categories = append(ev.Categories, cat)
			}
		}
	}
	if prop := comp.Props.Get(ics.PropRecurrenceRule); prop != nil {
		ev.RecurrenceRule = prop.Value
	}

	ev.Start, ev.End, ev.AllDay = eventTimes(comp)
	return ev
}

// NormalizeOccurrence is Normalize with the occurrence's concrete start/end
// substituted for the component's own DTSTART/DTEND. Used for expanded
// recurrence instances.
func NormalizeOccurrence(occ Occurrence, src SourceFeed) Event {
	ev := Normalize(occ.Component, src)
	if !occ.Start.IsZero() {
		ev.Start = occ.Start
	}
	if !occ.End.IsZero() {
		ev.End = occ.End
	}
	if ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}
	return ev
}

// eventTimes derives (start, end, allDay) from a VEVENT. End falls back to
// DTSTART+DURATION, then to one hour after start for timed events and to the
// start itself for all-day events. End is clamped so End >= Start.
func eventTimes(comp *ics.Component) (time.Time, time.Time, bool) {
	startProp := comp.Props.Get(ics.PropDateTimeStart)
	if startProp == nil {
		return time.Time{}, time.Time{}, false
	}

	allDay := isDateValue(startProp)
	start, err := parseDateTimeProperty(startProp)
	if err != nil {
		return time.Time{}, time.Time{}, allDay
	}

	var end time.Time
	if endProp := comp.Props.Get(ics.PropDateTimeEnd); endProp != nil {
		if t, err := parseDateTimeProperty(endProp); err == nil {
			end = t
		}
	}
	if end.IsZero() {
		if durProp := comp.Props.Get(ics.PropDuration); durProp != nil {
			if d, err := parseDuration(durProp.Value); err == nil {
				end = start.Add(d)
			}
		}
	}
	if end.IsZero() {
		if allDay {
			end = start
		} else {
			end = start.Add(time.Hour)
		}
	}
	if end.Before(start) {
		end = start
	}
	return start, end, allDay
}

// isDateValue reports whether a property holds a date-only value, either by
// the VALUE=DATE parameter or by the bare 8-digit form some feeds emit
// without the parameter.
func isDateValue(prop *ics.Prop) bool {
	if prop.Params.Get("VALUE") == "DATE" {
		return true
	}
	v := prop.Value
	if len(v) != 8 {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseDateTimeProperty resolves a date or date-time property to UTC. Naive
// values (no Z suffix, no TZID) are treated as already-UTC. When the library
// cannot resolve the value, common raw layouts are tried before giving up.
func parseDateTimeProperty(prop *ics.Prop) (time.Time, error) {
	if t, err := prop.DateTime(time.UTC); err == nil {
		return t.UTC(), nil
	}

	layouts := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, prop.Value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date-time value %q", prop.Value)
}
