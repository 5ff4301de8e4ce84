// Package conflict detects overlapping events across all feeds and grades
// the overlaps by severity.
package conflict

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/teemow/icalmcp/internal/ical"
	"github.com/teemow/icalmcp/internal/query"
)

// Conflict types, from most to least specific.
const (
	TypeExactOverlap   = "exact_overlap"
	TypePartialOverlap = "partial_overlap"
	TypeAllDayOverlap  = "all_day_overlap"
	TypeTimeOverlap    = "time_overlap"
)

// Severity levels.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Thresholds lists the accepted severity_threshold values.
var Thresholds = []string{"all", SeverityHigh, SeverityMedium, SeverityLow}

// ValidThreshold reports whether s is an accepted severity threshold.
func ValidThreshold(s string) bool {
	for _, t := range Thresholds {
		if s == t {
			return true
		}
	}
	return false
}

const allDayNote = "All-day events excluded from conflicts by default. Set include_all_day=true to include them."

// EventRef identifies one side of a conflict.
type EventRef struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"all_day"`
	Feed    string    `json:"feed"`
}

// Overlap describes the shared interval of a conflicting pair.
type Overlap struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Conflict is one overlapping pair with its classification.
type Conflict struct {
	Event1         EventRef `json:"event1"`
	Event2         EventRef `json:"event2"`
	Overlap        Overlap  `json:"overlap"`
	Type           string   `json:"conflict_type"`
	OverlapMinutes int      `json:"overlap_minutes"`
	Severity       string   `json:"severity"`
}

// Period is the analyzed time window.
type Period struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Days     int       `json:"days"`
	Timezone string    `json:"timezone"`
}

// Filters echoes the options the analysis ran with.
type Filters struct {
	IncludeAllDay     bool   `json:"include_all_day"`
	MinOverlapMinutes int    `json:"min_overlap_minutes"`
	SeverityThreshold string `json:"severity_threshold"`
}

// Summary counts conflicts per severity.
type Summary struct {
	TotalConflicts int `json:"total_conflicts"`
	HighSeverity   int `json:"high_severity"`
	MediumSeverity int `json:"medium_severity"`
	LowSeverity    int `json:"low_severity"`
}

// Statistics relates conflicts to the analyzed event set.
type Statistics struct {
	TotalEvents         int     `json:"total_events"`
	EventsWithConflicts int     `json:"events_with_conflicts"`
	ConflictPercentage  float64 `json:"conflict_percentage"`
}

// Report is the full analysis result.
type Report struct {
	AnalysisPeriod  Period                `json:"analysis_period"`
	Filters         Filters               `json:"filters"`
	Conflicts       []Conflict            `json:"conflicts"`
	BySeverity      map[string][]Conflict `json:"conflicts_by_severity"`
	Summary         Summary               `json:"summary"`
	Statistics      Statistics            `json:"statistics"`
	Recommendations []string              `json:"recommendations"`
}

// SimpleEventRef is the reduced event shape of the simple conflict list.
type SimpleEventRef struct {
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"all_day"`
}

// SimplePair is one conflicting pair without severity grading.
type SimplePair struct {
	Event1 SimpleEventRef `json:"event1"`
	Event2 SimpleEventRef `json:"event2"`
	Type   string         `json:"conflict_type"`
}

// SimpleReport is the result of the 7-day quick conflict scan.
type SimpleReport struct {
	Period        string       `json:"period"`
	Conflicts     []SimplePair `json:"conflicts"`
	ConflictCount int          `json:"conflict_count"`
	IncludeAllDay bool         `json:"include_all_day"`
	Note          string       `json:"note"`
}

// Options control an Analyze call.
type Options struct {
	DaysAhead         int
	IncludeAllDay     bool
	MinOverlapMinutes int
	SeverityThreshold string
}

// Analyzer pairs up events from the query engine and grades their overlaps.
type Analyzer struct {
	engine *query.Engine
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyzer builds an Analyzer over the given query engine.
func NewAnalyzer(engine *query.Engine, logger *slog.Logger) *Analyzer {
	return &Analyzer{engine: engine, logger: logger, now: time.Now}
}

// Analyze scans the next DaysAhead days for overlapping event pairs and
// returns the graded report. An unknown severity threshold filters nothing,
// like "all".
func (a *Analyzer) Analyze(opts Options) (*Report, error) {
	days := opts.DaysAhead
	if days <= 0 {
		days = 7
	}
	threshold := opts.SeverityThreshold
	if threshold == "" {
		threshold = "all"
	}

	now := a.now().UTC()
	end := now.Add(time.Duration(days) * 24 * time.Hour)

	events, err := a.engine.GetEvents(query.Options{Start: now, End: end})
	if err != nil {
		return nil, err
	}

	conflicts := make([]Conflict, 0)
	for i, ev1 := range events {
		allDay1 := isAllDay(ev1)
		if !opts.IncludeAllDay && allDay1 {
			continue
		}
		for _, ev2 := range events[i+1:] {
			allDay2 := isAllDay(ev2)
			if !opts.IncludeAllDay && allDay2 {
				continue
			}
			// Two all-day events sharing a day is not a real conflict.
			if allDay1 && allDay2 {
				continue
			}

			c, ok := analyzeOverlap(ev1, ev2, allDay1, allDay2)
			if !ok || c.OverlapMinutes < opts.MinOverlapMinutes {
				continue
			}
			c.Severity = severityOf(c, ev1, ev2)
			if meetsThreshold(c.Severity, threshold) {
				conflicts = append(conflicts, c)
			}
		}
	}

	bySeverity := map[string][]Conflict{
		SeverityHigh:   {},
		SeverityMedium: {},
		SeverityLow:    {},
	}
	for _, c := range conflicts {
		bySeverity[c.Severity] = append(bySeverity[c.Severity], c)
	}

	withConflicts := map[string]bool{}
	for _, c := range conflicts {
		withConflicts[c.Event1.ID] = true
		withConflicts[c.Event2.ID] = true
	}
	percentage := 0.0
	if len(events) > 0 {
		percentage = math.Round(float64(len(conflicts))/float64(len(events))*1000) / 10
	}

	return &Report{
		AnalysisPeriod: Period{Start: now, End: end, Days: days, Timezone: "UTC"},
		Filters: Filters{
			IncludeAllDay:     opts.IncludeAllDay,
			MinOverlapMinutes: opts.MinOverlapMinutes,
			SeverityThreshold: threshold,
		},
		Conflicts:  conflicts,
		BySeverity: bySeverity,
		Summary: Summary{
			TotalConflicts: len(conflicts),
			HighSeverity:   len(bySeverity[SeverityHigh]),
			MediumSeverity: len(bySeverity[SeverityMedium]),
			LowSeverity:    len(bySeverity[SeverityLow]),
		},
		Statistics: Statistics{
			TotalEvents:         len(events),
			EventsWithConflicts: len(withConflicts),
			ConflictPercentage:  percentage,
		},
		Recommendations: recommendations(
			len(bySeverity[SeverityHigh]),
			len(bySeverity[SeverityMedium]),
			len(bySeverity[SeverityLow]),
		),
	}, nil
}

// SimpleConflicts scans the next 7 days and returns overlapping pairs
// without severity grading.
func (a *Analyzer) SimpleConflicts(includeAllDay bool) (*SimpleReport, error) {
	now := a.now().UTC()
	end := now.Add(7 * 24 * time.Hour)

	events, err := a.engine.GetEvents(query.Options{Start: now, End: end})
	if err != nil {
		return nil, err
	}

	pairs := make([]SimplePair, 0)
	for i, ev1 := range events {
		allDay1 := isAllDay(ev1)
		if !includeAllDay && allDay1 {
			continue
		}
		for _, ev2 := range events[i+1:] {
			allDay2 := isAllDay(ev2)
			if !includeAllDay && allDay2 {
				continue
			}
			if allDay1 && allDay2 {
				continue
			}
			if !overlaps(ev1, ev2) {
				continue
			}

			pairType := TypeTimeOverlap
			if allDay1 || allDay2 {
				pairType = TypeAllDayOverlap
			}
			pairs = append(pairs, SimplePair{
				Event1: SimpleEventRef{Summary: ev1.Summary, Start: ev1.Start, End: ev1.End, AllDay: allDay1},
				Event2: SimpleEventRef{Summary: ev2.Summary, Start: ev2.Start, End: ev2.End, AllDay: allDay2},
				Type:   pairType,
			})
		}
	}

	return &SimpleReport{
		Period:        fmt.Sprintf("%s to %s", now.Format("2006-01-02"), end.Format("2006-01-02")),
		Conflicts:     pairs,
		ConflictCount: len(pairs),
		IncludeAllDay: includeAllDay,
		Note:          allDayNote,
	}, nil
}

// overlaps reports whether the half-open intervals of two events intersect.
// Events touching at a boundary do not conflict; events with missing times
// never conflict.
func overlaps(ev1, ev2 ical.Event) bool {
	if ev1.Start.IsZero() || ev1.End.IsZero() || ev2.Start.IsZero() || ev2.End.IsZero() {
		return false
	}
	return ev1.Start.Before(ev2.End) && ev1.End.After(ev2.Start)
}

func analyzeOverlap(ev1, ev2 ical.Event, allDay1, allDay2 bool) (Conflict, bool) {
	if !overlaps(ev1, ev2) {
		return Conflict{}, false
	}

	overlapStart := ev1.Start
	if ev2.Start.After(overlapStart) {
		overlapStart = ev2.Start
	}
	overlapEnd := ev1.End
	if ev2.End.Before(overlapEnd) {
		overlapEnd = ev2.End
	}
	duration := overlapEnd.Sub(overlapStart)
	if duration <= 0 {
		return Conflict{}, false
	}
	minutes := int(duration / time.Minute)

	var conflictType string
	switch {
	case allDay1 || allDay2:
		conflictType = TypeAllDayOverlap
	case ev1.Start.Equal(ev2.Start) && ev1.End.Equal(ev2.End):
		conflictType = TypeExactOverlap
	case ev1.Start.Equal(ev2.Start) || ev1.End.Equal(ev2.End):
		conflictType = TypePartialOverlap
	default:
		conflictType = TypeTimeOverlap
	}

	return Conflict{
		Event1:         refOf(ev1, allDay1),
		Event2:         refOf(ev2, allDay2),
		Overlap:        Overlap{Start: overlapStart, End: overlapEnd, DurationMinutes: minutes},
		Type:           conflictType,
		OverlapMinutes: minutes,
	}, true
}

func refOf(ev ical.Event, allDay bool) EventRef {
	id := ev.UID
	if id == "" {
		id = ev.Summary
	}
	if id == "" {
		id = "unknown"
	}
	feedName := ev.SourceFeedName
	if feedName == "" {
		feedName = "unknown"
	}
	return EventRef{
		ID:      id,
		Summary: ev.Summary,
		Start:   ev.Start,
		End:     ev.End,
		AllDay:  allDay,
		Feed:    feedName,
	}
}

func severityOf(c Conflict, ev1, ev2 ical.Event) string {
	switch {
	case c.Type == TypeExactOverlap,
		c.OverlapMinutes >= 60,
		c.Type == TypeTimeOverlap && c.OverlapMinutes >= 30:
		return SeverityHigh
	case c.Type == TypeAllDayOverlap,
		c.OverlapMinutes <= 15,
		tentative(ev1) || tentative(ev2):
		return SeverityLow
	default:
		return SeverityMedium
	}
}

func tentative(ev ical.Event) bool {
	return strings.Contains(strings.ToLower(ev.Status), "tentative")
}

func meetsThreshold(severity, threshold string) bool {
	if threshold == "all" {
		return true
	}
	levels := map[string]int{SeverityLow: 1, SeverityMedium: 2, SeverityHigh: 3}
	return levels[severity] >= levels[threshold]
}

func recommendations(high, medium, low int) []string {
	out := []string{}
	if high > 0 {
		out = append(out, fmt.Sprintf("⚠️ You have %d high-severity conflicts that need immediate attention", high))
	}
	if high > 3 {
		out = append(out, "Consider rescheduling some meetings or delegating responsibilities")
	}
	if medium > 5 {
		out = append(out, "Review medium-severity conflicts to see if any can be adjusted")
	}
	if low > 10 {
		out = append(out, "Many low-severity conflicts detected - your calendar might be over-scheduled")
	}
	if high == 0 && medium == 0 {
		if low > 0 {
			out = append(out, "✅ Only low-severity conflicts found - your schedule looks manageable")
		} else {
			out = append(out, "✅ No conflicts detected - your calendar is clear!")
		}
	}
	return out
}

// isAllDay applies a loose heuristic beyond the structural flag: events
// running midnight to midnight, or spanning whole days from midnight, count
// as all-day even when their times were specified explicitly.
func isAllDay(ev ical.Event) bool {
	if ev.AllDay {
		return true
	}
	if midnight(ev.Start) && midnight(ev.End) {
		return true
	}
	if !ev.Start.IsZero() && !ev.End.IsZero() {
		d := ev.End.Sub(ev.Start)
		if d >= 24*time.Hour && d%(24*time.Hour) == 0 &&
			ev.Start.Hour() == 0 && ev.Start.Minute() == 0 {
			return true
		}
	}
	return false
}

func midnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0
}
