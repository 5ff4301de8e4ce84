package feed_tools

import (
	"time"

	ics "github.com/emersion/go-ical"

	"github.com/teemow/icalmcp/internal/feed"
	"github.com/teemow/icalmcp/internal/server"
)

// FeedInfo describes one feed in the calendar info report. Loaded feeds
// carry the calendar metadata; feeds that never loaded only report
// their identity and error state.
type FeedInfo struct {
	FeedID       string     `json:"feed_id"`
	FeedName     string     `json:"feed_name"`
	FeedURL      string     `json:"feed_url"`
	CalendarName string     `json:"calendar_name,omitempty"`
	Description  string     `json:"description,omitempty"`
	Timezone     string     `json:"timezone,omitempty"`
	EventCount   int        `json:"event_count"`
	LastFetch    *time.Time `json:"last_fetch"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
}

// CalendarInfo is the get_calendar_info result.
type CalendarInfo struct {
	Status                 string     `json:"status"`
	TotalFeeds             int        `json:"total_feeds"`
	Feeds                  []FeedInfo `json:"feeds"`
	RefreshIntervalMinutes int        `json:"refresh_interval_minutes"`
}

func buildCalendarInfo(sc *server.ServerContext) CalendarInfo {
	states := sc.Registry().Snapshot()

	info := CalendarInfo{
		Status:                 "loaded",
		TotalFeeds:             len(states),
		Feeds:                  make([]FeedInfo, 0, len(states)),
		RefreshIntervalMinutes: int(sc.Scheduler().Interval() / time.Minute),
	}

	for _, st := range states {
		fi := FeedInfo{
			FeedID:   st.ID,
			FeedName: st.Name,
			FeedURL:  st.URL,
			Error:    st.Err,
		}
		if !st.LastFetch.IsZero() {
			t := st.LastFetch
			fi.LastFetch = &t
		}

		if st.Calendar != nil {
			fi.Status = feed.StatusLoaded
			fi.EventCount = feed.CountEvents(st.Calendar)
			fi.CalendarName = feed.CalendarName(st.Calendar)
			if fi.CalendarName == "" {
				fi.CalendarName = st.Name
			}
			fi.Description = calendarProp(st.Calendar, "X-WR-CALDESC")
			fi.Timezone = calendarProp(st.Calendar, "X-WR-TIMEZONE")
			if fi.Timezone == "" {
				fi.Timezone = "UTC"
			}
		} else if st.Err != "" {
			fi.Status = feed.StatusError
		} else {
			fi.Status = feed.StatusNotLoaded
		}

		info.Feeds = append(info.Feeds, fi)
	}

	return info
}

func calendarProp(cal *ics.Calendar, name string) string {
	if prop := cal.Props.Get(name); prop != nil {
		return prop.Value
	}
	return ""
}
