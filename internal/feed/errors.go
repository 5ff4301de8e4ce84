package feed

import (
	"fmt"
	"net/http"
	"strings"
)

// ValidationError reports invalid caller input (bad URL, unknown feed
// identifier, malformed date). The message is written for end users and is
// returned verbatim through the tool layer.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func errMissingURL() *ValidationError {
	return &ValidationError{Message: "Calendar URL is required.\n" +
		"Please provide a valid .ics calendar URL.\n" +
		"To find calendar URLs:\n" +
		"  • Google Calendar: Settings → Calendar → Secret address in iCal format\n" +
		"  • Outlook: Settings → Shared calendars → Publish calendar → ICS link\n" +
		"  • Apple Calendar: Right-click calendar → Share Settings → Public Calendar"}
}

func errInvalidScheme(rawURL string) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf("Invalid URL format: '%s'.\n", rawURL) +
		"Calendar URLs must start with http://, https://, or webcal://.\n" +
		"Examples:\n" +
		"  • https://calendar.google.com/calendar/ical/example.ics\n" +
		"  • webcal://calendar.example.com/feed.ics\n" +
		"  • https://outlook.live.com/owa/calendar/example.ics"}
}

// NotFoundError builds the user-facing error for an unknown feed identifier,
// listing the feeds that are available.
func NotFoundError(identifier string, available []string) *ValidationError {
	feeds := "None"
	if len(available) > 0 {
		feeds = strings.Join(available, ", ")
	}
	return &ValidationError{Message: fmt.Sprintf("Calendar feed '%s' not found.\n", identifier) +
		fmt.Sprintf("Available feeds: %s\n", feeds) +
		"To manage feeds:\n" +
		"  • Use `get_calendar_feeds` to see all feeds\n" +
		"  • Use `add_calendar_feed` to add a new feed\n" +
		"  • Feed can be identified by name, ID, or URL"}
}

// InvalidDateError builds the user-facing error for a date argument that is
// not in YYYY-MM-DD form.
func InvalidDateError(param, value string) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf("Invalid %s format: '%s'.\n", param, value) +
		"Date must be in YYYY-MM-DD format.\n" +
		"Examples:\n" +
		"  • '2024-12-31' for December 31, 2024\n" +
		"  • '2024-01-15' for January 15, 2024"}
}

// FetchKind classifies a failed feed fetch.
type FetchKind string

const (
	FetchTimeout FetchKind = "timeout"
	FetchHTTP    FetchKind = "http"
	FetchParse   FetchKind = "parse"
)

// FetchError describes a failed fetch of a single feed. Guidance carries the
// remediation text surfaced to the caller; Error() is the short form stored
// on the feed itself.
type FetchError struct {
	Kind       FetchKind
	StatusCode int
	Guidance   string
	Cause      error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchTimeout:
		return "Connection timeout"
	case FetchHTTP:
		return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	default:
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return "fetch failed"
	}
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

func timeoutError(feedName string, cause error) *FetchError {
	return &FetchError{
		Kind:  FetchTimeout,
		Cause: cause,
		Guidance: fmt.Sprintf("Calendar feed '%s' timed out after 30 seconds.\n", feedName) +
			"Possible issues:\n" +
			"  • The calendar server is slow or unresponsive\n" +
			"  • Network connectivity issues\n" +
			"  • The URL might be incorrect\n" +
			"To fix:\n" +
			"  • Try refreshing again with `refresh_calendar_feeds`\n" +
			"  • Verify the calendar URL is accessible\n" +
			"  • Check if the calendar provider is online",
	}
}

func httpError(feedName string, statusCode int) *FetchError {
	var guidance string
	switch statusCode {
	case http.StatusUnauthorized:
		guidance = fmt.Sprintf("Authentication failed for calendar '%s'.\n", feedName) +
			"The calendar requires authentication.\n" +
			"To fix:\n" +
			"  • Check if the calendar URL includes authentication tokens\n" +
			"  • Regenerate the calendar's secret URL\n" +
			"  • Make sure the calendar is set to public or has proper access"
	case http.StatusNotFound:
		guidance = fmt.Sprintf("Calendar feed '%s' not found (404).\n", feedName) +
			"The calendar URL is invalid or has been removed.\n" +
			"To fix:\n" +
			"  • Verify the calendar URL is correct\n" +
			"  • Get a new sharing URL from your calendar provider\n" +
			"  • Use `remove_calendar_feed` to remove this feed\n" +
			"  • Use `add_calendar_feed` with the correct URL"
	default:
		guidance = fmt.Sprintf("HTTP error %d for calendar '%s': %s", statusCode, feedName, http.StatusText(statusCode))
	}
	return &FetchError{
		Kind:       FetchHTTP,
		StatusCode: statusCode,
		Guidance:   guidance,
	}
}

func parseError(feedName string, cause error) *FetchError {
	return &FetchError{
		Kind:  FetchParse,
		Cause: cause,
		Guidance: fmt.Sprintf("Failed to fetch calendar '%s': %v\n", feedName, cause) +
			"To diagnose:\n" +
			"  • Use `get_calendar_feeds` to check feed status\n" +
			"  • Try removing and re-adding the feed\n" +
			"  • Verify the calendar URL format is correct",
	}
}
