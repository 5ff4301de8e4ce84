package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseFeedEnv parses the ICAL_FEED_CONFIGS environment variable. The
// canonical format is a JSON array of {"url": ..., "name": ...} objects, but
// deployment platforms wrap and escape the value in several ways, all of
// which real users hit:
//
//   - Name="[{...}]"            (the whole assignment pasted as the value)
//   - "[{...}]"                 (surrounding quotes added by the platform)
//   - [{\"url\": ...}]          (escaped quotes)
//   - url1;url2 or name=url,... (plain delimited lists)
//
// A single JSON object is accepted as a one-element list.
func ParseFeedEnv(value string) ([]FeedConfig, error) {
	if value == "" {
		return nil, nil
	}

	if strings.Contains(value, "=") && (strings.Contains(value, `"[`) || strings.Contains(value, `'[`)) {
		jsonPart := strings.TrimSpace(strings.SplitN(value, "=", 2)[1])
		jsonPart = stripQuotes(jsonPart)
		if feeds, err := decodeFeeds(jsonPart); err == nil {
			return feeds, nil
		}
		// Fall through to the other formats.
	}

	cleaned := stripQuotes(value)
	if strings.Contains(cleaned, `\`) {
		cleaned = strings.ReplaceAll(cleaned, `\"`, `"`)
		cleaned = strings.ReplaceAll(cleaned, `\\`, `\`)
	}
	if feeds, err := decodeFeeds(cleaned); err == nil {
		return feeds, nil
	}

	// Looks like JSON but did not parse: report instead of mis-splitting it.
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("ICAL_FEED_CONFIGS contains invalid JSON: %s", truncate(value, 200))
	}
	if strings.Contains(value, `"url"`) || strings.Contains(value, `"name"`) {
		return nil, fmt.Errorf("ICAL_FEED_CONFIGS appears to be malformed JSON: %s", truncate(value, 200))
	}

	return parseDelimited(value), nil
}

func parseDelimited(value string) []FeedConfig {
	delimiter := ","
	if strings.Contains(value, ";") {
		delimiter = ";"
	}

	var feeds []FeedConfig
	for _, part := range strings.Split(value, delimiter) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, url, ok := strings.Cut(part, "="); ok {
			feeds = append(feeds, FeedConfig{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)})
		} else {
			feeds = append(feeds, FeedConfig{URL: part})
		}
	}
	return feeds
}

func decodeFeeds(raw string) ([]FeedConfig, error) {
	var feeds []FeedConfig
	if err := json.Unmarshal([]byte(raw), &feeds); err == nil {
		return feeds, nil
	}
	var single FeedConfig
	if err := json.Unmarshal([]byte(raw), &single); err != nil {
		return nil, err
	}
	return []FeedConfig{single}, nil
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
