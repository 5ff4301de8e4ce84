package common

// GetFeedFromArgs extracts the feed identifier from request arguments.
// Tools name the argument "feed" for filters and "identifier" for feed
// management; either one is accepted. Returns "" when the request does
// not target a specific feed.
func GetFeedFromArgs(args map[string]interface{}) string {
	if feedVal, ok := args["feed"].(string); ok && feedVal != "" {
		return feedVal
	}
	if idVal, ok := args["identifier"].(string); ok && idVal != "" {
		return idVal
	}
	return ""
}
