package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()

	f, created, err := r.Add("https://example.com/cal.ics", "work")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "work", f.Name)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryAddValidation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty url", ""},
		{"ftp scheme", "ftp://example.com/cal.ics"},
		{"no scheme", "example.com/cal.ics"},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := r.Add(tt.url, "")
			require.Error(t, err)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
	assert.Equal(t, 0, r.Len(), "invalid URLs must not be registered")
}

func TestRegistryAddAcceptedSchemes(t *testing.T) {
	r := NewRegistry()
	for _, u := range []string{
		"http://example.com/a.ics",
		"https://example.com/b.ics",
		"webcal://example.com/c.ics",
	} {
		_, created, err := r.Add(u, "")
		require.NoError(t, err, u)
		assert.True(t, created, u)
	}
}

func TestRegistryAddDuplicate(t *testing.T) {
	r := NewRegistry()

	first, created, err := r.Add("https://example.com/cal.ics", "work")
	require.NoError(t, err)
	require.True(t, created)

	// Same URL again, even with a different name, returns the existing feed.
	second, created, err := r.Add("https://example.com/cal.ics", "other")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, "work", second.Name)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryFind(t *testing.T) {
	r := NewRegistry()
	f, _, err := r.Add("https://example.com/cal.ics", "work")
	require.NoError(t, err)

	byID, ok := r.Find(f.ID)
	assert.True(t, ok)
	assert.Same(t, f, byID)

	byName, ok := r.Find("work")
	assert.True(t, ok)
	assert.Same(t, f, byName)

	byURL, ok := r.Find("https://example.com/cal.ics")
	assert.True(t, ok)
	assert.Same(t, f, byURL)

	_, ok = r.Find("nonsense")
	assert.False(t, ok)
}

func TestRegistryResolveNotFound(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.Add("https://example.com/cal.ics", "work")
	require.NoError(t, err)

	_, err = r.Resolve("missing")
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "'missing' not found")
	assert.Contains(t, ve.Message, "work", "error should list available feeds")
}

func TestRegistryResolveNotFoundEmpty(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available feeds: None")
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	f, _, err := r.Add("https://example.com/cal.ics", "work")
	require.NoError(t, err)

	removed, err := r.Remove("work")
	require.NoError(t, err)
	assert.Same(t, f, removed)
	assert.Equal(t, 0, r.Len())

	_, err = r.Remove("work")
	require.Error(t, err)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	a, _, err := r.Add("https://alpha.example.com/cal.ics", "")
	require.NoError(t, err)
	b, _, err := r.Add("https://beta.example.com/cal.ics", "beta-cal")
	require.NoError(t, err)

	cal, err := decodeCalendar("alpha", []byte(sampleICS))
	require.NoError(t, err)
	r.storeSuccess(a, cal, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
	r.storeFailure(b, "Connection timeout")

	list := r.List()
	require.Len(t, list, 2)

	assert.Equal(t, StatusLoaded, list[0].Status)
	assert.Equal(t, 2, list[0].EventCount)
	assert.Equal(t, "Team Calendar", list[0].CalendarName)
	require.NotNil(t, list[0].LastFetch)

	assert.Equal(t, StatusError, list[1].Status)
	assert.Equal(t, "beta-cal", list[1].Name)
	assert.Nil(t, list[1].LastFetch)
}

func TestRegistryStaleOnFailure(t *testing.T) {
	r := NewRegistry()
	f, _, err := r.Add("https://example.com/cal.ics", "")
	require.NoError(t, err)

	cal, err := decodeCalendar("test", []byte(sampleICS))
	require.NoError(t, err)
	fetched := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	r.storeSuccess(f, cal, fetched)
	r.storeFailure(f, "HTTP 500 Internal Server Error")

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.NotNil(t, snap[0].Calendar, "stale calendar must survive a failed fetch")
	assert.Equal(t, fetched, snap[0].LastFetch)
	assert.Equal(t, "HTTP 500 Internal Server Error", snap[0].Err)
}

func TestRegistryGeneration(t *testing.T) {
	r := NewRegistry()
	g0 := r.Generation()

	f, _, err := r.Add("https://example.com/cal.ics", "")
	require.NoError(t, err)
	g1 := r.Generation()
	assert.Greater(t, g1, g0)

	// Duplicate add is not a mutation.
	_, _, err = r.Add("https://example.com/cal.ics", "")
	require.NoError(t, err)
	assert.Equal(t, g1, r.Generation())

	cal, err := decodeCalendar("test", []byte(sampleICS))
	require.NoError(t, err)
	r.storeSuccess(f, cal, time.Now().UTC())
	g2 := r.Generation()
	assert.Greater(t, g2, g1)

	_, err = r.Remove(f.ID)
	require.NoError(t, err)
	assert.Greater(t, r.Generation(), g2)
}
