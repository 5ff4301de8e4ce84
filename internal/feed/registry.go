package feed

import (
	"fmt"
	"strings"
	"sync"
	"time"

	ics "github.com/emersion/go-ical"
)

// Registry holds the set of configured feeds. A single mutex guards the whole
// registry: membership changes, calendar/bookkeeping mutation after a fetch,
// and the snapshot reads the query layer works from.
type Registry struct {
	mu         sync.Mutex
	feeds      map[string]*Feed
	order      []string
	generation uint64
}

// NewRegistry returns an empty feed registry.
func NewRegistry() *Registry {
	return &Registry{
		feeds: make(map[string]*Feed),
	}
}

// Summary is the listing view of a single feed.
type Summary struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Status       string     `json:"status"`
	CalendarName string     `json:"calendar_name,omitempty"`
	EventCount   int        `json:"event_count"`
	LastFetch    *time.Time `json:"last_fetch"`
}

// State is an immutable snapshot of a feed taken under the registry lock.
// The calendar pointer is safe to read without the lock because fetches
// replace the whole calendar rather than mutating it in place.
type State struct {
	ID        string
	Name      string
	URL       string
	Calendar  *ics.Calendar
	LastFetch time.Time
	Err       string
}

// Add validates and registers a new feed URL. The second return value is
// false when the URL was already registered; in that case the existing feed
// is returned unchanged and no error is raised.
func (r *Registry) Add(rawURL, name string) (*Feed, bool, error) {
	if rawURL == "" {
		return nil, false, errMissingURL()
	}
	if !strings.HasPrefix(rawURL, "http://") &&
		!strings.HasPrefix(rawURL, "https://") &&
		!strings.HasPrefix(rawURL, "webcal://") {
		return nil, false, errInvalidScheme(rawURL)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		if r.feeds[id].URL == rawURL {
			return r.feeds[id], false, nil
		}
	}

	f := New(rawURL, name)
	r.feeds[f.ID] = f
	r.order = append(r.order, f.ID)
	r.generation++
	return f, true, nil
}

// Remove deletes a feed resolved by ID, name or URL. Unknown identifiers
// yield a ValidationError listing the available feeds.
func (r *Registry) Remove(identifier string) (*Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.findLocked(identifier)
	if f == nil {
		return nil, NotFoundError(identifier, r.availableLocked())
	}

	delete(r.feeds, f.ID)
	for i, id := range r.order {
		if id == f.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.generation++
	return f, nil
}

// Find resolves an identifier to a feed: first as an ID, then as an exact
// name or URL match.
func (r *Registry) Find(identifier string) (*Feed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.findLocked(identifier)
	return f, f != nil
}

// Resolve is Find with the user-facing not-found error attached.
func (r *Registry) Resolve(identifier string) (*Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.findLocked(identifier)
	if f == nil {
		return nil, NotFoundError(identifier, r.availableLocked())
	}
	return f, nil
}

func (r *Registry) findLocked(identifier string) *Feed {
	if f, ok := r.feeds[identifier]; ok {
		return f
	}
	for _, id := range r.order {
		f := r.feeds[id]
		if f.URL == identifier || f.Name == identifier {
			return f
		}
	}
	return nil
}

func (r *Registry) availableLocked() []string {
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		f := r.feeds[id]
		out = append(out, fmt.Sprintf("%s (ID: %s)", f.Name, f.ID))
	}
	return out
}

// List returns a listing summary for every feed in registration order.
func (r *Registry) List() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Summary, 0, len(r.order))
	for _, id := range r.order {
		f := r.feeds[id]
		s := Summary{
			ID:         f.ID,
			Name:       f.Name,
			URL:        f.URL,
			Status:     f.Status(),
			EventCount: CountEvents(f.Calendar),
		}
		if name := CalendarName(f.Calendar); name != "" {
			s.CalendarName = name
		}
		if !f.LastFetch.IsZero() {
			t := f.LastFetch
			s.LastFetch = &t
		}
		out = append(out, s)
	}
	return out
}

// Feeds returns the registered feeds in registration order. The returned
// pointers are shared; callers that read calendar state should prefer
// Snapshot.
func (r *Registry) Feeds() []*Feed {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Feed, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.feeds[id])
	}
	return out
}

// Snapshot copies the state of every feed under the lock, for lock-free
// reads by the query layer.
func (r *Registry) Snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]State, 0, len(r.order))
	for _, id := range r.order {
		f := r.feeds[id]
		out = append(out, State{
			ID:        f.ID,
			Name:      f.Name,
			URL:       f.URL,
			Calendar:  f.Calendar,
			LastFetch: f.LastFetch,
			Err:       f.Err,
		})
	}
	return out
}

// Len returns the number of registered feeds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds)
}

// Generation returns a counter that increases on every membership change or
// successful fetch. The cache layer folds it into its keys so stale entries
// fall out after mutations.
func (r *Registry) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

func (r *Registry) storeSuccess(f *Feed, cal *ics.Calendar, fetchedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.Calendar = cal
	f.LastFetch = fetchedAt
	f.Err = ""
	r.generation++
}

// storeFailure records the error marker and returns the time of the last
// successful fetch, read under the same lock so callers never touch feed
// state lock-free.
func (r *Registry) storeFailure(f *Feed, message string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Previous calendar stays available; only the error marker changes.
	f.Err = message
	r.generation++
	return f.LastFetch
}
