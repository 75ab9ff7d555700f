package memory

import (
	"context"
	"io"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/ispstatus-go/internal/core/domain"
)

// Registry holds the latest status and last-update timestamp per label set.
//
// The two maps share keys but not membership: a backfilled label set has a
// last-update entry without a status entry.
type Registry struct {
	mu          sync.RWMutex
	statuses    map[string]int64
	lastUpdates map[string]int64

	now func() time.Time
}

// Option configures the Registry.
type Option func(*Registry)

// WithClock overrides the clock used to stamp upserts.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		statuses:    make(map[string]int64),
		lastUpdates: make(map[string]int64),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Upsert overwrites the status of labels and stamps its last update with the
// current time. It returns the timestamp written.
func (r *Registry) Upsert(_ context.Context, labels domain.LabelSet, status int) int64 {
	key := labels.Key()
	ts := r.now().Unix()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.statuses[key] = int64(status)
	r.lastUpdates[key] = ts
	return ts
}

// Backfill seeds last-update timestamps for label sets that have none.
// Entries are processed in order; an entry whose label set already has a
// last-update value is skipped, including a duplicate earlier in the same batch.
func (r *Registry) Backfill(_ context.Context, entries []domain.BackfillEntry) domain.BackfillResult {
	var res domain.BackfillResult

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		key := e.Labels.Key()
		if _, ok := r.lastUpdates[key]; ok {
			res.Skipped++
			continue
		}
		r.lastUpdates[key] = e.LastUpdate
		res.Applied++
	}
	return res
}

// Delete removes labels from both maps. It reports whether anything was removed.
func (r *Registry) Delete(_ context.Context, labels domain.LabelSet) bool {
	key := labels.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, hadStatus := r.statuses[key]
	_, hadLastUpdate := r.lastUpdates[key]
	delete(r.statuses, key)
	delete(r.lastUpdates, key)
	return hadStatus || hadLastUpdate
}

// Len returns the number of status and last-update entries.
func (r *Registry) Len() (statuses, lastUpdates int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.statuses), len(r.lastUpdates)
}

// Lines returns the exposition lines: every status entry, then every
// last-update entry, each group ordered by label key.
//
// The registry is snapshotted when iteration starts, so the sequence reflects
// a single consistent state and no lock is held while the caller consumes it.
func (r *Registry) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		statuses, lastUpdates := r.snapshot()
		for _, s := range statuses {
			if !yield(domain.FormatLine(domain.MetricStatus, s.key, s.value)) {
				return
			}
		}
		for _, s := range lastUpdates {
			if !yield(domain.FormatLine(domain.MetricLastUpdate, s.key, s.value)) {
				return
			}
		}
	}
}

// WriteTo writes the exposition body to w. Every line is newline-terminated;
// an empty registry produces a single newline.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	var written int64
	empty := true

	for line := range r.Lines() {
		empty = false
		n, err := io.WriteString(w, line+"\n")
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	if empty {
		n, err := io.WriteString(w, "\n")
		return int64(n), err
	}
	return written, nil
}

type entry struct {
	key   string
	value int64
}

func (r *Registry) snapshot() (statuses, lastUpdates []entry) {
	r.mu.RLock()
	statuses = collect(r.statuses)
	lastUpdates = collect(r.lastUpdates)
	r.mu.RUnlock()

	sortEntries(statuses)
	sortEntries(lastUpdates)
	return statuses, lastUpdates
}

func collect(m map[string]int64) []entry {
	out := make([]entry, 0, len(m))
	for k, v := range m {
		out = append(out, entry{key: k, value: v})
	}
	return out
}

func sortEntries(entries []entry) {
	slices.SortFunc(entries, func(a, b entry) int {
		return strings.Compare(a.key, b.key)
	})
}
