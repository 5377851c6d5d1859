package usage

import (
	"context"
	"sync"
	"time"
)

const (
	minuteWindow = time.Minute
	dayWindow    = 24 * time.Hour
)

// TrackingKey identifies one quota scope. Provider and Model may be empty
// for coarse (identity+tier only) tracking. Comparable, so it can key maps
// directly.
type TrackingKey struct {
	Identity string
	Tier     string
	Provider string
	Model    string
}

// Snapshot is the post-prune view of one key's windows.
type Snapshot struct {
	RequestsMinute int
	RequestsDay    int
	TokensMinute   int64
	TokensDay      int64
}

// WindowStore keeps per-key rolling window state. Implementations: in-memory
// (default) and redis-backed for multi-instance deployments.
type WindowStore interface {
	// Prune drops minute entries older than now-60s and day entries older
	// than now-24h. Idempotent.
	Prune(ctx context.Context, key TrackingKey, now time.Time) error

	// Snapshot returns current counts and token sums for key.
	Snapshot(ctx context.Context, key TrackingKey) (Snapshot, error)

	// Record appends one request event at now, carrying tokens into both
	// token windows.
	Record(ctx context.Context, key TrackingKey, now time.Time, tokens int64) error
}

type tokenEvent struct {
	at    time.Time
	delta int64
}

type windowState struct {
	requestsMinute []time.Time
	requestsDay    []time.Time

	// Variant (a): timestamped deltas, aged out together with requests.
	tokenEventsMinute []tokenEvent
	tokenEventsDay    []tokenEvent

	// Variant (b): legacy running sums. Never decay, so quota leaks over
	// time. Kept only for compatibility with the old tracker.
	tokensMinuteSum int64
	tokensDaySum    int64
}

// MemoryWindowStore is the in-process WindowStore. Safe for concurrent use.
type MemoryWindowStore struct {
	mu         sync.Mutex
	legacySums bool
	windows    map[TrackingKey]*windowState
}

func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{windows: make(map[TrackingKey]*windowState)}
}

// NewLegacyWindowStore counts tokens as running sums with no decay,
// matching the old tracker's behavior. Not recommended.
func NewLegacyWindowStore() *MemoryWindowStore {
	s := NewMemoryWindowStore()
	s.legacySums = true
	return s
}

func (s *MemoryWindowStore) state(key TrackingKey) *windowState {
	w, ok := s.windows[key]
	if !ok {
		w = &windowState{}
		s.windows[key] = w
	}
	return w
}

func (s *MemoryWindowStore) Prune(_ context.Context, key TrackingKey, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		return nil
	}

	w.requestsMinute = pruneTimes(w.requestsMinute, now.Add(-minuteWindow))
	w.requestsDay = pruneTimes(w.requestsDay, now.Add(-dayWindow))
	if !s.legacySums {
		w.tokenEventsMinute = pruneTokens(w.tokenEventsMinute, now.Add(-minuteWindow))
		w.tokenEventsDay = pruneTokens(w.tokenEventsDay, now.Add(-dayWindow))
	}
	return nil
}

func (s *MemoryWindowStore) Snapshot(_ context.Context, key TrackingKey) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		return Snapshot{}, nil
	}

	snap := Snapshot{
		RequestsMinute: len(w.requestsMinute),
		RequestsDay:    len(w.requestsDay),
	}
	if s.legacySums {
		snap.TokensMinute = w.tokensMinuteSum
		snap.TokensDay = w.tokensDaySum
	} else {
		snap.TokensMinute = sumTokens(w.tokenEventsMinute)
		snap.TokensDay = sumTokens(w.tokenEventsDay)
	}
	return snap, nil
}

func (s *MemoryWindowStore) Record(_ context.Context, key TrackingKey, now time.Time, tokens int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.state(key)
	w.requestsMinute = append(w.requestsMinute, now)
	w.requestsDay = append(w.requestsDay, now)
	if s.legacySums {
		w.tokensMinuteSum += tokens
		w.tokensDaySum += tokens
	} else if tokens > 0 {
		w.tokenEventsMinute = append(w.tokenEventsMinute, tokenEvent{at: now, delta: tokens})
		w.tokenEventsDay = append(w.tokenEventsDay, tokenEvent{at: now, delta: tokens})
	}
	return nil
}

// KeyCount reports how many keys have window state. Exposed for the health
// endpoint; state is never reaped for the process lifetime.
func (s *MemoryWindowStore) KeyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Entries at or before cutoff are dropped. Events are appended in arrival
// order, which is close to time order but not guaranteed strictly
// monotonic, so filter rather than binary-search.
func pruneTimes(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func pruneTokens(events []tokenEvent, cutoff time.Time) []tokenEvent {
	kept := events[:0]
	for _, e := range events {
		if e.at.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}

func sumTokens(events []tokenEvent) int64 {
	var total int64
	for _, e := range events {
		total += e.delta
	}
	return total
}
