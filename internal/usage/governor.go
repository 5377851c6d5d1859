package usage

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Governor is the single admission-control decision point. It owns no
// policy of its own: limits come from the table, state lives in the window
// store. Construct one per process and inject it; there is no package
// singleton.
type Governor struct {
	policies *PolicyTable
	store    WindowStore

	mu    sync.Mutex
	locks map[TrackingKey]*sync.Mutex
}

func NewGovernor(policies *PolicyTable, store WindowStore) *Governor {
	return &Governor{
		policies: policies,
		store:    store,
		locks:    make(map[TrackingKey]*sync.Mutex),
	}
}

// keyLock returns the exclusive lock for key, creating it on first use.
// Per-key locking keeps unrelated identities from serializing against each
// other.
func (g *Governor) keyLock(key TrackingKey) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.locks[key]
	if !ok {
		l = &sync.Mutex{}
		g.locks[key] = l
	}
	return l
}

// CheckAndRecord decides whether one message of estimatedTokens is
// admissible for key at now, and records it if so. The check and the
// record are one atomic unit per key: concurrent callers on the same key
// cannot both pass a check only one should have passed. A rejection leaves
// window state untouched.
//
// Returns nil on admit, or one of *PolicyNotFoundError,
// *PolicyIncompleteError, *QuotaError.
func (g *Governor) CheckAndRecord(ctx context.Context, key TrackingKey, estimatedTokens int64, now time.Time) error {
	limits, ok := g.policies.Resolve(key.Tier, key.Provider, key.Model)
	if !ok {
		return &PolicyNotFoundError{Tier: key.Tier, Provider: key.Provider, Model: key.Model}
	}

	// Request limits are structurally required; token limits never are.
	if limits.RequestsPerMinute <= 0 {
		return &PolicyIncompleteError{Tier: key.Tier, Field: DimensionRPM}
	}
	if limits.RequestsPerDay <= 0 {
		return &PolicyIncompleteError{Tier: key.Tier, Field: DimensionRPD}
	}

	lock := g.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := g.store.Prune(ctx, key, now); err != nil {
		return err
	}
	snap, err := g.store.Snapshot(ctx, key)
	if err != nil {
		return err
	}

	// Fixed evaluation order: rpm, rpd, tpm, tpd. Requests reject the Nth
	// event (>=); tokens reject only when the event would push usage past
	// the cap, so landing exactly on it is admitted.
	if snap.RequestsMinute >= limits.RequestsPerMinute {
		return &QuotaError{Dimension: DimensionRPM, Limit: int64(limits.RequestsPerMinute)}
	}
	if snap.RequestsDay >= limits.RequestsPerDay {
		return &QuotaError{Dimension: DimensionRPD, Limit: int64(limits.RequestsPerDay)}
	}
	if limits.TokensPerMinute != nil && snap.TokensMinute+estimatedTokens > *limits.TokensPerMinute {
		return &QuotaError{Dimension: DimensionTPM, Limit: *limits.TokensPerMinute}
	}
	if limits.TokensPerDay != nil && snap.TokensDay+estimatedTokens > *limits.TokensPerDay {
		return &QuotaError{Dimension: DimensionTPD, Limit: *limits.TokensPerDay}
	}

	return g.store.Record(ctx, key, now, estimatedTokens)
}

// KeyCount reports tracked keys when the backing store is in-memory, 0
// otherwise. Used by the health endpoint.
func (g *Governor) KeyCount() int {
	if s, ok := g.store.(*MemoryWindowStore); ok {
		return s.KeyCount()
	}
	return 0
}

// EstimateTokens approximates a message's token cost by whitespace-delimited
// word count.
func EstimateTokens(text string) int64 {
	return int64(len(strings.Fields(text)))
}
