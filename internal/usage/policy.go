package usage

// TierLimits is an immutable policy record. Token limits are optional: a
// nil pointer means unlimited on that dimension, which is different from a
// configured zero.
type TierLimits struct {
	RequestsPerMinute int
	RequestsPerDay    int
	TokensPerMinute   *int64
	TokensPerDay      *int64
}

// PolicyKey addresses one policy table entry. Provider and Model are empty
// for coarse tier-only entries.
type PolicyKey struct {
	Tier     string
	Provider string
	Model    string
}

// PolicyTable maps tiers (optionally scoped to provider+model) to limits.
// Loaded at startup, read-only afterwards.
type PolicyTable struct {
	entries map[PolicyKey]TierLimits
}

func NewPolicyTable() *PolicyTable {
	return &PolicyTable{entries: make(map[PolicyKey]TierLimits)}
}

func (t *PolicyTable) Set(key PolicyKey, limits TierLimits) {
	t.entries[key] = limits
}

// Resolve looks up limits for the given scope. Fine-grained
// (tier, provider, model) entries win over coarse tier-only entries. The
// second return is false when no policy is defined at all; a found policy
// with absent token fields is still found.
func (t *PolicyTable) Resolve(tier, provider, model string) (TierLimits, bool) {
	if provider != "" || model != "" {
		if limits, ok := t.entries[PolicyKey{Tier: tier, Provider: provider, Model: model}]; ok {
			return limits, true
		}
	}
	limits, ok := t.entries[PolicyKey{Tier: tier}]
	return limits, ok
}

func int64Ptr(v int64) *int64 { return &v }

// DefaultPolicyTable returns the stock tier set.
func DefaultPolicyTable() *PolicyTable {
	t := NewPolicyTable()
	t.Set(PolicyKey{Tier: "Free"}, TierLimits{
		RequestsPerMinute: 3,
		RequestsPerDay:    200,
		TokensPerMinute:   int64Ptr(40_000),
		TokensPerDay:      int64Ptr(1_000_000),
	})
	t.Set(PolicyKey{Tier: "Tier-1"}, TierLimits{
		RequestsPerMinute: 500,
		RequestsPerDay:    10_000,
		TokensPerMinute:   int64Ptr(200_000),
		TokensPerDay:      int64Ptr(5_000_000),
	})
	t.Set(PolicyKey{Tier: "Tier-2"}, TierLimits{
		RequestsPerMinute: 5_000,
		RequestsPerDay:    100_000,
		TokensPerMinute:   int64Ptr(2_000_000),
		TokensPerDay:      int64Ptr(50_000_000),
	})
	t.Set(PolicyKey{Tier: "Tier-3"}, TierLimits{
		RequestsPerMinute: 50_000,
		RequestsPerDay:    1_000_000,
		TokensPerMinute:   int64Ptr(20_000_000),
		TokensPerDay:      int64Ptr(500_000_000),
	})
	return t
}
