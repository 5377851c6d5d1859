package usage

import "fmt"

// Quota dimensions, in the order the governor evaluates them.
const (
	DimensionRPM = "rpm"
	DimensionRPD = "rpd"
	DimensionTPM = "tpm"
	DimensionTPD = "tpd"
)

// Returned when no limits are configured for the requested
// tier/provider/model combination. This is a configuration error, not a
// quota violation.
type PolicyNotFoundError struct {
	Tier     string
	Provider string
	Model    string
}

func (e *PolicyNotFoundError) Error() string {
	if e.Provider != "" || e.Model != "" {
		return fmt.Sprintf("rate limits not defined for tier=%q provider=%q model=%q", e.Tier, e.Provider, e.Model)
	}
	return fmt.Sprintf("rate limits not defined for tier=%q", e.Tier)
}

// Returned when a policy exists but is missing a limit field the
// governance mode requires. Treated as server misconfiguration.
type PolicyIncompleteError struct {
	Tier  string
	Field string
}

func (e *PolicyIncompleteError) Error() string {
	return fmt.Sprintf("missing rate limit field %q in policy for tier=%q", e.Field, e.Tier)
}

// QuotaError reports which window limit rejected the request.
type QuotaError struct {
	Dimension string
	Limit     int64
}

func (e *QuotaError) Error() string {
	switch e.Dimension {
	case DimensionRPM:
		return "Rate limit exceeded: Too many requests per minute."
	case DimensionRPD:
		return "Daily request limit reached."
	case DimensionTPM:
		return "Token limit exceeded: Too many tokens per minute."
	case DimensionTPD:
		return "Daily token limit reached."
	}
	return fmt.Sprintf("quota exceeded on %s", e.Dimension)
}
