package models

// Requests and responses for the rate-limit HTTP endpoints. Defined in domain
// for consistency and reuse.

// CheckRequest carries the per-call limit policy. Burst is optional; when
// omitted it defaults to the limit, matching a bucket that holds one minute
// of traffic.
type CheckRequest struct {
	Limit int64  `json:"limit" validate:"required,gt=0"`
	Burst *int64 `json:"burst,omitempty" validate:"omitempty,gte=0"`
}

// BurstOrDefault returns the requested burst, or the limit when absent.
func (r *CheckRequest) BurstOrDefault() int64 {
	if r.Burst != nil {
		return *r.Burst
	}
	return r.Limit
}

// CheckResponse is the decision rendered to the caller.
type CheckResponse struct {
	Allowed      bool  `json:"allowed"`
	Remaining    int64 `json:"remaining"`
	RetryAfterMS int64 `json:"retry_after_ms"`
}

// HealthResponse reports store liveness.
type HealthResponse struct {
	Status string `json:"status"`
}
