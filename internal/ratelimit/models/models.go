package models

import "time"

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// QuotaUsage is the daily usage of one API key.
type QuotaUsage struct {
	KeyID     string `json:"-"`
	Limit     int    `json:"daily_limit"`
	Used      int    `json:"used_today"`
	Remaining int    `json:"remaining"`
}

// QuotaExceededResponse is the 429 body.
type QuotaExceededResponse struct {
	Error      string    `json:"error"`
	Message    string    `json:"error_description"`
	QuotaLimit int       `json:"quota_limit"`
	QuotaReset time.Time `json:"quota_reset"`
	RetryAfter int       `json:"retry_after"`
}
