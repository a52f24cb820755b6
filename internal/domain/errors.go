package domain

import (
	"fmt"
	"time"
)

// UpstreamError is a non-2xx response from a dependency. Fatal for the price
// and synthesis paths, degraded-to-empty for the enrichment adapters.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s upstream error %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Provider, e.Message)
}

// MalformedResponseError means an AI response carried no extractable JSON, or
// the extracted JSON failed to parse.
type MalformedResponseError struct {
	Provider string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s returned malformed response: %s", e.Provider, e.Reason)
}

// ConfigMissingError: a required credential is absent.
type ConfigMissingError struct {
	Key string
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Key)
}

// RateLimitedError carries a machine-readable hint for when to retry.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}

// CooldownError rejects a force refresh still inside its cooldown window.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("refresh cooldown active, retry after %s", e.RetryAfter.Round(time.Second))
}

// BudgetExceededError: the global daily synthesis budget is spent.
type BudgetExceededError struct {
	ResetAt time.Time
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("daily capacity exhausted, try again after %s", e.ResetAt.UTC().Format(time.RFC3339))
}
