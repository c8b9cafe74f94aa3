package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrResolutionFailed means every resolution strategy was exhausted
	// without a match. Not fatal: callers may proceed with the raw ticker.
	ErrResolutionFailed = errors.New("could not resolve ticker")

	// ErrUpstreamUnavailable means a provider call failed (timeout,
	// non-2xx, malformed payload) and no fallback applied.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")

	// ErrQuotaExceeded is the quota/auth subtype of upstream failure
	// (HTTP 401/403/426/429). It triggers provider fallback chains.
	ErrQuotaExceeded = fmt.Errorf("quota exceeded: %w", ErrUpstreamUnavailable)

	// ErrNoData means a well-formed, successful response contained zero
	// records. Distinct from a transport failure; never retried.
	ErrNoData = errors.New("no data available")
)

// ErrFromStatus classifies an HTTP response status into the error
// taxonomy. Classification happens here, at the adapter boundary, from
// the status code alone; provider message text is never inspected.
func ErrFromStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusUpgradeRequired,
		status == http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %w", status, ErrQuotaExceeded)
	default:
		return fmt.Errorf("status %d: %w", status, ErrUpstreamUnavailable)
	}
}
