// Package httputil provides shared HTTP helpers for the management client.
//
// The package currently covers retry handling. Transient failures (network
// timeouts, 5xx responses, 429 throttling) are wrapped in [RetryableError]
// by the caller; [Retry] re-attempts only those, with exponential backoff.
// Everything else is surfaced immediately.
package httputil
