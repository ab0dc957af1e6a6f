// Package marketdata is the client for the external feed provider.
//
// The client:
//   - Retries retryable failures with jittered exponential backoff
//   - Caches ticks for a short TTL so many sessions streaming the same
//     symbols share one upstream request
//   - Coalesces concurrent fetches for the same symbol set
//   - Bypasses the cache when the caller forces a refresh
package marketdata
