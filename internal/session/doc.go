// Package session implements the Session Registry.
//
// The Registry:
//   - Is the single authoritative table of live sessions
//   - Owns all session mutation (subscriptions, liveness) behind one lock
//   - Hands out point-in-time snapshots for iteration, never the raw map
//   - Makes remove-and-cleanup a single atomic step via Remove's return
package session
