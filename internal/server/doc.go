// Package server exposes the upgrade endpoint and owns the session
// lifecycle boundary.
//
// The server:
//   - Rejects bad handshakes (non-upgrade or missing params: 400,
//     failed identity check: 401) before any session exists
//   - Creates the session, sends the welcome message, arms the
//     scheduler, and runs one FIFO read loop per connection
//   - Provides the single Drop path every closure variant converges on
//     (client close, read error, send failure, reaper eviction)
package server
