// Package gateway implements the Broadcast Gateway: single-session
// pushes and filtered fan-out to all live sessions.
//
// Send failures are treated as session death. The gateway reports them
// through a drop callback so removal and scheduler cancellation happen
// on the one shared cleanup path; a failed send never aborts the rest
// of a broadcast.
package gateway
