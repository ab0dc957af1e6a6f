// Package scheduler implements the Streaming Scheduler.
//
// Each session gets its own cancellable periodic task:
//   - Fetches the session's current subscription set every tick
//   - Performs one immediate fetch at arm time so new clients get data
//     promptly
//   - Self-cancels when the session has left the registry
//   - Never holds the registry lock across a fetch
//
// Tasks hold only the session id; cancellation and registry removal can
// be reasoned about independently of a task's execution state.
package scheduler
