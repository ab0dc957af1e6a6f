// Package dispatch implements the Message Dispatcher.
//
// The Dispatcher:
//   - Parses inbound frames into validated variants (drop-and-log on
//     parse failure; the session always survives)
//   - Routes subscription edits to the registry and answers with the
//     full resulting set
//   - Refreshes liveness on every successfully parsed frame, not only
//     explicit pings
//   - Proxies request_data frames to the external collaborators; a
//     collaborator failure becomes an error message to that session
//     only
package dispatch
