// Package reaper implements the Liveness Reaper.
//
// One global sweep runs on a fixed cadence regardless of session count
// and evicts sessions whose last liveness signal is older than the
// timeout. It is the cancellation backstop for sessions whose
// transport-close event never arrived.
package reaper
