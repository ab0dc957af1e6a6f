// Package model defines the domain types shared across the relay:
// feed ticks pushed to sessions, and the read-back records (bot
// activity, performance, risk) served on demand from the history store.
package model
