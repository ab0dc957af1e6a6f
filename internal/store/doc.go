// Package store provides read-back queries against the external
// history database.
//
// The relay never writes here; historical persistence belongs to other
// services. This package only answers on-demand reads: recent bot
// activity, performance summaries, risk inputs, and identity lookups.
package store
