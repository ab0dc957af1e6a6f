// Package protocol defines the wire messages exchanged with clients.
//
// Inbound frames are parsed in two steps: a cheap kind sniff on the raw
// bytes, then a full decode into a validated variant. Anything that
// fails either step is reported to the caller for drop-and-log; a
// partially validated frame never flows downstream.
package protocol
