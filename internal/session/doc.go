// Package session persists conversation sessions and their message
// snapshots to PostgreSQL.
//
// The engine holds only a working copy of a session; this package owns
// the durable one. Saves are whole-snapshot upserts keyed by message ID,
// so the debounced writer can resend the same sequence any number of
// times without duplicating rows. Retry policy is the caller's problem:
// every failure comes back as a wrapped error and nothing is retried
// here.
package session
