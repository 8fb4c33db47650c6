// Package progress defines primitives for reporting and aggregating the
// progress of script runs.  It abstracts away the underlying communication
// mechanism so that callers can consume progress updates in a uniform way
// regardless of whether they are delivered via callbacks, in-memory channels
// or external observers.
package progress
