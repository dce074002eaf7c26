// Package history provides a local SQLite journal of executions started
// from the oo CLI. It is an append-only audit of what the CLI submitted and
// how each execution ended; it is never consulted to answer API queries, so
// the client stays cache-free.
package history
