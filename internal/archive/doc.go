// Package archive persists accepted price samples to a time-series table.
//
// The archive is write-only: the dashboard never reads samples back. A
// Writer receives samples from the dispatch loop through a bounded Queue
// (oldest entries are dropped under back-pressure) and inserts them in
// batches into a Store backed by PostgreSQL (pgx) or SQLite.
package archive
