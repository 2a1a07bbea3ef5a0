// Package database opens the archive backends: a pgx connection pool for
// PostgreSQL/TimescaleDB and a database/sql handle for SQLite.
package database
