// Package sqlstore wraps the per-account SQLite database.
//
// A Sql handle is either closed or open. Open attaches a connection pool
// (modernc.org/sqlite via database/sql), applies the fixed per-connection
// pragmas, and brings the schema up to the newest version through the
// append-only migration table in migrations.go. Every query primitive
// (Execute, FetchOne, FetchOptional, Count, Exists, QueryGetValue) fails
// with ErrNoConnection on a closed handle.
//
// The reserved config table stores typed key/value settings, including the
// dbversion checkpoint that gates the migrations. The version numbering and
// statement sets are fixed for compatibility with existing database files;
// new schema changes get a new checkpoint appended at the end.
//
// Transactions use a scoped handle: Begin, defer Rollback, explicit Commit.
// Transaction is the closure convenience built on top of it.
package sqlstore
