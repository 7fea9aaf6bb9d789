// Package accounts manages a directory of accounts behind a single
// registry file. The registry (accounts.toml) records every account's id,
// directory and selection state; the manager keeps one live Context per
// account and fans lifecycle operations out to all of them.
//
// Account ids are allocated from a monotonic counter and never reused, so
// an id stays unambiguous across the lifetime of the directory. Every
// registry mutation is persisted atomically before it takes effect, which
// keeps the file consistent even when a mutation is interrupted.
package accounts
