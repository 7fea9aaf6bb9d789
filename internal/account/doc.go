// Package account implements the live per-account handle.
//
// A Context owns exactly one sqlstore database and the blob directory next
// to it. Opening a Context migrates the database and applies the
// post-migration fixups (peer fingerprint recalculation, built-in avatar
// icons). A Context emits Events through a buffered stream that ends on
// Shutdown; StartIO, StopIO and MaybeNetwork fan lifecycle signals into the
// transports layered above.
//
// Housekeeping is the on-demand garbage collector for the blob directory:
// it deletes files no database row references anymore, preserving anything
// touched within the last hour, then restarts ephemeral-message timers and
// prunes message tombstones.
package account
