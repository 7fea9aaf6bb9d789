// ABOUTME: Error values for the sqlstore package
// ABOUTME: Defines ErrAlreadyOpen and ErrNoConnection sentinels

package sqlstore

import "errors"

// ErrAlreadyOpen is returned when Open is called on a handle that already
// has a live connection pool. The caller must Close first.
var ErrAlreadyOpen = errors.New("database already open")

// ErrNoConnection is returned when an operation requires an open database
// but the handle is closed.
var ErrNoConnection = errors.New("database connection closed")
