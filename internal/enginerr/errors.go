// Package enginerr holds the sentinel errors the storage engine returns, so
// callers can distinguish failure classes with errors.Is instead of parsing
// messages.
package enginerr

import "errors"

var (
	// ErrPageFull is returned when a write targets a page that has no
	// remaining capacity and the caller did not first roll to a new page.
	ErrPageFull = errors.New("engine: page is full")

	// ErrAllPagesPinned is returned by the buffer pool when eviction is
	// required but every resident frame is pinned.
	ErrAllPagesPinned = errors.New("engine: all pages pinned, cannot evict")

	// ErrNotFound is returned when a rid has no entry in the relevant
	// directory (deleted, never existed, or not yet flushed).
	ErrNotFound = errors.New("engine: record not found")

	// ErrReadOnly is returned when a write operation is attempted against
	// a table opened with OpenReadOnly.
	ErrReadOnly = errors.New("engine: table is read-only")

	// ErrDuplicateKey is returned when an index lookup performed by the
	// caller before insert would have surfaced a pre-existing key; the
	// engine itself does not check this, but exposes it so a façade can
	// surface a uniform failure.
	ErrDuplicateKey = errors.New("engine: duplicate key")

	// ErrColumnCount is returned when a record or update slice does not
	// have exactly num_columns entries.
	ErrColumnCount = errors.New("engine: wrong number of columns")

	// ErrKeyUpdate is returned when an update supplies a non-null value
	// for the key column, which the engine never allows.
	ErrKeyUpdate = errors.New("engine: update may not change the key column")

	// ErrColumnRange is returned when a column index is out of
	// [0, num_columns).
	ErrColumnRange = errors.New("engine: column index out of range")

	// ErrTableLocked is returned when acquiring the OS-level table-directory
	// lock fails because another process already holds it.
	ErrTableLocked = errors.New("engine: table is locked by another process")
)
