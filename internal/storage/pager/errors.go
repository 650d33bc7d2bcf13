package pager

import "errors"

// Sentinel errors for the storage engine. Call sites wrap these with
// fmt.Errorf("%s: %w", ...) to add context; callers distinguish kinds with
// errors.Is.
var (
	// ErrCapacity means a record does not fit in the target page; the
	// table engine responds by splitting the page and retrying once.
	ErrCapacity = errors.New("pager: record does not fit page")

	// ErrNotFound means a key was absent on remove/update, or a block
	// has no slots for FirstKey/LastKey/Front/Back. Schema.Lookup reports
	// a missing table name through its bool result, not this error.
	ErrNotFound = errors.New("pager: not found")

	// ErrAlreadyExists means a table name is already present in the
	// schema.
	ErrAlreadyExists = errors.New("pager: already exists")

	// ErrMalformed means a record or page decode saw an invalid length
	// prefix, an offset overflowing the buffer, or a field-count
	// mismatch.
	ErrMalformed = errors.New("pager: malformed data")

	// ErrInvalidArgument means a declared field count did not match the
	// field-descriptor vector length, or a similar caller error.
	ErrInvalidArgument = errors.New("pager: invalid argument")

	// ErrChecksum means a page's stored checksum does not verify; the
	// page must not be interpreted further.
	ErrChecksum = errors.New("pager: checksum mismatch")
)
