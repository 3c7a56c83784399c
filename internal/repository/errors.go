package repository

import "errors"

var (
	// ErrNotFound signals the referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateFlag signals the (issue, reporter) uniqueness constraint
	// rejected a second flag.
	ErrDuplicateFlag = errors.New("duplicate flag")

	// ErrNoTransition signals a compare-and-set update matched no row: the
	// record either vanished or its guard columns changed concurrently.
	// Callers re-read the record to classify the failure.
	ErrNoTransition = errors.New("no matching transition")

	// ErrEmailTaken signals the account email uniqueness constraint fired.
	ErrEmailTaken = errors.New("email already registered")
)
