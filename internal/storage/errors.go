package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors for storage backends. Callers match them with errors.Is
// through the StorageError wrapper.
var (
	// ErrNotFound: the object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrKeyExists: an object already occupies the key and overwrite is
	// disabled.
	ErrKeyExists = errors.New("object already exists at this key")

	// ErrInvalidKey: the key is empty, absolute, or attempts path
	// traversal.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrTooLarge: the object exceeds the backend's size limit.
	ErrTooLarge = errors.New("object exceeds maximum size")

	// ErrAccessDenied: the provider refused the operation.
	ErrAccessDenied = errors.New("access denied")
)

// StorageError carries the failed operation and key alongside the cause.
type StorageError struct {
	Op  string // "Put", "Get", "Delete", ...
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
