package types

import (
	"errors"
	"fmt"
)

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Store operation errors.
var (
	ErrNotFound             = errors.New("entity not found")
	ErrInvalidID            = errors.New("invalid entity ID")
	ErrInvalidCategory      = errors.New("invalid attribute category")
	ErrMissingArticleNumber = errors.New("record has no article number")
	ErrInvalidSourceURL     = errors.New("source url must not be empty")
)

// StorageError wraps a failure of the durable store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
