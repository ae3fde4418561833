package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNameRequired    = errors.New("album name is required")
	ErrTitleRequired   = errors.New("track title is required")
	ErrSiblingConflict = errors.New("an album with this name already exists under the same parent")
	ErrParentCycle     = errors.New("an album cannot be moved under itself or one of its sub-albums")
	ErrParentNotFound  = errors.New("parent album does not exist")
	ErrAlbumInUse      = errors.New("album still has tracks")
	ErrNotFound        = errors.New("not found")
	ErrNothingToSave   = errors.New("no unsaved changes")
	ErrDirty           = errors.New("catalog has unsaved changes")
)

// LoadError is returned when the catalog document is missing or unparseable.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("could not load catalog: %v", e.Err)
	}
	return fmt.Sprintf("could not load catalog %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ValidationError wraps one of the sentinel rule violations with the field
// that caused it.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError is returned when writing the document fails. The store
// keeps its contents and dirty flag so the save can be retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
