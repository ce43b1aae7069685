package reconcile

import (
	"errors"
	"fmt"
)

// Kind classifies restore failures.
type Kind string

const (
	// KindMalformed means a record failed validation; nothing was written.
	KindMalformed Kind = "malformed_input"
	// KindStorage means the store rejected a write; everything was rolled back.
	KindStorage Kind = "storage_fault"
)

var (
	// ErrMalformedInput matches every KindMalformed ImportError via errors.Is.
	ErrMalformedInput = errors.New("malformed input")
	// ErrStorageFault matches every KindStorage ImportError via errors.Is.
	ErrStorageFault = errors.New("storage fault")
)

// FieldError reports an invalid field of one row. Collections return it from
// Validate; Index is the row position within the collection.
type FieldError struct {
	Index int
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("record %d: field %q: %v", e.Index, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ImportError is the single structured failure returned by a restore. By the
// time it is returned the store is back to its pre-call state.
type ImportError struct {
	Kind       Kind
	Collection string
	// Index is the record position within Collection, -1 when not tied to one.
	Index int
	Field string
	Err   error
}

func (e *ImportError) Error() string {
	var where string
	switch {
	case e.Collection != "" && e.Index >= 0 && e.Field != "":
		where = fmt.Sprintf(" in %s[%d].%s", e.Collection, e.Index, e.Field)
	case e.Collection != "" && e.Index >= 0:
		where = fmt.Sprintf(" in %s[%d]", e.Collection, e.Index)
	case e.Collection != "":
		where = " in " + e.Collection
	}
	return fmt.Sprintf("restore failed: %s%s: %v", e.Kind, where, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is lets callers test the failure kind with errors.Is.
func (e *ImportError) Is(target error) bool {
	switch target {
	case ErrMalformedInput:
		return e.Kind == KindMalformed
	case ErrStorageFault:
		return e.Kind == KindStorage
	}
	return false
}

func malformed(collection string, err error) *ImportError {
	ie := &ImportError{Kind: KindMalformed, Collection: collection, Index: -1, Err: err}
	var fe *FieldError
	if errors.As(err, &fe) {
		ie.Index = fe.Index
		ie.Field = fe.Field
		ie.Err = fe.Err
	}
	return ie
}

func storageFault(collection string, index int, err error) *ImportError {
	return &ImportError{Kind: KindStorage, Collection: collection, Index: index, Err: err}
}

// Malformed reports input rejected before planning, such as a document that
// cannot be decoded. A *FieldError inside err supplies index and field.
func Malformed(collection string, err error) *ImportError {
	return malformed(collection, err)
}
