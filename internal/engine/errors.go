package engine

import (
	"errors"
	"fmt"
)

// ErrWrongPartition marks a batch member whose first character names a
// different partition than the batch targets.
var ErrWrongPartition = errors.New("sequence belongs to another partition")

// MalformedBatchMemberError reports one member excluded from a bulk
// operation. The rest of the batch is unaffected.
type MalformedBatchMemberError struct {
	// Sequence is the member as supplied, before normalization.
	Sequence string

	// Err is the validation failure (keyspace.ErrInvalidSequence or
	// ErrWrongPartition).
	Err error
}

// Error implements the error interface.
func (e *MalformedBatchMemberError) Error() string {
	return fmt.Sprintf("malformed batch member %q: %v", e.Sequence, e.Err)
}

func (e *MalformedBatchMemberError) Unwrap() error {
	return e.Err
}

// IsMalformedBatchMember returns true if err is or wraps a
// MalformedBatchMemberError.
func IsMalformedBatchMember(err error) bool {
	var me *MalformedBatchMemberError
	return errors.As(err, &me)
}
