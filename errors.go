package memento

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompatible indicates a snapshot that was not produced by the owner
	// asked to restore it.
	ErrIncompatible = errors.New("memento: snapshot incompatible with owner")
	// ErrRejected indicates a restore guard refused the candidate state.
	ErrRejected = errors.New("memento: restore rejected by guard")
	// ErrInvalid indicates the candidate state failed its own validation.
	ErrInvalid = errors.New("memento: restored state is invalid")
	// ErrMutatorRequired indicates Mutate was called without a mutator.
	ErrMutatorRequired = errors.New("memento: mutator is required")
)

// RestoreKind classifies why a snapshot could not be adopted.
type RestoreKind int

const (
	RestoreIncompatible RestoreKind = iota + 1
	RestoreRejected
	RestoreInvalid
)

func (k RestoreKind) String() string {
	switch k {
	case RestoreIncompatible:
		return "incompatible"
	case RestoreRejected:
		return "rejected"
	case RestoreInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

func (k RestoreKind) sentinel() error {
	switch k {
	case RestoreIncompatible:
		return ErrIncompatible
	case RestoreRejected:
		return ErrRejected
	case RestoreInvalid:
		return ErrInvalid
	default:
		return nil
	}
}

// RestoreError reports a failed restore attempt. Live state is never modified
// when Restore returns a RestoreError, which is what lets a History skip the
// snapshot and retry with an older one.
type RestoreError struct {
	Kind       RestoreKind
	SnapshotID string
	Err        error
}

func (e *RestoreError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("memento: restore %s", e.Kind)
	if e.SnapshotID != "" {
		msg += fmt.Sprintf(" snapshot=%s", e.SnapshotID)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *RestoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel error of the restore kind, so callers can test
// errors.Is(err, ErrIncompatible) without unpacking the struct.
func (e *RestoreError) Is(target error) bool {
	if e == nil {
		return false
	}
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

// IsRestoreError reports whether err carries a RestoreError.
func IsRestoreError(err error) bool {
	var restoreErr *RestoreError
	return errors.As(err, &restoreErr)
}

func newRestoreError(kind RestoreKind, snapshotID string, err error) *RestoreError {
	return &RestoreError{Kind: kind, SnapshotID: snapshotID, Err: err}
}

// AccessViolation is the panic value raised when a snapshot payload is
// extracted by an owner other than the one that captured it. It signals a
// broken invariant and must not be recovered and retried.
type AccessViolation struct {
	OwnerID    string
	SnapshotID string
}

func (e *AccessViolation) Error() string {
	return fmt.Sprintf("memento: owner %s may not read payload of snapshot %s", e.OwnerID, e.SnapshotID)
}
