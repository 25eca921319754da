// Package apperror holds the error taxonomy shared by the use cases and the
// transports. Callers compare against the exported sentinels with errors.Is
// and branch on the Kind with KindOf.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindReferential
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindReferential:
		return "referential"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Withf returns a copy carrying a more specific message. The copy still
// matches the original under errors.Is.
func (e *Error) Withf(format string, args ...any) error {
	return &detailed{base: e, msg: fmt.Sprintf(format, args...)}
}

type detailed struct {
	base *Error
	msg  string
}

func (d *detailed) Error() string { return d.msg }
func (d *detailed) Unwrap() error { return d.base }

var (
	ErrEmptyName          = New(KindValidation, "empty_name", "name cannot be empty")
	ErrNameTooLong        = New(KindValidation, "name_too_long", "name is too long")
	ErrInvalidLevel       = New(KindValidation, "invalid_level", "level must be between 1 and 5")
	ErrMissingParent      = New(KindValidation, "missing_parent", "parent is required for levels above 1")
	ErrInvalidMessage     = New(KindValidation, "invalid_message", "message body is invalid")
	ErrInvalidDisplayName = New(KindValidation, "invalid_display_name", "display name is invalid")
	ErrDisplayNameLocked  = New(KindValidation, "display_name_locked", "display name cannot change while connected")

	ErrParentNotFound       = New(KindReferential, "parent_not_found", "parent location not found")
	ErrParentLevelViolation = New(KindReferential, "parent_level_violation", "parent location must be of a lower level")
	ErrNotJoined            = New(KindReferential, "not_joined", "connection has not joined a room")

	ErrDuplicateName  = New(KindConflict, "duplicate_name", "a location with this name already exists at this level")
	ErrHasChildren    = New(KindConflict, "has_children", "location has children and cannot be deleted")
	ErrDuplicateToken = New(KindConflict, "duplicate_token", "room token already taken")

	ErrNotFound = New(KindNotFound, "not_found", "resource not found")
)

// KindOf reports the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf reports the machine readable code of err, "internal_error" when err
// carries none.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "internal_error"
}
