// Package apperr classifies the failures the domain packages can return.
// Callers switch on Kind; the routing layer maps kinds to responses.
package apperr

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindDuplicateAction Kind = "DUPLICATE_ACTION"
	KindInvalidInput    Kind = "INVALID_INPUT"
	KindStorageFailure  Kind = "STORAGE_FAILURE"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrDuplicateAction = &Error{Kind: KindDuplicateAction}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrStorageFailure  = &Error{Kind: KindStorageFailure}
)

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Duplicate(format string, args ...any) error {
	return &Error{Kind: KindDuplicateAction, Msg: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence error. Errors that are already classified
// pass through untouched so a rollback never reclassifies them.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorageFailure, Msg: op, Err: err}
}

// KindOf classifies err. Anything unclassified counts as a storage failure.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorageFailure
}

// IsDuplicateKey reports whether err is a unique-index violation
// (requires gorm.Config.TranslateError).
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
