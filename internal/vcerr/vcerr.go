// Package vcerr defines the error taxonomy shared by every repository
// operation. Commands classify failures by Kind to pick an exit status.
package vcerr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindAlreadyExists      Kind = "ALREADY_EXISTS"
	KindInvalidPath        Kind = "INVALID_PATH"
	KindUncommittedChanges Kind = "UNCOMMITTED_CHANGES"
	KindEmptyRepository    Kind = "EMPTY_REPOSITORY"
	KindNothingStaged      Kind = "NOTHING_STAGED"
	KindInternal           Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func AlreadyExists(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

func InvalidPath(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidPath, Message: fmt.Sprintf(format, args...)}
}

func UncommittedChanges(format string, args ...any) *Error {
	return &Error{Kind: KindUncommittedChanges, Message: fmt.Sprintf(format, args...)}
}

func EmptyRepository(format string, args ...any) *Error {
	return &Error{Kind: KindEmptyRepository, Message: fmt.Sprintf(format, args...)}
}

func NothingStaged(format string, args ...any) *Error {
	return &Error{Kind: KindNothingStaged, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error while keeping it unwrappable.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the kind carried by err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
