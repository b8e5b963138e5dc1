package service

import (
	"errors"
	"fmt"

	"github.com/Asus/lattkia_store/internal/storage"
)

type Code int

const (
	CodeInternal Code = iota
	CodeInvalidArgument
	CodeFailedPrecondition
	CodeNotFound
	CodeUnauthenticated
	CodePermissionDenied
)

func (c Code) String() string {
	switch c {
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeFailedPrecondition:
		return "FAILED_PRECONDITION"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeUnauthenticated:
		return "UNAUTHENTICATED"
	case CodePermissionDenied:
		return "PERMISSION_DENIED"
	}
	return "INTERNAL"
}

// Error - ошибка бизнес-правила, которую можно показать клиенту
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewInvalidArgument(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func NewFailedPrecondition(format string, args ...any) *Error {
	return &Error{Code: CodeFailedPrecondition, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewUnauthenticated(message string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: message}
}

func NewPermissionDenied(message string) *Error {
	return &Error{Code: CodePermissionDenied, Message: message}
}

// CodeOf достаёт код из цепочки ошибок; storage.ErrNotFound считается NotFound
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	if errors.Is(err, storage.ErrNotFound) {
		return CodeNotFound
	}
	return CodeInternal
}

// notFound переводит storage.ErrNotFound в NotFound с понятным текстом
func notFound(err error, kind string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFound("%s not found", kind)
	}
	return err
}
