// Package apperr defines the application error taxonomy. Services return
// these errors and the HTTP layer maps them to status codes in one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	KindBadRequest Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// Error carries a kind, a stable machine-readable code, and a message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, err: err}
}

// HTTPStatus returns the status code for the error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func BadRequest(code, message string) *Error {
	return &Error{Kind: KindBadRequest, Code: code, Message: message}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Internal(message string) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: message}
}

// Stable error codes surfaced in API responses.
const (
	CodeInternal           = "INTERNAL_ERROR"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUserDuplicate      = "USER_ALREADY_EXISTS"
	CodeUserForbidden      = "USER_PERMISSION_DENIED"
	CodePostNotFound       = "POST_NOT_FOUND"
	CodePostForbidden      = "POST_PERMISSION_DENIED"
	CodeCommentNotFound    = "COMMENT_NOT_FOUND"
	CodeCommentMismatch    = "COMMENT_POST_MISMATCH"
	CodeCommentForbidden   = "COMMENT_PERMISSION_DENIED"
	CodeLikeDuplicate      = "ALREADY_LIKED"
	CodeLikeNotFound       = "LIKE_NOT_FOUND"
	CodeImageNotFound      = "IMAGE_NOT_FOUND"
	CodeImageForbidden     = "IMAGE_PERMISSION_DENIED"
)

// FromError extracts an *Error, wrapping unknown errors as internal.
func FromError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("internal error").Wrap(err)
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
