// Copyright 2025 The Firekit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fserr provides an error type for Firekit APIs.
package fserr

import (
	"fmt"
	"net/http"

	"golang.org/x/xerrors"
)

// An ErrorCode describes the error's category.
type ErrorCode int

const (
	// Returned by the Code function on a nil error. It is not a valid
	// code for an error.
	OK ErrorCode = 0

	// The error could not be categorized.
	Unknown ErrorCode = 1

	// The resource was not found.
	NotFound ErrorCode = 2

	// The resource exists, but it should not.
	AlreadyExists ErrorCode = 3

	// A value given to a Firekit API is incorrect.
	InvalidArgument ErrorCode = 4

	// An index or cursor is past the valid range for the value it addresses.
	OutOfRange ErrorCode = 5

	// The caller does not have permission for the operation.
	PermissionDenied ErrorCode = 6

	// The caller did not present valid credentials.
	Unauthenticated ErrorCode = 7

	// A precondition on the operation (such as a document's existence)
	// did not hold.
	FailedPrecondition ErrorCode = 8

	// The service rejected the request due to rate or quota limits.
	ResourceExhausted ErrorCode = 9

	// Something unexpected happened. Internal errors always indicate
	// bugs in Firekit (or possibly the backing service).
	Internal ErrorCode = 10

	// The feature is not implemented.
	Unimplemented ErrorCode = 11

	// The operation was canceled.
	Canceled ErrorCode = 12

	// The operation ran past its deadline.
	DeadlineExceeded ErrorCode = 13
)

var codeNames = map[ErrorCode]string{
	OK:                 "OK",
	Unknown:            "Unknown",
	NotFound:           "NotFound",
	AlreadyExists:      "AlreadyExists",
	InvalidArgument:    "InvalidArgument",
	OutOfRange:         "OutOfRange",
	PermissionDenied:   "PermissionDenied",
	Unauthenticated:    "Unauthenticated",
	FailedPrecondition: "FailedPrecondition",
	ResourceExhausted:  "ResourceExhausted",
	Internal:           "Internal",
	Unimplemented:      "Unimplemented",
	Canceled:           "Canceled",
	DeadlineExceeded:   "DeadlineExceeded",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ErrorCode(%d)", c)
}

// An Error describes a Firekit error.
type Error struct {
	Code  ErrorCode
	msg   string
	frame xerrors.Frame
	err   error
}

func (e *Error) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("code=%v", e.Code)
	}
	return fmt.Sprintf("%s (code=%v)", e.msg, e.Code)
}

func (e *Error) Format(s fmt.State, c rune) {
	xerrors.FormatError(e, s, c)
}

func (e *Error) FormatError(p xerrors.Printer) (next error) {
	p.Print(e.Error())
	e.frame.Format(p)
	return e.err
}

// Unwrap returns the error underlying the receiver, which may be nil.
func (e *Error) Unwrap() error {
	return e.err
}

// New returns a new error with the given code, underlying error and message. Pass 1
// for the call depth if New is called from the function raising the error; pass 2 if
// it is called from a helper function that was invoked by the original function; and
// so on.
func New(c ErrorCode, err error, callDepth int, msg string) *Error {
	return &Error{
		Code:  c,
		msg:   msg,
		frame: xerrors.Caller(callDepth),
		err:   err,
	}
}

// Newf uses format and args to format a message, then calls New.
func Newf(c ErrorCode, err error, format string, args ...interface{}) *Error {
	return New(c, err, 1, fmt.Sprintf(format, args...))
}

// HTTPCode converts an HTTP response status into an ErrorCode.
// The mapping follows the one the Firestore REST service documents
// for its canonical error codes.
func HTTPCode(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return InvalidArgument
	case http.StatusUnauthorized:
		return Unauthenticated
	case http.StatusForbidden:
		return PermissionDenied
	case http.StatusNotFound:
		return NotFound
	case http.StatusConflict:
		return AlreadyExists
	case http.StatusPreconditionFailed:
		return FailedPrecondition
	case http.StatusRequestedRangeNotSatisfiable:
		return OutOfRange
	case http.StatusTooManyRequests:
		return ResourceExhausted
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		return Internal
	case http.StatusNotImplemented:
		return Unimplemented
	default:
		return Unknown
	}
}
