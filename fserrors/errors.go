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

// Package fserrors provides support for getting error codes from
// errors returned by Firekit APIs.
package fserrors

import (
	"context"
	"errors"

	"firekit.dev/internal/fserr"
)

// An ErrorCode describes the error's category. Programs should act upon an error's
// code, not its message.
type ErrorCode = fserr.ErrorCode

const (
	// Returned by the Code function on a nil error. It is not a valid
	// code for an error.
	OK ErrorCode = fserr.OK

	// The error could not be categorized.
	Unknown ErrorCode = fserr.Unknown

	// The resource was not found.
	NotFound ErrorCode = fserr.NotFound

	// The resource exists, but it should not.
	AlreadyExists ErrorCode = fserr.AlreadyExists

	// A value given to a Firekit API is incorrect.
	InvalidArgument ErrorCode = fserr.InvalidArgument

	// An index or cursor is past the valid range for the value it addresses.
	OutOfRange ErrorCode = fserr.OutOfRange

	// The caller does not have permission for the operation.
	PermissionDenied ErrorCode = fserr.PermissionDenied

	// The caller did not present valid credentials.
	Unauthenticated ErrorCode = fserr.Unauthenticated

	// A precondition on the operation did not hold.
	FailedPrecondition ErrorCode = fserr.FailedPrecondition

	// The service rejected the request due to rate or quota limits.
	ResourceExhausted ErrorCode = fserr.ResourceExhausted

	// Something unexpected happened. Internal errors always indicate
	// bugs in Firekit (or possibly the backing service).
	Internal ErrorCode = fserr.Internal

	// The feature is not implemented.
	Unimplemented ErrorCode = fserr.Unimplemented

	// The operation was canceled.
	Canceled ErrorCode = fserr.Canceled

	// The operation ran past its deadline.
	DeadlineExceeded ErrorCode = fserr.DeadlineExceeded
)

// Code returns the ErrorCode of err if it, or some error it wraps, is an *Error.
// If err is context.Canceled or context.DeadlineExceeded, or wraps one of those errors,
// it returns the Canceled or DeadlineExceeded codes, respectively.
// If err is nil, it returns the special code OK.
// Otherwise, it returns Unknown.
func Code(err error) ErrorCode {
	if err == nil {
		return OK
	}
	var e *fserr.Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, context.Canceled) {
		return Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return DeadlineExceeded
	}
	return Unknown
}
