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

package firestore

import (
	"firekit.dev/internal/fserr"
)

// Error constructors shared by the decoder and the readers. Callers
// distinguish the conditions by code (fserrors.NotFound for a missing
// key, fserrors.OutOfRange for reading past the end of an array,
// fserrors.InvalidArgument for everything else); the messages carry the
// failing key, index or kind pair.

func errKeyNotFound(key string) error {
	return fserr.New(fserr.NotFound, nil, 3, "no field "+quote(key))
}

func errTypeMismatch(expected, actual Kind) error {
	return fserr.New(fserr.InvalidArgument, nil, 3,
		"type mismatch: expected "+expected.String()+", got "+actual.String())
}

func errKeyTypeMismatch(key string, expected, actual Kind) error {
	return fserr.New(fserr.InvalidArgument, nil, 3,
		"field "+quote(key)+": type mismatch: expected "+expected.String()+", got "+actual.String())
}

func errOutOfBounds(index, length int) error {
	return fserr.Newf(fserr.OutOfRange, nil, "index %d out of bounds for array of length %d", index, length)
}

func errInvalidTarget(p interface{}) error {
	return fserr.Newf(fserr.InvalidArgument, nil, "decode target %T must be a non-nil pointer", p)
}

func quote(s string) string { return `"` + s + `"` }
