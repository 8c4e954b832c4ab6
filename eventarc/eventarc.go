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

// Package eventarc decodes the payloads Eventarc delivers for Firestore
// document events. It covers the payload body only; transport concerns
// such as push-subscription plumbing or request signature verification
// are up to the caller.
package eventarc

import (
	"encoding/json"

	"firekit.dev/firestore"
	"firekit.dev/internal/fserr"
)

// Event types for Firestore document triggers.
const (
	DocumentCreated = "google.cloud.firestore.document.v1.created"
	DocumentUpdated = "google.cloud.firestore.document.v1.updated"
	DocumentDeleted = "google.cloud.firestore.document.v1.deleted"
	DocumentWritten = "google.cloud.firestore.document.v1.written"
)

// DocumentEventData is the payload of a Firestore document event.
//
// Value is the post-event state of the document; it is nil for a
// delete. OldValue is the pre-event state; it is nil for a create.
// UpdateMask lists the field paths that changed, and is only set for
// updates.
type DocumentEventData struct {
	Value      *firestore.Document
	OldValue   *firestore.Document
	UpdateMask []string
}

// wireEventData is the JSON shape of the payload.
type wireEventData struct {
	Value    *firestore.Document `json:"value,omitempty"`
	OldValue *firestore.Document `json:"oldValue,omitempty"`
	UpdateMask *struct {
		FieldPaths []string `json:"fieldPaths"`
	} `json:"updateMask,omitempty"`
}

// ParseEvent decodes a document event payload. Malformed payloads fail
// with an InvalidArgument error.
func ParseEvent(data []byte) (*DocumentEventData, error) {
	var w wireEventData
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fserr.New(fserr.InvalidArgument, err, 1, "malformed event payload")
	}
	e := &DocumentEventData{Value: w.Value, OldValue: w.OldValue}
	if w.UpdateMask != nil {
		e.UpdateMask = w.UpdateMask.FieldPaths
	}
	return e, nil
}

// Changed reports whether the event touched the given field path,
// according to the update mask. For events without a mask (creates,
// deletes, writes) it reports true.
func (e *DocumentEventData) Changed(fieldPath string) bool {
	if e.UpdateMask == nil {
		return true
	}
	for _, p := range e.UpdateMask {
		if p == fieldPath {
			return true
		}
	}
	return false
}
