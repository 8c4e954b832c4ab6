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
	"encoding/json"
	"path"
	"time"

	"firekit.dev/internal/fserr"
)

// A Document is a named Firestore resource with a set of fields.
// Documents are immutable once constructed: they are built either by
// encoding a Go value before a write, or by parsing wire JSON after a
// read. There is no mutation method; an "update" is a new Document.
type Document struct {
	// Name is the full resource path, e.g.
	// "projects/P/databases/(default)/documents/users/alice".
	// It is empty for a document that has not been written yet.
	Name string

	// Fields holds the document's field values. Callers must not mutate
	// the map after construction.
	Fields map[string]Value

	// CreateTime and UpdateTime are set by the service; they are zero
	// for documents constructed locally.
	CreateTime time.Time
	UpdateTime time.Time
}

// NewDocument constructs a Document from a name and fields.
func NewDocument(name string, fields map[string]Value) Document {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Document{Name: name, Fields: fields}
}

// ID returns the last component of the document's resource path, or ""
// if the document has no name yet.
func (d Document) ID() string {
	if d.Name == "" {
		return ""
	}
	return path.Base(d.Name)
}

// Value returns the document's field set as a map value.
func (d Document) Value() Value {
	return Map(d.Fields)
}

// Data converts the document's fields to their best Go representation,
// as a map from field names to values. See Value.Interface for the
// mapping.
func (d Document) Data() map[string]interface{} {
	m := make(map[string]interface{}, len(d.Fields))
	for k, v := range d.Fields {
		m[k] = v.Interface()
	}
	return m
}

// DataTo decodes the document's fields into p, which must be a pointer
// to a struct or to a map[string]interface{}.
func (d Document) DataTo(p interface{}) error {
	return DecodeValue(Map(d.Fields), p)
}

// Reader returns a DocumentReader over the document's fields.
func (d Document) Reader() *DocumentReader {
	return &DocumentReader{fields: d.Fields}
}

// Equal reports whether two documents have the same name, fields and
// times.
func (d Document) Equal(e Document) bool {
	return d.Name == e.Name &&
		d.CreateTime.Equal(e.CreateTime) &&
		d.UpdateTime.Equal(e.UpdateTime) &&
		Map(d.Fields).Equal(Map(e.Fields))
}

// wireDocument is the REST shape of a document.
type wireDocument struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]Value `json:"fields,omitempty"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

// MarshalJSON implements json.Marshaler using the REST document shape.
func (d Document) MarshalJSON() ([]byte, error) {
	w := wireDocument{Name: d.Name, Fields: d.Fields}
	if !d.CreateTime.IsZero() {
		w.CreateTime = d.CreateTime.UTC().Format(time.RFC3339Nano)
	}
	if !d.UpdateTime.IsZero() {
		w.UpdateTime = d.UpdateTime.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return fserr.New(fserr.InvalidArgument, err, 1, "malformed document")
	}
	doc := Document{Name: w.Name, Fields: w.Fields}
	if doc.Fields == nil {
		doc.Fields = map[string]Value{}
	}
	if w.CreateTime != "" {
		t, err := parseTimestamp(w.CreateTime)
		if err != nil {
			return err
		}
		doc.CreateTime = t
	}
	if w.UpdateTime != "" {
		t, err := parseTimestamp(w.UpdateTime)
		if err != nil {
			return err
		}
		doc.UpdateTime = t
	}
	*d = doc
	return nil
}

// EncodeDocument encodes x, which must be a struct, a pointer to a
// struct, or a map with string keys, into an unnamed Document. A value
// that encodes to anything other than a map is rejected.
func EncodeDocument(x interface{}) (Document, error) {
	v, err := EncodeValue(x)
	if err != nil {
		return Document{}, err
	}
	m, ok := v.AsMap()
	if !ok {
		return Document{}, fserr.Newf(fserr.InvalidArgument, nil,
			"top-level value of type %T must encode to a map, not %s", x, v.Kind())
	}
	return Document{Fields: m}, nil
}
