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

import "time"

// A DocumentReader reads typed fields out of a map value by key. Unlike
// the reflection-driven DataTo, it makes the absent-versus-null
// distinction explicit: Contains reports presence, Null reports "absent
// or explicitly null", and the typed getters fail with a NotFound error
// for an absent key and an InvalidArgument error for a present key of
// the wrong kind.
type DocumentReader struct {
	fields map[string]Value
}

// NewDocumentReader returns a reader over v, which must be a map value.
func NewDocumentReader(v Value) (*DocumentReader, error) {
	m, ok := v.AsMap()
	if !ok {
		return nil, errTypeMismatch(KindMap, v.Kind())
	}
	return &DocumentReader{fields: m}, nil
}

// Contains reports whether the key is present, whatever its value.
func (r *DocumentReader) Contains(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// Null reports whether the key is absent or maps to an explicit null.
// Use Contains to tell the two apart.
func (r *DocumentReader) Null(key string) bool {
	v, ok := r.fields[key]
	return !ok || v.IsNull()
}

// Keys returns the field names in the reader, in unspecified order.
func (r *DocumentReader) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	return keys
}

// Value returns the raw value for key.
func (r *DocumentReader) Value(key string) (Value, error) {
	v, ok := r.fields[key]
	if !ok {
		return Value{}, errKeyNotFound(key)
	}
	return v, nil
}

func (r *DocumentReader) Bool(key string) (bool, error) {
	v, ok := r.fields[key]
	if !ok {
		return false, errKeyNotFound(key)
	}
	b, ok := v.AsBool()
	if !ok {
		return false, errKeyTypeMismatch(key, KindBoolean, v.Kind())
	}
	return b, nil
}

func (r *DocumentReader) Int(key string) (int64, error) {
	v, ok := r.fields[key]
	if !ok {
		return 0, errKeyNotFound(key)
	}
	i, ok := v.AsInt()
	if !ok {
		// A double never narrows to an integer.
		return 0, errKeyTypeMismatch(key, KindInteger, v.Kind())
	}
	return i, nil
}

// Double returns the key's value as a float64. An integer value widens;
// the reverse does not hold for Int.
func (r *DocumentReader) Double(key string) (float64, error) {
	v, ok := r.fields[key]
	if !ok {
		return 0, errKeyNotFound(key)
	}
	if f, ok := v.AsDouble(); ok {
		return f, nil
	}
	if i, ok := v.AsInt(); ok {
		return float64(i), nil
	}
	return 0, errKeyTypeMismatch(key, KindDouble, v.Kind())
}

func (r *DocumentReader) String(key string) (string, error) {
	v, ok := r.fields[key]
	if !ok {
		return "", errKeyNotFound(key)
	}
	s, ok := v.AsString()
	if !ok {
		return "", errKeyTypeMismatch(key, KindString, v.Kind())
	}
	return s, nil
}

func (r *DocumentReader) Bytes(key string) ([]byte, error) {
	v, ok := r.fields[key]
	if !ok {
		return nil, errKeyNotFound(key)
	}
	b, ok := v.AsBytes()
	if !ok {
		return nil, errKeyTypeMismatch(key, KindBytes, v.Kind())
	}
	return b, nil
}

func (r *DocumentReader) Time(key string) (time.Time, error) {
	v, ok := r.fields[key]
	if !ok {
		return time.Time{}, errKeyNotFound(key)
	}
	t, ok := v.AsTime()
	if !ok {
		return time.Time{}, errKeyTypeMismatch(key, KindTimestamp, v.Kind())
	}
	return t, nil
}

func (r *DocumentReader) Reference(key string) (string, error) {
	v, ok := r.fields[key]
	if !ok {
		return "", errKeyNotFound(key)
	}
	p, ok := v.AsReference()
	if !ok {
		return "", errKeyTypeMismatch(key, KindReference, v.Kind())
	}
	return p, nil
}

func (r *DocumentReader) GeoPoint(key string) (LatLng, error) {
	v, ok := r.fields[key]
	if !ok {
		return LatLng{}, errKeyNotFound(key)
	}
	g, ok := v.AsGeoPoint()
	if !ok {
		return LatLng{}, errKeyTypeMismatch(key, KindGeoPoint, v.Kind())
	}
	return g, nil
}

// Reader returns a nested reader for a map-valued field.
func (r *DocumentReader) Reader(key string) (*DocumentReader, error) {
	v, ok := r.fields[key]
	if !ok {
		return nil, errKeyNotFound(key)
	}
	m, ok := v.AsMap()
	if !ok {
		return nil, errKeyTypeMismatch(key, KindMap, v.Kind())
	}
	return &DocumentReader{fields: m}, nil
}

// List returns a sequential reader for an array-valued field.
func (r *DocumentReader) List(key string) (*ListReader, error) {
	v, ok := r.fields[key]
	if !ok {
		return nil, errKeyNotFound(key)
	}
	a, ok := v.AsArray()
	if !ok {
		return nil, errKeyTypeMismatch(key, KindArray, v.Kind())
	}
	return &ListReader{values: a}, nil
}

// Decode decodes the key's value into p using the reflection-driven
// decoder.
func (r *DocumentReader) Decode(key string, p interface{}) error {
	v, ok := r.fields[key]
	if !ok {
		return errKeyNotFound(key)
	}
	return DecodeValue(v, p)
}

// A ListReader consumes an array value sequentially. Each successful
// read advances the reader by one element; there is no rewind. Reading
// past the end fails with an OutOfRange error.
type ListReader struct {
	values []Value
	next   int
}

// NewListReader returns a reader over v, which must be an array value.
func NewListReader(v Value) (*ListReader, error) {
	a, ok := v.AsArray()
	if !ok {
		return nil, errTypeMismatch(KindArray, v.Kind())
	}
	return &ListReader{values: a}, nil
}

// Len returns the total number of elements.
func (l *ListReader) Len() int { return len(l.values) }

// Index returns the index of the next element to be read.
func (l *ListReader) Index() int { return l.next }

// More reports whether any elements remain.
func (l *ListReader) More() bool { return l.next < len(l.values) }

// Value returns the next element and advances the reader.
func (l *ListReader) Value() (Value, error) {
	if l.next >= len(l.values) {
		return Value{}, errOutOfBounds(l.next, len(l.values))
	}
	v := l.values[l.next]
	l.next++
	return v, nil
}

// take returns the next element if it has the wanted kind, advancing
// only on success.
func (l *ListReader) take(want Kind) (Value, error) {
	if l.next >= len(l.values) {
		return Value{}, errOutOfBounds(l.next, len(l.values))
	}
	v := l.values[l.next]
	if v.Kind() != want {
		return Value{}, errTypeMismatch(want, v.Kind())
	}
	l.next++
	return v, nil
}

// Null consumes an explicit null element. It reports false without
// advancing if the next element is not null.
func (l *ListReader) Null() (bool, error) {
	if l.next >= len(l.values) {
		return false, errOutOfBounds(l.next, len(l.values))
	}
	if !l.values[l.next].IsNull() {
		return false, nil
	}
	l.next++
	return true, nil
}

func (l *ListReader) Bool() (bool, error) {
	v, err := l.take(KindBoolean)
	if err != nil {
		return false, err
	}
	b, _ := v.AsBool()
	return b, nil
}

func (l *ListReader) Int() (int64, error) {
	v, err := l.take(KindInteger)
	if err != nil {
		return 0, err
	}
	i, _ := v.AsInt()
	return i, nil
}

// Double consumes a double or, widening, an integer element.
func (l *ListReader) Double() (float64, error) {
	if l.next >= len(l.values) {
		return 0, errOutOfBounds(l.next, len(l.values))
	}
	v := l.values[l.next]
	if f, ok := v.AsDouble(); ok {
		l.next++
		return f, nil
	}
	if i, ok := v.AsInt(); ok {
		l.next++
		return float64(i), nil
	}
	return 0, errTypeMismatch(KindDouble, v.Kind())
}

func (l *ListReader) String() (string, error) {
	v, err := l.take(KindString)
	if err != nil {
		return "", err
	}
	s, _ := v.AsString()
	return s, nil
}

func (l *ListReader) Time() (time.Time, error) {
	v, err := l.take(KindTimestamp)
	if err != nil {
		return time.Time{}, err
	}
	t, _ := v.AsTime()
	return t, nil
}

func (l *ListReader) Bytes() ([]byte, error) {
	v, err := l.take(KindBytes)
	if err != nil {
		return nil, err
	}
	b, _ := v.AsBytes()
	return b, nil
}

// Reader consumes a nested map element.
func (l *ListReader) Reader() (*DocumentReader, error) {
	v, err := l.take(KindMap)
	if err != nil {
		return nil, err
	}
	m, _ := v.AsMap()
	return &DocumentReader{fields: m}, nil
}

// List consumes a nested array element.
func (l *ListReader) List() (*ListReader, error) {
	v, err := l.take(KindArray)
	if err != nil {
		return nil, err
	}
	a, _ := v.AsArray()
	return &ListReader{values: a}, nil
}

// Decode consumes the next element into p via the reflection-driven
// decoder.
func (l *ListReader) Decode(p interface{}) error {
	v, err := l.Value()
	if err != nil {
		return err
	}
	return DecodeValue(v, p)
}
