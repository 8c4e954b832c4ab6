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
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"
)

// A Kind identifies the active case of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindDouble
	KindString
	KindTimestamp
	KindBytes
	KindReference
	KindGeoPoint
	KindArray
	KindMap
)

var kindNames = [...]string{
	KindNull:      "null",
	KindBoolean:   "boolean",
	KindInteger:   "integer",
	KindDouble:    "double",
	KindString:    "string",
	KindTimestamp: "timestamp",
	KindBytes:     "bytes",
	KindReference: "reference",
	KindGeoPoint:  "geoPoint",
	KindArray:     "array",
	KindMap:       "map",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// A LatLng is a geographical point.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// A Ref is the full resource path of a document, e.g.
// "projects/P/databases/(default)/documents/users/alice". Go values of
// this type encode as referenceValue.
type Ref string

// A Value represents a single Firestore value. It is a closed tagged
// union: exactly one of its cases is active, as reported by Kind. The
// zero Value is the null value.
//
// Values are immutable. The As methods probe the active case the same
// way the codec Decoder does: they return the payload and true when the
// case matches, and the zero payload and false otherwise.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string // string and reference payloads
	t    time.Time
	bs   []byte
	gp   LatLng
	arr  []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Integer returns a 64-bit integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Double returns a 64-bit floating-point value.
func Double(f float64) Value { return Value{kind: KindDouble, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Timestamp returns a timestamp value.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, t: t} }

// Bytes returns a binary value.
func Bytes(b []byte) Value { return Value{kind: KindBytes, bs: b} }

// Reference returns a document reference value holding the full
// resource path of a document.
func Reference(path string) Value { return Value{kind: KindReference, s: path} }

// GeoPoint returns a geographical point value.
func GeoPoint(lat, lng float64) Value {
	return Value{kind: KindGeoPoint, gp: LatLng{Latitude: lat, Longitude: lng}}
}

// Array returns an array value. Elements may be of mixed kinds.
func Array(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: KindArray, arr: vs}
}

// Map returns a map value. The map is used as given; callers must not
// mutate it afterwards.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// Kind reports the active case of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.b, true
}

func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsDouble() (float64, bool) {
	if v.kind != KindDouble {
		return 0, false
	}
	return v.f, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsTime() (time.Time, bool) {
	if v.kind != KindTimestamp {
		return time.Time{}, false
	}
	return v.t, true
}

func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.bs, true
}

func (v Value) AsReference() (string, bool) {
	if v.kind != KindReference {
		return "", false
	}
	return v.s, true
}

func (v Value) AsGeoPoint() (LatLng, bool) {
	if v.kind != KindGeoPoint {
		return LatLng{}, false
	}
	return v.gp, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Equal reports whether v and w are structurally equal: same kind and
// equal payloads, recursing into arrays and maps. Timestamps compare
// with time.Time.Equal, so the same instant in different locations is
// equal.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBoolean:
		return v.b == w.b
	case KindInteger:
		return v.i == w.i
	case KindDouble:
		return v.f == w.f
	case KindString, KindReference:
		return v.s == w.s
	case KindTimestamp:
		return v.t.Equal(w.t)
	case KindBytes:
		return bytes.Equal(v.bs, w.bs)
	case KindGeoPoint:
		return v.gp == w.gp
	case KindArray:
		if len(v.arr) != len(w.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(w.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(w.m) {
			return false
		}
		for k, ve := range v.m {
			we, ok := w.m[k]
			if !ok || !ve.Equal(we) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts v to the Go value that best represents it:
// nil, bool, int64, float64, string, time.Time, []byte, Ref, LatLng,
// []interface{} or map[string]interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBoolean:
		return v.b
	case KindInteger:
		return v.i
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	case KindTimestamp:
		return v.t
	case KindBytes:
		return v.bs
	case KindReference:
		return Ref(v.s)
	case KindGeoPoint:
		return v.gp
	case KindArray:
		s := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			s[i] = e.Interface()
		}
		return s
	case KindMap:
		m := make(map[string]interface{}, len(v.m))
		for k, e := range v.m {
			m[k] = e.Interface()
		}
		return m
	}
	panic("firestore: invalid Value kind")
}

// String returns a debug representation of v. It is not the wire form;
// use MarshalJSON for that.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBoolean:
		return fmt.Sprintf("%t", v.b)
	case KindInteger:
		return fmt.Sprintf("%d", v.i)
	case KindDouble:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindTimestamp:
		return v.t.Format(time.RFC3339Nano)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.bs))
	case KindReference:
		return fmt.Sprintf("ref(%s)", v.s)
	case KindGeoPoint:
		return fmt.Sprintf("geo(%g, %g)", v.gp.Latitude, v.gp.Longitude)
	case KindArray:
		elems := make([]string, len(v.arr))
		for i, e := range v.arr {
			elems[i] = e.String()
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		elems := make([]string, len(keys))
		for i, k := range keys {
			elems[i] = fmt.Sprintf("%s: %s", k, v.m[k])
		}
		return "{" + strings.Join(elems, ", ") + "}"
	}
	return fmt.Sprintf("Value(kind=%d)", int(v.kind))
}
