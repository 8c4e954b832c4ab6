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
	"sort"
	"testing"

	"firekit.dev/fserrors"
	"github.com/google/go-cmp/cmp"
)

func testReader(t *testing.T) *DocumentReader {
	t.Helper()
	r, err := NewDocumentReader(Map(map[string]Value{
		"b":    Boolean(true),
		"i":    Integer(3),
		"f":    Double(1.5),
		"s":    String("x"),
		"t":    Timestamp(testTime),
		"by":   Bytes([]byte{1, 2}),
		"ref":  Reference("projects/p/databases/d/documents/c/d"),
		"geo":  GeoPoint(1, 2),
		"nil":  Null(),
		"list": Array(Integer(1), Integer(2)),
		"map":  Map(map[string]Value{"inner": String("y")}),
	}))
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestDocumentReaderGetters(t *testing.T) {
	r := testReader(t)
	if b, err := r.Bool("b"); err != nil || !b {
		t.Errorf("Bool: got (%t, %v)", b, err)
	}
	if i, err := r.Int("i"); err != nil || i != 3 {
		t.Errorf("Int: got (%d, %v)", i, err)
	}
	if f, err := r.Double("f"); err != nil || f != 1.5 {
		t.Errorf("Double: got (%g, %v)", f, err)
	}
	// An integer field widens into a Double read.
	if f, err := r.Double("i"); err != nil || f != 3 {
		t.Errorf("Double(int field): got (%g, %v)", f, err)
	}
	if s, err := r.String("s"); err != nil || s != "x" {
		t.Errorf("String: got (%q, %v)", s, err)
	}
	if tm, err := r.Time("t"); err != nil || !tm.Equal(testTime) {
		t.Errorf("Time: got (%v, %v)", tm, err)
	}
	if bs, err := r.Bytes("by"); err != nil || string(bs) != "\x01\x02" {
		t.Errorf("Bytes: got (%v, %v)", bs, err)
	}
	if ref, err := r.Reference("ref"); err != nil || ref != "projects/p/databases/d/documents/c/d" {
		t.Errorf("Reference: got (%q, %v)", ref, err)
	}
	if g, err := r.GeoPoint("geo"); err != nil || g != (LatLng{Latitude: 1, Longitude: 2}) {
		t.Errorf("GeoPoint: got (%v, %v)", g, err)
	}
	inner, err := r.Reader("map")
	if err != nil {
		t.Fatal(err)
	}
	if s, err := inner.String("inner"); err != nil || s != "y" {
		t.Errorf("nested String: got (%q, %v)", s, err)
	}
	var is []int64
	if err := r.Decode("list", &is); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{1, 2}, is); diff != "" {
		t.Errorf("Decode mismatch (-want, +got):\n%s", diff)
	}
}

func TestDocumentReaderAbsentVersusNull(t *testing.T) {
	r := testReader(t)

	// Explicit null: present and null.
	if !r.Contains("nil") {
		t.Error(`Contains("nil") = false`)
	}
	if !r.Null("nil") {
		t.Error(`Null("nil") = false`)
	}

	// Absent: not present, still null.
	if r.Contains("missing") {
		t.Error(`Contains("missing") = true`)
	}
	if !r.Null("missing") {
		t.Error(`Null("missing") = false`)
	}

	// Present non-null: neither.
	if r.Null("i") {
		t.Error(`Null("i") = true`)
	}
}

func TestDocumentReaderErrors(t *testing.T) {
	r := testReader(t)

	_, err := r.Int("missing")
	if got := fserrors.Code(err); got != fserrors.NotFound {
		t.Errorf("absent key: got code %s, want NotFound", got)
	}

	// A double never narrows into an Int read.
	_, err = r.Int("f")
	if got := fserrors.Code(err); got != fserrors.InvalidArgument {
		t.Errorf("double into Int: got code %s, want InvalidArgument", got)
	}

	_, err = r.String("i")
	if got := fserrors.Code(err); got != fserrors.InvalidArgument {
		t.Errorf("int into String: got code %s, want InvalidArgument", got)
	}

	if _, err := NewDocumentReader(Integer(1)); err == nil {
		t.Error("NewDocumentReader(non-map): got nil error")
	}
}

func TestDocumentReaderKeys(t *testing.T) {
	r, err := NewDocumentReader(Map(map[string]Value{"a": Null(), "b": Null()}))
	if err != nil {
		t.Fatal(err)
	}
	keys := r.Keys()
	sort.Strings(keys)
	if diff := cmp.Diff([]string{"a", "b"}, keys); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestListReaderSequential(t *testing.T) {
	l, err := NewListReader(Array(Integer(1), String("two"), Double(3.5)))
	if err != nil {
		t.Fatal(err)
	}
	if l.Len() != 3 || l.Index() != 0 || !l.More() {
		t.Fatalf("initial state: Len=%d Index=%d More=%t", l.Len(), l.Index(), l.More())
	}
	if i, err := l.Int(); err != nil || i != 1 {
		t.Errorf("Int: got (%d, %v)", i, err)
	}
	if s, err := l.String(); err != nil || s != "two" {
		t.Errorf("String: got (%q, %v)", s, err)
	}
	if l.Index() != 2 {
		t.Errorf("Index after two reads: got %d", l.Index())
	}
	if f, err := l.Double(); err != nil || f != 3.5 {
		t.Errorf("Double: got (%g, %v)", f, err)
	}
	if l.More() {
		t.Error("More after consuming everything")
	}

	// Reading past the end is OutOfRange.
	_, err = l.Int()
	if got := fserrors.Code(err); got != fserrors.OutOfRange {
		t.Errorf("past the end: got code %s, want OutOfRange", got)
	}
}

func TestListReaderMismatchDoesNotAdvance(t *testing.T) {
	l, err := NewListReader(Array(String("x"), Integer(2)))
	if err != nil {
		t.Fatal(err)
	}
	_, err = l.Int()
	if got := fserrors.Code(err); got != fserrors.InvalidArgument {
		t.Errorf("got code %s, want InvalidArgument", got)
	}
	if l.Index() != 0 {
		t.Errorf("failed read advanced the reader to %d", l.Index())
	}
	// The element is still readable with the right kind.
	if s, err := l.String(); err != nil || s != "x" {
		t.Errorf("String: got (%q, %v)", s, err)
	}
}

func TestListReaderNull(t *testing.T) {
	l, err := NewListReader(Array(Null(), Integer(2)))
	if err != nil {
		t.Fatal(err)
	}
	ok, err := l.Null()
	if err != nil || !ok {
		t.Fatalf("Null: got (%t, %v)", ok, err)
	}
	// The next element is not null; Null reports false and stays put.
	ok, err = l.Null()
	if err != nil || ok {
		t.Fatalf("Null on non-null: got (%t, %v)", ok, err)
	}
	if i, err := l.Int(); err != nil || i != 2 {
		t.Errorf("Int: got (%d, %v)", i, err)
	}
}

func TestListReaderWidening(t *testing.T) {
	l, err := NewListReader(Array(Integer(7)))
	if err != nil {
		t.Fatal(err)
	}
	if f, err := l.Double(); err != nil || f != 7 {
		t.Errorf("Double over integer element: got (%g, %v)", f, err)
	}
}

func TestListReaderNested(t *testing.T) {
	l, err := NewListReader(Array(
		Map(map[string]Value{"a": Integer(1)}),
		Array(String("x")),
	))
	if err != nil {
		t.Fatal(err)
	}
	r, err := l.Reader()
	if err != nil {
		t.Fatal(err)
	}
	if i, err := r.Int("a"); err != nil || i != 1 {
		t.Errorf("nested Int: got (%d, %v)", i, err)
	}
	inner, err := l.List()
	if err != nil {
		t.Fatal(err)
	}
	if s, err := inner.String(); err != nil || s != "x" {
		t.Errorf("nested String: got (%q, %v)", s, err)
	}
	if l.More() {
		t.Error("More after consuming everything")
	}
}
