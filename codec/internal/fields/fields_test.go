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

package fields

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type tagOpts struct{ omitEmpty bool }

func testParseTag(t reflect.StructTag) (string, bool, interface{}, error) {
	name, keep, opts := ParseStandardTag("fire", t)
	to := tagOpts{}
	for _, o := range opts {
		if o == "omitempty" {
			to.omitEmpty = true
		}
	}
	return name, keep, to, nil
}

type Embed struct {
	E string
}

type embedUnexported struct {
	F string
}

type S struct {
	A int
	B string `fire:"renamed"`
	C bool   `fire:"-"`
	d int
	Embed
	embedUnexported
	OE int `fire:",omitempty"`
}

func TestFields(t *testing.T) {
	c := NewCache(testParseTag, nil, nil)
	got, err := c.Fields(reflect.TypeOf(S{}))
	if err != nil {
		t.Fatal(err)
	}
	want := List{
		{Name: "A", Type: reflect.TypeOf(0), Index: []int{0}, ParsedTag: tagOpts{}},
		{Name: "E", Type: reflect.TypeOf(""), Index: []int{4, 0}, ParsedTag: tagOpts{}},
		{Name: "F", Type: reflect.TypeOf(""), Index: []int{5, 0}, ParsedTag: tagOpts{}},
		{Name: "OE", Type: reflect.TypeOf(0), Index: []int{6}, ParsedTag: tagOpts{omitEmpty: true}},
		{Name: "renamed", NameFromTag: true, Type: reflect.TypeOf(""), Index: []int{1}, ParsedTag: tagOpts{}},
	}
	diff := cmp.Diff(got, want, cmp.AllowUnexported(tagOpts{}),
		cmp.Comparer(func(a, b reflect.Type) bool { return a == b }))
	if diff != "" {
		t.Errorf("fields mismatch (-got, +want):\n%s", diff)
	}
}

func TestDominance(t *testing.T) {
	type E1 struct{ X, Same int }
	type E2 struct{ Same int }
	type D struct {
		E1
		E2
		Tagged int `fire:"X"`
	}
	c := NewCache(testParseTag, nil, nil)
	got, err := c.Fields(reflect.TypeOf(D{}))
	if err != nil {
		t.Fatal(err)
	}
	// Same appears at equal depth in E1 and E2 and is dropped.
	// The tagged X dominates the untagged one from E1.
	if f := got.MatchExact("Same"); f != nil {
		t.Errorf("Same: got %+v, want nil", f)
	}
	f := got.MatchExact("X")
	if f == nil || !f.NameFromTag {
		t.Errorf("X: got %+v, want tagged field", f)
	}
}

func TestMatchFold(t *testing.T) {
	c := NewCache(testParseTag, nil, nil)
	l, err := c.Fields(reflect.TypeOf(S{}))
	if err != nil {
		t.Fatal(err)
	}
	if f := l.MatchFold("a"); f == nil || f.Name != "A" {
		t.Errorf(`MatchFold("a") = %+v, want field A`, f)
	}
	if f := l.MatchFold("RENAMED"); f == nil || f.Name != "renamed" {
		t.Errorf(`MatchFold("RENAMED") = %+v, want field renamed`, f)
	}
	if f := l.MatchFold("nope"); f != nil {
		t.Errorf(`MatchFold("nope") = %+v, want nil`, f)
	}
}
