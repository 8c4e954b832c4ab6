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

// Package fields provides a view of the fields of a struct type that
// follows the visibility and dominance rules of encoding/json: embedded
// structs are flattened, shallower fields hide deeper ones, tagged fields
// dominate untagged ones at the same depth, and ambiguous fields are
// dropped.
package fields

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

// A Field records information about a single struct field.
type Field struct {
	Name        string       // effective field name
	NameFromTag bool         // did Name come from a tag?
	Type        reflect.Type // field type
	Index       []int        // index sequence, for reflect.Value.FieldByIndex
	ParsedTag   interface{}  // third return value of the parseTag function
}

// A ParseTagFunc is a function that accepts a struct tag and returns the
// field name the tag specifies, whether the field should be kept at all,
// and any additional parsed tag information the caller wants carried on
// the Field.
type ParseTagFunc func(reflect.StructTag) (name string, keep bool, other interface{}, err error)

// A ValidateFunc is a function that accepts a reflect.Type and returns
// nil if the struct type is valid, or a non-nil error if not.
type ValidateFunc func(reflect.Type) error

// A LeafTypesFunc is a function that accepts a reflect.Type and reports
// whether it should be treated as a leaf (not flattened) even if it is a
// struct.
type LeafTypesFunc func(reflect.Type) bool

// A Cache records information about the fields of struct types.
//
// A Cache is safe for use by multiple goroutines.
type Cache struct {
	parseTag  ParseTagFunc
	validate  ValidateFunc
	leafTypes LeafTypesFunc
	cache     sync.Map // from reflect.Type to cacheValue
}

type cacheValue struct {
	fields List
	err    error
}

// NewCache constructs a Cache.
//
// Its first argument may be nil, in which case no tags are parsed and all
// exported fields are kept under their Go names. Its second and third
// arguments may also be nil.
func NewCache(parseTag ParseTagFunc, validate ValidateFunc, leafTypes LeafTypesFunc) *Cache {
	if parseTag == nil {
		parseTag = func(reflect.StructTag) (string, bool, interface{}, error) {
			return "", true, nil, nil
		}
	}
	if validate == nil {
		validate = func(reflect.Type) error { return nil }
	}
	if leafTypes == nil {
		leafTypes = func(reflect.Type) bool { return false }
	}
	return &Cache{parseTag: parseTag, validate: validate, leafTypes: leafTypes}
}

// A List is a list of Fields.
type List []Field

// MatchExact returns the field in the list with the given name, or nil if
// there is none.
func (l List) MatchExact(name string) *Field {
	for i := range l {
		if l[i].Name == name {
			return &l[i]
		}
	}
	return nil
}

// MatchFold returns the field in the list whose name best matches name.
// An exact match is preferred; otherwise the first case-insensitive match
// in field order wins. It returns nil if there is no match.
func (l List) MatchFold(name string) *Field {
	var fold *Field
	for i := range l {
		f := &l[i]
		if f.Name == name {
			return f
		}
		if fold == nil && strings.EqualFold(f.Name, name) {
			fold = f
		}
	}
	return fold
}

// Fields returns the fields of t, which must be a struct type.
// The result is cached; subsequent calls with the same type are cheap.
func (c *Cache) Fields(t reflect.Type) (List, error) {
	if t.Kind() != reflect.Struct {
		panic("fields: Fields of non-struct type")
	}
	if cv, ok := c.cache.Load(t); ok {
		v := cv.(cacheValue)
		return v.fields, v.err
	}
	if err := c.validate(t); err != nil {
		c.cache.Store(t, cacheValue{nil, err})
		return nil, err
	}
	fields, err := c.typeFields(t)
	cv, _ := c.cache.LoadOrStore(t, cacheValue{fields, err})
	v := cv.(cacheValue)
	return v.fields, v.err
}

// fieldScan represents an item on the queue of the breadth-first traversal
// of embedded structs.
type fieldScan struct {
	typ   reflect.Type
	index []int
}

// typeFields walks t and its embedded structs breadth-first, applying the
// encoding/json dominance rules to resolve name conflicts.
// The algorithm follows encoding/json's typeFields.
func (c *Cache) typeFields(t reflect.Type) (List, error) {
	current := []fieldScan{}
	next := []fieldScan{{typ: t}}
	visited := map[reflect.Type]bool{}
	var fields List

	for len(next) > 0 {
		current, next = next, current[:0]
		for _, scan := range current {
			st := scan.typ
			if visited[st] {
				continue
			}
			visited[st] = true
			for i := 0; i < st.NumField(); i++ {
				sf := st.Field(i)
				exported := sf.PkgPath == ""
				// Skip unexported fields unless they are embedded structs,
				// whose exported fields are promoted.
				if !exported && !sf.Anonymous {
					continue
				}
				tagName, keep, other, err := c.parseTag(sf.Tag)
				if err != nil {
					return nil, err
				}
				if !keep {
					continue
				}
				ft := sf.Type
				if ft.Kind() == reflect.Ptr {
					ft = ft.Elem()
				}
				index := append(append([]int(nil), scan.index...), i)

				// Record the field if it has a name from its tag, or if it
				// is not an embedded struct that should be flattened.
				if tagName != "" || !sf.Anonymous || ft.Kind() != reflect.Struct || c.leafTypes(ft) {
					if !exported {
						continue
					}
					name := tagName
					fromTag := true
					if name == "" {
						name = sf.Name
						fromTag = false
					}
					fields = append(fields, Field{
						Name:        name,
						NameFromTag: fromTag,
						Type:        sf.Type,
						Index:       index,
						ParsedTag:   other,
					})
					continue
				}
				// An embedded struct: queue it for the next level.
				next = append(next, fieldScan{typ: ft, index: index})
			}
		}
	}
	return resolveConflicts(fields), nil
}

// resolveConflicts applies the dominance rules to fields that share a
// name: the field at the shallowest depth wins; at equal depth a tagged
// field beats an untagged one; otherwise the name is dropped entirely.
func resolveConflicts(fields List) List {
	sort.SliceStable(fields, func(i, j int) bool {
		fi, fj := &fields[i], &fields[j]
		if fi.Name != fj.Name {
			return fi.Name < fj.Name
		}
		if len(fi.Index) != len(fj.Index) {
			return len(fi.Index) < len(fj.Index)
		}
		return fi.NameFromTag && !fj.NameFromTag
	})

	var out List
	for i := 0; i < len(fields); {
		j := i + 1
		for j < len(fields) && fields[j].Name == fields[i].Name {
			j++
		}
		if f, ok := dominantField(fields[i:j]); ok {
			out = append(out, f)
		}
		i = j
	}
	return out
}

// dominantField looks through the fields, all of which share a name, and
// returns the single dominant one, if any. The fields are sorted by depth
// and then by tag presence.
func dominantField(fs List) (Field, bool) {
	if len(fs) > 1 &&
		len(fs[0].Index) == len(fs[1].Index) &&
		fs[0].NameFromTag == fs[1].NameFromTag {
		return Field{}, false
	}
	return fs[0], true
}

// ParseStandardTag extracts the sub-tag named by key, then parses it using
// the de facto standard format introduced in encoding/json:
//
//	"-" means "ignore this field"
//	"name" sets the field name
//	"name,opt1,opt2" sets the name and options
//	",opt1" keeps the Go field name and sets options
func ParseStandardTag(key string, t reflect.StructTag) (name string, keep bool, options []string) {
	s := t.Get(key)
	parts := strings.Split(s, ",")
	if parts[0] == "-" && len(parts) == 1 {
		return "", false, nil
	}
	if len(parts) > 1 {
		options = parts[1:]
	}
	return parts[0], true, options
}
