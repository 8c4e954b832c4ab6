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
	"encoding/json"
	"regexp"
	"strings"

	"firekit.dev/internal/fserr"
)

// An Operator is a field comparison operator, written the way the
// official clients write them ("<", "==", "array-contains", ...).
type Operator string

const (
	LessThan           Operator = "<"
	LessThanOrEqual    Operator = "<="
	GreaterThan        Operator = ">"
	GreaterThanOrEqual Operator = ">="
	Equal              Operator = "=="
	NotEqual           Operator = "!="
	ArrayContains      Operator = "array-contains"
	In                 Operator = "in"
	ArrayContainsAny   Operator = "array-contains-any"
	NotIn              Operator = "not-in"
)

var operatorWire = map[Operator]string{
	LessThan:           "LESS_THAN",
	LessThanOrEqual:    "LESS_THAN_OR_EQUAL",
	GreaterThan:        "GREATER_THAN",
	GreaterThanOrEqual: "GREATER_THAN_OR_EQUAL",
	Equal:              "EQUAL",
	NotEqual:           "NOT_EQUAL",
	ArrayContains:      "ARRAY_CONTAINS",
	In:                 "IN",
	ArrayContainsAny:   "ARRAY_CONTAINS_ANY",
	NotIn:              "NOT_IN",
}

// A UnaryOperator tests a field against null or NaN.
type UnaryOperator string

const (
	IsNull    UnaryOperator = "IS_NULL"
	IsNotNull UnaryOperator = "IS_NOT_NULL"
	IsNaN     UnaryOperator = "IS_NAN"
	IsNotNaN  UnaryOperator = "IS_NOT_NAN"
)

// A CompositeOperator combines child filters.
type CompositeOperator string

const (
	AndOp CompositeOperator = "AND"
	OrOp  CompositeOperator = "OR"
)

// A Filter is a node of a query filter tree: a FieldFilter, a
// UnaryFilter, or a CompositeFilter. Two independently constructed but
// logically identical trees compare equal with Equal.
type Filter interface {
	// Equal reports structural equality with another filter.
	Equal(Filter) bool

	wire() (map[string]interface{}, error)
}

// A FieldFilter compares a field against a literal value.
type FieldFilter struct {
	// Path is the dotted field path ("room.size.width").
	Path  string
	Op    Operator
	Value Value
}

func (f FieldFilter) Equal(g Filter) bool {
	o, ok := g.(FieldFilter)
	return ok && f.Path == o.Path && f.Op == o.Op && f.Value.Equal(o.Value)
}

func (f FieldFilter) wire() (map[string]interface{}, error) {
	op, ok := operatorWire[f.Op]
	if !ok {
		return nil, fserr.Newf(fserr.InvalidArgument, nil, "invalid operator: %q", string(f.Op))
	}
	return map[string]interface{}{
		"fieldFilter": map[string]interface{}{
			"field": fieldRef(f.Path),
			"op":    op,
			"value": f.Value.wire(),
		},
	}, nil
}

// A UnaryFilter tests a single field with an operand-free operator.
type UnaryFilter struct {
	Path string
	Op   UnaryOperator
}

func (f UnaryFilter) Equal(g Filter) bool {
	o, ok := g.(UnaryFilter)
	return ok && f.Path == o.Path && f.Op == o.Op
}

func (f UnaryFilter) wire() (map[string]interface{}, error) {
	switch f.Op {
	case IsNull, IsNotNull, IsNaN, IsNotNaN:
	default:
		return nil, fserr.Newf(fserr.InvalidArgument, nil, "invalid unary operator: %q", string(f.Op))
	}
	return map[string]interface{}{
		"unaryFilter": map[string]interface{}{
			"op":    string(f.Op),
			"field": fieldRef(f.Path),
		},
	}, nil
}

// A CompositeFilter combines child filters under AND or OR. Children
// may themselves be composite, to arbitrary depth.
type CompositeFilter struct {
	Op      CompositeOperator
	Filters []Filter
}

func (f CompositeFilter) Equal(g Filter) bool {
	o, ok := g.(CompositeFilter)
	if !ok || f.Op != o.Op || len(f.Filters) != len(o.Filters) {
		return false
	}
	for i := range f.Filters {
		if !f.Filters[i].Equal(o.Filters[i]) {
			return false
		}
	}
	return true
}

func (f CompositeFilter) wire() (map[string]interface{}, error) {
	switch f.Op {
	case AndOp, OrOp:
	default:
		return nil, fserr.Newf(fserr.InvalidArgument, nil, "invalid composite operator: %q", string(f.Op))
	}
	children := make([]interface{}, len(f.Filters))
	for i, c := range f.Filters {
		w, err := c.wire()
		if err != nil {
			return nil, err
		}
		children[i] = w
	}
	return map[string]interface{}{
		"compositeFilter": map[string]interface{}{
			"op":      string(f.Op),
			"filters": children,
		},
	}, nil
}

// And combines filters conjunctively.
func And(fs ...Filter) CompositeFilter { return CompositeFilter{Op: AndOp, Filters: fs} }

// Or combines filters disjunctively.
func Or(fs ...Filter) CompositeFilter { return CompositeFilter{Op: OrOp, Filters: fs} }

// MarshalFilter serializes a filter tree to its wire JSON.
func MarshalFilter(f Filter) ([]byte, error) {
	w, err := f.wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func fieldRef(path string) map[string]interface{} {
	return map[string]interface{}{"fieldPath": serviceFieldPath(path)}
}

// Google SQL syntax for an unquoted field.
var unquotedFieldRE = regexp.MustCompile("^[A-Za-z_][A-Za-z_0-9]*$")

// serviceFieldPath converts a dotted field path into the form the
// service accepts: components that are not simple identifiers are
// quoted with backticks.
func serviceFieldPath(path string) string {
	components := strings.Split(path, ".")
	for i, c := range components {
		components[i] = serviceFieldPathComponent(c)
	}
	return strings.Join(components, ".")
}

func serviceFieldPathComponent(key string) string {
	if unquotedFieldRE.MatchString(key) {
		return key
	}
	var buf bytes.Buffer
	buf.WriteRune('`')
	for _, r := range key {
		if r == '`' || r == '\\' {
			buf.WriteRune('\\')
		}
		buf.WriteRune(r)
	}
	buf.WriteRune('`')
	return buf.String()
}
