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
	"math"

	"firekit.dev/internal/fserr"
)

// A Direction orders query results on a field.
type Direction string

const (
	Ascending  Direction = "ASCENDING"
	Descending Direction = "DESCENDING"
)

// An Order is a single orderBy clause.
type Order struct {
	Path      string
	Direction Direction
}

// A Cursor positions a query relative to a tuple of field values, one
// per orderBy clause. Inclusive controls whether a document at exactly
// the cursor position is part of the result.
type Cursor struct {
	Values    []Value
	Inclusive bool
}

// A Query describes a structured query over a collection. The zero
// Query is not usable; start from NewQuery.
//
// Query is an immutable value: every builder method returns a new Query
// and leaves its receiver untouched, so a partially built query can be
// stored and extended in several directions. Invalid input (an unknown
// operator, a value that fails to encode) does not fail the builder
// call; the error sticks to the returned Query and surfaces from Err
// and MarshalJSON.
type Query struct {
	collectionID   string
	allDescendants bool
	filter         Filter
	orders         []Order
	projection     []string
	offset         int
	limit          int // 0 means no limit
	start, end     *Cursor
	err            error
}

// NewQuery returns a query over the collection with the given ID,
// scoped to direct children of the query's parent.
func NewQuery(collectionID string) Query {
	return Query{collectionID: collectionID}
}

// CollectionID returns the collection the query runs over.
func (q Query) CollectionID() string { return q.collectionID }

// Filter returns the query's filter tree, or nil if none has been set.
func (q Query) Filter() Filter { return q.filter }

// Err returns the first error recorded while building the query, if
// any. A query with a non-nil Err cannot be serialized or run.
func (q Query) Err() error { return q.err }

func (q Query) withErr(err error) Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// CollectionGroup widens the query to every collection with the
// query's collection ID anywhere beneath the parent, not just direct
// children.
func (q Query) CollectionGroup() Query {
	q.allDescendants = true
	return q
}

// Where returns a query with an additional field filter. op is one of
// the Operator constants. value may be any encodable Go value or a
// Value.
//
// Two special operands produce unary filters: a nil value with "==" or
// "!=" tests for null, and a NaN float with "==" or "!=" tests for NaN.
//
// Successive Where calls combine conjunctively: the second call wraps
// the existing filter and the new one in an AND composite, and further
// calls extend that composite.
func (q Query) Where(path string, op Operator, value interface{}) Query {
	if uop, ok := unaryOpFor(op, value); ok {
		return q.WhereFilter(UnaryFilter{Path: path, Op: uop})
	}
	if _, ok := operatorWire[op]; !ok {
		return q.withErr(fserr.Newf(fserr.InvalidArgument, nil, "invalid operator: %q", string(op)))
	}
	v, err := encodeOperand(op, value)
	if err != nil {
		return q.withErr(err)
	}
	return q.WhereFilter(FieldFilter{Path: path, Op: op, Value: v})
}

// WhereFilter returns a query with f added to the filter, combined with
// any existing filter under AND.
func (q Query) WhereFilter(f Filter) Query {
	switch existing := q.filter.(type) {
	case nil:
		q.filter = f
	case CompositeFilter:
		if existing.Op == AndOp {
			fs := make([]Filter, len(existing.Filters), len(existing.Filters)+1)
			copy(fs, existing.Filters)
			q.filter = CompositeFilter{Op: AndOp, Filters: append(fs, f)}
			break
		}
		q.filter = And(existing, f)
	default:
		q.filter = And(existing, f)
	}
	return q
}

// unaryOpFor reports the unary operator corresponding to comparing
// against value with op, if there is one.
func unaryOpFor(op Operator, value interface{}) (UnaryOperator, bool) {
	if op != Equal && op != NotEqual {
		return "", false
	}
	not := op == NotEqual
	switch v := value.(type) {
	case nil:
		if not {
			return IsNotNull, true
		}
		return IsNull, true
	case float32:
		if !math.IsNaN(float64(v)) {
			return "", false
		}
	case float64:
		if !math.IsNaN(v) {
			return "", false
		}
	case Value:
		if f, ok := v.AsDouble(); ok && math.IsNaN(f) {
			break
		}
		if v.IsNull() {
			if not {
				return IsNotNull, true
			}
			return IsNull, true
		}
		return "", false
	default:
		return "", false
	}
	if not {
		return IsNotNaN, true
	}
	return IsNaN, true
}

// encodeOperand encodes a filter operand. The list operators take a Go
// slice and compare against an array value.
func encodeOperand(op Operator, value interface{}) (Value, error) {
	if v, ok := value.(Value); ok {
		return v, nil
	}
	v, err := EncodeValue(value)
	if err != nil {
		return Value{}, err
	}
	switch op {
	case In, NotIn, ArrayContainsAny:
		if v.Kind() != KindArray {
			return Value{}, fserr.Newf(fserr.InvalidArgument, nil,
				"operand for %q must be a slice or array, got %s", string(op), v.Kind())
		}
	}
	return v, nil
}

// OrderBy returns a query with an additional sort key, appended after
// any existing ones.
func (q Query) OrderBy(path string, dir Direction) Query {
	orders := make([]Order, len(q.orders), len(q.orders)+1)
	copy(orders, q.orders)
	q.orders = append(orders, Order{Path: path, Direction: dir})
	return q
}

// Limit returns a query that fetches at most n results. It replaces any
// previous limit.
func (q Query) Limit(n int) Query {
	if n <= 0 {
		return q.withErr(fserr.Newf(fserr.InvalidArgument, nil, "limit must be positive, got %d", n))
	}
	q.limit = n
	return q
}

// Offset returns a query that skips the first n results. It replaces
// any previous offset.
func (q Query) Offset(n int) Query {
	if n < 0 {
		return q.withErr(fserr.Newf(fserr.InvalidArgument, nil, "offset must be non-negative, got %d", n))
	}
	q.offset = n
	return q
}

// Select returns a query that retrieves only the given field paths. It
// replaces any previous projection. With no arguments, only the
// document name is retrieved.
func (q Query) Select(paths ...string) Query {
	if len(paths) == 0 {
		q.projection = []string{"__name__"}
		return q
	}
	q.projection = append([]string(nil), paths...)
	return q
}

// StartAt returns a query that starts at the document with the given
// field values, inclusively. The values correspond positionally to the
// query's orderBy clauses.
func (q Query) StartAt(values ...interface{}) Query { return q.cursor(values, true, true) }

// StartAfter is like StartAt, but excludes the document at the cursor
// position.
func (q Query) StartAfter(values ...interface{}) Query { return q.cursor(values, true, false) }

// EndAt returns a query that ends at the document with the given field
// values, inclusively.
func (q Query) EndAt(values ...interface{}) Query { return q.cursor(values, false, true) }

// EndBefore is like EndAt, but excludes the document at the cursor
// position.
func (q Query) EndBefore(values ...interface{}) Query { return q.cursor(values, false, false) }

func (q Query) cursor(values []interface{}, start, inclusive bool) Query {
	vs := make([]Value, len(values))
	for i, x := range values {
		v, ok := x.(Value)
		if !ok {
			var err error
			v, err = EncodeValue(x)
			if err != nil {
				return q.withErr(err)
			}
		}
		vs[i] = v
	}
	c := &Cursor{Values: vs, Inclusive: inclusive}
	if start {
		q.start = c
	} else {
		q.end = c
	}
	return q
}

// MarshalJSON implements json.Marshaler, producing the structuredQuery
// wire shape. It fails with the query's sticky error if building the
// query failed.
func (q Query) MarshalJSON() ([]byte, error) {
	w, err := q.wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (q Query) wire() (map[string]interface{}, error) {
	if q.err != nil {
		return nil, q.err
	}
	from := map[string]interface{}{"collectionId": q.collectionID}
	if q.allDescendants {
		from["allDescendants"] = true
	}
	w := map[string]interface{}{
		"from": []interface{}{from},
	}
	if q.projection != nil {
		fields := make([]interface{}, len(q.projection))
		for i, p := range q.projection {
			fields[i] = fieldRef(p)
		}
		w["select"] = map[string]interface{}{"fields": fields}
	}
	if q.filter != nil {
		f, err := q.filter.wire()
		if err != nil {
			return nil, err
		}
		w["where"] = f
	}
	if len(q.orders) > 0 {
		orders := make([]interface{}, len(q.orders))
		for i, o := range q.orders {
			switch o.Direction {
			case Ascending, Descending:
			default:
				return nil, fserr.Newf(fserr.InvalidArgument, nil, "invalid direction: %q", string(o.Direction))
			}
			orders[i] = map[string]interface{}{
				"field":     fieldRef(o.Path),
				"direction": string(o.Direction),
			}
		}
		w["orderBy"] = orders
	}
	if q.start != nil {
		w["startAt"] = cursorWire(q.start)
	}
	if q.end != nil {
		w["endAt"] = cursorWire(q.end)
	}
	if q.offset > 0 {
		w["offset"] = q.offset
	}
	if q.limit > 0 {
		w["limit"] = q.limit
	}
	return w, nil
}

// cursorWire renders a cursor. The wire flag is "before": a cursor that
// excludes its position sits just before it, so before is the negation
// of Inclusive.
func cursorWire(c *Cursor) map[string]interface{} {
	vals := make([]interface{}, len(c.Values))
	for i, v := range c.Values {
		vals[i] = v.wire()
	}
	return map[string]interface{}{
		"values": vals,
		"before": !c.Inclusive,
	}
}

// Equal reports whether two queries describe the same structured query.
func (q Query) Equal(r Query) bool {
	if q.collectionID != r.collectionID ||
		q.allDescendants != r.allDescendants ||
		q.offset != r.offset ||
		q.limit != r.limit ||
		len(q.orders) != len(r.orders) ||
		len(q.projection) != len(r.projection) {
		return false
	}
	for i := range q.orders {
		if q.orders[i] != r.orders[i] {
			return false
		}
	}
	for i := range q.projection {
		if q.projection[i] != r.projection[i] {
			return false
		}
	}
	if (q.filter == nil) != (r.filter == nil) {
		return false
	}
	if q.filter != nil && !q.filter.Equal(r.filter) {
		return false
	}
	return cursorEqual(q.start, r.start) && cursorEqual(q.end, r.end)
}

func cursorEqual(a, b *Cursor) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	if a.Inclusive != b.Inclusive || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if !a.Values[i].Equal(b.Values[i]) {
			return false
		}
	}
	return true
}
