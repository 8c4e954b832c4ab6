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

// Encoding and decoding between Go values and the Value model.

import (
	"fmt"
	"reflect"
	"time"

	"firekit.dev/codec"
	"google.golang.org/genproto/googleapis/type/latlng"
	tspb "google.golang.org/protobuf/types/known/timestamppb"
)

// EncodeValue encodes a Go value as a Value. It traverses structs,
// maps, slices and pointers the way encoding/json does, with the
// special cases described on codec.Encode and, additionally, for
// time.Time, *timestamppb.Timestamp, *latlng.LatLng, LatLng, Ref and
// Value itself.
func EncodeValue(x interface{}) (Value, error) {
	var e encoder
	if err := codec.Encode(reflect.ValueOf(x), &e); err != nil {
		return Value{}, err
	}
	return e.v, nil
}

// DecodeValue decodes v into p, which must be a non-nil pointer.
func DecodeValue(v Value, p interface{}) error {
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errInvalidTarget(p)
	}
	return codec.Decode(rv.Elem(), decoder{v})
}

// encoder implements codec.Encoder. Its job is to encode a single
// Firestore value.
type encoder struct {
	v Value
}

func (e *encoder) EncodeNil()            { e.v = Null() }
func (e *encoder) EncodeBool(x bool)     { e.v = Boolean(x) }
func (e *encoder) EncodeInt(x int64)     { e.v = Integer(x) }
func (e *encoder) EncodeUint(x uint64)   { e.v = Integer(int64(x)) }
func (e *encoder) EncodeBytes(x []byte)  { e.v = Bytes(x) }
func (e *encoder) EncodeFloat(x float64) { e.v = Double(x) }
func (e *encoder) EncodeString(x string) { e.v = String(x) }

func (e *encoder) ListIndex(int) { panic("impossible") }
func (e *encoder) MapKey(string) { panic("impossible") }

func (e *encoder) EncodeList(n int) codec.Encoder {
	s := make([]Value, n)
	e.v = Value{kind: KindArray, arr: s}
	return &listEncoder{s: s}
}

func (e *encoder) EncodeMap(n int) codec.Encoder {
	m := make(map[string]Value, n)
	e.v = Value{kind: KindMap, m: m}
	return &mapEncoder{m: m}
}

var (
	typeOfGoTime         = reflect.TypeOf(time.Time{})
	typeOfProtoTimestamp = reflect.TypeOf((*tspb.Timestamp)(nil))
	typeOfProtoLatLng    = reflect.TypeOf((*latlng.LatLng)(nil))
	typeOfLatLng         = reflect.TypeOf(LatLng{})
	typeOfRef            = reflect.TypeOf(Ref(""))
	typeOfValue          = reflect.TypeOf(Value{})
)

// EncodeSpecial handles the types with a dedicated Value case, so they
// are not flattened into maps or byte blobs by the generic traversal.
func (e *encoder) EncodeSpecial(v reflect.Value) (bool, error) {
	switch v.Type() {
	case typeOfGoTime:
		e.v = Timestamp(v.Interface().(time.Time))
		return true, nil
	case typeOfProtoTimestamp:
		if v.IsNil() {
			e.v = Null()
		} else {
			e.v = Timestamp(v.Interface().(*tspb.Timestamp).AsTime())
		}
		return true, nil
	case typeOfProtoLatLng:
		if v.IsNil() {
			e.v = Null()
		} else {
			ll := v.Interface().(*latlng.LatLng)
			e.v = GeoPoint(ll.GetLatitude(), ll.GetLongitude())
		}
		return true, nil
	case typeOfLatLng:
		ll := v.Interface().(LatLng)
		e.v = GeoPoint(ll.Latitude, ll.Longitude)
		return true, nil
	case typeOfRef:
		e.v = Reference(string(v.Interface().(Ref)))
		return true, nil
	case typeOfValue:
		e.v = v.Interface().(Value)
		return true, nil
	default:
		return false, nil
	}
}

type listEncoder struct {
	s []Value
	encoder
}

func (e *listEncoder) ListIndex(i int) { e.s[i] = e.v }

type mapEncoder struct {
	m map[string]Value
	encoder
}

func (e *mapEncoder) MapKey(k string) { e.m[k] = e.v }

////////////////////////////////////////////////////////////////

// decoder implements codec.Decoder over a single Value.
type decoder struct {
	v Value
}

func (d decoder) String() string { // for error messages
	return fmt.Sprintf("%s value %s", d.v.Kind(), d.v)
}

func (d decoder) AsNull() bool { return d.v.IsNull() }

func (d decoder) AsBool() (bool, bool)     { return d.v.AsBool() }
func (d decoder) AsString() (string, bool) { return d.v.AsString() }
func (d decoder) AsInt() (int64, bool)     { return d.v.AsInt() }

func (d decoder) AsUint() (uint64, bool) {
	if i, ok := d.v.AsInt(); ok {
		return uint64(i), true
	}
	return 0, false
}

func (d decoder) AsFloat() (float64, bool) { return d.v.AsDouble() }
func (d decoder) AsBytes() ([]byte, bool)  { return d.v.AsBytes() }

// AsInterface decodes the value in d into the most appropriate Go type.
func (d decoder) AsInterface() (interface{}, error) {
	return d.v.Interface(), nil
}

func (d decoder) ListLen() (int, bool) {
	a, ok := d.v.AsArray()
	if !ok {
		return 0, false
	}
	return len(a), true
}

func (d decoder) DecodeList(f func(int, codec.Decoder) bool) {
	a, _ := d.v.AsArray()
	for i, e := range a {
		if !f(i, decoder{e}) {
			return
		}
	}
}

func (d decoder) MapLen() (int, bool) {
	m, ok := d.v.AsMap()
	if !ok {
		return 0, false
	}
	return len(m), true
}

func (d decoder) DecodeMap(f func(string, codec.Decoder, bool) bool) {
	m, _ := d.v.AsMap()
	for k, v := range m {
		if !f(k, decoder{v}, true) {
			return
		}
	}
}

func (d decoder) AsSpecial(v reflect.Value) (bool, interface{}, error) {
	switch v.Type() {
	case typeOfGoTime:
		if t, ok := d.v.AsTime(); ok {
			return true, t, nil
		}
		return true, nil, errTypeMismatch(KindTimestamp, d.v.Kind())
	case typeOfProtoTimestamp:
		if t, ok := d.v.AsTime(); ok {
			return true, tspb.New(t), nil
		}
		return true, nil, errTypeMismatch(KindTimestamp, d.v.Kind())
	case typeOfProtoLatLng:
		if g, ok := d.v.AsGeoPoint(); ok {
			return true, &latlng.LatLng{Latitude: g.Latitude, Longitude: g.Longitude}, nil
		}
		return true, nil, errTypeMismatch(KindGeoPoint, d.v.Kind())
	case typeOfLatLng:
		if g, ok := d.v.AsGeoPoint(); ok {
			return true, g, nil
		}
		return true, nil, errTypeMismatch(KindGeoPoint, d.v.Kind())
	case typeOfRef:
		if r, ok := d.v.AsReference(); ok {
			return true, Ref(r), nil
		}
		return true, nil, errTypeMismatch(KindReference, d.v.Kind())
	case typeOfValue:
		return true, d.v, nil
	default:
		return false, nil, nil
	}
}
