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

// The Firestore REST wire format. A value is a JSON object with exactly
// one tagged key identifying its type, e.g. {"stringValue": "x"} or
// {"mapValue": {"fields": {...}}}. Integers travel as decimal strings
// because JSON numbers cannot carry 64 bits of precision.

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"firekit.dev/internal/fserr"
)

// MarshalJSON implements json.Marshaler. The result has exactly one
// tagged key, matching the active case of v.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.wire())
}

func (v Value) wire() map[string]interface{} {
	switch v.kind {
	case KindNull:
		return map[string]interface{}{"nullValue": nil}
	case KindBoolean:
		return map[string]interface{}{"booleanValue": v.b}
	case KindInteger:
		// Decimal string, not a JSON number: values beyond 2^53 must
		// survive the trip.
		return map[string]interface{}{"integerValue": strconv.FormatInt(v.i, 10)}
	case KindDouble:
		return map[string]interface{}{"doubleValue": wireDouble(v.f)}
	case KindString:
		return map[string]interface{}{"stringValue": v.s}
	case KindTimestamp:
		return map[string]interface{}{"timestampValue": v.t.UTC().Format(time.RFC3339Nano)}
	case KindBytes:
		return map[string]interface{}{"bytesValue": base64.StdEncoding.EncodeToString(v.bs)}
	case KindReference:
		return map[string]interface{}{"referenceValue": v.s}
	case KindGeoPoint:
		return map[string]interface{}{"geoPointValue": map[string]interface{}{
			"latitude":  v.gp.Latitude,
			"longitude": v.gp.Longitude,
		}}
	case KindArray:
		vals := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			vals[i] = e.wire()
		}
		return map[string]interface{}{"arrayValue": map[string]interface{}{"values": vals}}
	case KindMap:
		fields := make(map[string]interface{}, len(v.m))
		for k, e := range v.m {
			fields[k] = e.wire()
		}
		return map[string]interface{}{"mapValue": map[string]interface{}{"fields": fields}}
	}
	panic("firestore: invalid Value kind")
}

// wireDouble renders f for the wire. NaN and the infinities have no
// JSON number form; the REST API spells them as strings.
func wireDouble(f float64) interface{} {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

// UnmarshalJSON implements json.Unmarshaler. A JSON object with no
// recognized tag decodes to the null value; a recognized tag whose
// payload is structurally malformed is an error.
func (v *Value) UnmarshalJSON(data []byte) error {
	var tags map[string]json.RawMessage
	if err := json.Unmarshal(data, &tags); err != nil {
		return fserr.New(fserr.InvalidArgument, err, 1, "malformed value")
	}
	val, err := valueFromTags(tags)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func valueFromTags(tags map[string]json.RawMessage) (Value, error) {
	for tag, raw := range tags {
		switch tag {
		case "nullValue":
			return Null(), nil
		case "booleanValue":
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return Value{}, malformed("booleanValue", err)
			}
			return Boolean(b), nil
		case "integerValue":
			i, err := wireInt(raw)
			if err != nil {
				return Value{}, err
			}
			return Integer(i), nil
		case "doubleValue":
			f, err := parseWireDouble(raw)
			if err != nil {
				return Value{}, err
			}
			return Double(f), nil
		case "stringValue":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return Value{}, malformed("stringValue", err)
			}
			return String(s), nil
		case "timestampValue":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return Value{}, malformed("timestampValue", err)
			}
			t, err := parseTimestamp(s)
			if err != nil {
				return Value{}, err
			}
			return Timestamp(t), nil
		case "bytesValue":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return Value{}, malformed("bytesValue", err)
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return Value{}, malformed("bytesValue", err)
			}
			return Bytes(b), nil
		case "referenceValue":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return Value{}, malformed("referenceValue", err)
			}
			return Reference(s), nil
		case "geoPointValue":
			var g struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			}
			if err := json.Unmarshal(raw, &g); err != nil {
				return Value{}, malformed("geoPointValue", err)
			}
			return GeoPoint(g.Latitude, g.Longitude), nil
		case "arrayValue":
			var a struct {
				Values []Value `json:"values"`
			}
			if err := json.Unmarshal(raw, &a); err != nil {
				return Value{}, malformed("arrayValue", err)
			}
			return Array(a.Values...), nil
		case "mapValue":
			var m struct {
				Fields map[string]Value `json:"fields"`
			}
			if err := json.Unmarshal(raw, &m); err != nil {
				return Value{}, malformed("mapValue", err)
			}
			return Map(m.Fields), nil
		}
	}
	// No recognized tag: treat as null rather than failing, so that new
	// server-side value types don't break old clients.
	return Null(), nil
}

// wireInt parses an integerValue payload. The service emits a decimal
// string; a bare JSON number is accepted for leniency.
func wireInt(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, malformed("integerValue", err)
		}
		s = n.String()
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, malformed("integerValue", err)
	}
	return i, nil
}

func parseWireDouble(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, malformed("doubleValue", err)
	}
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, malformed("doubleValue", err)
		}
		return f, nil
	}
}

// parseTimestamp accepts RFC3339 with or without fractional seconds:
// first try the fractional form, then the plain one.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err2 := time.Parse(time.RFC3339, s)
	if err2 == nil {
		return t, nil
	}
	return time.Time{}, malformed("timestampValue", err)
}

func malformed(tag string, err error) error {
	return fserr.New(fserr.InvalidArgument, err, 2, "malformed "+tag)
}
