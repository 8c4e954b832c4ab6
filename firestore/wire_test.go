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
	"testing"
	"time"

	"firekit.dev/fserrors"
	"github.com/google/go-cmp/cmp"
)

func TestValueWireJSON(t *testing.T) {
	for _, test := range []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), `{"nullValue": null}`},
		{"bool", Boolean(true), `{"booleanValue": true}`},
		{"int", Integer(42), `{"integerValue": "42"}`},
		// Beyond 2^53: must survive as a decimal string.
		{"big int", Integer(9007199254740993), `{"integerValue": "9007199254740993"}`},
		{"min int", Integer(math.MinInt64), `{"integerValue": "-9223372036854775808"}`},
		{"double", Double(1.5), `{"doubleValue": 1.5}`},
		{"infinity", Double(math.Inf(1)), `{"doubleValue": "Infinity"}`},
		{"neg infinity", Double(math.Inf(-1)), `{"doubleValue": "-Infinity"}`},
		{"string", String("héllo"), `{"stringValue": "héllo"}`},
		{"timestamp", Timestamp(testTime), `{"timestampValue": "2024-05-01T10:30:00.123456789Z"}`},
		{"bytes", Bytes([]byte("hi")), `{"bytesValue": "aGk="}`},
		{
			"reference",
			Reference("projects/p/databases/(default)/documents/users/alice"),
			`{"referenceValue": "projects/p/databases/(default)/documents/users/alice"}`,
		},
		{"geopoint", GeoPoint(48.85, 2.35), `{"geoPointValue": {"latitude": 48.85, "longitude": 2.35}}`},
		{
			"array",
			Array(Integer(1), String("x"), Null()),
			`{"arrayValue": {"values": [{"integerValue": "1"}, {"stringValue": "x"}, {"nullValue": null}]}}`,
		},
		{
			"map",
			Map(map[string]Value{"a": Integer(1), "b": Array(Boolean(false))}),
			`{"mapValue": {"fields": {
				"a": {"integerValue": "1"},
				"b": {"arrayValue": {"values": [{"booleanValue": false}]}}
			}}}`,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, err := json.Marshal(test.v)
			if err != nil {
				t.Fatal(err)
			}
			var gotJSON, wantJSON interface{}
			if err := json.Unmarshal(got, &gotJSON); err != nil {
				t.Fatal(err)
			}
			if err := json.Unmarshal([]byte(test.want), &wantJSON); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(wantJSON, gotJSON); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}

			// And back again.
			var v Value
			if err := json.Unmarshal(got, &v); err != nil {
				t.Fatal(err)
			}
			if !v.Equal(test.v) {
				t.Errorf("round trip: got %v, want %v", v, test.v)
			}
		})
	}
}

func TestValueWireNaN(t *testing.T) {
	data, err := json.Marshal(Double(math.NaN()))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"doubleValue":"NaN"}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatal(err)
	}
	f, ok := v.AsDouble()
	if !ok || !math.IsNaN(f) {
		t.Errorf("got (%g, %t), want NaN", f, ok)
	}
}

func TestValueUnmarshalLenient(t *testing.T) {
	for _, test := range []struct {
		name, in string
		want     Value
	}{
		// Unknown tags decode to null rather than failing.
		{"unknown tag", `{"futureValue": 3}`, Null()},
		{"empty object", `{}`, Null()},
		// A bare number is accepted for integerValue.
		{"bare int", `{"integerValue": 42}`, Integer(42)},
		// Timestamps without fractional seconds.
		{"plain timestamp", `{"timestampValue": "2024-05-01T10:30:00Z"}`,
			Timestamp(time2024("2024-05-01T10:30:00Z"))},
		// doubleValue may arrive as a decimal string.
		{"string double", `{"doubleValue": "1.5"}`, Double(1.5)},
		{"empty array", `{"arrayValue": {}}`, Array()},
		{"empty map", `{"mapValue": {}}`, Map(nil)},
	} {
		t.Run(test.name, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(test.in), &v); err != nil {
				t.Fatal(err)
			}
			if !v.Equal(test.want) {
				t.Errorf("got %v, want %v", v, test.want)
			}
		})
	}
}

func TestValueUnmarshalMalformed(t *testing.T) {
	for _, in := range []string{
		`"hello"`,
		`{"integerValue": "12.5"}`,
		`{"integerValue": "99999999999999999999"}`, // overflows int64
		`{"booleanValue": "yes"}`,
		`{"doubleValue": "fast"}`,
		`{"timestampValue": "May 1, 2024"}`,
		`{"bytesValue": "~~~"}`,
		`{"geoPointValue": []}`,
		`{"arrayValue": {"values": 3}}`,
		`{"mapValue": []}`,
	} {
		var v Value
		err := json.Unmarshal([]byte(in), &v)
		if err == nil {
			t.Errorf("%s: got nil error", in)
			continue
		}
		if got := fserrors.Code(err); got != fserrors.InvalidArgument {
			t.Errorf("%s: got code %s, want InvalidArgument", in, got)
		}
	}
}

func time2024(s string) time.Time {
	t, err := parseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}
