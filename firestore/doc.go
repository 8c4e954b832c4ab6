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

/*
Package firestore models Firestore documents and queries for server-side
Go programs talking to the Firestore REST API.

# Values and documents

A Value is a tagged union over the eleven Firestore value types: null,
boolean, integer, double, string, timestamp, bytes, reference, geo
point, array and map. Its JSON form is the REST wire format, where every
value is an object with a single tagged key and 64-bit integers travel
as decimal strings:

	data, _ := json.Marshal(firestore.Integer(42))
	// {"integerValue":"42"}

A Document pairs a resource name with a map of field Values.
EncodeDocument and Document.DataTo convert between documents and Go
structs or maps, using `firestore` struct tags:

	type User struct {
		Name string `firestore:"name"`
		Age  int    `firestore:"age"`
	}
	doc, err := firestore.EncodeDocument(User{Name: "Alice", Age: 30})

Decoding is strict about numbers: an integer value decodes into a
float64 field, but a double value never decodes into an integer field,
even when it is integral.

For document shapes that are not known at compile time, DocumentReader
and ListReader read fields one at a time, with explicit treatment of
the difference between an absent field and one that is explicitly null.

# Queries

A Query is an immutable description of a structured query. Builder
methods return new queries, successive Where calls combine under AND,
and json.Marshal produces the REST structuredQuery shape:

	q := firestore.NewQuery("users").
		Where("age", firestore.GreaterThanOrEqual, 18).
		OrderBy("age", firestore.Ascending).
		Limit(10)

# The client

Client performs document reads, writes and queries over HTTP. It adds
no retry policy and acquires no credentials itself; pass a token source
or a pre-built http.Client:

	c, err := firestore.NewClient("my-project",
		firestore.WithTokenSource(ts))
	doc, err := c.Collection("users").Doc("alice").Get(ctx)

Client methods record OpenCensus traces and latency metrics; register
OpenCensusViews to collect them.
*/
package firestore
