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
	"context"

	"github.com/google/uuid"
)

// A CollectionRef refers to a collection: a top-level one, or a
// subcollection of a document.
type CollectionRef struct {
	c      *Client
	parent string // slash-separated document path, "" for a root collection
	id     string
}

// ID returns the collection's ID.
func (cr *CollectionRef) ID() string { return cr.id }

// Path returns the collection's slash-separated path relative to the
// database's document root.
func (cr *CollectionRef) Path() string {
	if cr.parent == "" {
		return cr.id
	}
	return cr.parent + "/" + cr.id
}

// Doc returns a reference to the document with the given ID in the
// collection.
func (cr *CollectionRef) Doc(id string) *DocumentRef {
	if err := validatePath(id, false); err != nil {
		return &DocumentRef{c: cr.c, err: err}
	}
	return &DocumentRef{c: cr.c, path: cr.Path() + "/" + id}
}

// Add creates a document with a randomly generated ID and the fields of
// x, which must encode to a map. It returns a reference to the new
// document.
func (cr *CollectionRef) Add(ctx context.Context, x interface{}) (_ *DocumentRef, err error) {
	ctx = cr.c.tracer.Start(ctx, "CollectionRef.Add")
	defer func() { cr.c.tracer.End(ctx, err) }()

	d := &DocumentRef{c: cr.c, path: cr.Path() + "/" + uniqueID()}
	if err := d.create(ctx, x); err != nil {
		return nil, err
	}
	return d, nil
}

// uniqueID generates a document ID that is unique with high
// probability.
func uniqueID() string { return uuid.New().String() }

// Query returns a query over the collection, ready for Where, OrderBy
// and the other builders. Run it with Client.RunQuery.
func (cr *CollectionRef) Query() Query {
	return NewQuery(cr.id)
}

// Documents fetches every document in the collection.
func (cr *CollectionRef) Documents(ctx context.Context) ([]Document, error) {
	return cr.c.RunQuery(ctx, cr.Query())
}
