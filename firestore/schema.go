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
	"sync"

	"firekit.dev/internal/fserr"
)

// A Registry maps collection IDs to factories for the Go types their
// documents decode into, so that callers working across several
// collections can turn documents into typed values without switching on
// collection names themselves.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]func() interface{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]func() interface{}{}}
}

// Register associates a collection ID with a factory returning a
// pointer to a fresh value for documents of that collection, e.g.
//
//	reg.Register("users", func() interface{} { return &User{} })
//
// Registering the same ID twice replaces the factory.
func (r *Registry) Register(collectionID string, factory func() interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[collectionID] = factory
}

// New returns a fresh value for the collection, or false if the
// collection is not registered.
func (r *Registry) New(collectionID string) (interface{}, bool) {
	r.mu.RLock()
	factory, ok := r.factories[collectionID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Decode decodes doc into a fresh value for the collection and returns
// it. It fails with a NotFound error for an unregistered collection.
func (r *Registry) Decode(collectionID string, doc Document) (interface{}, error) {
	p, ok := r.New(collectionID)
	if !ok {
		return nil, fserr.Newf(fserr.NotFound, nil, "no type registered for collection %q", collectionID)
	}
	if err := doc.DataTo(p); err != nil {
		return nil, err
	}
	return p, nil
}
