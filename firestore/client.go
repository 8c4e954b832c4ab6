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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"firekit.dev/gcp"
	"firekit.dev/internal/fserr"
	"firekit.dev/internal/oc"
	"github.com/google/wire"
	"google.golang.org/api/googleapi"
)

const (
	pkgName = "firekit.dev/firestore"

	// DefaultEndpoint is the base URL of the Firestore REST API.
	DefaultEndpoint = "https://firestore.googleapis.com/v1"

	// DefaultDatabase is the database ID used when none is configured.
	DefaultDatabase = "(default)"
)

var (
	latencyMeasure = oc.LatencyMeasure(pkgName)

	// OpenCensusViews are predefined views for OpenCensus metrics.
	// The views include counts and latency distributions for API method calls.
	// See the example at https://godoc.org/go.opencensus.io/stats/view for usage.
	OpenCensusViews = oc.Views(pkgName, latencyMeasure)
)

// Set holds Wire providers for this package.
var Set = wire.NewSet(
	NewClientFromHTTPClient,
	wire.Struct(new(Options)),
)

// Options contains optional arguments to NewClient.
type Options struct {
	// HTTPClient performs the requests. Defaults to http.DefaultClient.
	// Use gcp.NewHTTPClient to build one that attaches Cloud-Platform
	// tokens.
	HTTPClient *http.Client

	// Database is the database ID. Defaults to "(default)".
	Database string

	// Endpoint overrides the API base URL, e.g. to point at the
	// Firestore emulator. Defaults to DefaultEndpoint, or to the
	// FIRESTORE_EMULATOR_HOST environment variable if set.
	Endpoint string
}

// A Client performs document reads, writes and queries against a single
// Firestore database over its REST API. It holds no connection state
// beyond the http.Client it was built with; methods are safe for
// concurrent use.
type Client struct {
	hc       *http.Client
	projectID string
	database string
	endpoint string
	tracer   *oc.Tracer
	registry *Registry
}

// An Option configures a Client.
type Option func(*Options)

// WithHTTPClient sets the http.Client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *Options) { o.HTTPClient = hc }
}

// WithTokenSource sets the http.Client to one that attaches tokens from
// ts to every request.
func WithTokenSource(ts gcp.TokenSource) Option {
	return func(o *Options) {
		if hc, err := gcp.NewHTTPClient(gcp.DefaultTransport(), ts); err == nil {
			o.HTTPClient = &hc.Client
		}
	}
}

// WithDatabase sets the database ID.
func WithDatabase(id string) Option {
	return func(o *Options) { o.Database = id }
}

// WithEndpoint sets the API base URL.
func WithEndpoint(url string) Option {
	return func(o *Options) { o.Endpoint = url }
}

// NewClient returns a client for the given project.
func NewClient(projectID string, opts ...Option) (*Client, error) {
	if projectID == "" {
		return nil, fserr.Newf(fserr.InvalidArgument, nil, "empty project ID")
	}
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return newClient(projectID, &o), nil
}

// NewClientFromHTTPClient returns a client for the given project that
// performs requests with hc. It is intended for use with Wire, together
// with gcp.DefaultIdentity.
func NewClientFromHTTPClient(projectID gcp.ProjectID, hc *gcp.HTTPClient, opts *Options) *Client {
	o := *opts
	o.HTTPClient = &hc.Client
	return newClient(string(projectID), &o)
}

func newClient(projectID string, o *Options) *Client {
	c := &Client{
		hc:        o.HTTPClient,
		projectID: projectID,
		database:  o.Database,
		endpoint:  o.Endpoint,
		tracer: &oc.Tracer{
			Package:        pkgName,
			Provider:       "gcpfirestore",
			LatencyMeasure: latencyMeasure,
		},
	}
	if c.hc == nil {
		c.hc = http.DefaultClient
	}
	if c.database == "" {
		c.database = DefaultDatabase
	}
	if c.endpoint == "" {
		if host := os.Getenv("FIRESTORE_EMULATOR_HOST"); host != "" {
			c.endpoint = "http://" + host + "/v1"
		} else {
			c.endpoint = DefaultEndpoint
		}
	}
	c.endpoint = strings.TrimSuffix(c.endpoint, "/")
	return c
}

// SetRegistry attaches a schema registry used by Decode. It must be
// called before the client is shared between goroutines.
func (c *Client) SetRegistry(r *Registry) { c.registry = r }

// databasePath returns "projects/P/databases/D".
func (c *Client) databasePath() string {
	return "projects/" + c.projectID + "/databases/" + c.database
}

// docName returns the full resource name for a slash-separated document
// path like "users/alice".
func (c *Client) docName(docPath string) string {
	return c.databasePath() + "/documents/" + docPath
}

// Collection returns a reference to a top-level collection.
func (c *Client) Collection(id string) *CollectionRef {
	return &CollectionRef{c: c, parent: "", id: id}
}

// Doc returns a reference to the document at the slash-separated path
// "coll/doc" or "coll/doc/subcoll/doc...". The path must have an even
// number of non-empty components.
func (c *Client) Doc(docPath string) *DocumentRef {
	if err := validatePath(docPath, true); err != nil {
		return &DocumentRef{c: c, err: err}
	}
	return &DocumentRef{c: c, path: docPath}
}

func validatePath(p string, wantDoc bool) error {
	parts := strings.Split(p, "/")
	for _, part := range parts {
		if part == "" {
			return fserr.Newf(fserr.InvalidArgument, nil, "path %q has an empty component", p)
		}
	}
	isDoc := len(parts)%2 == 0
	if isDoc != wantDoc {
		kind := "document"
		if !wantDoc {
			kind = "collection"
		}
		return fserr.Newf(fserr.InvalidArgument, nil, "path %q does not refer to a %s", p, kind)
	}
	return nil
}

// call performs one HTTP request against the API. body, if non-nil, is
// JSON-encoded; the response body is decoded into result if result is
// non-nil. Non-2xx responses map to coded errors via their HTTP status.
func (c *Client) call(ctx context.Context, method, u string, body, result interface{}) error {
	var r *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fserr.New(fserr.InvalidArgument, err, 1, "encoding request")
		}
		r = bytes.NewReader(data)
	} else {
		r = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return fserr.New(fserr.InvalidArgument, err, 1, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fserr.New(fserr.Internal, err, 1, "sending request")
	}
	defer resp.Body.Close()
	if err := googleapi.CheckResponse(resp); err != nil {
		code := fserr.Internal
		if gerr, ok := err.(*googleapi.Error); ok {
			code = fserr.HTTPCode(gerr.Code)
		}
		return fserr.New(code, err, 1, "firestore")
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fserr.New(fserr.Internal, err, 1, "decoding response")
		}
	}
	return nil
}

// RunQuery executes q against the database and returns the matching
// documents in query order.
func (c *Client) RunQuery(ctx context.Context, q Query) (docs []Document, err error) {
	ctx = c.tracer.Start(ctx, "RunQuery")
	defer func() { c.tracer.End(ctx, err) }()

	if err := q.Err(); err != nil {
		return nil, err
	}
	u := c.endpoint + "/" + c.databasePath() + "/documents:runQuery"
	body := map[string]interface{}{"structuredQuery": q}
	// The response is a JSON array of result elements; elements without
	// a document (e.g. readTime-only progress markers) are skipped.
	var results []struct {
		Document *Document `json:"document"`
	}
	if err := c.call(ctx, http.MethodPost, u, body, &results); err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Document != nil {
			docs = append(docs, *r.Document)
		}
	}
	return docs, nil
}

// Decode converts a document fetched by this client into the Go value
// registered for its collection. See Registry.
func (c *Client) Decode(doc Document) (interface{}, error) {
	if c.registry == nil {
		return nil, fserr.Newf(fserr.FailedPrecondition, nil, "no registry configured")
	}
	return c.registry.Decode(collectionForDoc(doc.Name), doc)
}

// collectionForDoc extracts the collection ID from a document resource
// name (its second-to-last path component).
func collectionForDoc(name string) string {
	parts := strings.Split(name, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// A DocumentRef refers to a single document.
type DocumentRef struct {
	c    *Client
	path string // slash-separated, e.g. "users/alice"
	err  error  // from path validation
}

// ID returns the document's ID, the last component of its path.
func (d *DocumentRef) ID() string {
	i := strings.LastIndexByte(d.path, '/')
	return d.path[i+1:]
}

// Path returns the document's full resource name.
func (d *DocumentRef) Path() string { return d.c.docName(d.path) }

// Parent returns the collection the document belongs to.
func (d *DocumentRef) Parent() *CollectionRef {
	i := strings.LastIndexByte(d.path, '/')
	collPath := d.path[:i]
	j := strings.LastIndexByte(collPath, '/')
	if j < 0 {
		return &CollectionRef{c: d.c, parent: "", id: collPath}
	}
	return &CollectionRef{c: d.c, parent: collPath[:j], id: collPath[j+1:]}
}

// Collection returns a subcollection of the document.
func (d *DocumentRef) Collection(id string) *CollectionRef {
	return &CollectionRef{c: d.c, parent: d.path, id: id}
}

// Get fetches the document.
func (d *DocumentRef) Get(ctx context.Context) (_ Document, err error) {
	ctx = d.c.tracer.Start(ctx, "DocumentRef.Get")
	defer func() { d.c.tracer.End(ctx, err) }()

	if d.err != nil {
		return Document{}, d.err
	}
	u := d.c.endpoint + "/" + d.c.docName(d.path)
	var doc Document
	if err := d.c.call(ctx, http.MethodGet, u, nil, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Create writes a new document with the fields of x, which must encode
// to a map. It fails with an AlreadyExists error if the document
// already exists.
func (d *DocumentRef) Create(ctx context.Context, x interface{}) (err error) {
	ctx = d.c.tracer.Start(ctx, "DocumentRef.Create")
	defer func() { d.c.tracer.End(ctx, err) }()
	return d.create(ctx, x)
}

func (d *DocumentRef) create(ctx context.Context, x interface{}) error {
	if d.err != nil {
		return d.err
	}
	doc, err := EncodeDocument(x)
	if err != nil {
		return err
	}
	i := strings.LastIndexByte(d.path, '/')
	collPath, docID := d.path[:i], d.path[i+1:]
	u := fmt.Sprintf("%s/%s/documents/%s?documentId=%s",
		d.c.endpoint, d.c.databasePath(), collPath, url.QueryEscape(docID))
	return d.c.call(ctx, http.MethodPost, u, doc, nil)
}

// Set writes the fields of x, which must encode to a map, overwriting
// the document if it exists and creating it if not.
func (d *DocumentRef) Set(ctx context.Context, x interface{}) (err error) {
	ctx = d.c.tracer.Start(ctx, "DocumentRef.Set")
	defer func() { d.c.tracer.End(ctx, err) }()

	if d.err != nil {
		return d.err
	}
	doc, err := EncodeDocument(x)
	if err != nil {
		return err
	}
	u := d.c.endpoint + "/" + d.c.docName(d.path)
	return d.c.call(ctx, http.MethodPatch, u, doc, nil)
}

// Delete removes the document. Deleting a document that does not exist
// is not an error.
func (d *DocumentRef) Delete(ctx context.Context) (err error) {
	ctx = d.c.tracer.Start(ctx, "DocumentRef.Delete")
	defer func() { d.c.tracer.End(ctx, err) }()

	if d.err != nil {
		return d.err
	}
	u := d.c.endpoint + "/" + d.c.docName(d.path)
	return d.c.call(ctx, http.MethodDelete, u, nil, nil)
}
