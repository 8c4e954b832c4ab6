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

// Package oc supports OpenCensus tracing and metrics for client
// operations.
package oc

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"firekit.dev/fserrors"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.opencensus.io/trace"
)

// A Tracer supports tracing and latency metrics for a package's client
// operations.
type Tracer struct {
	Package        string
	Provider       string
	LatencyMeasure *stats.Float64Measure
}

// ProviderName returns the name of the provider associated with the
// driver value. It is the package path of the driver's type, unless the
// value is nil, in which case it is the empty string.
func ProviderName(driver interface{}) string {
	// Return the last component of the package path.
	if driver == nil {
		return ""
	}
	t := reflect.TypeOf(driver)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath()
}

// Context key for starting time of a method call.
type startTimeKey struct{}

// Start adds a span to the trace, and prepares for recording a latency
// measurement.
func (t *Tracer) Start(ctx context.Context, methodName string) context.Context {
	fullName := t.Package + "." + methodName
	ctx, _ = tag.New(ctx,
		tag.Upsert(MethodKey, fullName),
		tag.Upsert(ProviderKey, t.Provider))
	ctx, _ = trace.StartSpan(ctx, fullName)
	return context.WithValue(ctx, startTimeKey{}, time.Now())
}

// End ends a span with the given error, and records a latency
// measurement.
func (t *Tracer) End(ctx context.Context, err error) {
	startTime := ctx.Value(startTimeKey{}).(time.Time)
	elapsed := time.Since(startTime)
	code := fserrors.Code(err)
	span := trace.FromContext(ctx)
	if err != nil {
		span.SetStatus(trace.Status{Code: int32(code), Message: err.Error()})
	}
	span.End()
	ctx, _ = tag.New(ctx, tag.Upsert(StatusKey, fmt.Sprint(code)))
	stats.Record(ctx, t.LatencyMeasure.M(float64(elapsed.Nanoseconds())/1e6)) // milliseconds
}

// Tag keys used for the standard views.
var (
	MethodKey   = tag.MustNewKey("method")
	StatusKey   = tag.MustNewKey("status")
	ProviderKey = tag.MustNewKey("provider")
)

// LatencyMeasure returns the measure for method call latency used by
// firekit APIs.
func LatencyMeasure(pkg string) *stats.Float64Measure {
	return stats.Float64(
		pkg+"/latency",
		"Latency of method call",
		stats.UnitMilliseconds)
}

// LatencyView returns a view of the latency metric.
func LatencyView(pkg string, latencyMeasure *stats.Float64Measure) *view.View {
	return &view.View{
		Name:        pkg + "/latency",
		Measure:     latencyMeasure,
		Description: "Distribution of method latency, by provider and method.",
		TagKeys:     []tag.Key{MethodKey, ProviderKey, StatusKey},
		Aggregation: defaultMillisecondsDistribution,
	}
}

// Views returns the views supported by firekit APIs.
func Views(pkg string, latencyMeasure *stats.Float64Measure) []*view.View {
	return []*view.View{
		LatencyView(pkg, latencyMeasure),
		{
			Name:        pkg + "/completed_calls",
			Measure:     latencyMeasure,
			Description: "Count of method calls by provider, method and status.",
			TagKeys:     []tag.Key{MethodKey, ProviderKey, StatusKey},
			Aggregation: view.Count(),
		},
	}
}

var defaultMillisecondsDistribution = view.Distribution(
	0.0, 0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 8.0,
	10.0, 13.0, 16.0, 20.0, 25.0, 30.0, 40.0, 50.0, 65.0, 80.0, 100.0, 130.0,
	160.0, 200.0, 250.0, 300.0, 400.0, 500.0, 650.0, 800.0, 1000.0, 2000.0,
	5000.0, 10000.0, 20000.0, 50000.0, 100000.0)
