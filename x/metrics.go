/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"context"
	"net/http"
	"time"

	ocprom "contrib.go.opencensus.io/exporter/prometheus"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.opencensus.io/trace"
)

var (
	// Cumulative metrics.
	NumQueries = stats.Int64("num_queries_total",
		"Total number of GraphQL query operations", stats.UnitDimensionless)
	NumMutations = stats.Int64("num_mutations_total",
		"Total number of GraphQL mutation operations", stats.UnitDimensionless)
	NumTransportErrors = stats.Int64("num_transport_errors_total",
		"Total number of requests rejected before reaching a resolver", stats.UnitDimensionless)
	LatencyMs = stats.Float64("latency",
		"Latency of the various methods", stats.UnitMilliseconds)

	// Point-in-time metrics.
	PendingRequests = stats.Int64("pending_requests_total",
		"Number of GraphQL requests being served", stats.UnitDimensionless)

	// Tag keys here
	KeyStatus, _ = tag.NewKey("status")
	KeyMethod, _ = tag.NewKey("method")

	// Tag values here
	TagValueStatusOK    = "ok"
	TagValueStatusError = "error"

	defaultLatencyMsDistribution = view.Distribution(
		0, 0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16,
		20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500,
		650, 800, 1000, 2000, 5000, 10000)

	allTagKeys = []tag.Key{
		KeyStatus, KeyMethod,
	}

	allViews = []*view.View{
		{
			Name:        LatencyMs.Name(),
			Measure:     LatencyMs,
			Description: LatencyMs.Description(),
			Aggregation: defaultLatencyMsDistribution,
			TagKeys:     allTagKeys,
		},
		{
			Name:        NumQueries.Name(),
			Measure:     NumQueries,
			Description: NumQueries.Description(),
			Aggregation: view.Count(),
			TagKeys:     allTagKeys,
		},
		{
			Name:        NumMutations.Name(),
			Measure:     NumMutations,
			Description: NumMutations.Description(),
			Aggregation: view.Count(),
			TagKeys:     allTagKeys,
		},
		{
			Name:        NumTransportErrors.Name(),
			Measure:     NumTransportErrors,
			Description: NumTransportErrors.Description(),
			Aggregation: view.Count(),
			TagKeys:     allTagKeys,
		},
		{
			Name:        PendingRequests.Name(),
			Measure:     PendingRequests,
			Description: PendingRequests.Description(),
			Aggregation: view.Sum(),
			TagKeys:     allTagKeys,
		},
	}
)

// RegisterMetrics registers the OpenCensus views and returns a handler serving
// them, together with the Go runtime and process collectors, in the Prometheus
// exposition format.
func RegisterMetrics(namespace string) (http.Handler, error) {
	if err := view.Register(allViews...); err != nil {
		return nil, errors.Wrap(err, "while registering metric views")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pe, err := ocprom.NewExporter(ocprom.Options{
		Namespace: namespace,
		Registry:  registry,
		OnError:   func(err error) { glog.Errorf("%v", err) },
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OpenCensus Prometheus exporter")
	}
	view.RegisterExporter(pe)
	return pe, nil
}

// UnregisterMetrics undoes RegisterMetrics. Used by tests.
func UnregisterMetrics() {
	view.Unregister(allViews...)
}

// WithMethod returns a new updated context with the tag KeyMethod set to the given value.
func WithMethod(parent context.Context, method string) context.Context {
	ctx, err := tag.New(parent, tag.Upsert(KeyMethod, method))
	Check(err)
	return ctx
}

// RecordWithStatus records m in the context's tags, adding the status tag.
func RecordWithStatus(ctx context.Context, status string, ms ...stats.Measurement) {
	ctx, err := tag.New(ctx, tag.Upsert(KeyStatus, status))
	if err != nil {
		glog.Warningf("while tagging metrics: %v", err)
		return
	}
	stats.Record(ctx, ms...)
}

// SinceMs returns the time since startTime in milliseconds (as a float).
func SinceMs(startTime time.Time) float64 {
	return float64(time.Since(startTime)) / 1e6
}

// SpanTimer returns a function used to record the duration of the given span.
func SpanTimer(span *trace.Span, name string) func() {
	if span == nil {
		return func() {}
	}
	uniq := int64(time.Now().UnixNano())
	attrs := []trace.Attribute{
		trace.Int64Attribute("funcId", uniq),
		trace.StringAttribute("funcName", name),
	}
	span.Annotate(attrs, "Start.")
	start := time.Now()

	return func() {
		span.Annotatef(attrs, "End. Took %s", time.Since(start))
	}
}
