// Package metrics provides the OpenTelemetry instrumentation shared by the
// HTTP server.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// statusRecorder wraps http.ResponseWriter to capture the final status code.
type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Middleware returns an HTTP middleware recording per-request count and
// latency on the given meter provider. Metrics are labeled by method, path
// and status code.
func Middleware(mp metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	meter := mp.Meter("bookverse/api")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of handled HTTP requests"))
	if err != nil {
		return nil, fmt.Errorf("could not create request counter: %w", err)
	}

	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request handling duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create duration histogram: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			attrs := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("path", r.URL.Path),
				attribute.Int("status", rec.status))
			requests.Add(r.Context(), 1, attrs)
			duration.Record(r.Context(), time.Since(start).Seconds(), attrs)
		})
	}, nil
}
