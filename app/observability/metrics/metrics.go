package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	AuthFailuresTotal      metric.Int64Counter
	ForbiddenTotal         metric.Int64Counter
	ListQueriesTotal       metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
	UpstreamFailuresTotal  metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Call it after the provider is installed so the exporter sees them.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("DevCamperAPI")
		var err error
		m := &AppMetrics{}

		m.AuthFailuresTotal, err = meter.Int64Counter(
			"auth_failures_total",
			metric.WithDescription("Requests rejected by the authentication guard"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_failures_total: %v", err)
		}

		m.ForbiddenTotal, err = meter.Int64Counter(
			"forbidden_total",
			metric.WithDescription("Requests rejected by role or ownership checks"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create forbidden_total: %v", err)
		}

		m.ListQueriesTotal, err = meter.Int64Counter(
			"list_queries_total",
			metric.WithDescription("Listing queries served by the query builder"),
			metric.WithUnit("{query}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create list_queries_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		m.UpstreamFailuresTotal, err = meter.Int64Counter(
			"upstream_failures_total",
			metric.WithDescription("Failed calls to mail, geocoding or storage providers"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create upstream_failures_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the instruments, creating them against the current global
// provider on first use (a no-op provider in tests).
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
