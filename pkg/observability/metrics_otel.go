package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments for search engine calls.
// They are exported through the meter provider set up by InitOTel and are
// no-ops when OpenTelemetry is disabled.
type OTelMetrics struct {
	engineOperations metric.Int64Counter
	engineDuration   metric.Float64Histogram
	indexedDocuments metric.Int64Counter
	suggestions      metric.Int64Histogram
}

// NewOTelMetrics creates the instruments on the global meter provider.
func NewOTelMetrics() (*OTelMetrics, error) {
	return NewOTelMetricsWithMeter(otel.Meter("github.com/platinummonkey/yangsearch"))
}

// NewOTelMetricsWithMeter creates the instruments on meter.
func NewOTelMetricsWithMeter(meter metric.Meter) (*OTelMetrics, error) {
	m := &OTelMetrics{}
	var err error

	m.engineOperations, err = meter.Int64Counter(
		"yangsearch.engine.operations",
		metric.WithDescription("Total number of search engine operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine operations counter: %w", err)
	}

	m.engineDuration, err = meter.Float64Histogram(
		"yangsearch.engine.duration",
		metric.WithDescription("Search engine operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine duration histogram: %w", err)
	}

	m.indexedDocuments, err = meter.Int64Counter(
		"yangsearch.documents.indexed",
		metric.WithDescription("Total number of documents written"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexed documents counter: %w", err)
	}

	m.suggestions, err = meter.Int64Histogram(
		"yangsearch.autocomplete.suggestions",
		metric.WithDescription("Number of suggestions returned per autocomplete call"),
		metric.WithUnit("{suggestion}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestions histogram: %w", err)
	}

	return m, nil
}

// RecordEngineOperation records one engine round trip.
func (m *OTelMetrics) RecordEngineOperation(ctx context.Context, operation, index, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("index", index),
		attribute.String("status", status),
	)
	m.engineOperations.Add(ctx, 1, attrs)
	m.engineDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordIndexed records a document write.
func (m *OTelMetrics) RecordIndexed(ctx context.Context, index, result string) {
	if m == nil {
		return
	}
	m.indexedDocuments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("index", index),
		attribute.String("result", result),
	))
}

// RecordSuggestions records the size of an autocomplete answer.
func (m *OTelMetrics) RecordSuggestions(ctx context.Context, index, field string, n int) {
	if m == nil {
		return
	}
	m.suggestions.Record(ctx, int64(n), metric.WithAttributes(
		attribute.String("index", index),
		attribute.String("field", field),
	))
}
