package knowledge

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce             sync.Once
	queryLatencyHist        metric.Float64Histogram
	retrievalAttemptCounter metric.Int64Counter
	retrievalEmptyCounter   metric.Int64Counter
	retrievalErrorCounter   metric.Int64Counter
)

func ensureMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("novabase.knowledge")
		queryLatencyHist, _ = meter.Float64Histogram(
			"knowledge_query_latency_seconds",
			metric.WithDescription("Latency of retrieval queries"),
		)
		retrievalAttemptCounter, _ = meter.Int64Counter(
			"knowledge_retrieval_attempts_total",
			metric.WithDescription("Retrieval attempts by stage"),
		)
		retrievalEmptyCounter, _ = meter.Int64Counter(
			"knowledge_retrieval_empty_total",
			metric.WithDescription("Retrievals that produced no fragments"),
		)
		retrievalErrorCounter, _ = meter.Int64Counter(
			"knowledge_retrieval_errors_total",
			metric.WithDescription("Retrieval failures degraded to empty results"),
		)
	})
}

func RecordQueryLatency(ctx context.Context, scopeID string, d time.Duration) {
	ensureMetrics()
	if queryLatencyHist == nil {
		return
	}
	queryLatencyHist.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("scope_id", scopeID)))
}

func RecordRetrievalAttempt(ctx context.Context, scopeID string, stage string) {
	ensureMetrics()
	if retrievalAttemptCounter == nil {
		return
	}
	retrievalAttemptCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope_id", scopeID),
		attribute.String("stage", stage),
	))
}

func RecordRetrievalEmpty(ctx context.Context, scopeID string, stage string) {
	ensureMetrics()
	if retrievalEmptyCounter == nil {
		return
	}
	retrievalEmptyCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope_id", scopeID),
		attribute.String("stage", stage),
	))
}

func RecordRetrievalError(ctx context.Context, scopeID string, stage string) {
	ensureMetrics()
	if retrievalErrorCounter == nil {
		return
	}
	retrievalErrorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope_id", scopeID),
		attribute.String("stage", stage),
	))
}
