package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter     metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	ChunksIndexed      metric.Int64Counter
	RetrievalDuration  metric.Float64Histogram
	GenerationDuration metric.Float64Histogram
	RefusalsServed     metric.Int64Counter
	GuardrailMisses    metric.Int64Counter
	TurnsRecorded      metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("learnbox-tutor")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"rag.chunks.indexed",
		metric.WithDescription("Total chunks written to the vector index"),
	)
	if err != nil {
		return nil, err
	}

	retrievalDuration, err := meter.Float64Histogram(
		"rag.retrieval.duration",
		metric.WithDescription("Vector retrieval duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	generationDuration, err := meter.Float64Histogram(
		"rag.generation.duration",
		metric.WithDescription("Answer generation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	refusalsServed, err := meter.Int64Counter(
		"rag.refusals.served",
		metric.WithDescription("Answers refused because the curriculum had no relevant material"),
	)
	if err != nil {
		return nil, err
	}

	guardrailMisses, err := meter.Int64Counter(
		"rag.guardrail.misses",
		metric.WithDescription("Answers the grounding heuristic could not tie back to the context"),
	)
	if err != nil {
		return nil, err
	}

	turnsRecorded, err := meter.Int64Counter(
		"rag.chat_turns.recorded",
		metric.WithDescription("Chat turns appended to the audit log"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:     requestCounter,
		RequestDuration:    requestDuration,
		ChunksIndexed:      chunksIndexed,
		RetrievalDuration:  retrievalDuration,
		GenerationDuration: generationDuration,
		RefusalsServed:     refusalsServed,
		GuardrailMisses:    guardrailMisses,
		TurnsRecorded:      turnsRecorded,
	}, nil
}

// RecordRequest records one finished HTTP request.
func (m *Metrics) RecordRequest(method, path, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("status", status),
	)
	m.RequestCounter.Add(context.Background(), 1, attrs)
	m.RequestDuration.Record(context.Background(), seconds, attrs)
}
