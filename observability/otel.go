package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/seb7887/retryx"
)

const (
	instrumentationName = "github.com/seb7887/retryx/observability"
)

// Tracing is a retryx.Observer that records each retry chain as an
// OpenTelemetry span. Attempts and granted delays become span events; the
// settlement sets the span status and ends it.
type Tracing struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewTracing creates a new OTEL tracing observer.
// If provider is nil, uses the global tracer provider.
func NewTracing(provider trace.TracerProvider) *Tracing {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	return &Tracing{
		tracer: provider.Tracer(instrumentationName),
		spans:  make(map[string]trace.Span),
	}
}

// ChainStarted opens a span for the chain, parented on the caller's span in
// ctx when there is one.
func (o *Tracing) ChainStarted(ctx context.Context, info retryx.ChainInfo) {
	_, span := o.tracer.Start(ctx, "retry chain",
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	span.SetAttributes(
		attribute.String("retry.chain_id", info.ID),
		attribute.String("retry.mode", string(info.Mode)),
	)

	o.mu.Lock()
	o.spans[info.ID] = span
	o.mu.Unlock()
}

// AttemptFinished adds an attempt event to the chain's span and records the
// failure if there was one.
func (o *Tracing) AttemptFinished(_ context.Context, info retryx.AttemptInfo) {
	span := o.span(info.ChainID)
	if span == nil {
		return
	}

	if info.Err != nil {
		span.AddEvent("attempt failed", trace.WithAttributes(
			attribute.Int("retry.attempt", int(info.Attempt)),
		))
		span.RecordError(info.Err)
		return
	}
	span.AddEvent("attempt succeeded", trace.WithAttributes(
		attribute.Int("retry.attempt", int(info.Attempt)),
	))
}

// DelayScheduled adds a scheduling event to the chain's span.
func (o *Tracing) DelayScheduled(_ context.Context, info retryx.DelayInfo) {
	span := o.span(info.ChainID)
	if span == nil {
		return
	}
	span.AddEvent("retry scheduled", trace.WithAttributes(
		attribute.String("retry.delay", info.Delay.String()),
	))
}

// ChainSettled records the outcome, sets the span status and ends the span.
func (o *Tracing) ChainSettled(_ context.Context, info retryx.SettleInfo) {
	o.mu.Lock()
	span := o.spans[info.ChainID]
	delete(o.spans, info.ChainID)
	o.mu.Unlock()
	if span == nil {
		return
	}

	span.SetAttributes(
		attribute.String("retry.outcome", string(info.Outcome)),
		attribute.Int("retry.attempts", info.Attempts),
	)

	if info.Err != nil {
		span.RecordError(info.Err)
		span.SetStatus(codes.Error, info.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (o *Tracing) span(id string) trace.Span {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.spans[id]
}
