/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tracing

import (
	"context"
	"fmt"

	"github.com/vindecode/vindecode/platform/view/services/metrics"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"
)

type metricsProvider interface {
	NewCounter(opts metrics.CounterOpts) metrics.Counter
	NewHistogram(opts metrics.HistogramOpts) metrics.Histogram
}

// NewTracerProvider returns a provider whose spans are not exported but still feed
// the operations counter and duration histogram of each tracer.
func NewTracerProvider(metricsProvider metricsProvider) trace.TracerProvider {
	return NewTracerProviderWithBackingProvider(noop.NewTracerProvider(), metricsProvider)
}

func NewTracerProviderWithBackingProvider(tp trace.TracerProvider, mp metricsProvider) trace.TracerProvider {
	return &tracerProvider{metricsProvider: mp, backingProvider: tp}
}

type tracerProvider struct {
	embedded.TracerProvider

	metricsProvider metricsProvider
	backingProvider trace.TracerProvider
}

func (p *tracerProvider) Tracer(name string, options ...trace.TracerOption) trace.Tracer {
	opts := metricsOptsOf(trace.NewTracerConfig(options...))
	return &tracer{
		backingTracer: p.backingProvider.Tracer(name, options...),
		metrics: &spanMetrics{
			labelNames: opts.LabelNames,
			operations: p.metricsProvider.NewCounter(metrics.CounterOpts{
				Namespace:  opts.Namespace,
				Name:       fmt.Sprintf("%s_operations", name),
				Help:       fmt.Sprintf("Counter of '%s' operations", name),
				LabelNames: opts.LabelNames,
			}),
			duration: p.metricsProvider.NewHistogram(metrics.HistogramOpts{
				Namespace:  opts.Namespace,
				Name:       fmt.Sprintf("%s_duration", name),
				Help:       fmt.Sprintf("Histogram for the duration of '%s' operations", name),
				LabelNames: opts.LabelNames,
			}),
		},
	}
}

type tracer struct {
	embedded.Tracer

	backingTracer trace.Tracer
	metrics       *spanMetrics
}

func (t *tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	ctx, backing := t.backingTracer.Start(ctx, spanName, opts...)
	s := t.metrics.wrap(backing, opts...)
	return trace.ContextWithSpan(ctx, s), s
}
