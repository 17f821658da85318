/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	namespaceAttr = "vindecode.metrics.namespace"
	labelsAttr    = "vindecode.metrics.labels"
)

type LabelName = string

// MetricsOpts names the metrics of a tracer and the span attributes copied into their labels
type MetricsOpts struct {
	Namespace  string
	LabelNames []LabelName
}

func WithMetricsOpts(o MetricsOpts) trace.TracerOption {
	return trace.WithInstrumentationAttributes(
		attribute.String(namespaceAttr, o.Namespace),
		attribute.StringSlice(labelsAttr, o.LabelNames),
	)
}

func metricsOptsOf(c trace.TracerConfig) MetricsOpts {
	attrs := c.InstrumentationAttributes()
	var o MetricsOpts
	if v, ok := attrs.Value(namespaceAttr); ok {
		o.Namespace = v.AsString()
	}
	if v, ok := attrs.Value(labelsAttr); ok {
		o.LabelNames = v.AsStringSlice()
	}
	return o
}
