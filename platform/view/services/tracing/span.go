/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tracing

import (
	"sync"
	"time"

	"github.com/vindecode/vindecode/platform/view/services/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// spanMetrics counts the spans of one tracer and observes their duration
type spanMetrics struct {
	labelNames []LabelName
	operations metrics.Counter
	duration   metrics.Histogram
}

func (m *spanMetrics) wrap(backing trace.Span, opts ...trace.SpanStartOption) *span {
	c := trace.NewSpanStartConfig(opts...)
	s := &span{
		Span:    backing,
		metrics: m,
		start:   orNow(c.Timestamp()),
		values:  make(map[string]string, len(m.labelNames)),
	}
	s.record(c.Attributes())
	return s
}

// span keeps the values of the label attributes seen until End
type span struct {
	trace.Span

	metrics *spanMetrics
	start   time.Time

	mu     sync.Mutex
	values map[string]string
}

func (s *span) SetAttributes(kv ...attribute.KeyValue) {
	s.Span.SetAttributes(kv...)
	s.record(kv)
}

func (s *span) AddEvent(name string, options ...trace.EventOption) {
	s.Span.AddEvent(name, options...)
	c := trace.NewEventConfig(options...)
	s.record(c.Attributes())
}

func (s *span) End(options ...trace.SpanEndOption) {
	s.Span.End(options...)

	c := trace.NewSpanEndConfig(options...)
	s.record(c.Attributes())
	labels := s.labels()
	s.metrics.operations.With(labels...).Add(1)
	s.metrics.duration.With(labels...).Observe(orNow(c.Timestamp()).Sub(s.start).Seconds())
}

func (s *span) record(kvs []attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kv := range kvs {
		if !kv.Valid() {
			continue
		}
		for _, name := range s.metrics.labelNames {
			if string(kv.Key) == name {
				s.values[name] = kv.Value.Emit()
				break
			}
		}
	}
}

// labels returns name/value pairs in label order, unseen labels are empty
func (s *span) labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, 2*len(s.metrics.labelNames))
	for _, name := range s.metrics.labelNames {
		out = append(out, name, s.values[name])
	}
	return out
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
