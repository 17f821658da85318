/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vindecode/vindecode/platform/view/services/metrics"
)

func TestProviderExposition(t *testing.T) {
	registry := prom.NewRegistry()
	p := NewProvider(registry)

	submissions := p.NewCounter(metrics.CounterOpts{
		Subsystem:  "tx",
		Name:       "submissions",
		Help:       "submissions by outcome",
		LabelNames: []string{"outcome"},
	})
	submissions.With("outcome", "confirmed").Add(2)
	submissions.With("outcome", "failed").Add(1)

	inFlight := p.NewGauge(metrics.GaugeOpts{Subsystem: "gate", Name: "in_flight"})
	inFlight.Set(3)

	latency := p.NewHistogram(metrics.HistogramOpts{Subsystem: "tx", Name: "latency_seconds", Buckets: []float64{1, 5}})
	latency.Observe(0.5)

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	result, err := ReadAll(rec.Body)
	require.NoError(t, err)

	values := result["vindecode_tx_submissions"]
	require.Len(t, values, 2)
	byOutcome := map[string]float64{}
	for _, v := range values {
		byOutcome[v.Attributes["outcome"]] = v.Value
	}
	assert.Equal(t, map[string]float64{"confirmed": 2, "failed": 1}, byOutcome)

	require.Len(t, result["vindecode_gate_in_flight"], 1)
	assert.Equal(t, float64(3), result["vindecode_gate_in_flight"][0].Value)
	require.Len(t, result["vindecode_tx_latency_seconds_count"], 1)
	assert.Equal(t, float64(1), result["vindecode_tx_latency_seconds_count"][0].Value)
}

func TestDuplicateRegistration(t *testing.T) {
	registry := prom.NewRegistry()
	opts := metrics.CounterOpts{Name: "pins"}

	p := NewProvider(registry)
	p.NewCounter(opts)
	assert.Panics(t, func() { p.NewCounter(opts) })

	p.SkipRegisterErr = true
	assert.NotPanics(t, func() { p.NewCounter(opts) })
}

func TestReadWithFilter(t *testing.T) {
	text := `# HELP a_total x
# TYPE a_total counter
a_total{kind="x",zone="eu"} 4
b_total 7
`
	r, err := ReadWithFilter(strings.NewReader(text), func(name MetricName, _ MetricValue) bool {
		return name == "b_total"
	})
	require.NoError(t, err)
	assert.Equal(t, MetricsResult{"b_total": {{Attributes: map[string]string{}, Value: 7}}}, r)

	r, err = ReadAll(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"kind": "x", "zone": "eu"}, r["a_total"][0].Attributes)

	_, err = ReadAll(strings.NewReader("broken"))
	assert.Error(t, err)
}
