/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tx

import (
	"time"

	"github.com/vindecode/vindecode/platform/view/services/metrics"
)

const methodLabel = "method"

var (
	submissionsOpts = metrics.CounterOpts{
		Namespace:  "vindecode",
		Subsystem:  "tx",
		Name:       "submissions",
		Help:       "The number of transactions by method and outcome",
		LabelNames: []string{methodLabel, "outcome"},
	}
	pendingOpts = metrics.GaugeOpts{
		Namespace: "vindecode",
		Subsystem: "tx",
		Name:      "pending",
		Help:      "The number of transactions waiting for confirmation",
	}
	confirmationOpts = metrics.HistogramOpts{
		Namespace:  "vindecode",
		Subsystem:  "tx",
		Name:       "confirmation_seconds",
		Help:       "The time between broadcast and confirmation",
		LabelNames: []string{methodLabel},
		Buckets:    []float64{1, 5, 15, 30, 60, 120, 300},
	}
)

type Metrics struct {
	Submissions  metrics.Counter
	Pending      metrics.Gauge
	Confirmation metrics.Histogram
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Submissions:  p.NewCounter(submissionsOpts),
		Pending:      p.NewGauge(pendingOpts),
		Confirmation: p.NewHistogram(confirmationOpts),
	}
}

func (m *Metrics) submitted(method string) {
	m.Submissions.With(methodLabel, method, "outcome", "submitted").Add(1)
	m.Pending.Add(1)
}

func (m *Metrics) confirmed(method string, elapsed time.Duration) {
	m.Submissions.With(methodLabel, method, "outcome", "confirmed").Add(1)
	m.Pending.Add(-1)
	m.Confirmation.With(methodLabel, method).Observe(elapsed.Seconds())
}

// failed counts a failure before or after broadcast
func (m *Metrics) failed(method string, kind Kind) {
	m.Submissions.With(methodLabel, method, "outcome", "failed_"+kind.String()).Add(1)
}
