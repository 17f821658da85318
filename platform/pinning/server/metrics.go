/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"time"

	"github.com/vindecode/vindecode/platform/view/services/metrics"
)

const outcomeLabel = "outcome"

var (
	pinsOpts = metrics.CounterOpts{
		Namespace:  "vindecode",
		Subsystem:  "relay",
		Name:       "pins",
		Help:       "The number of files by outcome: pinned, cached or failed",
		LabelNames: []string{outcomeLabel},
	}
	batchesOpts = metrics.CounterOpts{
		Namespace: "vindecode",
		Subsystem: "relay",
		Name:      "batches",
		Help:      "The number of batches pinned successfully",
	}
	pinLatencyOpts = metrics.HistogramOpts{
		Namespace: "vindecode",
		Subsystem: "relay",
		Name:      "pin_seconds",
		Help:      "The time taken by pinata to pin a file",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}
)

type Metrics struct {
	Pins       metrics.Counter
	Batches    metrics.Counter
	PinLatency metrics.Histogram
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Pins:       p.NewCounter(pinsOpts),
		Batches:    p.NewCounter(batchesOpts),
		PinLatency: p.NewHistogram(pinLatencyOpts),
	}
}

func (m *Metrics) pinned(outcome string, elapsed time.Duration) {
	m.Pins.With(outcomeLabel, outcome).Add(1)
	if outcome == "pinned" {
		m.PinLatency.Observe(elapsed.Seconds())
	}
}
