/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations

import (
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/vindecode/vindecode/platform/view/services/metrics"
	"github.com/vindecode/vindecode/platform/view/services/metrics/disabled"
	"github.com/vindecode/vindecode/platform/view/services/metrics/prometheus"
)

var (
	vindecodeVersion = metrics.GaugeOpts{
		Name:       "version",
		Help:       "The active version of VinDecode.",
		LabelNames: []string{"version"},
	}

	gaugeLock        sync.Mutex
	promVersionGauge metrics.Gauge
)

func versionGauge(provider metrics.Provider) metrics.Gauge {
	switch provider.(type) {
	case *prometheus.Provider:
		gaugeLock.Lock()
		defer gaugeLock.Unlock()
		if promVersionGauge == nil {
			promVersionGauge = provider.NewGauge(vindecodeVersion)
		}
		return promVersionGauge

	default:
		return provider.NewGauge(vindecodeVersion)
	}
}

// NewMetricsProvider returns the provider named in the options, registering on the default registry
func NewMetricsProvider(m MetricsOptions) metrics.Provider {
	switch m.Provider {
	case "prometheus":
		return &prometheus.Provider{
			Namespace:       prometheus.DefaultNamespace,
			Registerer:      prom.DefaultRegisterer,
			SkipRegisterErr: true,
		}
	default:
		return &disabled.Provider{}
	}
}
