/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations

import (
	"net/http"

	"github.com/hyperledger/fabric-lib-go/common/flogging/httpadmin"
	"github.com/hyperledger/fabric-lib-go/healthz"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/view/services/metrics"
)

var logger = logging.MustGetLogger("vindecode.operations")

type MetricsOptions struct {
	Provider string
}

type Options struct {
	Metrics MetricsOptions
	Version string
}

// Server is where the operation endpoints are mounted
type Server interface {
	RegisterHandler(path string, handler http.Handler)
}

// System exposes /metrics, /healthz and /logspec next to the service endpoints
type System struct {
	metrics.Provider

	Server        Server
	options       Options
	healthHandler *healthz.HealthHandler
	versionGauge  metrics.Gauge
}

func NewOperationSystem(server Server, metricsProvider metrics.Provider, o *Options) *System {
	system := &System{
		Server:        server,
		options:       *o,
		healthHandler: healthz.NewHealthHandler(),
	}
	system.initializeMetricsProvider(metricsProvider, o.Metrics)
	system.Server.RegisterHandler("/healthz", system.healthHandler)
	system.Server.RegisterHandler("/logspec", httpadmin.NewSpecHandler())
	return system
}

// RegisterChecker adds a component to the /healthz report
func (s *System) RegisterChecker(component string, checker healthz.HealthChecker) error {
	if err := s.healthHandler.RegisterChecker(component, checker); err != nil {
		return errors.Wrapf(err, "failed registering health checker [%s]", component)
	}
	return nil
}

func (s *System) Start() error {
	s.versionGauge.With("version", s.options.Version).Set(1)
	return nil
}

func (s *System) initializeMetricsProvider(provider metrics.Provider, m MetricsOptions) {
	logger.Debugf("Initializing metrics provider: [%s]", m.Provider)
	s.Provider = provider
	switch m.Provider {
	case "prometheus":
		s.Server.RegisterHandler("/metrics", promhttp.Handler())
	case "":
		logger.Info("metrics disabled")
	default:
		logger.Warnf("unknown provider type: %s; metrics disabled", m.Provider)
	}
	s.versionGauge = versionGauge(s.Provider)
}
