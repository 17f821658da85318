/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/pinning/cache"
	"github.com/vindecode/vindecode/platform/pinning/pinata"
	"github.com/vindecode/vindecode/platform/view/services/metrics/operations"
	"github.com/vindecode/vindecode/platform/view/services/server/web"
	"github.com/vindecode/vindecode/platform/view/services/tracing"
	"go.uber.org/multierr"
)

// Config is the relay section of the configuration
type Config struct {
	Address     string        `mapstructure:"address"`
	Gateway     string        `mapstructure:"gateway"`
	Parallelism int           `mapstructure:"parallelism"`
	MaxMemory   int64         `mapstructure:"maxMemory"`
	CORS        bool          `mapstructure:"cors"`
	Pinata      pinata.Config `mapstructure:"pinata"`
	// HealthCheck adds the pinata credentials to /healthz
	HealthCheck bool `mapstructure:"healthCheck"`
	Cache       struct {
		Path     string `mapstructure:"path"`
		InMemory bool   `mapstructure:"inMemory"`
	} `mapstructure:"cache"`
	Metrics operations.MetricsOptions `mapstructure:"metrics"`
}

// Relay is the pinning relay node
type Relay struct {
	server *web.Server
	system *operations.System
	store  *cache.Cache
}

func New(c Config, version string) (*Relay, error) {
	client, err := pinata.New(c.Pinata)
	if err != nil {
		return nil, errors.WithMessage(err, "failed creating pinata client")
	}

	var store *cache.Cache
	if len(c.Cache.Path) != 0 || c.Cache.InMemory {
		store, err = cache.Open(cache.Opts{Path: c.Cache.Path, InMemory: c.Cache.InMemory})
		if err != nil {
			return nil, err
		}
	}

	handler := web.NewHttpHandler(logger, "")
	system := operations.NewOperationSystem(handler, operations.NewMetricsProvider(c.Metrics), &operations.Options{
		Metrics: c.Metrics,
		Version: version,
	})
	if c.HealthCheck {
		if err := system.RegisterChecker("pinata", client); err != nil {
			return nil, multierr.Append(err, closeStore(store))
		}
	}

	var s Store
	if store != nil {
		s = store
	}
	service := NewService(client, s, c.Gateway, c.Parallelism, system, tracing.NewTracerProvider(system))
	RegisterUpload(handler, service, c.MaxMemory)

	return &Relay{
		server: web.NewServer(web.Options{ListenAddress: c.Address, CORS: c.CORS, Logger: logger}, handler),
		system: system,
		store:  store,
	}, nil
}

func (r *Relay) Start() error {
	if err := r.system.Start(); err != nil {
		return errors.Wrap(err, "failed starting operations system")
	}
	return r.server.Start()
}

// Stop stops serving and closes the pin cache
func (r *Relay) Stop() error {
	return multierr.Combine(r.server.Stop(), closeStore(r.store))
}

// Addr returns the bound address, empty before Start
func (r *Relay) Addr() string {
	return r.server.Addr()
}

func closeStore(store *cache.Cache) error {
	if store == nil {
		return nil
	}
	return store.Close()
}
