/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdk

import (
	"context"
	"errors"
	"time"

	dig2 "github.com/vindecode/vindecode/platform/common/sdk/dig"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	digutils "github.com/vindecode/vindecode/platform/common/utils/dig"
	tracing2 "github.com/vindecode/vindecode/platform/view/sdk/tracing"
	"github.com/vindecode/vindecode/platform/view/services/events"
	"github.com/vindecode/vindecode/platform/view/services/events/simple"
	metrics2 "github.com/vindecode/vindecode/platform/view/services/metrics"
	"github.com/vindecode/vindecode/platform/view/services/metrics/operations"
	"github.com/vindecode/vindecode/platform/view/services/server/web"
	"github.com/vindecode/vindecode/platform/view/services/tracing"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/dig"
	"go.uber.org/multierr"
)

var logger = logging.MustGetLogger("vindecode.sdk")

// SDK provides the node infrastructure: event bus, web server, operations, metrics, tracing
type SDK struct {
	dig2.SDK
	version string
	tracer  trace.TracerProvider
}

func NewSDK(config dig2.ConfigService, version string) *SDK {
	return NewSDKFrom(dig2.NewBaseSDK(NewContainer(), config), version)
}

func NewSDKFrom(baseSDK dig2.SDK, version string) *SDK {
	sdk := &SDK{SDK: baseSDK, version: version}
	err := sdk.Container().Provide(func() dig2.ConfigService { return baseSDK.ConfigService() })
	if err != nil {
		panic(err)
	}
	return sdk
}

func (p *SDK) Install() error {
	err := errors.Join(
		p.Container().Provide(simple.NewEventBus, dig.As(new(events.EventSystem), new(events.Publisher), new(events.Subscriber))),
		p.Container().Provide(newHttpHandler),
		p.Container().Provide(digutils.Identity[*web.HttpHandler](), dig.As(new(operations.Server))),
		p.Container().Provide(newWebServer),
		p.Container().Provide(func(config dig2.ConfigService) *operations.Options {
			return newOperationsOptions(config, p.version)
		}),
		p.Container().Provide(func(o *operations.Options) metrics2.Provider {
			return operations.NewMetricsProvider(o.Metrics)
		}),
		p.Container().Provide(operations.NewOperationSystem),
		p.Container().Provide(func(metricsProvider metrics2.Provider, configService dig2.ConfigService) (trace.TracerProvider, error) {
			base, err := tracing2.NewTracerProvider(configService, "vindecode.tracing")
			if err != nil {
				return nil, err
			}
			p.tracer = base
			return tracing.NewTracerProviderWithBackingProvider(base, metricsProvider), nil
		}),
	)
	if err != nil {
		return err
	}
	return p.SDK.Install()
}

func (p *SDK) Start(ctx context.Context) error {
	if err := p.SDK.Start(ctx); err != nil {
		return err
	}
	return p.Container().Invoke(func(server *web.Server, system *operations.System) error {
		if err := system.Start(); err != nil {
			return err
		}
		return server.Start()
	})
}

func (p *SDK) PostStart(ctx context.Context) error {
	defer logger.Debugf("Services installed:\n%s", p.Container().Visualize())
	return p.SDK.PostStart(ctx)
}

// Stop stops the web server and flushes the traces
func (p *SDK) Stop() error {
	var errs error
	err := p.Container().Invoke(func(server *web.Server) {
		errs = multierr.Append(errs, server.Stop())
	})
	if p.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = multierr.Append(errs, tracing2.Shutdown(ctx, p.tracer))
	}
	return multierr.Combine(err, errs, p.SDK.Stop())
}

func newHttpHandler() *web.HttpHandler {
	return web.NewHttpHandler(logging.MustGetLogger("vindecode.web"), web.APIVersion)
}

func newWebServer(config dig2.ConfigService, handler *web.HttpHandler) *web.Server {
	return web.NewServer(web.Options{
		ListenAddress:     config.GetString("vindecode.app.address"),
		ReadHeaderTimeout: config.GetDuration("vindecode.app.readHeaderTimeout"),
		CORS:              config.GetBool("vindecode.app.cors"),
		Logger:            logging.MustGetLogger("vindecode.web"),
	}, handler)
}

func newOperationsOptions(config dig2.ConfigService, version string) *operations.Options {
	return &operations.Options{
		Metrics: operations.MetricsOptions{Provider: config.GetString("vindecode.metrics.provider")},
		Version: version,
	}
}
