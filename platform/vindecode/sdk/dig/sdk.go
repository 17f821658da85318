/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdk

import (
	"context"
	"errors"

	dig2 "github.com/vindecode/vindecode/platform/common/sdk/dig"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/ethereum/core/client"
	"github.com/vindecode/vindecode/platform/ethereum/core/contract"
	"github.com/vindecode/vindecode/platform/ethereum/core/wallet"
	viewsdk "github.com/vindecode/vindecode/platform/view/sdk/dig"
	"github.com/vindecode/vindecode/platform/view/services/events"
	"github.com/vindecode/vindecode/platform/view/services/metrics"
	"github.com/vindecode/vindecode/platform/view/services/metrics/operations"
	"github.com/vindecode/vindecode/platform/view/services/server/web"
	"github.com/vindecode/vindecode/platform/vindecode/services/api"
	"github.com/vindecode/vindecode/platform/vindecode/services/gate"
	"github.com/vindecode/vindecode/platform/vindecode/services/page"
	"github.com/vindecode/vindecode/platform/vindecode/services/relay"
	"github.com/vindecode/vindecode/platform/vindecode/services/role"
	"github.com/vindecode/vindecode/platform/vindecode/services/session"
	"github.com/vindecode/vindecode/platform/vindecode/services/tx"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/dig"
	"go.uber.org/multierr"
)

var logger = logging.MustGetLogger("vindecode.sdk")

// SDK wires the vindecode services on top of the node infrastructure
type SDK struct {
	dig2.SDK
	subscriptions []events.Subscription
}

func NewSDK(config dig2.ConfigService, version string) *SDK {
	return NewFrom(viewsdk.NewSDK(config, version))
}

func NewFrom(sdk dig2.SDK) *SDK {
	return &SDK{SDK: sdk}
}

func (p *SDK) Install() error {
	err := errors.Join(
		p.Container().Provide(NewConfig),
		p.Container().Provide(newClient),
		p.Container().Provide(newWallet),
		p.Container().Provide(newContract),
		p.Container().Provide(func(w *wallet.Wallet, bus events.EventSystem) *session.Tracker { return session.NewTracker(w, bus) }),
		p.Container().Provide(func(c *contract.Contract) *role.Resolver { return role.NewResolver(c) }),
		p.Container().Provide(func(r *role.Resolver) *role.Cache { return role.NewCache(r) }),
		p.Container().Provide(func(t *session.Tracker, c *role.Cache) *gate.Gate { return gate.New(t, c) }),
		p.Container().Provide(newSubmitter),
		p.Container().Provide(func(c *Config) *relay.Client { return relay.NewClient(c.Relay.URL, c.Relay.Timeout) }),
		p.Container().Provide(newPages),
		p.Container().Provide(func(t *session.Tracker, w *wallet.Wallet, s *tx.Submitter, c *contract.Contract, pages []*page.Page) *api.Service {
			return api.NewService(t, w, s, c, pages)
		}),
	)
	if err != nil {
		return err
	}
	if err := p.SDK.Install(); err != nil {
		return err
	}
	if path := p.ConfigService().GetPath("vindecode.diag.graph"); len(path) != 0 {
		if err := viewsdk.WriteGraph(p.Container(), path); err != nil {
			return err
		}
		logger.Infof("service graph written to [%s]", path)
	}
	return nil
}

// Start follows the wallet, mounts the API and starts the server
func (p *SDK) Start(ctx context.Context) error {
	err := p.Container().Invoke(func(in struct {
		dig.In
		Wallet  *wallet.Wallet
		Tracker *session.Tracker
		Cache   *role.Cache
		Bus     events.EventSystem
		API     *api.Service
		Handler *web.HttpHandler
		System  *operations.System
		Client  *client.Client
	}) error {
		in.Wallet.Start()
		p.subscriptions = append(p.subscriptions,
			in.Tracker.Subscribe(in.Cache),
			in.Bus.Subscribe(tx.StatusChangedTopic, events.ListenerFunc(logStatus)),
		)
		in.Tracker.Start()
		in.API.Register(in.Handler)
		return in.System.RegisterChecker("ethereum", in.Client)
	})
	if err != nil {
		return err
	}
	return p.SDK.Start(ctx)
}

// PostStart connects the wallet when the node is configured to
func (p *SDK) PostStart(ctx context.Context) error {
	if err := p.SDK.PostStart(ctx); err != nil {
		return err
	}
	if !p.ConfigService().GetBool("vindecode.session.autoConnect") {
		return nil
	}
	return p.Container().Invoke(func(t *session.Tracker) {
		account, err := t.Connect(ctx)
		if err != nil {
			logger.Warnf("wallet not connected: %v", err)
			return
		}
		logger.Infof("connected account [%s]", account)
	})
}

func (p *SDK) Stop() error {
	var errs error
	err := p.Container().Invoke(func(a *api.Service, t *session.Tracker, w *wallet.Wallet, c *client.Client) {
		a.Close()
		for _, s := range p.subscriptions {
			s.Close()
		}
		t.Stop()
		w.Stop()
		errs = c.Close()
	})
	return multierr.Combine(err, errs, p.SDK.Stop())
}

func newClient(c *Config) *client.Client {
	return client.New(c.Ethereum.Endpoint, c.Ethereum.ChainIDBig())
}

func newWallet(c *Config) (*wallet.Wallet, error) {
	passphrase, err := c.Ethereum.PassphraseValue()
	if err != nil {
		return nil, err
	}
	return wallet.Open(c.Ethereum.Keystore, c.Ethereum.ChainIDBig(), passphrase, wallet.NewAutoConfirmFrontend()), nil
}

func newContract(c *Config, backend *client.Client, w *wallet.Wallet, tracerProvider trace.TracerProvider) (*contract.Contract, error) {
	return contract.New(c.Ethereum.ContractAddress(), backend, w, tracerProvider)
}

func newSubmitter(c *Config, g *gate.Gate, backend *contract.Contract, bus events.EventSystem, metricsProvider metrics.Provider, tracerProvider trace.TracerProvider) *tx.Submitter {
	return tx.NewSubmitter(g, backend, bus, c.Ethereum.Explorer, metricsProvider, tracerProvider, tx.WithRetention(c.Tx.Retention))
}

func newPages(g *gate.Gate, s *tx.Submitter, c *contract.Contract, r *relay.Client) []*page.Page {
	pages := make([]*page.Page, 0, len(role.Areas()))
	for _, area := range role.Areas() {
		pages = append(pages, page.New(area, page.Deps{Gate: g, Submitter: s, Reader: c, Uploader: r}))
	}
	return pages
}

func logStatus(event events.Event) {
	changed, ok := event.Message().(tx.StatusChanged)
	if !ok {
		return
	}
	v := changed.Tx.View()
	switch changed.Status {
	case tx.Failed:
		logger.Errorf("transaction [%s] of [%s] failed: %s", v.Handle, v.Action, v.Reason)
	default:
		logger.Infof("transaction [%s] of [%s] %s", v.Handle, v.Action, v.Status)
	}
}
