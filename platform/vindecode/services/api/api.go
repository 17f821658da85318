/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package api exposes the pages over JSON.
//
// Every page is addressed by its area name (home, dealer, traffic, insurance, admin).
// Actions answer with the transaction view once broadcast, or with the failure shown in the
// page dialog. Failures are bodies of the form {"error": reason, "kind": kind}.
package api

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/view/services/server/web"
	"github.com/vindecode/vindecode/platform/vindecode/services/gate"
	"github.com/vindecode/vindecode/platform/vindecode/services/page"
	"github.com/vindecode/vindecode/platform/vindecode/services/role"
	"github.com/vindecode/vindecode/platform/vindecode/services/session"
	"github.com/vindecode/vindecode/platform/vindecode/services/tx"
)

var logger = logging.MustGetLogger("vindecode.api")

type Session interface {
	Snapshot() session.Snapshot
	Connect(ctx context.Context) (common.Address, error)
}

// Selector switches the account of the wallet; the session follows through the wallet notifications
type Selector interface {
	Select(account common.Address) error
}

type Transactions interface {
	Lookup(handle common.Hash) (*tx.PendingTransaction, bool)
}

type Registry interface {
	CarExists(ctx context.Context, vin string) (bool, error)
}

// Service serves the pages of the node
type Service struct {
	session      Session
	selector     Selector
	transactions Transactions
	registry     Registry
	pages        map[role.Area]*page.Page
}

func NewService(session Session, selector Selector, transactions Transactions, registry Registry, pages []*page.Page) *Service {
	s := &Service{
		session:      session,
		selector:     selector,
		transactions: transactions,
		registry:     registry,
		pages:        map[role.Area]*page.Page{},
	}
	for _, p := range pages {
		s.pages[p.Area()] = p
	}
	return s
}

// Register mounts the routes on h
func (s *Service) Register(h *web.HttpHandler) {
	h.ErrorBody = func(reason string) interface{} {
		return &ErrorResponse{Error: reason}
	}

	h.RegisterURI("/session", http.MethodGet, handler(web.NoPayload, s.getSession))
	h.RegisterURI("/session/connect", http.MethodPost, handler(web.NoPayload, s.connect))
	h.RegisterURI("/session/select", http.MethodPost, handler(jsonPayload[SelectRequest], s.selectAccount))

	h.RegisterURI("/cars/{vin}", http.MethodGet, handler(web.NoPayload, s.fetch))
	h.RegisterURI("/cars/{vin}/exists", http.MethodGet, handler(web.NoPayload, s.exists))

	h.RegisterURI("/pages/{area}/permitted", http.MethodGet, handler(web.NoPayload, s.permitted))
	h.RegisterURI("/pages/{area}/actions", http.MethodGet, handler(web.NoPayload, s.actions))
	h.RegisterURI("/pages/{area}/actions/{action}", http.MethodPost, handler(s.parseCommand, s.run))
	h.RegisterURI("/pages/{area}/record", http.MethodGet, handler(web.NoPayload, s.record))
	h.RegisterURI("/pages/{area}/dialog", http.MethodGet, handler(web.NoPayload, s.dialog))
	h.RegisterURI("/pages/{area}/dialog/dismiss", http.MethodPost, handler(web.NoPayload, s.dismiss))

	h.RegisterURI("/tx/{handle}", http.MethodGet, handler(web.NoPayload, s.transaction))
	h.RegisterURI("/admin/state", http.MethodGet, handler(web.NoPayload, s.state))
}

// Close closes the pages, dropping the results still in flight
func (s *Service) Close() {
	for _, p := range s.pages {
		p.Close()
	}
}

func (s *Service) page(ctx *web.ReqContext) (*page.Page, error) {
	return s.pageOf(ctx.Vars["area"])
}

func (s *Service) pageOf(name string) (*page.Page, error) {
	area, err := role.ParseArea(name)
	if err != nil {
		return nil, err
	}
	p, ok := s.pages[area]
	if !ok {
		return nil, errors.Errorf("page [%s] not served", area)
	}
	return p, nil
}

type requestHandler struct {
	parse  func(*http.Request) (interface{}, error)
	handle func(*web.ReqContext) (interface{}, int)
}

func handler(parse func(*http.Request) (interface{}, error), handle func(*web.ReqContext) (interface{}, int)) web.RequestHandler {
	return &requestHandler{parse: parse, handle: handle}
}

func (h *requestHandler) ParsePayload(req *http.Request) (interface{}, error) {
	return h.parse(req)
}

func (h *requestHandler) HandleRequest(ctx *web.ReqContext) (interface{}, int) {
	return h.handle(ctx)
}

func jsonPayload[T any](req *http.Request) (interface{}, error) {
	return web.JSONPayload(req, func() interface{} { return new(T) })
}

// ErrorResponse is the body of the failed requests
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// failure answers err with the status matching its kind
func failure(err error) (interface{}, int) {
	if errors.Is(err, page.ErrClosed) {
		return &ErrorResponse{Error: err.Error()}, http.StatusServiceUnavailable
	}
	f := tx.Classify(err)
	return &ErrorResponse{Error: f.Reason, Kind: f.Kind.String()}, status(f)
}

func status(f *tx.Failure) int {
	switch f.Kind {
	case tx.Authorization:
		switch {
		case errors.Is(f, gate.ErrNotConnected):
			return http.StatusUnauthorized
		case errors.Is(f, gate.ErrActionPending):
			return http.StatusConflict
		default:
			return http.StatusForbidden
		}
	case tx.Wallet:
		return http.StatusPreconditionFailed
	case tx.Revert:
		return http.StatusUnprocessableEntity
	case tx.Relay:
		return http.StatusBadGateway
	default:
		switch f.Reason {
		case page.CarNotFound:
			return http.StatusNotFound
		case tx.GenericReason:
			return http.StatusInternalServerError
		default:
			// validation
			return http.StatusBadRequest
		}
	}
}

func badRequest(err error) (interface{}, int) {
	return &ErrorResponse{Error: err.Error()}, http.StatusBadRequest
}
