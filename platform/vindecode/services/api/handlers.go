/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/view/services/server/web"
	"github.com/vindecode/vindecode/platform/vindecode/model"
	"github.com/vindecode/vindecode/platform/vindecode/services/page"
	"github.com/vindecode/vindecode/platform/vindecode/services/relay"
	"github.com/vindecode/vindecode/platform/vindecode/services/role"
)

const maxUploadMemory = 32 << 20

type SessionResponse struct {
	Account   string `json:"account,omitempty"`
	Connected bool   `json:"connected"`
	Epoch     uint64 `json:"epoch"`
}

type SelectRequest struct {
	Account string `json:"account"`
}

type PermittedResponse struct {
	Area      string `json:"area"`
	Permitted bool   `json:"permitted"`
	Reason    string `json:"reason,omitempty"`
}

type ActionInfo struct {
	Name      string `json:"name"`
	Permitted bool   `json:"permitted"`
}

type ExistsResponse struct {
	VIN    string `json:"vin"`
	Exists bool   `json:"exists"`
}

func (s *Service) sessionResponse() *SessionResponse {
	snapshot := s.session.Snapshot()
	res := &SessionResponse{Connected: snapshot.Connected(), Epoch: snapshot.Epoch}
	if snapshot.Connected() {
		res.Account = snapshot.Account.Hex()
	}
	return res
}

func (s *Service) getSession(*web.ReqContext) (interface{}, int) {
	return s.sessionResponse(), http.StatusOK
}

func (s *Service) connect(ctx *web.ReqContext) (interface{}, int) {
	if _, err := s.session.Connect(ctx.Req.Context()); err != nil {
		logger.Debugf("[%s] connection refused: %v", ctx.RequestID, err)
		return failure(err)
	}
	return s.sessionResponse(), http.StatusOK
}

// selectAccount asks the wallet to switch; the session reflects it once the wallet notifies
func (s *Service) selectAccount(ctx *web.ReqContext) (interface{}, int) {
	req := ctx.Query.(*SelectRequest)
	account, err := model.ParseAddress(req.Account)
	if err != nil {
		return badRequest(err)
	}
	if err := s.selector.Select(account); err != nil {
		return failure(err)
	}
	return s.sessionResponse(), http.StatusAccepted
}

// fetch loads the car in the page named by the area query parameter, home by default
func (s *Service) fetch(ctx *web.ReqContext) (interface{}, int) {
	name := ctx.Req.URL.Query().Get("area")
	if len(name) == 0 {
		name = role.None.String()
	}
	p, err := s.pageOf(name)
	if err != nil {
		return badRequest(err)
	}
	car, err := p.Fetch(ctx.Req.Context(), ctx.Vars["vin"])
	if err != nil {
		return failure(err)
	}
	return car, http.StatusOK
}

func (s *Service) exists(ctx *web.ReqContext) (interface{}, int) {
	vin := ctx.Vars["vin"]
	if err := model.ValidateVIN(vin); err != nil {
		return badRequest(err)
	}
	ok, err := s.registry.CarExists(ctx.Req.Context(), vin)
	if err != nil {
		return failure(err)
	}
	return &ExistsResponse{VIN: vin, Exists: ok}, http.StatusOK
}

func (s *Service) permitted(ctx *web.ReqContext) (interface{}, int) {
	p, err := s.page(ctx)
	if err != nil {
		return badRequest(err)
	}
	res := &PermittedResponse{Area: p.Area().String(), Permitted: true}
	if err := p.Permitted(ctx.Req.Context()); err != nil {
		if errors.Is(err, page.ErrClosed) {
			return failure(err)
		}
		res.Permitted = false
		res.Reason = err.Error()
	}
	return res, http.StatusOK
}

func (s *Service) actions(ctx *web.ReqContext) (interface{}, int) {
	p, err := s.page(ctx)
	if err != nil {
		return badRequest(err)
	}
	var res []ActionInfo
	for _, name := range page.Actions(p.Area()) {
		res = append(res, ActionInfo{Name: name, Permitted: p.IsPermitted(ctx.Req.Context(), name)})
	}
	return res, http.StatusOK
}

// parseCommand decodes the action of the path. Accident images come as multipart files.
func (s *Service) parseCommand(req *http.Request) (interface{}, error) {
	vars := mux.Vars(req)
	area, err := role.ParseArea(vars["area"])
	if err != nil {
		return nil, err
	}
	cmd, err := page.NewCommand(area, vars["action"])
	if err != nil {
		return nil, err
	}

	accident, ok := cmd.(*page.AddAccident)
	if mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type")); ok && mediaType == "multipart/form-data" {
		if err := parseAccident(req, accident); err != nil {
			return nil, err
		}
		return cmd, nil
	}
	return web.JSONPayload(req, func() interface{} { return cmd })
}

func parseAccident(req *http.Request, cmd *page.AddAccident) error {
	if err := req.ParseMultipartForm(maxUploadMemory); err != nil {
		return errors.Wrap(err, "failed reading multipart body")
	}
	defer req.MultipartForm.RemoveAll()

	cmd.VIN = req.FormValue("vin")
	cmd.Description = req.FormValue("description")
	cmd.Images = relay.NewBatch()
	for _, fh := range req.MultipartForm.File[relay.FieldName] {
		f, err := fh.Open()
		if err != nil {
			return errors.Wrapf(err, "failed opening [%s]", fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "failed reading [%s]", fh.Filename)
		}
		cmd.Images.Add(fh.Filename, data)
	}
	return nil
}

// run submits the action. With wait=true the answer is sent once the transaction is final.
func (s *Service) run(ctx *web.ReqContext) (interface{}, int) {
	p, err := s.page(ctx)
	if err != nil {
		return badRequest(err)
	}
	pt, err := p.Run(ctx.Req.Context(), ctx.Query.(page.Command))
	if err != nil {
		return failure(err)
	}
	logger.Debugf("[%s] submitted [%s] as [%s]", ctx.RequestID, pt.Action, pt.Handle)

	wait, _ := strconv.ParseBool(ctx.Req.URL.Query().Get("wait"))
	if !wait {
		return pt.View(), http.StatusAccepted
	}
	// the failure, if any, is part of the view
	_, _ = pt.Wait(ctx.Req.Context())
	if ctx.Req.Context().Err() != nil {
		return pt.View(), http.StatusAccepted
	}
	return pt.View(), http.StatusOK
}

func (s *Service) record(ctx *web.ReqContext) (interface{}, int) {
	p, err := s.page(ctx)
	if err != nil {
		return badRequest(err)
	}
	car := p.Record()
	if car == nil {
		return &ErrorResponse{Error: "no car loaded"}, http.StatusNotFound
	}
	return car, http.StatusOK
}

func (s *Service) dialog(ctx *web.ReqContext) (interface{}, int) {
	p, err := s.page(ctx)
	if err != nil {
		return badRequest(err)
	}
	return p.Dialog(), http.StatusOK
}

func (s *Service) dismiss(ctx *web.ReqContext) (interface{}, int) {
	p, err := s.page(ctx)
	if err != nil {
		return badRequest(err)
	}
	p.DismissError()
	return p.Dialog(), http.StatusOK
}

func (s *Service) transaction(ctx *web.ReqContext) (interface{}, int) {
	raw, err := hexutil.Decode(ctx.Vars["handle"])
	if err != nil || len(raw) != common.HashLength {
		return badRequest(errors.Errorf("invalid transaction handle [%s]", ctx.Vars["handle"]))
	}
	pt, ok := s.transactions.Lookup(common.BytesToHash(raw))
	if !ok {
		return &ErrorResponse{Error: "unknown transaction"}, http.StatusNotFound
	}
	return pt.View(), http.StatusOK
}

func (s *Service) state(ctx *web.ReqContext) (interface{}, int) {
	p, ok := s.pages[role.Admin]
	if !ok {
		return &ErrorResponse{Error: "admin page not served"}, http.StatusNotFound
	}
	info, err := p.State(ctx.Req.Context())
	if err != nil {
		return failure(err)
	}
	return info, http.StatusOK
}
