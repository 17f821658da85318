/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/vindecode/vindecode/pkg/utils"
)

const (
	APIVersion      = "/v1"
	RequestIDHeader = "X-Request-Id"
)

type ResponseErr struct {
	Reason string `json:"reason"`
}

type HttpHandler struct {
	prefix string
	r      *mux.Router
	Logger logger
	// ErrorBody builds the body of the responses for requests that never reach a RequestHandler
	ErrorBody func(reason string) interface{}
}

type logger interface {
	Debugf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

type ReqContext struct {
	Req       *http.Request
	Vars      map[string]string
	Query     interface{}
	RequestID string
}

//go:generate counterfeiter -o mocks/request_handler.go -fake-name FakeRequestHandler . RequestHandler

type RequestHandler interface {
	// HandleRequest dispatches the request in the backend by parsing the given request context
	// and returning a status code and a response back to the client.
	HandleRequest(*ReqContext) (response interface{}, statusCode int)

	// ParsePayload parses the request body to handler specific form or returns an error
	ParsePayload(*http.Request) (interface{}, error)
}

// NewHttpHandler returns a handler mounting every URI under prefix, e.g. APIVersion
func NewHttpHandler(l logger, prefix string) *HttpHandler {
	return &HttpHandler{
		prefix: prefix,
		r:      mux.NewRouter(),
		Logger: l,
		ErrorBody: func(reason string) interface{} {
			return &ResponseErr{Reason: reason}
		},
	}
}

func (h *HttpHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.r.ServeHTTP(w, req)
}

func (h *HttpHandler) RegisterURI(uri string, method string, rh RequestHandler) {
	f := func(backToClient http.ResponseWriter, req *http.Request) {
		h.handle(backToClient, req, rh)
	}

	h.r.HandleFunc(h.prefix+uri, f).Methods(method)
}

// RegisterHandler mounts a plain http.Handler at path, outside the prefix
func (h *HttpHandler) RegisterHandler(path string, handler http.Handler) {
	h.r.Handle(path, handler)
}

func (h *HttpHandler) handle(backToClient http.ResponseWriter, req *http.Request, rh RequestHandler) {
	requestID := req.Header.Get(RequestIDHeader)
	if len(requestID) == 0 {
		requestID = utils.NewRequestID()
	}
	backToClient.Header().Set(RequestIDHeader, requestID)

	if _, err := negotiateContentType(req); err != nil {
		h.sendErr(backToClient, http.StatusBadRequest, "bad content type", requestID, err)
		return
	}

	o, err := rh.ParsePayload(req)
	if err != nil {
		h.sendErr(backToClient, http.StatusBadRequest, "failed parsing request", requestID, err)
		return
	}

	reqCtx := &ReqContext{
		Query:     o,
		Req:       req,
		Vars:      mux.Vars(req),
		RequestID: requestID,
	}

	resultFromBackend, statusCode := rh.HandleRequest(reqCtx)

	response := &bytes.Buffer{}

	encoder := json.NewEncoder(response)
	err = encoder.Encode(resultFromBackend)
	if err != nil {
		h.sendErr(backToClient, http.StatusInternalServerError, "failed encoding response from backend", requestID, err)
		return
	}

	if statusCode/100 != 2 {
		h.Logger.Debugf("[%s] request to [%s] answered with status [%d]", requestID, req.URL.Path, statusCode)
	}

	backToClient.Header().Set("Content-Type", "application/json")
	backToClient.WriteHeader(statusCode)
	backToClient.Write(response.Bytes())
}

func (h *HttpHandler) sendErr(resp http.ResponseWriter, code int, errToClient string, requestID string, errLogged error) {
	if errLogged != nil {
		h.Logger.Warnf("[%s] failed processing request: %v", requestID, errLogged)
	}

	encoder := json.NewEncoder(resp)
	resp.Header().Set("Content-Type", "application/json")
	resp.WriteHeader(code)
	if err := encoder.Encode(h.ErrorBody(errToClient)); err != nil {
		h.Logger.Warnf("[%s] failed encoding response: %v", requestID, err)
	}
}

func negotiateContentType(req *http.Request) (string, error) {
	acceptReq := req.Header.Get("Accept")
	if len(acceptReq) == 0 {
		return "application/json", nil
	}

	options := strings.Split(acceptReq, ",")
	for _, opt := range options {
		if strings.Contains(opt, "application/json") ||
			strings.Contains(opt, "application/*") ||
			strings.Contains(opt, "*/*") {
			return "application/json", nil
		}
	}

	return "", errors.New("response Content-Type is application/json only")
}

// JSONPayload decodes the request body into a fresh value built by newValue.
// An empty body yields the zero value.
func JSONPayload(req *http.Request, newValue func() interface{}) (interface{}, error) {
	v := newValue()
	payload, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return nil, err
	}
	return v, nil
}

// NoPayload is a ParsePayload for requests without a body
func NoPayload(*http.Request) (interface{}, error) {
	return nil, nil
}
