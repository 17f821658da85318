/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/view/services/server/web"
)

type Fruit struct {
	Name     string
	Quantity int
}

type FruitBasket struct {
	Fruits []string
}

type fakeRequestHandler struct {
	HandleRequestStub func(*web.ReqContext) (interface{}, int)
	ParsePayloadStub  func(*http.Request) (interface{}, error)
	calls             int
}

func (f *fakeRequestHandler) HandleRequest(ctx *web.ReqContext) (interface{}, int) {
	f.calls++
	return f.HandleRequestStub(ctx)
}

func (f *fakeRequestHandler) ParsePayload(req *http.Request) (interface{}, error) {
	return f.ParsePayloadStub(req)
}

func TestHttpHandler(t *testing.T) {
	l, _ := logging.NewTestLogger(t)
	h := web.NewHttpHandler(l, web.APIVersion)

	rh := &fakeRequestHandler{}
	rh.HandleRequestStub = func(ctx *web.ReqContext) (interface{}, int) {
		query := ctx.Query.(*Fruit)

		var res FruitBasket
		for i := 0; i < query.Quantity; i++ {
			res.Fruits = append(res.Fruits, query.Name)
		}

		require.Equal(t, ctx.Vars["Fruit"], "pineapple")
		require.NotEmpty(t, ctx.RequestID)

		return res, 200
	}
	rh.ParsePayloadStub = func(req *http.Request) (interface{}, error) {
		return web.JSONPayload(req, func() interface{} { return &Fruit{} })
	}

	h.RegisterURI("/test/{Fruit}", "PUT", rh)

	resp := httptest.NewRecorder()
	pineappleRequest := bytes.NewBufferString(`{"Name": "pineapple", "Quantity": 3}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/test/pineapple", pineappleRequest)
	h.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get(web.RequestIDHeader), "req_")
	expectedPineappleResponse := FruitBasket{Fruits: []string{"pineapple", "pineapple", "pineapple"}}
	var actualResponse FruitBasket
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &actualResponse))
	require.Equal(t, expectedPineappleResponse, actualResponse)
}

func TestHttpHandlerErrors(t *testing.T) {
	l, _ := logging.NewTestLogger(t)
	h := web.NewHttpHandler(l, "")
	h.ErrorBody = func(reason string) interface{} {
		return map[string]interface{}{"success": false, "message": reason}
	}

	rh := &fakeRequestHandler{
		ParsePayloadStub: func(req *http.Request) (interface{}, error) {
			return web.JSONPayload(req, func() interface{} { return &Fruit{} })
		},
		HandleRequestStub: func(ctx *web.ReqContext) (interface{}, int) {
			return map[string]interface{}{"success": false, "message": "no more fruit"}, http.StatusInternalServerError
		},
	}
	h.RegisterURI("/fruit", http.MethodPost, rh)

	// malformed payloads never reach the backend
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/fruit", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"success":false,"message":"failed parsing request"}`, resp.Body.String())
	assert.Equal(t, 0, rh.calls)

	// non-2xx answers from the backend are sent as they are
	resp = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/fruit", nil)
	req.Header.Set(web.RequestIDHeader, "req_fixed")
	h.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "req_fixed", resp.Header().Get(web.RequestIDHeader))
	assert.JSONEq(t, `{"success":false,"message":"no more fruit"}`, resp.Body.String())

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/fruit", nil)
	req.Header.Set("Accept", "text/html")
	h.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/fruit", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

func TestServerCORS(t *testing.T) {
	l, _ := logging.NewTestLogger(t)
	h := web.NewHttpHandler(l, "")
	h.RegisterHandler("/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))

	s := web.NewServer(web.Options{ListenAddress: "127.0.0.1:0", CORS: true, Logger: l}, h)
	require.NoError(t, s.Start())
	defer func() { require.NoError(t, s.Stop()) }()
	assert.Error(t, s.Start())

	req, err := http.NewRequest(http.MethodGet, "http://"+s.Addr()+"/ping", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}
