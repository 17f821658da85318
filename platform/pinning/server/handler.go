/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/view/services/server/web"
	"github.com/vindecode/vindecode/platform/vindecode/services/relay"
)

const defaultMaxMemory = 32 << 20

type batchPinner interface {
	PinAll(ctx context.Context, files []File) ([]string, error)
}

type uploadHandler struct {
	service   batchPinner
	maxMemory int64
}

// RegisterUpload mounts the upload endpoint on h. Every failure is answered with status 500.
func RegisterUpload(h *web.HttpHandler, service batchPinner, maxMemory int64) {
	if maxMemory <= 0 {
		maxMemory = defaultMaxMemory
	}
	h.ErrorBody = func(reason string) interface{} {
		return &relay.Response{Message: reason}
	}
	h.RegisterURI(relay.UploadPath, http.MethodPost, &uploadHandler{service: service, maxMemory: maxMemory})
}

func (h *uploadHandler) ParsePayload(*http.Request) (interface{}, error) {
	return nil, nil
}

func (h *uploadHandler) HandleRequest(ctx *web.ReqContext) (interface{}, int) {
	files, err := h.files(ctx.Req)
	if err != nil {
		logger.Warnf("[%s] rejected upload: %v", ctx.RequestID, err)
		return &relay.Response{Message: err.Error()}, http.StatusInternalServerError
	}
	logger.Debugf("[%s] pinning [%d] files", ctx.RequestID, len(files))
	urls, err := h.service.PinAll(ctx.Req.Context(), files)
	if err != nil {
		logger.Errorf("[%s] failed pinning batch: %v", ctx.RequestID, err)
		return &relay.Response{Message: err.Error()}, http.StatusInternalServerError
	}
	return &relay.Response{Success: true, URLs: urls}, http.StatusOK
}

func (h *uploadHandler) files(req *http.Request) ([]File, error) {
	if err := req.ParseMultipartForm(h.maxMemory); err != nil {
		return nil, errors.Wrap(err, "failed reading multipart body")
	}
	defer req.MultipartForm.RemoveAll()

	headers := req.MultipartForm.File[relay.FieldName]
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "failed opening [%s]", fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading [%s]", fh.Filename)
		}
		files = append(files, File{Name: fh.Filename, Data: data})
	}
	return files, nil
}
