/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var logger = logging.MustGetLogger("vindecode.relay")

const (
	// UploadPath is the relay endpoint accepting the files
	UploadPath = "/upload"
	// FieldName is the repeatable multipart field carrying the files
	FieldName = "images"
)

// Attachment is a file to upload
type Attachment struct {
	Name string
	Data []byte
}

// Error is the failure of a whole batch
type Error struct {
	// Message is the relay's own message when it gave one
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if len(e.Message) != 0 {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return fmt.Sprintf("relay answered with status %d", e.Status)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Response is the body of the relay answers
type Response struct {
	Success bool     `json:"success"`
	URLs    []string `json:"pinataUrls,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Client uploads attachments to the pinning relay
type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: strings.TrimRight(url, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// UploadBatch uploads the attachments in one request and returns their public URLs in the same order.
// Any failure fails the whole batch with an *Error. An empty batch makes no request.
func (c *Client) UploadBatch(ctx context.Context, attachments []Attachment) ([]string, error) {
	if len(attachments) == 0 {
		return []string{}, nil
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for i, a := range attachments {
		name := a.Name
		if len(name) == 0 {
			name = fmt.Sprintf("image-%d", i)
		}
		part, err := w.CreateFormFile(FieldName, name)
		if err != nil {
			return nil, &Error{Cause: errors.Wrapf(err, "failed adding [%s]", name)}
		}
		if _, err := part.Write(a.Data); err != nil {
			return nil, &Error{Cause: errors.Wrapf(err, "failed adding [%s]", name)}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Cause: errors.Wrap(err, "failed closing multipart body")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+UploadPath, body)
	if err != nil {
		return nil, &Error{Cause: errors.Wrapf(err, "failed creating request to [%s]", c.url)}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	logger.Debugf("uploading [%d] attachments to [%s]", len(attachments), c.url)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Cause: errors.Wrapf(err, "failed reaching relay [%s]", c.url)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Cause: errors.Wrap(err, "failed reading relay response")}
	}
	var res Response
	decodeErr := json.Unmarshal(raw, &res)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: res.Message}
	}
	if decodeErr != nil {
		return nil, &Error{Status: resp.StatusCode, Cause: errors.Wrap(decodeErr, "malformed relay response")}
	}
	if !res.Success {
		return nil, &Error{Status: resp.StatusCode, Message: res.Message, Cause: errors.New("relay reported failure")}
	}
	if len(res.URLs) != len(attachments) {
		return nil, &Error{Status: resp.StatusCode, Cause: errors.Errorf("relay returned %d urls for %d attachments", len(res.URLs), len(attachments))}
	}
	return res.URLs, nil
}
