/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pinata

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var logger = logging.MustGetLogger("vindecode.pinning.pinata")

const (
	DefaultEndpoint = "https://api.pinata.cloud"
	pinFilePath     = "/pinning/pinFileToIPFS"
	authPath        = "/data/testAuthentication"

	apiKeyHeader    = "pinata_api_key"
	secretKeyHeader = "pinata_secret_api_key"
)

type Config struct {
	Endpoint     string        `mapstructure:"endpoint"`
	APIKey       string        `mapstructure:"apiKey"`
	SecretAPIKey string        `mapstructure:"secretApiKey"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Client pins files on Pinata with the key pair of the account
type Client struct {
	endpoint  string
	apiKey    string
	secretKey string
	client    *http.Client
}

func New(c Config) (*Client, error) {
	if len(c.APIKey) == 0 || len(c.SecretAPIKey) == 0 {
		return nil, errors.New("pinata key pair not configured")
	}
	endpoint := c.Endpoint
	if len(endpoint) == 0 {
		endpoint = DefaultEndpoint
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}
	return &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    c.APIKey,
		secretKey: c.SecretAPIKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type errorResponse struct {
	Error json.RawMessage `json:"error"`
}

// Pin uploads the content of r under name and returns its CID
func (c *Client) Pin(ctx context.Context, name string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)
	go func() {
		part, err := w.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = w.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+pinFilePath, pr)
	if err != nil {
		pr.CloseWithError(err)
		return "", errors.Wrap(err, "failed creating pin request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.authenticate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed pinning [%s]", name)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrapf(err, "failed reading pin response of [%s]", name)
	}
	if resp.StatusCode/100 != 2 {
		return "", errors.Errorf("pinata refused [%s] with status [%d]: %s", name, resp.StatusCode, reason(raw))
	}
	var res pinResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", errors.Wrapf(err, "malformed pin response of [%s]", name)
	}
	if len(res.IpfsHash) == 0 {
		return "", errors.Errorf("pin response of [%s] carries no hash", name)
	}
	logger.Debugf("pinned [%s] as [%s], [%d] bytes", name, res.IpfsHash, res.PinSize)
	return res.IpfsHash, nil
}

// TestAuthentication checks the key pair against the account
func (c *Client) TestAuthentication(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+authPath, nil)
	if err != nil {
		return errors.Wrap(err, "failed creating authentication request")
	}
	c.authenticate(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed reaching pinata")
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return errors.Errorf("pinata authentication failed with status [%d]: %s", resp.StatusCode, reason(raw))
	}
	return nil
}

// HealthCheck is TestAuthentication for the operations system
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.TestAuthentication(ctx)
}

func (c *Client) authenticate(req *http.Request) {
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set(secretKeyHeader, c.secretKey)
}

// reason extracts the error pinata reports, either a string or an object with a reason
func reason(raw []byte) string {
	var res errorResponse
	if err := json.Unmarshal(raw, &res); err != nil || len(res.Error) == 0 {
		return strings.TrimSpace(string(raw))
	}
	var s string
	if err := json.Unmarshal(res.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Reason  string `json:"reason"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(res.Error, &obj); err == nil && len(obj.Reason) != 0 {
		if len(obj.Details) != 0 {
			return obj.Reason + ": " + obj.Details
		}
		return obj.Reason
	}
	return string(res.Error)
}
