/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/pinning/cache"
	"github.com/vindecode/vindecode/platform/view/services/metrics/disabled"
	"github.com/vindecode/vindecode/platform/view/services/server/web"
	"github.com/vindecode/vindecode/platform/vindecode/services/relay"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakePinner struct {
	mutex  sync.Mutex
	calls  map[string]int
	fail   string
	delays map[string]time.Duration
}

func (f *fakePinner) Pin(ctx context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mutex.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	delay := f.delays[name]
	f.mutex.Unlock()

	if name == f.fail {
		return "", errors.Errorf("pinata refused [%s]", name)
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "Qm" + string(data), nil
}

func (f *fakePinner) count(name string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls[name]
}

func newService(t *testing.T, pinner Pinner, withCache bool) *Service {
	var store Store
	if withCache {
		c, err := cache.Open(cache.Opts{InMemory: true})
		require.NoError(t, err)
		t.Cleanup(func() { c.Close() })
		store = c
	}
	return NewService(pinner, store, "", 2, &disabled.Provider{}, noop.NewTracerProvider())
}

func TestPinAllKeepsOrder(t *testing.T) {
	pinner := &fakePinner{delays: map[string]time.Duration{"a.png": 30 * time.Millisecond}}
	s := newService(t, pinner, false)

	urls, err := s.PinAll(context.Background(), []File{
		{Name: "a.png", Data: []byte("A")},
		{Name: "b.png", Data: []byte("B")},
		{Name: "c.png", Data: []byte("C")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://ipfs.io/ipfs/QmA",
		"https://ipfs.io/ipfs/QmB",
		"https://ipfs.io/ipfs/QmC",
	}, urls)

	urls, err = s.PinAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestPinAllFails(t *testing.T) {
	pinner := &fakePinner{fail: "b.png"}
	s := newService(t, pinner, false)

	_, err := s.PinAll(context.Background(), []File{
		{Name: "a.png", Data: []byte("A")},
		{Name: "b.png", Data: []byte("B")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinata refused [b.png]")
}

func TestPinAllDeduplicates(t *testing.T) {
	pinner := &fakePinner{}
	s := newService(t, pinner, true)

	for i := 0; i < 2; i++ {
		urls, err := s.PinAll(context.Background(), []File{{Name: "a.png", Data: []byte("A")}})
		require.NoError(t, err)
		assert.Equal(t, []string{"https://ipfs.io/ipfs/QmA"}, urls)
	}
	assert.Equal(t, 1, pinner.count("a.png"))
}

func upload(t *testing.T, h http.Handler, files map[string]string, order ...string) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range order {
		part, err := w.CreateFormFile(relay.FieldName, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, relay.UploadPath, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadHandler(t *testing.T) {
	l, _ := logging.NewTestLogger(t)
	pinner := &fakePinner{fail: "bad.png"}
	h := web.NewHttpHandler(l, "")
	RegisterUpload(h, newService(t, pinner, false), 0)

	rec := upload(t, h, map[string]string{"a.png": "A", "b.png": "B"}, "a.png", "b.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"pinataUrls":["https://ipfs.io/ipfs/QmA","https://ipfs.io/ipfs/QmB"]}`, rec.Body.String())

	rec = upload(t, h, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = upload(t, h, map[string]string{"a.png": "A", "bad.png": "X"}, "a.png", "bad.png")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), "pinata refused [bad.png]")

	// not a multipart body
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, relay.UploadPath, bytes.NewBufferString("{}")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestRelay(t *testing.T) {
	pinataServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pinning/pinFileToIPFS":
			f, _, err := r.FormFile("file")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(f)
			_, _ = w.Write([]byte(`{"IpfsHash":"Qm` + string(data) + `"}`))
		case "/data/testAuthentication":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer pinataServer.Close()

	c := Config{Address: "127.0.0.1:0", Gateway: "https://gateway.pinata.cloud/ipfs", CORS: true, HealthCheck: true}
	c.Pinata.Endpoint = pinataServer.URL
	c.Pinata.APIKey = "key"
	c.Pinata.SecretAPIKey = "secret"
	c.Cache.InMemory = true

	r, err := New(c, "test")
	require.NoError(t, err)
	require.NoError(t, r.Start())
	defer func() { assert.NoError(t, r.Stop()) }()

	client := relay.NewClient("http://"+r.Addr(), 5*time.Second)
	urls, err := client.UploadBatch(context.Background(), []relay.Attachment{
		{Name: "front.png", Data: []byte("Front")},
		{Data: []byte("Rear")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://gateway.pinata.cloud/ipfs/QmFront",
		"https://gateway.pinata.cloud/ipfs/QmRear",
	}, urls)

	res, err := http.Get("http://" + r.Addr() + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRelayNeedsKeys(t *testing.T) {
	_, err := New(Config{Address: "127.0.0.1:0"}, "test")
	assert.EqualError(t, err, "failed creating pinata client: pinata key pair not configured")
}
