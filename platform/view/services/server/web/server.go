/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/pkg/errors"
)

type Options struct {
	ListenAddress     string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	// CORS opens the endpoints to any origin
	CORS   bool
	Logger logger
}

type Server struct {
	options  Options
	handler  http.Handler
	server   *http.Server
	mutex    sync.Mutex
	listener net.Listener
}

func NewServer(o Options, handler http.Handler) *Server {
	if o.ReadHeaderTimeout == 0 {
		o.ReadHeaderTimeout = 10 * time.Second
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = 5 * time.Second
	}
	if o.CORS {
		handler = handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
		)(handler)
	}
	return &Server{
		options: o,
		handler: handler,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: o.ReadHeaderTimeout,
		},
	}
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listener != nil {
		return errors.New("server already started")
	}
	l, err := net.Listen("tcp", s.options.ListenAddress)
	if err != nil {
		return errors.Wrapf(err, "failed listening on [%s]", s.options.ListenAddress)
	}
	s.listener = l
	s.options.Logger.Infof("serving on [%s]", l.Addr())

	go func() {
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.options.Logger.Errorf("server on [%s] stopped: %v", l.Addr(), err)
		}
	}()
	return nil
}

// Stop shuts the server down, waiting for in-flight requests up to the shutdown timeout
func (s *Server) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listener == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed shutting down server")
	}
	s.listener = nil
	return nil
}

// Addr returns the bound address, empty before Start
func (s *Server) Addr() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.handler.ServeHTTP(w, req)
}
