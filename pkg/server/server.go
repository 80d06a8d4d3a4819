/*
 * Copyright 2018 The Trickster Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package server runs the quay connection state machine: it accepts
// connections, reads and parses one request from each, dispatches it through
// the route and global Ship chains and writes the response.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	te "github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/methods"
	"github.com/trickstercache/quay/pkg/observability/logging"
	"github.com/trickstercache/quay/pkg/observability/logging/logger"
	"github.com/trickstercache/quay/pkg/observability/tracing"
	"github.com/trickstercache/quay/pkg/router/trie"
	"github.com/trickstercache/quay/pkg/server/options"
	"github.com/trickstercache/quay/pkg/ship"
	"github.com/trickstercache/quay/pkg/socket"
	qtls "github.com/trickstercache/quay/pkg/tls"
)

// Server holds the routes, the global chain and the configuration shared by
// every connection. Handlers are registered before the Server sails and are
// read-only afterwards.
type Server struct {
	options   *options.Options
	tlsConfig *tls.Config
	callbacks Callbacks
	logger    logging.Logger
	tracer    *tracing.Tracer

	mtx      sync.Mutex
	routes   *trie.Trie[*route]
	patterns map[string]*route
	global   ship.Chain
	sailing  atomic.Bool

	listeners map[net.Listener]struct{}
	conns     map[net.Conn]struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once

	overrides []func(*Callbacks)
	customTLS bool
}

// Option configures a Server in New
type Option func(*Server)

// WithLogger sets the Logger used by the Server and its default Callbacks
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracer sets the Tracer that records a span per request
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithTLSConfig serves TLS with cfg instead of loading the certificate named
// in the options
func WithTLSConfig(cfg *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = cfg
		s.customTLS = true
	}
}

// WithCallbacks replaces all three Callbacks. Nil fields disable the hook.
func WithCallbacks(cb Callbacks) Option {
	return func(s *Server) {
		s.overrides = append(s.overrides, func(c *Callbacks) { *c = cb })
	}
}

// WithOnConnection replaces the OnConnection hook; nil disables it
func WithOnConnection(f func(socket.Socket)) Option {
	return func(s *Server) {
		s.overrides = append(s.overrides, func(c *Callbacks) { c.OnConnection = f })
	}
}

// WithOnWarning replaces the OnWarning hook; nil disables it
func WithOnWarning(f func(Event)) Option {
	return func(s *Server) {
		s.overrides = append(s.overrides, func(c *Callbacks) { c.OnWarning = f })
	}
}

// WithOnCritical replaces the OnCritical hook; nil disables it
func WithOnCritical(f func(Event)) Option {
	return func(s *Server) {
		s.overrides = append(s.overrides, func(c *Callbacks) { c.OnCritical = f })
	}
}

// New validates o and returns a Server for it. A nil o uses the defaults.
// Invalid sizes and unloadable TLS material are returned as errors, which
// callers should treat as fatal.
func New(o *options.Options, opts ...Option) (*Server, error) {
	if o == nil {
		o = options.New()
	} else {
		o = o.Clone()
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		options:   o,
		logger:    logger.Logger(),
		tracer:    tracing.Noop(),
		routes:    trie.New[*route](),
		patterns:  make(map[string]*route),
		listeners: make(map[net.Listener]struct{}),
		conns:     make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.callbacks = DefaultCallbacks(s.logger)
	for _, f := range s.overrides {
		f(&s.callbacks)
	}
	s.overrides = nil
	if !s.customTLS {
		cfg, err := qtls.Config(o.TLS)
		if err != nil {
			return nil, err
		}
		s.tlsConfig = cfg
	}
	return s, nil
}

// Options returns a copy of the Server's options
func (s *Server) Options() *options.Options {
	return s.options.Clone()
}

// TLS reports whether connections are served over TLS
func (s *Server) TLS() bool {
	return s.tlsConfig != nil
}

// Dock registers handlers at pattern for any method
func (s *Server) Dock(pattern string, handlers ...any) error {
	return s.DockMethods(methods.Any, pattern, handlers...)
}

// DockMethods registers handlers at pattern, constrained to the methods in m.
// Registering the same pattern and mask again replaces the earlier chain.
func (s *Server) DockMethods(m methods.Method, pattern string, handlers ...any) error {
	if len(handlers) == 0 {
		return te.ErrNilHandler
	}
	c, err := ship.NewChain(handlers...)
	if err != nil {
		return err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.sailing.Load() {
		return te.ErrServerSailing
	}
	r, ok := s.patterns[pattern]
	if !ok {
		r = &route{pattern: pattern}
		s.patterns[pattern] = r
	}
	r.add(m, c)
	s.routes.Insert(r.mask(), pattern, r)
	return nil
}

// DockGlobal appends handlers to the global chain, which runs for every
// parsed request after the route chain
func (s *Server) DockGlobal(handlers ...any) error {
	if len(handlers) == 0 {
		return te.ErrNilHandler
	}
	c, err := ship.NewChain(handlers...)
	if err != nil {
		return err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.sailing.Load() {
		return te.ErrServerSailing
	}
	s.global = append(s.global, c...)
	return nil
}

// Get registers handlers at pattern for GET and HEAD. A HEAD reply carries
// the GET headers without the body.
func (s *Server) Get(pattern string, handlers ...any) error {
	return s.DockMethods(methods.Get|methods.Head, pattern, handlers...)
}

// Head registers handlers at pattern for HEAD
func (s *Server) Head(pattern string, handlers ...any) error {
	return s.DockMethods(methods.Head, pattern, handlers...)
}

// Post registers handlers at pattern for POST
func (s *Server) Post(pattern string, handlers ...any) error {
	return s.DockMethods(methods.Post, pattern, handlers...)
}

// Put registers handlers at pattern for PUT
func (s *Server) Put(pattern string, handlers ...any) error {
	return s.DockMethods(methods.Put, pattern, handlers...)
}

// Routes returns the number of registered patterns
func (s *Server) Routes() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.routes.Len()
}

// Sail listens on the configured address and port and serves until ctx is
// done or Shutdown is called
func (s *Server) Sail(ctx context.Context) error {
	l, err := NewListener(s.options.ListenAddress, s.options.ListenPort,
		s.options.ConnectionsLimit, s.logger)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l and serves each on its own goroutine. It
// returns te.ErrServerClosed once the Server is shut down or ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	if !s.trackListener(l, true) {
		l.Close()
		return te.ErrServerClosed
	}
	defer s.trackListener(l, false)
	stop := context.AfterFunc(ctx, s.Close)
	defer stop()

	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
	}
	s.logger.Info("server sailing", logging.Pairs{
		"address": l.Addr().String(),
		"scheme":  scheme,
	})

	var delay time.Duration
	for {
		c, err := l.Accept()
		if err != nil {
			if s.closed.Load() {
				return te.ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			delay = acceptBackoff(delay)
			s.callbacks.emit(Event{
				Severity: SeverityCritical,
				Message:  "accept failed",
				Address:  l.Addr().String(),
				Err:      fmt.Errorf("retrying in %s: %w", delay, err),
			})
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
			case <-t.C:
			}
			continue
		}
		delay = 0
		s.wg.Add(1)
		go s.serveConn(ctx, c)
	}
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// acceptBackoff doubles the delay after a failed Accept, from
// minAcceptDelay up to maxAcceptDelay
func acceptBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptDelay
	}
	return min(d*2, maxAcceptDelay)
}

// Close stops every listener and closes every active connection without
// waiting for in-flight requests
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.mtx.Lock()
		defer s.mtx.Unlock()
		for l := range s.listeners {
			l.Close()
		}
		for c := range s.conns {
			c.Close()
		}
	})
}

// Shutdown closes the Server and waits for connection goroutines to return
// or for ctx to be done
func (s *Server) Shutdown(ctx context.Context) error {
	s.Close()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) trackListener(l net.Listener, add bool) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if !add {
		delete(s.listeners, l)
		return true
	}
	if s.closed.Load() {
		return false
	}
	s.sailing.Store(true)
	s.listeners[l] = struct{}{}
	return true
}

func (s *Server) trackConn(c net.Conn, add bool) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if !add {
		delete(s.conns, c)
		return true
	}
	if s.closed.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}
