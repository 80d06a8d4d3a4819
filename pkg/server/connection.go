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

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	te "github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/headers"
	"github.com/trickstercache/quay/pkg/methods"
	"github.com/trickstercache/quay/pkg/observability/logging"
	"github.com/trickstercache/quay/pkg/observability/metrics"
	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"
	"github.com/trickstercache/quay/pkg/socket"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// connection carries one accepted net.Conn through the states
type connection struct {
	server *Server
	raw    net.Conn
	sock   *socket.Conn
	state  state
	start  time.Time
}

func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	defer s.wg.Done()
	cn := &connection{server: s, raw: c, state: stateAccepted, start: time.Now()}
	defer cn.close()
	if !s.trackConn(c, true) {
		return
	}
	defer s.trackConn(c, false)
	cn.serve(ctx)
}

func (cn *connection) setState(st state) {
	cn.state = st
}

func (cn *connection) close() {
	if cn.sock != nil {
		cn.sock.Close()
	} else {
		cn.raw.Close()
	}
	cn.setState(stateClosed)
}

func (cn *connection) event(sev Severity, msg string, err error, data []byte) {
	e := Event{
		Severity: sev,
		Message:  msg,
		Err:      err,
		Data:     data,
	}
	if cn.sock != nil {
		e.Address, e.Port = cn.sock.Address(), cn.sock.Port()
	}
	cn.server.callbacks.emit(e)
}

func (cn *connection) serve(ctx context.Context) {
	s := cn.server
	cn.sock = socket.New(cn.raw, s.tlsConfig)
	if cn.sock.Kind() == socket.TLS {
		cn.setState(stateTLSHandshaking)
		if err := cn.handshake(ctx); err != nil {
			cn.event(SeverityCritical, "tls handshake failed", err, nil)
			return
		}
	}

	cn.setState(stateReading)
	s.callbacks.connection(cn.sock)
	data, err := cn.read()
	if err != nil {
		switch {
		case errors.Is(err, te.ErrConnectionClosedEarly):
			cn.event(SeverityWarning, "connection closed early", err, nil)
		case errors.Is(err, te.ErrRequestTooLarge):
			cn.event(SeverityWarning, "request too large", err, nil)
			cn.write(ctx, nil, statusResponse(http.StatusRequestEntityTooLarge))
		case isTimeout(err):
			cn.event(SeverityWarning, "read timed out", err, nil)
			cn.write(ctx, nil, statusResponse(http.StatusRequestTimeout))
		default:
			cn.event(SeverityCritical, "read failed", err, nil)
		}
		return
	}

	cn.setState(stateParsing)
	req, err := request.Parse(data)
	if err != nil {
		cn.event(SeverityWarning, "request parse failed", err, data)
		cn.write(ctx, nil, parseFailure(err))
		return
	}
	req.Socket = cn.sock

	cn.setState(stateDispatching)
	ctx, span := s.tracer.Start(ctx, req.Method+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.target", req.Path),
			attribute.String("net.peer.ip", cn.sock.Address()),
		),
	)
	defer span.End()

	res, ok := cn.dispatch(ctx, req)
	if cn.sock.Hijacked() {
		metrics.WebSocketUpgrades.Inc()
		span.SetAttributes(attribute.Int("http.status_code", http.StatusSwitchingProtocols))
		return
	}
	if !ok {
		span.SetStatus(codes.Error, "handler panicked")
		res = response.New()
	}
	span.SetAttributes(attribute.Int("http.status_code", res.Status))
	if res.Status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(res.Status))
	}
	cn.write(ctx, req, res)
}

func (cn *connection) handshake(ctx context.Context) error {
	if t := cn.server.options.ReadTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	return cn.sock.Handshake(ctx)
}

// read fills a buffer that starts at BufferingSize and doubles up to
// MaxRequestSize, until request.Complete accepts its contents
func (cn *connection) read() ([]byte, error) {
	o := cn.server.options
	if o.ReadTimeout > 0 {
		cn.sock.SetReadDeadline(time.Now().Add(o.ReadTimeout))
		defer cn.sock.SetReadDeadline(time.Time{})
	}
	buf := make([]byte, 0, o.BufferingSize)
	for {
		if len(buf) == cap(buf) {
			if cap(buf) >= o.MaxRequestSize {
				return nil, fmt.Errorf("%w: %d bytes", te.ErrRequestTooLarge, o.MaxRequestSize)
			}
			grown := make([]byte, len(buf), min(cap(buf)*2, o.MaxRequestSize))
			copy(grown, buf)
			buf = grown
		}
		n, err := cn.sock.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if n > 0 && request.Complete(buf) {
			return buf, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
				errors.Is(err, net.ErrClosed) {
				return nil, fmt.Errorf("%w: %w", te.ErrConnectionClosedEarly, err)
			}
			return nil, err
		}
	}
}

// dispatch runs Handle, converting a handler panic into a critical event
func (cn *connection) dispatch(ctx context.Context, req *request.Request) (res *response.Response, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			cn.event(SeverityCritical, "handler panicked",
				fmt.Errorf("panic: %v", r), nil)
			cn.server.logger.Debug("handler panic stack", logging.Pairs{
				"stack": string(debug.Stack()),
			})
			res, ok = nil, false
		}
	}()
	return cn.server.Handle(ctx, req), true
}

// write finalizes res for req and writes it. req is nil when the request
// never parsed.
func (cn *connection) write(ctx context.Context, req *request.Request, res *response.Response) {
	cn.setState(stateWriting)
	method := "unknown"
	var b []byte
	if req != nil {
		method = req.Method
		cn.server.compress(ctx, req, res)
	}
	if method == http.MethodHead {
		b = res.HeadBytes()
	} else {
		b = res.Bytes()
	}
	n, err := cn.sock.Write(b)
	status := strconv.Itoa(res.Status)
	metrics.FrontendRequestStatus.WithLabelValues(method, status).Inc()
	metrics.FrontendRequestDuration.WithLabelValues(method, status).
		Observe(time.Since(cn.start).Seconds())
	metrics.FrontendRequestWrittenBytes.WithLabelValues(method, status).Add(float64(n))
	if err != nil {
		cn.event(SeverityCritical, "write failed", err, nil)
	}
}

func statusResponse(code int) *response.Response {
	r := response.Text(code, http.StatusText(code))
	return &r
}

// parseFailure maps a request.Parse error to the response sent for it
func parseFailure(err error) *response.Response {
	if errors.Is(err, te.ErrUnsupportedMethod) {
		r := statusResponse(http.StatusMethodNotAllowed)
		r.SetHeader(headers.NameAllow, methods.Supported.String())
		return r
	}
	return statusResponse(http.StatusBadRequest)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
