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

// Package socket provides the transport a single client connection is served
// over: exactly one of a plain TCP stream or a TLS stream
package socket

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"time"
)

// Kind identifies the transport carried by a Socket
type Kind int

const (
	// Plain is an unencrypted stream
	Plain Kind = iota
	// TLS is a stream wrapped in a TLS session
	TLS
)

func (k Kind) String() string {
	if k == TLS {
		return "tls"
	}
	return "plain"
}

// Socket is the uniform view over a client connection
type Socket interface {
	io.ReadWriteCloser
	// Address returns the remote IP address
	Address() string
	// Port returns the remote port, or 0 if the transport has none
	Port() int
	// Kind returns the transport in use
	Kind() Kind
	// Handshake completes the TLS handshake. It is a no-op for Plain.
	Handshake(context.Context) error
	// SetReadDeadline sets the deadline for future Read calls
	SetReadDeadline(time.Time) error
	// Hijack takes the socket out of the request/response cycle, after which
	// the server will not write a response on it
	Hijack()
	// Hijacked reports whether Hijack has been called
	Hijacked() bool
}

var _ Socket = &Conn{}

// Conn is the Socket implementation. Only one of plain or secure is set.
type Conn struct {
	kind     Kind
	plain    net.Conn
	secure   *tls.Conn
	address  string
	port     int
	hijacked atomic.Bool
}

// New wraps c. When cfg is non-nil the connection is a TLS server stream,
// and the handshake runs on the first Handshake or I/O call.
func New(c net.Conn, cfg *tls.Config) *Conn {
	s := &Conn{}
	if cfg != nil {
		s.kind = TLS
		s.secure = tls.Server(c, cfg)
	} else {
		s.plain = c
	}
	s.address, s.port = splitAddr(c.RemoteAddr())
	return s
}

func splitAddr(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}
	if ta, ok := addr.(*net.TCPAddr); ok {
		return ta.IP.String(), ta.Port
	}
	host, p, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	port, _ := strconv.Atoi(p)
	return host, port
}

func (s *Conn) conn() net.Conn {
	if s.kind == TLS {
		return s.secure
	}
	return s.plain
}

func (s *Conn) Read(b []byte) (int, error) {
	return s.conn().Read(b)
}

func (s *Conn) Write(b []byte) (int, error) {
	return s.conn().Write(b)
}

func (s *Conn) Close() error {
	return s.conn().Close()
}

func (s *Conn) Address() string {
	return s.address
}

func (s *Conn) Port() int {
	return s.port
}

func (s *Conn) Kind() Kind {
	return s.kind
}

func (s *Conn) Handshake(ctx context.Context) error {
	if s.kind != TLS {
		return nil
	}
	return s.secure.HandshakeContext(ctx)
}

func (s *Conn) SetReadDeadline(t time.Time) error {
	return s.conn().SetReadDeadline(t)
}

func (s *Conn) Hijack() {
	s.hijacked.Store(true)
}

func (s *Conn) Hijacked() bool {
	return s.hijacked.Load()
}

// ConnectionState returns the TLS state, and false for Plain sockets
func (s *Conn) ConnectionState() (tls.ConnectionState, bool) {
	if s.kind != TLS {
		return tls.ConnectionState{}, false
	}
	return s.secure.ConnectionState(), true
}
