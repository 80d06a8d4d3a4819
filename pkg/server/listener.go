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
	"net"
	"strconv"
	"sync"

	"github.com/trickstercache/quay/pkg/observability/logging"
	"github.com/trickstercache/quay/pkg/observability/metrics"

	"golang.org/x/net/netutil"
)

type observedListener struct {
	net.Listener
}

type observedConnection struct {
	net.Conn
	once sync.Once
}

func (o *observedConnection) Close() error {
	err := o.Conn.Close()
	o.once.Do(func() {
		metrics.ListenerActiveConnections.Dec()
		metrics.ListenerConnectionClosed.Inc()
	})
	return err
}

// Accept implements net.Listener.Accept
func (l *observedListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		metrics.ListenerConnectionFailed.Inc()
		return nil, err
	}
	metrics.ListenerActiveConnections.Inc()
	metrics.ListenerConnectionAccepted.Inc()
	return &observedConnection{Conn: c}, nil
}

// NewListener creates a TCP listener which obeys the connections limit and
// monitors connections with prometheus metrics.
//
// The limit is enforced by wrapping the listener with a
// netutil.LimitListener, which simply blocks in Accept whenever clients go
// above the limit. The listener is then wrapped again to observe the
// connections it hands out. TLS is not applied here: each connection is
// wrapped individually so that a failed handshake surfaces as an event on
// that connection.
func NewListener(listenAddress string, listenPort, connectionsLimit int,
	l logging.Logger) (net.Listener, error) {
	listener, err := net.Listen("tcp",
		net.JoinHostPort(listenAddress, strconv.Itoa(listenPort)))
	if err != nil {
		// this usually means that the port is in use
		return nil, err
	}
	if connectionsLimit > 0 {
		listener = netutil.LimitListener(listener, connectionsLimit)
		metrics.ListenerMaxConnections.Set(float64(connectionsLimit))
	}
	if l != nil {
		l.Debug("starting listener", logging.Pairs{
			"connectionsLimit": connectionsLimit,
			"address":          listenAddress,
			"port":             listenPort,
		})
	}
	return &observedListener{Listener: listener}, nil
}
