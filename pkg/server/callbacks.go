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
	"github.com/trickstercache/quay/pkg/observability/logging"
	"github.com/trickstercache/quay/pkg/observability/metrics"
	"github.com/trickstercache/quay/pkg/socket"
)

// Severity ranks a connection Event
type Severity int

const (
	// SeverityInfo marks routine lifecycle events
	SeverityInfo Severity = iota
	// SeverityWarning marks a recoverable problem with a single connection
	SeverityWarning
	// SeverityCritical marks a fault in the transport or in a handler
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	}
	return "info"
}

// Event describes something that happened on a connection
type Event struct {
	Severity Severity
	Message  string
	Address  string
	Port     int
	// Err is the underlying error, when there is one
	Err error
	// Data holds the raw request bytes for parse failures
	Data []byte
}

// Callbacks are the observability hooks a Server invokes. A nil field
// disables that hook.
type Callbacks struct {
	// OnConnection is called with each socket before its request is read
	OnConnection func(socket.Socket)
	// OnWarning is called for recoverable per-connection problems
	OnWarning func(Event)
	// OnCritical is called for transport faults and handler panics
	OnCritical func(Event)
}

// DefaultCallbacks returns Callbacks that write each event to l
func DefaultCallbacks(l logging.Logger) Callbacks {
	return Callbacks{
		OnConnection: func(s socket.Socket) {
			l.Debug("connection accepted", logging.Pairs{
				"address": s.Address(),
				"port":    s.Port(),
				"scheme":  s.Kind().String(),
			})
		},
		OnWarning: func(e Event) {
			l.Warn(e.Message, e.pairs())
		},
		OnCritical: func(e Event) {
			p := e.pairs()
			p["critical"] = true
			l.Error(e.Message, p)
		},
	}
}

func (e Event) pairs() logging.Pairs {
	p := logging.Pairs{"address": e.Address, "port": e.Port}
	if e.Err != nil {
		p["detail"] = e.Err.Error()
	}
	if len(e.Data) > 0 {
		p["request"] = string(e.Data)
	}
	return p
}

func (cb Callbacks) connection(s socket.Socket) {
	if cb.OnConnection != nil {
		cb.OnConnection(s)
	}
}

func (cb Callbacks) emit(e Event) {
	metrics.ConnectionEvents.WithLabelValues(e.Severity.String()).Inc()
	switch e.Severity {
	case SeverityWarning:
		if cb.OnWarning != nil {
			cb.OnWarning(e)
		}
	case SeverityCritical:
		if cb.OnCritical != nil {
			cb.OnCritical(e)
		}
	}
}
