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

// Package verbose provides a Ship that logs each request
package verbose

import (
	"github.com/trickstercache/quay/pkg/observability/logging"
	"github.com/trickstercache/quay/pkg/observability/logging/logger"
	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"
	"github.com/trickstercache/quay/pkg/ship"
)

// Verbose logs the client address and port and the request path to the
// package-level logger
func Verbose(req *request.Request) {
	logger.Info("request", pairs(req, nil))
}

// New returns a Ship logging each request, with the response status seen at
// that point of the chain, to l. A hijacked request is logged as such in
// place of a status. A nil l uses the package-level logger.
func New(l logging.Logger) ship.Ship {
	return ship.Make(func(req *request.Request, res *response.Response) {
		lg := l
		if lg == nil {
			lg = logger.Logger()
		}
		lg.Info("request", pairs(req, res))
	})
}

func pairs(req *request.Request, res *response.Response) logging.Pairs {
	p := logging.Pairs{
		"method": req.Method,
		"path":   req.Path,
	}
	if req.Socket != nil {
		p["address"] = req.Socket.Address()
		p["port"] = req.Socket.Port()
		if req.Socket.Hijacked() {
			// the handler owns the socket and no response is written
			p["hijacked"] = true
			return p
		}
	}
	if res != nil {
		p["status"] = res.Status
	}
	return p
}
