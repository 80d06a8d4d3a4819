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
	"net/http"
	"slices"

	"github.com/trickstercache/quay/pkg/headers"
	"github.com/trickstercache/quay/pkg/methods"
	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"
	"github.com/trickstercache/quay/pkg/ship"
)

// route is the trie payload for one pattern. Each entry is a chain bound to
// a method mask; newer entries are consulted first.
type route struct {
	pattern string
	entries []entry
}

type entry struct {
	methods methods.Method
	chain   ship.Chain
}

func (r *route) add(m methods.Method, c ship.Chain) {
	r.entries = slices.DeleteFunc(r.entries, func(e entry) bool {
		return e.methods == m
	})
	r.entries = slices.Insert(r.entries, 0, entry{methods: m, chain: c})
}

// mask is the union of the entries' constraints, or Any if one of them is
// unconstrained
func (r *route) mask() methods.Method {
	var m methods.Method
	for _, e := range r.entries {
		if e.methods == methods.Any {
			return methods.Any
		}
		m |= e.methods
	}
	return m
}

func (r *route) chain(m methods.Method) (ship.Chain, bool) {
	for _, e := range r.entries {
		if e.methods.Allows(m) {
			return e.chain, true
		}
	}
	return nil, false
}

// Handle resolves req against the routes and runs the chains, returning the
// response to send.
//
// The default response is 500 with no body. When the path matches a route
// whose constraint admits the method, the route's chain runs; a match whose
// constraint refuses the method yields 405 with an Allow header, and no
// match yields 404. The global chain then runs in every case and may
// replace the response.
func (s *Server) Handle(ctx context.Context, req *request.Request) *response.Response {
	res := response.New()
	result, ok := s.routes.Match(req.Path)
	switch {
	case !ok || !result.Terminal:
		res.SetText(http.StatusNotFound, http.StatusText(http.StatusNotFound))
	default:
		if result.HasParam {
			req.Route = &request.Param{Key: result.ParamKey, Value: result.ParamValue}
		}
		c, allowed := result.Value.chain(methods.Parse(req.Method))
		if !allowed {
			res.SetText(http.StatusMethodNotAllowed,
				http.StatusText(http.StatusMethodNotAllowed))
			res.SetHeader(headers.NameAllow, result.Methods.String())
			break
		}
		c.Dispatch(ctx, req, res)
	}
	s.global.Dispatch(ctx, req, res)
	return res
}
