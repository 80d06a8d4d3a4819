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

package ship

import (
	"context"

	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"
)

// Chain is an ordered list of Ships
type Chain []Ship

// NewChain builds a Chain from handlers, each accepted by New
func NewChain(handlers ...any) (Chain, error) {
	c := make(Chain, 0, len(handlers))
	for _, h := range handlers {
		s, err := New(h)
		if err != nil {
			return nil, err
		}
		c = append(c, s)
	}
	return c, nil
}

// Dispatch runs the Ships in order. The first non-nil result replaces *res
// and ends the chain, and Dispatch returns true. When every Ship returns nil
// the (possibly mutated) res is left in place and Dispatch returns false.
func (c Chain) Dispatch(ctx context.Context, req *request.Request,
	res *response.Response) bool {
	for _, s := range c {
		if out := s.Dispatch(ctx, req, res); out != nil {
			if out != res {
				*res = *out
			}
			return true
		}
	}
	return false
}

// Group wraps handlers into a single Ship that runs them as a nested Chain.
// The first handler is typically a guard, such as an authenticator, that
// returns a Response to refuse the request before the others run.
func Group(handlers ...any) (Ship, error) {
	c, err := NewChain(handlers...)
	if err != nil {
		return Ship{}, err
	}
	return Ship{
		shape: Shape{Args: ArgsRequestResponse, Returns: ReturnsOptional, Async: true},
		call: func(ctx context.Context, req *request.Request,
			res *response.Response) *response.Response {
			if c.Dispatch(ctx, req, res) {
				return res
			}
			return nil
		},
	}, nil
}
