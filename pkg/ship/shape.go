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
	"reflect"
	"strings"

	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"
)

// Args enumerates the argument lists a handler may take, not counting the
// leading context.Context of async handlers
type Args uint8

const (
	ArgsNone Args = iota
	ArgsRequest
	ArgsResponse
	ArgsRequestResponse
	ArgsResponseRequest
)

var argsNames = [...]string{"", "req", "res", "req, res", "res, req"}

// Returns enumerates what a handler may return
type Returns uint8

const (
	// ReturnsNothing handlers never end the chain
	ReturnsNothing Returns = iota
	// ReturnsResponse handlers always end the chain with their Response
	ReturnsResponse
	// ReturnsOptional handlers end the chain when they return non-nil
	ReturnsOptional
)

var returnsNames = [...]string{"", " Response", " *Response"}

// Shape is the signature class of a handler
type Shape struct {
	Args    Args
	Returns Returns
	// Async handlers take a leading context.Context and may block
	Async bool
}

func (s Shape) String() string {
	var b strings.Builder
	b.WriteString("func(")
	if s.Async {
		b.WriteString("ctx")
		if s.Args != ArgsNone {
			b.WriteString(", ")
		}
	}
	b.WriteString(argsNames[s.Args])
	b.WriteString(")")
	b.WriteString(returnsNames[s.Returns])
	return b.String()
}

// Func is the closed set of handler signatures. It constrains Make so that
// a handler of any other signature is rejected at compile time.
type Func interface {
	~func() |
		~func() response.Response |
		~func() *response.Response |
		~func(*request.Request) |
		~func(*request.Request) response.Response |
		~func(*request.Request) *response.Response |
		~func(*response.Response) |
		~func(*response.Response) response.Response |
		~func(*response.Response) *response.Response |
		~func(*request.Request, *response.Response) |
		~func(*request.Request, *response.Response) response.Response |
		~func(*request.Request, *response.Response) *response.Response |
		~func(*response.Response, *request.Request) |
		~func(*response.Response, *request.Request) response.Response |
		~func(*response.Response, *request.Request) *response.Response |
		~func(context.Context) |
		~func(context.Context) response.Response |
		~func(context.Context) *response.Response |
		~func(context.Context, *request.Request) |
		~func(context.Context, *request.Request) response.Response |
		~func(context.Context, *request.Request) *response.Response |
		~func(context.Context, *response.Response) |
		~func(context.Context, *response.Response) response.Response |
		~func(context.Context, *response.Response) *response.Response |
		~func(context.Context, *request.Request, *response.Response) |
		~func(context.Context, *request.Request, *response.Response) response.Response |
		~func(context.Context, *request.Request, *response.Response) *response.Response |
		~func(context.Context, *response.Response, *request.Request) |
		~func(context.Context, *response.Response, *request.Request) response.Response |
		~func(context.Context, *response.Response, *request.Request) *response.Response
}

// candidate pairs a Shape with the unnamed func type that carries it
type candidate struct {
	shape Shape
	typ   reflect.Type
}

// candidates lists every Shape in the order New tries them: sync before
// async, then by argument list, then by return kind
var candidates []candidate

func init() {
	var (
		ctx = reflect.TypeFor[context.Context]()
		req = reflect.TypeFor[*request.Request]()
		res = reflect.TypeFor[*response.Response]()
		val = reflect.TypeFor[response.Response]()
	)
	argLists := [...][]reflect.Type{
		ArgsNone:            nil,
		ArgsRequest:         {req},
		ArgsResponse:        {res},
		ArgsRequestResponse: {req, res},
		ArgsResponseRequest: {res, req},
	}
	returnLists := [...][]reflect.Type{
		ReturnsNothing:  nil,
		ReturnsResponse: {val},
		ReturnsOptional: {res},
	}
	for _, async := range []bool{false, true} {
		for a, in := range argLists {
			if async {
				in = append([]reflect.Type{ctx}, in...)
			}
			for r, out := range returnLists {
				candidates = append(candidates, candidate{
					shape: Shape{Args: Args(a), Returns: Returns(r), Async: async},
					typ:   reflect.FuncOf(in, out, false),
				})
			}
		}
	}
}

// Shapes returns all dispatchable Shapes in recognition priority order
func Shapes() []Shape {
	out := make([]Shape, len(candidates))
	for i, c := range candidates {
		out[i] = c.shape
	}
	return out
}
