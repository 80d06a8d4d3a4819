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

// Package ship unifies the handler signatures quay accepts behind a single
// dispatch call, and runs ordered chains of handlers with short-circuiting
package ship

import (
	"context"
	"fmt"
	"reflect"

	"github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"
)

type invoker func(context.Context, *request.Request, *response.Response) *response.Response

// Ship is a handler normalized at registration. The zero Ship is not usable.
type Ship struct {
	shape Shape
	call  invoker
}

// Shape returns the signature class the handler was recognized as
func (s Ship) Shape() Shape {
	return s.shape
}

// Valid reports whether the Ship wraps a handler
func (s Ship) Valid() bool {
	return s.call != nil
}

// Dispatch invokes the handler. Handlers returning nothing yield nil, those
// returning a Response yield a pointer to it, and those returning a
// *Response yield exactly that value.
func (s Ship) Dispatch(ctx context.Context, req *request.Request,
	res *response.Response) *response.Response {
	return s.call(ctx, req, res)
}

// Make builds a Ship from any handler in the Func set
func Make[F Func](fn F) Ship {
	return Must(New(fn))
}

// Must panics when err is non-nil
func Must(s Ship, err error) Ship {
	if err != nil {
		panic(err)
	}
	return s
}

// New inspects fn and wraps it as a Ship. fn may be a Ship, a func of one of
// the Shapes, or a value of a named func type convertible to one. The Shapes
// are tried in the order Shapes returns them.
func New(fn any) (Ship, error) {
	if fn == nil {
		return Ship{}, errors.ErrNilHandler
	}
	if s, ok := fn.(Ship); ok {
		if !s.Valid() {
			return Ship{}, errors.ErrNilHandler
		}
		return s, nil
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return Ship{}, fmt.Errorf("%w: %T", errors.ErrUnsupportedShape, fn)
	}
	if v.IsNil() {
		return Ship{}, errors.ErrNilHandler
	}
	if s, ok := wrap(fn); ok {
		return s, nil
	}
	for _, c := range candidates {
		if v.Type().ConvertibleTo(c.typ) {
			if s, ok := wrap(v.Convert(c.typ).Interface()); ok {
				return s, nil
			}
		}
	}
	return Ship{}, fmt.Errorf("%w: %s", errors.ErrUnsupportedShape, v.Type())
}

func optional(r response.Response) *response.Response {
	return &r
}

// wrap recognizes the unnamed func types of the Shapes
func wrap(fn any) (Ship, bool) {
	type (
		req = *request.Request
		res = *response.Response
		val = response.Response
		ctx = context.Context
	)
	var s Ship
	switch f := fn.(type) {
	// sync
	case func():
		s.shape, s.call = Shape{ArgsNone, ReturnsNothing, false},
			func(_ ctx, _ req, _ res) res { f(); return nil }
	case func() val:
		s.shape, s.call = Shape{ArgsNone, ReturnsResponse, false},
			func(_ ctx, _ req, _ res) res { return optional(f()) }
	case func() res:
		s.shape, s.call = Shape{ArgsNone, ReturnsOptional, false},
			func(_ ctx, _ req, _ res) res { return f() }
	case func(req):
		s.shape, s.call = Shape{ArgsRequest, ReturnsNothing, false},
			func(_ ctx, q req, _ res) res { f(q); return nil }
	case func(req) val:
		s.shape, s.call = Shape{ArgsRequest, ReturnsResponse, false},
			func(_ ctx, q req, _ res) res { return optional(f(q)) }
	case func(req) res:
		s.shape, s.call = Shape{ArgsRequest, ReturnsOptional, false},
			func(_ ctx, q req, _ res) res { return f(q) }
	case func(res):
		s.shape, s.call = Shape{ArgsResponse, ReturnsNothing, false},
			func(_ ctx, _ req, r res) res { f(r); return nil }
	case func(res) val:
		s.shape, s.call = Shape{ArgsResponse, ReturnsResponse, false},
			func(_ ctx, _ req, r res) res { return optional(f(r)) }
	case func(res) res:
		s.shape, s.call = Shape{ArgsResponse, ReturnsOptional, false},
			func(_ ctx, _ req, r res) res { return f(r) }
	case func(req, res):
		s.shape, s.call = Shape{ArgsRequestResponse, ReturnsNothing, false},
			func(_ ctx, q req, r res) res { f(q, r); return nil }
	case func(req, res) val:
		s.shape, s.call = Shape{ArgsRequestResponse, ReturnsResponse, false},
			func(_ ctx, q req, r res) res { return optional(f(q, r)) }
	case func(req, res) res:
		s.shape, s.call = Shape{ArgsRequestResponse, ReturnsOptional, false},
			func(_ ctx, q req, r res) res { return f(q, r) }
	case func(res, req):
		s.shape, s.call = Shape{ArgsResponseRequest, ReturnsNothing, false},
			func(_ ctx, q req, r res) res { f(r, q); return nil }
	case func(res, req) val:
		s.shape, s.call = Shape{ArgsResponseRequest, ReturnsResponse, false},
			func(_ ctx, q req, r res) res { return optional(f(r, q)) }
	case func(res, req) res:
		s.shape, s.call = Shape{ArgsResponseRequest, ReturnsOptional, false},
			func(_ ctx, q req, r res) res { return f(r, q) }
	// async
	case func(ctx):
		s.shape, s.call = Shape{ArgsNone, ReturnsNothing, true},
			func(c ctx, _ req, _ res) res { f(c); return nil }
	case func(ctx) val:
		s.shape, s.call = Shape{ArgsNone, ReturnsResponse, true},
			func(c ctx, _ req, _ res) res { return optional(f(c)) }
	case func(ctx) res:
		s.shape, s.call = Shape{ArgsNone, ReturnsOptional, true},
			func(c ctx, _ req, _ res) res { return f(c) }
	case func(ctx, req):
		s.shape, s.call = Shape{ArgsRequest, ReturnsNothing, true},
			func(c ctx, q req, _ res) res { f(c, q); return nil }
	case func(ctx, req) val:
		s.shape, s.call = Shape{ArgsRequest, ReturnsResponse, true},
			func(c ctx, q req, _ res) res { return optional(f(c, q)) }
	case func(ctx, req) res:
		s.shape, s.call = Shape{ArgsRequest, ReturnsOptional, true},
			func(c ctx, q req, _ res) res { return f(c, q) }
	case func(ctx, res):
		s.shape, s.call = Shape{ArgsResponse, ReturnsNothing, true},
			func(c ctx, _ req, r res) res { f(c, r); return nil }
	case func(ctx, res) val:
		s.shape, s.call = Shape{ArgsResponse, ReturnsResponse, true},
			func(c ctx, _ req, r res) res { return optional(f(c, r)) }
	case func(ctx, res) res:
		s.shape, s.call = Shape{ArgsResponse, ReturnsOptional, true},
			func(c ctx, _ req, r res) res { return f(c, r) }
	case func(ctx, req, res):
		s.shape, s.call = Shape{ArgsRequestResponse, ReturnsNothing, true},
			func(c ctx, q req, r res) res { f(c, q, r); return nil }
	case func(ctx, req, res) val:
		s.shape, s.call = Shape{ArgsRequestResponse, ReturnsResponse, true},
			func(c ctx, q req, r res) res { return optional(f(c, q, r)) }
	case func(ctx, req, res) res:
		s.shape, s.call = Shape{ArgsRequestResponse, ReturnsOptional, true},
			func(c ctx, q req, r res) res { return f(c, q, r) }
	case func(ctx, res, req):
		s.shape, s.call = Shape{ArgsResponseRequest, ReturnsNothing, true},
			func(c ctx, q req, r res) res { f(c, r, q); return nil }
	case func(ctx, res, req) val:
		s.shape, s.call = Shape{ArgsResponseRequest, ReturnsResponse, true},
			func(c ctx, q req, r res) res { return optional(f(c, r, q)) }
	case func(ctx, res, req) res:
		s.shape, s.call = Shape{ArgsResponseRequest, ReturnsOptional, true},
			func(c ctx, q req, r res) res { return f(c, r, q) }
	default:
		return Ship{}, false
	}
	return s, true
}
