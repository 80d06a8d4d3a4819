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

// Package methods provides the HTTP method bitmask used by route constraints
package methods

import (
	"net/http"
	"strings"
)

// Method is a bitmask of one or more HTTP methods. The zero value places no
// constraint on the request method.
type Method uint16

const (
	Get Method = 1 << iota
	Head
	Post
	Put
	Patch
	Delete
	Options
	Connect
	Trace

	// Any is the unconstrained mask
	Any Method = 0
)

// Supported is the set of methods the request parser accepts
const Supported = Get | Head | Post | Put

// bodyMethods carry a request body that may hold form data
const bodyMethods = Post | Put | Patch

var ordered = []Method{Get, Head, Post, Put, Patch, Delete, Options, Connect, Trace}

var names = map[Method]string{
	Get:     http.MethodGet,
	Head:    http.MethodHead,
	Post:    http.MethodPost,
	Put:     http.MethodPut,
	Patch:   http.MethodPatch,
	Delete:  http.MethodDelete,
	Options: http.MethodOptions,
	Connect: http.MethodConnect,
	Trace:   http.MethodTrace,
}

// Parse returns the Method bit for the method name, or 0 if it is unknown.
// Method names are case-sensitive per RFC 9110.
func Parse(method string) Method {
	switch method {
	case http.MethodGet:
		return Get
	case http.MethodHead:
		return Head
	case http.MethodPost:
		return Post
	case http.MethodPut:
		return Put
	case http.MethodPatch:
		return Patch
	case http.MethodDelete:
		return Delete
	case http.MethodOptions:
		return Options
	case http.MethodConnect:
		return Connect
	case http.MethodTrace:
		return Trace
	}
	return 0
}

// Mask returns the bitmask of the provided method names. Unknown names are
// ignored.
func Mask(methods ...string) Method {
	var m Method
	for _, s := range methods {
		m |= Parse(s)
	}
	return m
}

// Allows reports whether the request method r satisfies the constraint m
func (m Method) Allows(r Method) bool {
	return m == Any || m&r != 0
}

// IsSupported returns true if the parser accepts the method
func IsSupported(method string) bool {
	m := Parse(method)
	return m != 0 && Supported&m != 0
}

// HasBody returns true if the method is POST, PUT or PATCH
func HasBody(method string) bool {
	return bodyMethods&Parse(method) != 0
}

// Names returns the method names in the mask, in canonical order
func (m Method) Names() []string {
	if m == Any {
		return nil
	}
	out := make([]string, 0, len(ordered))
	for _, b := range ordered {
		if m&b != 0 {
			out = append(out, names[b])
		}
	}
	return out
}

func (m Method) String() string {
	if m == Any {
		return "*"
	}
	return strings.Join(m.Names(), ", ")
}
