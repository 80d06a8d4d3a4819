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

// Package router defines the path router used to resolve a request path to
// the handlers registered for it
package router

import (
	"strings"

	"github.com/trickstercache/quay/pkg/methods"
)

// Router maps cleaned route patterns to values. A pattern may end in a single
// parameter capture introduced by ':', which matches the remainder of the
// path.
type Router[T any] interface {
	// Insert registers value at the pattern, constrained to the method mask.
	// A second Insert at the same pattern replaces the first.
	Insert(m methods.Method, pattern string, value T)
	// Match resolves the path. Matching is case-sensitive and performs no
	// percent-decoding.
	Match(path string) (Result[T], bool)
	// Len returns the number of registered patterns
	Len() int
}

// Result is the outcome of a successful Match
type Result[T any] struct {
	// Value is the payload registered at the matched pattern
	Value T
	// Methods is the method constraint of the matched pattern; 0 allows any
	Methods methods.Method
	// ParamKey is the name of the parameter declared at the matched node
	ParamKey string
	// ParamValue is the captured remainder of the path when ParamKey is set
	ParamValue string
	// HasParam is true when the matched node declares a parameter
	HasParam bool
	// Terminal is false when the path only reached an intermediate node that
	// no pattern was registered at
	Terminal bool
}

// Allows reports whether the result's constraint admits the request method
func (r Result[T]) Allows(m methods.Method) bool {
	return r.Methods.Allows(m)
}

// Clean ensures the path begins and ends with '/'. Clean is idempotent.
func Clean(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	var b strings.Builder
	b.Grow(len(path) + 2)
	if path[0] != '/' {
		b.WriteByte('/')
	}
	b.WriteString(path)
	if path[len(path)-1] != '/' {
		b.WriteByte('/')
	}
	return b.String()
}
