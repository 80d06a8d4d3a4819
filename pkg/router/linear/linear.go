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

// Package linear provides a Router that scans an ordered list of routes. It
// exists as the baseline the trie router is benchmarked against.
package linear

import (
	"strings"

	"github.com/trickstercache/quay/pkg/methods"
	"github.com/trickstercache/quay/pkg/router"
)

var _ router.Router[int] = &Linear[int]{}

type route[T any] struct {
	prefix   string
	param    string
	hasParam bool
	methods  methods.Method
	value    T
}

// Linear is a list-of-routes Router
type Linear[T any] struct {
	routes []*route[T]
}

// New returns an empty Linear router
func New[T any]() *Linear[T] {
	return &Linear[T]{}
}

func (l *Linear[T]) Insert(m methods.Method, pattern string, value T) {
	pattern = router.Clean(pattern)
	r := &route[T]{prefix: pattern, methods: m, value: value}
	if i := strings.IndexByte(pattern, ':'); i >= 0 {
		r.prefix = pattern[:i]
		r.param = pattern[i+1 : len(pattern)-1]
		r.hasParam = true
	}
	for i, v := range l.routes {
		if v.prefix == r.prefix && v.hasParam == r.hasParam {
			l.routes[i] = r
			return
		}
	}
	l.routes = append(l.routes, r)
}

func (l *Linear[T]) Match(path string) (router.Result[T], bool) {
	path = router.Clean(path)
	for _, r := range l.routes {
		if r.hasParam {
			if !strings.HasPrefix(path, r.prefix) {
				continue
			}
			return router.Result[T]{
				Value:      r.value,
				Methods:    r.methods,
				ParamKey:   r.param,
				ParamValue: strings.TrimSuffix(path[len(r.prefix):], "/"),
				HasParam:   true,
				Terminal:   true,
			}, true
		}
		if path == r.prefix {
			return router.Result[T]{Value: r.value, Methods: r.methods, Terminal: true}, true
		}
	}
	return router.Result[T]{}, false
}

func (l *Linear[T]) Len() int {
	return len(l.routes)
}
