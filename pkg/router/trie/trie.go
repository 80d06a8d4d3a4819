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

// Package trie provides a byte-wise prefix tree Router with single trailing
// parameter capture
package trie

import (
	"github.com/trickstercache/quay/pkg/methods"
	"github.com/trickstercache/quay/pkg/router"
)

var _ router.Router[int] = &Trie[int]{}

// Trie is a router.Router keyed one byte at a time. It is not safe for
// concurrent Insert; concurrent Match calls are safe once inserts are done.
type Trie[T any] struct {
	root *node[T]
	size int
}

type node[T any] struct {
	children map[byte]*node[T]
	param    string
	hasParam bool
	methods  methods.Method
	value    T
	terminal bool
}

// New returns an empty Trie
func New[T any]() *Trie[T] {
	return &Trie[T]{root: &node[T]{}}
}

func (n *node[T]) child(c byte) *node[T] {
	if n.children == nil {
		n.children = make(map[byte]*node[T])
	}
	ch, ok := n.children[c]
	if !ok {
		ch = &node[T]{}
		n.children[c] = ch
	}
	return ch
}

// Insert walks or creates one node per byte of the cleaned pattern. On ':'
// the rest of the pattern (less its trailing '/') becomes the parameter name
// of the current node and the walk stops there.
func (t *Trie[T]) Insert(m methods.Method, pattern string, value T) {
	pattern = router.Clean(pattern)
	n := t.root
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == ':' {
			n.param = pattern[i+1 : len(pattern)-1]
			n.hasParam = true
			break
		}
		n = n.child(c)
	}
	if !n.terminal {
		t.size++
	}
	n.methods = m
	n.value = value
	n.terminal = true
}

// Match walks the cleaned path. A node declaring a parameter captures the
// remainder of the path, less its trailing '/', and ends the walk.
func (t *Trie[T]) Match(path string) (router.Result[T], bool) {
	path = router.Clean(path)
	n := t.root
	for i := 0; i < len(path); i++ {
		if n.hasParam {
			return result(n, path[i:len(path)-1]), true
		}
		ch, ok := n.children[path[i]]
		if !ok {
			return router.Result[T]{}, false
		}
		n = ch
	}
	return result(n, ""), true
}

func result[T any](n *node[T], param string) router.Result[T] {
	r := router.Result[T]{
		Value:    n.value,
		Methods:  n.methods,
		HasParam: n.hasParam,
		Terminal: n.terminal,
	}
	if n.hasParam {
		r.ParamKey = n.param
		r.ParamValue = param
	}
	return r
}

// Len returns the number of distinct patterns inserted
func (t *Trie[T]) Len() int {
	return t.size
}
