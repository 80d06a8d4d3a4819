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

package router

import (
	"strconv"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"", "/"},
		{"/", "/"},
		{"a", "/a/"},
		{"/a", "/a/"},
		{"a/", "/a/"},
		{"/a/b/", "/a/b/"},
		{"/users/:id", "/users/:id/"},
	}
	for i, test := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			out := Clean(test.in)
			if out != test.expected {
				t.Errorf("expected %s got %s", test.expected, out)
			}
			if again := Clean(out); again != out {
				t.Errorf("expected idempotent result %s got %s", out, again)
			}
		})
	}
}
