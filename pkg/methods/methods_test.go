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

package methods

import (
	"strconv"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		expected Method
	}{
		{"GET", Get},
		{"POST", Post},
		{"PUT", Put},
		{"HEAD", Head},
		{"DELETE", Delete},
		{"get", 0},
		{"BREW", 0},
	}
	for i, test := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if m := Parse(test.in); m != test.expected {
				t.Errorf("expected %d got %d", test.expected, m)
			}
		})
	}
}

func TestMask(t *testing.T) {
	m := Mask("GET", "POST", "BREW")
	if m != Get|Post {
		t.Errorf("expected %d got %d", Get|Post, m)
	}
	if !m.Allows(Get) || !m.Allows(Post) || m.Allows(Put) {
		t.Error("unexpected Allows result for GET|POST")
	}
}

func TestAnyAllowsAll(t *testing.T) {
	for _, b := range ordered {
		if !Any.Allows(b) {
			t.Errorf("expected Any to allow %s", b)
		}
	}
}

func TestIsSupported(t *testing.T) {
	for _, s := range []string{"GET", "HEAD", "POST", "PUT"} {
		if !IsSupported(s) {
			t.Errorf("expected %s to be supported", s)
		}
	}
	for _, s := range []string{"DELETE", "PATCH", "OPTIONS", "BREW", ""} {
		if IsSupported(s) {
			t.Errorf("expected %s to be unsupported", s)
		}
	}
}

func TestHasBody(t *testing.T) {
	if !HasBody("POST") || !HasBody("PUT") || HasBody("GET") {
		t.Error("unexpected HasBody result")
	}
}

func TestString(t *testing.T) {
	if s := (Get | Post).String(); s != "GET, POST" {
		t.Errorf("expected %s got %s", "GET, POST", s)
	}
	if s := Any.String(); s != "*" {
		t.Errorf("expected * got %s", s)
	}
}
