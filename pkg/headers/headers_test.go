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

package headers

import (
	"strconv"
	"testing"
)

func TestContainsToken(t *testing.T) {
	tests := []struct {
		value, token string
		expected     bool
	}{
		{"keep-alive, Upgrade", "upgrade", true},
		{"Upgrade", "Upgrade", true},
		{"keep-alive", "Upgrade", false},
		{"", "Upgrade", false},
		{"Upgraded", "Upgrade", false},
	}
	for i, test := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if v := ContainsToken(test.value, test.token); v != test.expected {
				t.Errorf("expected %t got %t", test.expected, v)
			}
		})
	}
}

func TestMergeTokens(t *testing.T) {
	tests := []struct {
		v1, v2, expected string
	}{
		{"", "Accept-Encoding", "Accept-Encoding"},
		{"Origin", "Accept-Encoding", "Origin, Accept-Encoding"},
		{"accept-encoding,Origin", "Accept-Encoding", "accept-encoding, Origin"},
		{"zstd, gzip,deflate, gzip", "br,gzip, deflate", "zstd, gzip, deflate, br"},
		{" , ", "", ""},
	}
	for i, test := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if got := MergeTokens(test.v1, test.v2); got != test.expected {
				t.Errorf("expected %q got %q", test.expected, got)
			}
		})
	}
}
