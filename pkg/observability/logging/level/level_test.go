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

package level

import (
	"strconv"
	"testing"
)

func TestGetID(t *testing.T) {
	tests := []struct {
		in       Level
		expected ID
	}{
		{Debug, DebugID},
		{"INFO", InfoID},
		{"warning", WarnID},
		{Warn, WarnID},
		{Error, ErrorID},
		{Fatal, FatalID},
		{"trace", 0},
	}
	for i, test := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if id := GetID(test.in); id != test.expected {
				t.Errorf("expected %d got %d", test.expected, id)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if l, ok := Normalize("WARNING"); !ok || l != Warn {
		t.Errorf("expected %s got %s", Warn, l)
	}
	if _, ok := Normalize("verbose"); ok {
		t.Error("expected unknown level")
	}
}
