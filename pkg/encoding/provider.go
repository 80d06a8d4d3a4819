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

// Package encoding negotiates and applies response Content-Encoding
package encoding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trickstercache/quay/pkg/errors"
)

// Provider is a bitmap of content encoders
type Provider byte

const (
	Zstandard Provider = 1 << iota
	Brotli             // 2
	GZip               // 4
	Deflate            // 8
	Identity  Provider = 0
	// browsers do not decode snappy, so it is only selected for clients that
	// name it explicitly
	Snappy Provider = 128

	// for use in headers
	ZstandardValue = "zstd"
	BrotliValue    = "br"
	GZipValue      = "gzip"
	DeflateValue   = "deflate"
	SnappyValue    = "snappy"
	// accepted in configs
	ZstandardAltValue = "zstandard"
	BrotliAltValue    = "brotli"
)

// preference is the order in which a negotiated bitmap is resolved to a
// single encoder
var preference = []Provider{Zstandard, Brotli, GZip, Deflate, Snappy}

var names = map[Provider]string{
	Zstandard: ZstandardValue,
	Brotli:    BrotliValue,
	GZip:      GZipValue,
	Deflate:   DeflateValue,
	Snappy:    SnappyValue,
}

var lookup = map[string]Provider{
	ZstandardValue:    Zstandard,
	ZstandardAltValue: Zstandard,
	BrotliValue:       Brotli,
	BrotliAltValue:    Brotli,
	GZipValue:         GZip,
	DeflateValue:      Deflate,
	SnappyValue:       Snappy,
}

// All is the bitmap of every supported Provider
const All = Zstandard | Brotli | GZip | Deflate | Snappy

func (p Provider) String() string {
	if v, ok := names[p]; ok {
		return v
	}
	if p == Identity {
		return "identity"
	}
	return strconv.Itoa(int(p))
}

// ProviderID returns the Provider for an encoding name, or 0 if unknown
func ProviderID(name string) Provider {
	return lookup[strings.ToLower(strings.TrimSpace(name))]
}

// ParseList returns the bitmap of the named providers
func ParseList(list []string) (Provider, error) {
	var p Provider
	for _, name := range list {
		id := ProviderID(name)
		if id == 0 {
			return 0, fmt.Errorf("%w: unknown compression provider %q",
				errors.ErrInvalidOptions, name)
		}
		p |= id
	}
	return p, nil
}

// Negotiate selects the single Provider to apply from the client's
// Accept-Encoding value, restricted to the enabled bitmap. Codings listed with
// q=0 are refused. Identity is returned when nothing is acceptable.
func Negotiate(acceptEncoding string, enabled Provider) Provider {
	if acceptEncoding == "" || enabled == 0 {
		return Identity
	}
	var accepted Provider
	for part := range strings.SplitSeq(acceptEncoding, ",") {
		name, params, _ := strings.Cut(part, ";")
		name = strings.TrimSpace(name)
		if refused(params) {
			continue
		}
		if name == "*" {
			accepted |= All &^ Snappy
			continue
		}
		accepted |= ProviderID(name)
	}
	accepted &= enabled
	for _, p := range preference {
		if accepted&p != 0 {
			return p
		}
	}
	return Identity
}

func refused(params string) bool {
	for param := range strings.SplitSeq(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil && q == 0
	}
	return false
}
