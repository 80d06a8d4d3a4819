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

// Package options holds the configuration of a quay server listener
package options

import (
	"fmt"
	"slices"
	"time"

	"github.com/trickstercache/quay/pkg/encoding"
	"github.com/trickstercache/quay/pkg/errors"
	tlsopts "github.com/trickstercache/quay/pkg/tls/options"
)

const (
	// DefaultListenAddress is the default address the server binds to
	DefaultListenAddress = ""
	// DefaultListenPort is the default port the server listens on
	DefaultListenPort = 8080
	// DefaultMaxRequestSize is the default upper bound, in bytes, of a request
	DefaultMaxRequestSize = 8192
	// DefaultBufferingSize is the default initial read buffer size in bytes
	DefaultBufferingSize = 4096
	// DefaultCompressionMinSize is the smallest body that will be compressed
	DefaultCompressionMinSize = 256
	// DefaultCompressionLevel asks each encoder for its own default level
	DefaultCompressionLevel = -1
)

// DefaultCompression lists the encodings offered when none are configured
var DefaultCompression = []string{"zstd", "br", "gzip", "deflate"}

// Options is the configuration of a server listener
type Options struct {
	// ListenAddress is the IP address the server binds to
	ListenAddress string `yaml:"listen_address,omitempty"`
	// ListenPort is the TCP port the server listens on; 0 picks a free port
	ListenPort int `yaml:"listen_port,omitempty"`
	// ConnectionsLimit caps concurrently served connections; 0 is unlimited
	ConnectionsLimit int `yaml:"connections_limit,omitempty"`
	// MaxRequestSize is the largest request, in bytes, the server will read
	MaxRequestSize int `yaml:"max_request_size,omitempty"`
	// BufferingSize is the initial size of the read buffer
	BufferingSize int `yaml:"buffering_size,omitempty"`
	// ReadTimeout bounds the time spent reading a request; 0 disables it
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty"`
	// Compression lists the content encodings the server may apply
	Compression []string `yaml:"compression,omitempty"`
	// CompressionMinSize is the smallest body length that gets compressed
	CompressionMinSize int `yaml:"compression_min_size,omitempty"`
	// CompressionLevel is passed to the encoders; -1 uses their defaults
	CompressionLevel int `yaml:"compression_level,omitempty"`
	// TLS is the certificate configuration; TLS is served when it is enabled
	TLS *tlsopts.Options `yaml:"tls,omitempty"`

	providers encoding.Provider
}

// New returns a new Options with default values
func New() *Options {
	return &Options{
		ListenAddress:      DefaultListenAddress,
		ListenPort:         DefaultListenPort,
		MaxRequestSize:     DefaultMaxRequestSize,
		BufferingSize:      DefaultBufferingSize,
		Compression:        slices.Clone(DefaultCompression),
		CompressionMinSize: DefaultCompressionMinSize,
		CompressionLevel:   DefaultCompressionLevel,
		TLS:                tlsopts.New(),
		providers:          encoding.Zstandard | encoding.Brotli | encoding.GZip | encoding.Deflate,
	}
}

// Clone returns an exact copy of the Options
func (o *Options) Clone() *Options {
	c := *o
	c.Compression = slices.Clone(o.Compression)
	if o.TLS != nil {
		c.TLS = o.TLS.Clone()
	}
	return &c
}

// Providers returns the set of encodings resolved by Validate
func (o *Options) Providers() encoding.Provider {
	return o.providers
}

// Validate checks the sizes, the port range, the compression list and the
// TLS sources, and resolves the compression providers
func (o *Options) Validate() error {
	if o.ListenPort < 0 || o.ListenPort > 65535 {
		return fmt.Errorf("%w: listen_port %d", errors.ErrInvalidOptions, o.ListenPort)
	}
	if o.ConnectionsLimit < 0 {
		return fmt.Errorf("%w: connections_limit %d", errors.ErrInvalidOptions, o.ConnectionsLimit)
	}
	if o.MaxRequestSize <= 0 {
		return fmt.Errorf("%w: max_request_size %d", errors.ErrInvalidOptions, o.MaxRequestSize)
	}
	if o.BufferingSize <= 0 {
		return fmt.Errorf("%w: buffering_size %d", errors.ErrInvalidOptions, o.BufferingSize)
	}
	if o.BufferingSize > o.MaxRequestSize {
		return fmt.Errorf("%w: %d > %d", errors.ErrBufferExceedsMax,
			o.BufferingSize, o.MaxRequestSize)
	}
	if o.ReadTimeout < 0 {
		return fmt.Errorf("%w: read_timeout %s", errors.ErrInvalidOptions, o.ReadTimeout)
	}
	if o.CompressionMinSize < 0 {
		return fmt.Errorf("%w: compression_min_size %d", errors.ErrInvalidOptions,
			o.CompressionMinSize)
	}
	p, err := encoding.ParseList(o.Compression)
	if err != nil {
		return err
	}
	o.providers = p
	if o.TLS != nil {
		return o.TLS.Validate()
	}
	return nil
}
