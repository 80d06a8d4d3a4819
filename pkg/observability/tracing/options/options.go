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

package options

import (
	"fmt"
	"maps"

	"github.com/trickstercache/quay/pkg/errors"
)

const (
	// ProviderNone disables tracing
	ProviderNone = "none"
	// ProviderStdout writes finished spans as JSON to stdout
	ProviderStdout = "stdout"

	// DefaultTracerProvider is the default tracing provider
	DefaultTracerProvider = ProviderNone
	// DefaultTracerServiceName is the default service.name resource attribute
	DefaultTracerServiceName = "quay"
	// DefaultSampleRate samples every request
	DefaultSampleRate = 1.0
)

// Options is a Tracing Options collection
type Options struct {
	Provider    string            `yaml:"provider,omitempty"`
	ServiceName string            `yaml:"service_name,omitempty"`
	SampleRate  float64           `yaml:"sample_rate"`
	PrettyPrint bool              `yaml:"pretty_print,omitempty"`
	Tags        map[string]string `yaml:"tags,omitempty"`
}

// New returns a new *Options with the default values
func New() *Options {
	return &Options{
		Provider:    DefaultTracerProvider,
		ServiceName: DefaultTracerServiceName,
		SampleRate:  DefaultSampleRate,
	}
}

// Clone returns an exact copy of a tracing config
func (o *Options) Clone() *Options {
	return &Options{
		Provider:    o.Provider,
		ServiceName: o.ServiceName,
		SampleRate:  o.SampleRate,
		PrettyPrint: o.PrettyPrint,
		Tags:        maps.Clone(o.Tags),
	}
}

// Validate checks the provider name and the sample rate range
func (o *Options) Validate() error {
	if o.Provider == "" {
		o.Provider = DefaultTracerProvider
	}
	if o.ServiceName == "" {
		o.ServiceName = DefaultTracerServiceName
	}
	switch o.Provider {
	case ProviderNone, ProviderStdout:
	default:
		return fmt.Errorf("%w: %q", errors.ErrInvalidTracingProvider, o.Provider)
	}
	if o.SampleRate < 0 || o.SampleRate > 1 {
		return fmt.Errorf("%w: sample_rate %v must be within [0, 1]",
			errors.ErrInvalidOptions, o.SampleRate)
	}
	return nil
}
