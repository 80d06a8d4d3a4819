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

// Package config provides quay configuration abilities, including parsing
// and printing configuration files, command line parameters, and environment
// variables, as well as default values
package config

import (
	"errors"

	"gopkg.in/yaml.v3"

	lo "github.com/trickstercache/quay/pkg/observability/logging/options"
	mo "github.com/trickstercache/quay/pkg/observability/metrics/options"
	to "github.com/trickstercache/quay/pkg/observability/tracing/options"
	so "github.com/trickstercache/quay/pkg/server/options"
)

// DefaultConfigPath is the file loaded when no -config flag is provided
const DefaultConfigPath = "/etc/quay/quay.yaml"

const redacted = "*****"

// Config is the main configuration object
type Config struct {
	// Frontend configures the quay server listener
	Frontend *so.Options `yaml:"frontend,omitempty"`
	// Logging provides configurations that affect logging behavior
	Logging *lo.Options `yaml:"logging,omitempty"`
	// Metrics provides configurations for collecting Metrics about the application
	Metrics *mo.Options `yaml:"metrics,omitempty"`
	// Tracing provides the distributed tracing configuration
	Tracing *to.Options `yaml:"tracing,omitempty"`

	// Flags holds the parsed command line flags
	Flags *Flags `yaml:"-"`
	// LoaderWarnings holds non-fatal issues found while loading
	LoaderWarnings []string `yaml:"-"`
}

// NewConfig returns a Config initialized with default values.
func NewConfig() *Config {
	return &Config{
		Frontend: so.New(),
		Logging:  lo.New(),
		Metrics:  mo.New(),
		Tracing:  to.New(),
	}
}

// Clone returns an exact copy of the subject *Config
func (c *Config) Clone() *Config {
	nc := &Config{}
	if c.Frontend != nil {
		nc.Frontend = c.Frontend.Clone()
	}
	if c.Logging != nil {
		nc.Logging = c.Logging.Clone()
	}
	if c.Metrics != nil {
		nc.Metrics = c.Metrics.Clone()
	}
	if c.Tracing != nil {
		nc.Tracing = c.Tracing.Clone()
	}
	if c.Flags != nil {
		f := *c.Flags
		nc.Flags = &f
	}
	if len(c.LoaderWarnings) > 0 {
		nc.LoaderWarnings = append([]string(nil), c.LoaderWarnings...)
	}
	return nc
}

// Validate fills in any missing sections with defaults and validates each
// one, returning all of the failures joined together
func (c *Config) Validate() error {
	if c.Frontend == nil {
		c.Frontend = so.New()
	}
	if c.Logging == nil {
		c.Logging = lo.New()
	}
	if c.Metrics == nil {
		c.Metrics = mo.New()
	}
	if c.Tracing == nil {
		c.Tracing = to.New()
	}
	return errors.Join(
		c.Frontend.Validate(),
		c.Logging.Validate(),
		c.Metrics.Validate(),
		c.Tracing.Validate(),
	)
}

// String returns the config as YAML, with TLS secrets redacted
func (c *Config) String() string {
	cp := c.Clone()
	if cp.Frontend != nil && cp.Frontend.TLS != nil {
		t := cp.Frontend.TLS
		if t.PrivateKey != "" {
			t.PrivateKey = redacted
		}
		if t.PrivateKeyPassphrase != "" {
			t.PrivateKeyPassphrase = redacted
		}
	}
	b, err := yaml.Marshal(cp)
	if err != nil {
		return ""
	}
	return string(b)
}
