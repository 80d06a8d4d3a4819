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

package config

import (
	"flag"

	tlsopts "github.com/trickstercache/quay/pkg/tls/options"
)

const (
	// Command-line flags
	cfConfig      = "config"
	cfVersion     = "version"
	cfValidate    = "validate-config"
	cfLogLevel    = "log-level"
	cfPort        = "port"
	cfMetricsPort = "metrics-port"
	cfTLSCert     = "tls-cert"
	cfTLSKey      = "tls-key"
)

// Flags holds the values for whitelisted flags
type Flags struct {
	PrintVersion      bool
	ValidateConfig    bool
	customPath        bool
	ListenPort        int
	MetricsListenPort int
	ConfigPath        string
	LogLevel          string
	TLSCertPath       string
	TLSKeyPath        string
}

func parseFlags(applicationName string, arguments []string) (*Flags, error) {

	flags := &Flags{}
	flagSet := flag.NewFlagSet(applicationName, flag.ContinueOnError)

	flagSet.BoolVar(&flags.PrintVersion, cfVersion, false,
		"Prints the quay version")
	flagSet.BoolVar(&flags.ValidateConfig, cfValidate, false,
		"Validates a quay config and exits without running the server")
	flagSet.StringVar(&flags.ConfigPath, cfConfig, "",
		"Path to quay Config File")
	flagSet.StringVar(&flags.LogLevel, cfLogLevel, "",
		"Level of Logging to use (debug, info, warn, error)")
	flagSet.IntVar(&flags.ListenPort, cfPort, 0,
		"Port that the quay server will listen on")
	flagSet.IntVar(&flags.MetricsListenPort, cfMetricsPort, 0,
		"Port that the /metrics endpoint will listen on")
	flagSet.StringVar(&flags.TLSCertPath, cfTLSCert, "",
		"Path to the PEM certificate chain; enables TLS together with -tls-key")
	flagSet.StringVar(&flags.TLSKeyPath, cfTLSKey, "",
		"Path to the PEM private key")

	err := flagSet.Parse(arguments)
	if err != nil {
		return nil, err
	}
	if flags.ConfigPath != "" {
		flags.customPath = true
	} else {
		flags.ConfigPath = DefaultConfigPath
	}
	return flags, nil
}

// loadFlags loads configuration from command line flags.
func (c *Config) loadFlags(flags *Flags) {
	if flags.ListenPort > 0 {
		c.Frontend.ListenPort = flags.ListenPort
	}
	if flags.MetricsListenPort > 0 {
		c.Metrics.ListenPort = flags.MetricsListenPort
	}
	if flags.LogLevel != "" {
		c.Logging.LogLevel = flags.LogLevel
	}
	if flags.TLSCertPath != "" || flags.TLSKeyPath != "" {
		if c.Frontend.TLS == nil {
			c.Frontend.TLS = tlsopts.New()
		}
		c.Frontend.TLS.CertificatePath = flags.TLSCertPath
		c.Frontend.TLS.PrivateKeyPath = flags.TLSKeyPath
	}
}
