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

	"github.com/trickstercache/quay/pkg/errors"
)

// Options is the server TLS configuration. The certificate and key are
// provided either as file paths or as inline PEM data, never both.
type Options struct {
	// CertificatePath specifies the path of the file containing the
	// concatenated server certificate and intermediate certificates
	CertificatePath string `yaml:"certificate_path,omitempty"`
	// PrivateKeyPath specifies the path of the private key file
	PrivateKeyPath string `yaml:"private_key_path,omitempty"`
	// Certificate is inline PEM certificate data
	Certificate string `yaml:"certificate,omitempty"`
	// PrivateKey is inline PEM private key data
	PrivateKey string `yaml:"private_key,omitempty"`
	// PrivateKeyPassphrase decrypts an encrypted PEM private key
	PrivateKeyPassphrase string `yaml:"private_key_passphrase,omitempty"`
}

// New will return a *Options with the default settings
func New() *Options {
	return &Options{}
}

// Clone returns an exact copy of the subject *Options
func (o *Options) Clone() *Options {
	c := *o
	return &c
}

// Equal returns true if all exposed option members are equal
func (o *Options) Equal(o2 *Options) bool {
	return *o == *o2
}

// FromPaths reports whether any file path is configured
func (o *Options) FromPaths() bool {
	return o.CertificatePath != "" || o.PrivateKeyPath != ""
}

// Inline reports whether any inline PEM data is configured
func (o *Options) Inline() bool {
	return o.Certificate != "" || o.PrivateKey != ""
}

// Enabled reports whether TLS is configured at all
func (o *Options) Enabled() bool {
	return o != nil && (o.FromPaths() || o.Inline())
}

// Validate checks that exactly one source is used, and that it provides
// both a certificate and a key
func (o *Options) Validate() error {
	switch {
	case !o.Enabled():
		return nil
	case o.FromPaths() && o.Inline():
		return errors.ErrTLSSourceConflict
	case o.FromPaths() && (o.CertificatePath == "" || o.PrivateKeyPath == ""):
		return fmt.Errorf("%w: both certificate_path and private_key_path are required",
			errors.ErrTLSIncomplete)
	case o.Inline() && (o.Certificate == "" || o.PrivateKey == ""):
		return fmt.Errorf("%w: both certificate and private_key are required",
			errors.ErrTLSIncomplete)
	}
	return nil
}
