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

// Package tls builds the server *tls.Config from certificate and key material
// supplied by path or inline
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/tls/options"
)

// Config returns the server TLS configuration for o, or nil when TLS is not
// configured. Key material read into memory is zeroed once parsed.
func Config(o *options.Options) (*tls.Config, error) {
	if !o.Enabled() {
		return nil, nil
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	certPEM, keyPEM, err := load(o)
	if err != nil {
		return nil, err
	}
	defer clear(keyPEM)
	if o.PrivateKeyPassphrase != "" {
		decrypted, err := decryptKey(keyPEM, []byte(o.PrivateKeyPassphrase))
		if err != nil {
			return nil, err
		}
		defer clear(decrypted)
		keyPEM = decrypted
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("loading tls key pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"http/1.1"},
	}, nil
}

func load(o *options.Options) ([]byte, []byte, error) {
	if o.Inline() {
		return []byte(o.Certificate), []byte(o.PrivateKey), nil
	}
	certPEM, err := os.ReadFile(o.CertificatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading tls certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(o.PrivateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading tls private key: %w", err)
	}
	return certPEM, keyPEM, nil
}

// decryptKey decrypts a legacy RFC 1423 encrypted PEM key. Unencrypted keys
// are returned as a copy.
func decryptKey(keyPEM, passphrase []byte) ([]byte, error) {
	defer clear(passphrase)
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errors.ErrNoPEMData
	}
	//lint:ignore SA1019 legacy encrypted PEM keys are still issued by common tooling
	if !x509.IsEncryptedPEMBlock(block) {
		return append([]byte{}, keyPEM...), nil
	}
	//lint:ignore SA1019 see above
	der, err := x509.DecryptPEMBlock(block, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypting tls private key: %w", err)
	}
	defer clear(der)
	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}
