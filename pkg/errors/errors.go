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

// Package errors holds the sentinel errors shared across quay packages
package errors

import "errors"

// ErrUnsupportedMethod is an error for a request whose method is well-formed
// but not served
var ErrUnsupportedMethod = errors.New("unsupported method")

// ErrMalformedRequest is an error for request bytes that do not parse as
// an HTTP/1.x request
var ErrMalformedRequest = errors.New("malformed request")

// ErrRequestTooLarge is an error for a request that did not complete within
// the configured maximum request size
var ErrRequestTooLarge = errors.New("request exceeds max request size")

// ErrConnectionClosedEarly is an error for a peer that closed the connection
// before a complete request was read
var ErrConnectionClosedEarly = errors.New("connection closed early")

// ErrUnsupportedShape is an error for a handler whose signature is not one
// of the dispatchable shapes
var ErrUnsupportedShape = errors.New("unsupported handler signature")

// ErrNilHandler is an error for a nil handler passed at registration
var ErrNilHandler = errors.New("nil handler")

// ErrServerSailing is an error for a registration attempted after the server
// started serving
var ErrServerSailing = errors.New("server is already serving; routes are frozen")

// ErrServerClosed is returned by Serve after Shutdown has been called
var ErrServerClosed = errors.New("server closed")

// ErrInvalidOptions is an error for when a configuration is invalid
var ErrInvalidOptions = errors.New("invalid options")

// ErrBufferExceedsMax is an error for a buffering size larger than the
// max request size
var ErrBufferExceedsMax = errors.New("buffering_size must not exceed max_request_size")

// ErrTLSSourceConflict is an error for TLS material supplied both inline and
// by file path
var ErrTLSSourceConflict = errors.New("tls certificate and key must be provided either inline or by path, not both")

// ErrTLSIncomplete is an error for a TLS config with only one of the
// certificate or key
var ErrTLSIncomplete = errors.New("tls requires both a certificate and a private key")

// ErrNoPEMData is an error for TLS material that contains no PEM block
var ErrNoPEMData = errors.New("no PEM data found")

// ErrNotUpgradable is an error for a request that is not a valid websocket
// upgrade request
var ErrNotUpgradable = errors.New("request is not a websocket upgrade")

// ErrUpgradeRequired is an error for a websocket operation on a socket that
// has not been upgraded
var ErrUpgradeRequired = errors.New("socket has not been upgraded")

// ErrFrameTooLarge is an error for a websocket frame whose payload exceeds the
// configured limit
var ErrFrameTooLarge = errors.New("websocket frame exceeds limit")

// ErrProtocolViolation is an error for a websocket frame that breaks RFC 6455
// framing rules
var ErrProtocolViolation = errors.New("websocket protocol violation")

// ErrInvalidLogLevel is an error for an unknown log level name
var ErrInvalidLogLevel = errors.New("invalid log level")

// ErrInvalidTracingProvider is an error for an unknown tracing provider name
var ErrInvalidTracingProvider = errors.New("invalid tracing provider")

// ErrServerAlreadyStarted is an error for a daemon started more than once
var ErrServerAlreadyStarted = errors.New("the server is already started")
