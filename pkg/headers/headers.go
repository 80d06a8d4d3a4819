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

// Package headers provides HTTP header names and values used by quay
package headers

import (
	"slices"
	"strings"
)

const (
	// Common HTTP Header Values

	// ValueApplicationJSON represents the HTTP Header Value of "application/json"
	ValueApplicationJSON = "application/json"
	// ValueTextPlain represents the HTTP Header Value of "text/plain; charset=utf-8"
	ValueTextPlain = "text/plain; charset=utf-8"
	// ValueTextHTML represents the HTTP Header Value of "text/html; charset=utf-8"
	ValueTextHTML = "text/html; charset=utf-8"
	// ValueOctetStream represents the HTTP Header Value of "application/octet-stream"
	ValueOctetStream = "application/octet-stream"
	// ValueXFormURLEncoded represents the HTTP Header Value of "application/x-www-form-urlencoded"
	ValueXFormURLEncoded = "application/x-www-form-urlencoded"
	// ValueKeepAlive represents the HTTP Header Value of "keep-alive"
	ValueKeepAlive = "keep-alive"
	// ValueClose represents the HTTP Header Value of "close"
	ValueClose = "close"
	// ValueUpgrade represents the HTTP Header Value of "Upgrade"
	ValueUpgrade = "Upgrade"
	// ValueWebSocket represents the HTTP Header Value of "websocket"
	ValueWebSocket = "websocket"
	// ValueChunked represents the HTTP Header Value of "chunked"
	ValueChunked = "chunked"

	// Common HTTP Header Names

	// NameAcceptEncoding represents the HTTP Header Name of "Accept-Encoding"
	NameAcceptEncoding = "Accept-Encoding"
	// NameAllow represents the HTTP Header Name of "Allow"
	NameAllow = "Allow"
	// NameAuthorization represents the HTTP Header Name of "Authorization"
	NameAuthorization = "Authorization"
	// NameConnection represents the HTTP Header Name of "Connection"
	NameConnection = "Connection"
	// NameContentEncoding represents the HTTP Header Name of "Content-Encoding"
	NameContentEncoding = "Content-Encoding"
	// NameContentLength represents the HTTP Header Name of "Content-Length"
	NameContentLength = "Content-Length"
	// NameContentType represents the HTTP Header Name of "Content-Type"
	NameContentType = "Content-Type"
	// NameCookie represents the HTTP Header Name of "Cookie"
	NameCookie = "Cookie"
	// NameHost represents the HTTP Header Name of "Host"
	NameHost = "Host"
	// NameLastModified represents the HTTP Header Name of "Last-Modified"
	NameLastModified = "Last-Modified"
	// NameLocation represents the HTTP Header Name of "Location"
	NameLocation = "Location"
	// NameSetCookie represents the HTTP Header Name of "Set-Cookie"
	NameSetCookie = "Set-Cookie"
	// NameTransferEncoding represents the HTTP Header Name of "Transfer-Encoding"
	NameTransferEncoding = "Transfer-Encoding"
	// NameUpgrade represents the HTTP Header Name of "Upgrade"
	NameUpgrade = "Upgrade"
	// NameVary represents the HTTP Header Name of "Vary"
	NameVary = "Vary"
	// NameWWWAuthenticate represents the HTTP Header Name of "WWW-Authenticate"
	NameWWWAuthenticate = "WWW-Authenticate"
	// NameSecWebSocketKey represents the HTTP Header Name of "Sec-Websocket-Key"
	NameSecWebSocketKey = "Sec-Websocket-Key"
	// NameSecWebSocketVersion represents the HTTP Header Name of "Sec-Websocket-Version"
	NameSecWebSocketVersion = "Sec-Websocket-Version"
	// NameSecWebSocketAccept represents the HTTP Header Name of "Sec-Websocket-Accept"
	NameSecWebSocketAccept = "Sec-Websocket-Accept"
)

// ContainsToken reports whether the comma-separated header value holds the
// token, compared case-insensitively
func ContainsToken(value, token string) bool {
	for v := range strings.SplitSeq(value, ",") {
		if strings.EqualFold(strings.TrimSpace(v), token) {
			return true
		}
	}
	return false
}

// MergeTokens merges two comma-separated header values into one, keeping the
// first spelling of each token and dropping empty and repeated tokens. Tokens
// are compared case-insensitively.
func MergeTokens(v1, v2 string) string {
	var out []string
	for _, v := range []string{v1, v2} {
		for t := range strings.SplitSeq(v, ",") {
			t = strings.TrimSpace(t)
			if t == "" || slices.ContainsFunc(out, func(s string) bool {
				return strings.EqualFold(s, t)
			}) {
				continue
			}
			out = append(out, t)
		}
	}
	return strings.Join(out, ", ")
}
