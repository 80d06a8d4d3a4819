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

// Package request provides the parsed client request handed to handlers
package request

import (
	"encoding/json"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/trickstercache/quay/pkg/headers"
	"github.com/trickstercache/quay/pkg/socket"
)

// Param is the route parameter captured for the request
type Param struct {
	Key   string
	Value string
}

// Request is a single parsed HTTP/1.x request. Header keys are stored in
// canonical MIME form; repeated headers are joined with ", ".
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Proto   string
	Headers map[string]string
	Body    []byte
	// Forms holds the decoded urlencoded body of POST, PUT and PATCH requests
	Forms map[string]string
	// Route is set when the matched route declares a parameter
	Route *Param
	// Socket is the connection the request arrived on
	Socket socket.Socket
}

// Header returns the value of the named header
func (r *Request) Header(name string) string {
	return r.Headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// HasHeader reports whether the named header is present
func (r *Request) HasHeader(name string) bool {
	_, ok := r.Headers[textproto.CanonicalMIMEHeaderKey(name)]
	return ok
}

// Param returns the captured route parameter value, or "" when there is none
func (r *Request) Param() string {
	if r.Route == nil {
		return ""
	}
	return r.Route.Value
}

// Form returns the form value for key
func (r *Request) Form(key string) string {
	return r.Forms[key]
}

// Text returns the body as a string
func (r *Request) Text() string {
	return string(r.Body)
}

// DecodeJSON unmarshals the body into v
func (r *Request) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Cookies parses the Cookie header. Malformed headers yield no cookies.
func (r *Request) Cookies() []*http.Cookie {
	v, ok := r.Headers[headers.NameCookie]
	if !ok || v == "" {
		return nil
	}
	cookies, err := http.ParseCookie(v)
	if err != nil {
		return nil
	}
	return cookies
}

// Cookie returns the value of the named cookie
func (r *Request) Cookie(name string) (string, bool) {
	for _, c := range r.Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// RemoteAddr returns the address of the client, or "" without a socket
func (r *Request) RemoteAddr() string {
	if r.Socket == nil {
		return ""
	}
	return r.Socket.Address()
}
