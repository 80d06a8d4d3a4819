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

// Package response provides the Response built by handlers and its HTTP/1.1
// wire serialization
package response

import (
	"encoding/json"
	"net/http"
	"net/textproto"

	"golang.org/x/net/http/httpguts"

	"github.com/trickstercache/quay/pkg/headers"
)

// Response is the reply sent for a request. A nil Body sends no body.
type Response struct {
	Status  int
	Headers map[string]string
	Cookies []*http.Cookie
	Body    []byte
}

// New returns the per-request default Response: 500 with no body, so that a
// request no handler answered is reported as a server fault
func New() *Response {
	return &Response{
		Status:  http.StatusInternalServerError,
		Headers: make(map[string]string),
	}
}

// Status returns a Response with only a status code
func Status(code int) Response {
	return Response{Status: code, Headers: make(map[string]string)}
}

// Text returns a text/plain Response
func Text(code int, body string) Response {
	r := Status(code)
	r.SetBody(headers.ValueTextPlain, []byte(body))
	return r
}

// HTML returns a text/html Response
func HTML(code int, body string) Response {
	r := Status(code)
	r.SetBody(headers.ValueTextHTML, []byte(body))
	return r
}

// JSON returns an application/json Response of v. When v cannot be
// marshaled the Response is a 500 with the error text.
func JSON(code int, v any) Response {
	r := Status(code)
	if err := r.SetJSON(code, v); err != nil {
		return Text(http.StatusInternalServerError, err.Error())
	}
	return r
}

// Redirect returns a 302 Found Response to location. An invalid location
// leaves the Response without a Location header.
func Redirect(location string) Response {
	r := Status(http.StatusFound)
	r.SetHeader(headers.NameLocation, location)
	return r
}

// SetStatus sets the status code
func (r *Response) SetStatus(code int) *Response {
	r.Status = code
	return r
}

// SetHeader sets the named header, canonicalizing the name. A name or value
// that is not a valid HTTP field, such as one holding CR or LF, is ignored.
func (r *Response) SetHeader(name, value string) *Response {
	if !validField(name, value) {
		return r
	}
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[textproto.CanonicalMIMEHeaderKey(name)] = value
	return r
}

// Header returns the named header value
func (r *Response) Header(name string) string {
	return r.Headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// DelHeader removes the named header
func (r *Response) DelHeader(name string) *Response {
	delete(r.Headers, textproto.CanonicalMIMEHeaderKey(name))
	return r
}

// SetCookie appends a cookie, replacing any existing cookie of the same name
func (r *Response) SetCookie(c *http.Cookie) *Response {
	for i, v := range r.Cookies {
		if v.Name == c.Name {
			r.Cookies[i] = c
			return r
		}
	}
	r.Cookies = append(r.Cookies, c)
	return r
}

// SetBody sets the body and its Content-Type
func (r *Response) SetBody(contentType string, body []byte) *Response {
	if contentType != "" {
		r.SetHeader(headers.NameContentType, contentType)
	}
	if body == nil {
		body = []byte{}
	}
	r.Body = body
	return r
}

// SetText sets the status and a text/plain body
func (r *Response) SetText(code int, body string) *Response {
	r.Status = code
	return r.SetBody(headers.ValueTextPlain, []byte(body))
}

// SetHTML sets the status and a text/html body
func (r *Response) SetHTML(code int, body string) *Response {
	r.Status = code
	return r.SetBody(headers.ValueTextHTML, []byte(body))
}

// SetJSON sets the status and an application/json body of v
func (r *Response) SetJSON(code int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.Status = code
	r.SetBody(headers.ValueApplicationJSON, b)
	return nil
}

// Redirect sets a 302 Found to location
func (r *Response) Redirect(location string) *Response {
	r.Status = http.StatusFound
	return r.SetHeader(headers.NameLocation, location)
}

// Clone returns a deep copy of the Response
func (r *Response) Clone() *Response {
	out := &Response{
		Status:  r.Status,
		Headers: make(map[string]string, len(r.Headers)),
	}
	for k, v := range r.Headers {
		out.Headers[k] = v
	}
	if r.Cookies != nil {
		out.Cookies = make([]*http.Cookie, len(r.Cookies))
		for i, c := range r.Cookies {
			cc := *c
			out.Cookies[i] = &cc
		}
	}
	if r.Body != nil {
		out.Body = append([]byte{}, r.Body...)
	}
	return out
}

func validField(name, value string) bool {
	return httpguts.ValidHeaderFieldName(name) &&
		httpguts.ValidHeaderFieldValue(value)
}
