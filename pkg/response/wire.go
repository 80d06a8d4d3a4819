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

package response

import (
	"bytes"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/trickstercache/quay/pkg/headers"
)

const crlf = "\r\n"

// bodyless reports whether the status forbids a message body and a
// Content-Length header
func bodyless(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent ||
		code == http.StatusNotModified
}

// Bytes serializes the Response as an HTTP/1.1 message. Headers are written
// in sorted order, skipping invalid fields, followed by one Set-Cookie line
// per cookie. Connection
// defaults to keep-alive and Content-Length is always computed from Body.
func (r *Response) Bytes() []byte {
	return r.serialize(true)
}

// HeadBytes serializes the Response as Bytes does but omits the body, as a
// reply to HEAD. Content-Length still reports the length of Body.
func (r *Response) HeadBytes() []byte {
	return r.serialize(false)
}

func (r *Response) serialize(withBody bool) []byte {
	var b bytes.Buffer
	b.Grow(128 + len(r.Body))
	reason := http.StatusText(r.Status)
	b.WriteString("HTTP/1.1 " + strconv.Itoa(r.Status))
	if reason != "" {
		b.WriteString(" " + reason)
	}
	b.WriteString(crlf)
	for _, k := range slices.Sorted(maps.Keys(r.Headers)) {
		// entries set directly on the map bypass SetHeader
		if k == headers.NameContentLength || !validField(k, r.Headers[k]) {
			continue
		}
		b.WriteString(k + ": " + r.Headers[k] + crlf)
	}
	for _, c := range r.Cookies {
		if s := c.String(); s != "" {
			b.WriteString(headers.NameSetCookie + ": " + s + crlf)
		}
	}
	if _, ok := r.Headers[headers.NameConnection]; !ok {
		b.WriteString(headers.NameConnection + ": " + headers.ValueKeepAlive + crlf)
	}
	if !bodyless(r.Status) {
		b.WriteString(headers.NameContentLength + ": " +
			strconv.Itoa(len(r.Body)) + crlf)
	}
	b.WriteString(crlf)
	if withBody && !bodyless(r.Status) {
		b.Write(r.Body)
	}
	return b.Bytes()
}

// WriteTo writes the serialized Response to w
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}
