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

package request

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/headers"
	"github.com/trickstercache/quay/pkg/methods"
)

var headerTerminator = []byte("\r\n\r\n")

// Parse decodes one HTTP/1.x request from data. Errors wrap
// errors.ErrMalformedRequest or errors.ErrUnsupportedMethod.
func Parse(data []byte) (*Request, error) {
	hr, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrMalformedRequest, err)
	}
	if hr.ProtoMajor != 1 {
		return nil, fmt.Errorf("%w: unsupported protocol %s",
			errors.ErrMalformedRequest, hr.Proto)
	}
	if !methods.IsSupported(hr.Method) {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedMethod, hr.Method)
	}
	path := hr.URL.EscapedPath()
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", errors.ErrMalformedRequest)
	}
	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrMalformedRequest, err)
	}
	r := &Request{
		Method:  hr.Method,
		Path:    path,
		Query:   hr.URL.Query(),
		Proto:   hr.Proto,
		Headers: make(map[string]string, len(hr.Header)+1),
		Body:    body,
	}
	for k, v := range hr.Header {
		r.Headers[k] = strings.Join(v, ", ")
	}
	if hr.Host != "" {
		r.Headers[headers.NameHost] = hr.Host
	}
	if methods.HasBody(r.Method) && len(body) > 0 {
		ct, _, _ := mime.ParseMediaType(r.Headers[headers.NameContentType])
		if ct == headers.ValueXFormURLEncoded {
			r.Forms, err = parseForms(body)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errors.ErrMalformedRequest, err)
			}
		}
	}
	return r, nil
}

func parseForms(body []byte) (map[string]string, error) {
	vals, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(vals))
	for k, v := range vals {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}

// Complete reports whether data holds a full request: the header block is
// terminated and the body is as long as Content-Length declares, or a chunked
// body has reached its last chunk. An unreadable Content-Length is reported
// complete so that Parse can reject it.
func Complete(data []byte) bool {
	i := bytes.Index(data, headerTerminator)
	if i < 0 {
		return false
	}
	head, body := data[:i], data[i+len(headerTerminator):]
	var contentLength string
	var chunked bool
	for line := range bytes.SplitSeq(head, []byte("\r\n")) {
		name, value, ok := bytes.Cut(line, []byte(":"))
		if !ok {
			continue
		}
		name = bytes.TrimSpace(name)
		switch {
		case bytes.EqualFold(name, []byte(headers.NameContentLength)):
			contentLength = string(bytes.TrimSpace(value))
		case bytes.EqualFold(name, []byte(headers.NameTransferEncoding)):
			chunked = headers.ContainsToken(string(value), headers.ValueChunked)
		}
	}
	if chunked {
		return bytes.HasPrefix(body, []byte("0\r\n\r\n")) ||
			bytes.Contains(body, []byte("\r\n0\r\n\r\n"))
	}
	if contentLength == "" {
		return true
	}
	n, err := strconv.Atoi(contentLength)
	if err != nil || n < 0 {
		return true
	}
	return len(body) >= n
}
