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

package server

import (
	"context"
	"net/http"

	"github.com/trickstercache/quay/pkg/encoding"
	"github.com/trickstercache/quay/pkg/headers"
	"github.com/trickstercache/quay/pkg/observability/logging"
	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// compress encodes the body of res with the best encoding that both the
// client and the options accept. Bodies under CompressionMinSize, bodies
// that already carry a Content-Encoding and statuses without a body are
// left alone.
func (s *Server) compress(ctx context.Context, req *request.Request, res *response.Response) {
	enabled := s.options.Providers()
	if enabled == encoding.Identity || len(res.Body) == 0 ||
		len(res.Body) < s.options.CompressionMinSize ||
		res.Status < http.StatusOK || res.Status == http.StatusNoContent ||
		res.Status == http.StatusNotModified ||
		res.Header(headers.NameContentEncoding) != "" {
		return
	}
	res.SetHeader(headers.NameVary,
		headers.MergeTokens(res.Header(headers.NameVary), headers.NameAcceptEncoding))
	p := encoding.Negotiate(req.Header(headers.NameAcceptEncoding), enabled)
	if p == encoding.Identity {
		return
	}
	b, err := encoding.Encode(p, res.Body, s.options.CompressionLevel)
	if err != nil {
		s.logger.Warn("response compression failed", logging.Pairs{
			"encoding": p.String(),
			"detail":   err.Error(),
		})
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("http.response.encoding", p.String()))
	res.Body = b
	res.SetHeader(headers.NameContentEncoding, p.String())
}
